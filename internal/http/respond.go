package http

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gradnet/internal/domain"
)

// pageFromQuery lee page y limit; valores invalidos caen a los defaults.
func pageFromQuery(c *gin.Context) domain.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(domain.DefaultPageLimit)))
	return domain.NewPage(number, limit)
}

// parseID normaliza un id de ruta o cuerpo; las columnas id son UUID.
func parseID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func pageResponse[T any](items []T, page domain.Page, total int) gin.H {
	if items == nil {
		items = []T{}
	}
	return gin.H{
		"items": items,
		"page":  page.Number,
		"limit": page.Limit,
		"total": total,
	}
}
