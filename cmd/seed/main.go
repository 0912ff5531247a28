package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"gradnet/internal/config"
	"gradnet/internal/db"
	"gradnet/internal/domain"
	"gradnet/internal/repository"
	"gradnet/internal/service"
)

// seed da de alta miembros del directorio. Los campos que no vienen por flag se piden por consola.
func main() {
	var (
		usn        = flag.String("usn", "", "university serial number")
		name       = flag.String("name", "", "full name")
		emailAddr  = flag.String("email", "", "institutional email")
		role       = flag.String("role", string(domain.RoleCurrentStudent), "current_student | alumni | faculty | admin")
		department = flag.String("department", "", "department")
		gradYear   = flag.Int("grad-year", 0, "graduation year")
		password   = flag.String("password", "", "optional password, stored as bcrypt hash")
		migrate    = flag.Bool("migrate", true, "apply migrations before inserting")
	)
	flag.Parse()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	if *migrate {
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatal(err)
		}
	}

	input := service.CreateUserInput{
		USN:        prompt(reader, "USN", *usn),
		Name:       prompt(reader, "Name", *name),
		Email:      prompt(reader, "Email", *emailAddr),
		Role:       domain.Role(strings.ToLower(*role)),
		Department: *department,
		Password:   *password,
	}
	if *gradYear > 0 {
		input.GraduationYear = gradYear
	}

	userSvc := service.NewUserService(logger, repository.NewPgUserRepository(pool))
	user, err := userSvc.CreateUser(ctx, input)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			fmt.Fprintf(os.Stderr, "a user with usn %s or email %s already exists\n", input.USN, input.Email)
			os.Exit(1)
		}
		log.Fatal(err)
	}
	fmt.Printf("created %s (%s) id=%s\n", user.USN, user.Email, user.ID)
}

func prompt(reader *bufio.Reader, label, value string) string {
	for strings.TrimSpace(value) == "" {
		fmt.Printf("%s: ", label)
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Fatalf("reading %s: %v", strings.ToLower(label), err)
		}
		value = strings.TrimSpace(line)
	}
	return strings.TrimSpace(value)
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: seed -usn 1RV20CS001 -name %s -email a@campus.edu [flags]\n", strconv.Quote("Asha Rao"))
		flag.PrintDefaults()
	}
}
