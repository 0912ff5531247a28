package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"
)

// Message es un correo transaccional con cuerpo en texto y HTML.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender define la interfaz para envio de correos transaccionales.
// Un error significa que el correo no fue entregado al servidor de salida.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewOTPMessage arma el correo de login con el codigo y su vencimiento.
func NewOTPMessage(to, name, code string, expiresAt time.Time) Message {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	text := fmt.Sprintf(
		"%s,\n\nYour GradNet login code is %s.\nIt expires at %s UTC.\n\nIf you did not request this code you can ignore this email.\n",
		greeting,
		code,
		expiresAt.UTC().Format(time.RFC3339),
	)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>GradNet login</h2>
    <p>%s,</p>
    <p>Your login code is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>It expires at %s UTC.</p>
  </div>
</body>
</html>`, html.EscapeString(greeting), code, expiresAt.UTC().Format("15:04"))

	return Message{
		To:       to,
		Subject:  "Your GradNet login code",
		TextBody: text,
		HTMLBody: body,
	}
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) Send(_ context.Context, _ Message) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}

// logSender escribe el correo en el log; solo para desarrollo local.
type logSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (log only)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.TextBody),
	)
	return nil
}
