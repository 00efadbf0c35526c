package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pcnexus-api/internal/common"
	"github.com/noah-isme/pcnexus-api/internal/obs"
)

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>Thank you for your order, {{.CustomerName}}!</h2>
<p>Order <strong>#{{.OrderNumber}}</strong> has been received.</p>
<table>
<tr><td>Items</td><td>{{.ItemCount}}</td></tr>
<tr><td>Total</td><td>{{.Currency}} {{.Total}}</td></tr>
<tr><td>Payment</td><td>{{.PaymentMethod}}</td></tr>
{{if .DeliveryTime}}<tr><td>Estimated delivery</td><td>{{.DeliveryTime}}</td></tr>{{end}}
</table>
<p>PC Nexus</p>`))

// RenderOrderConfirmation returns the subject and HTML body of a confirmation email.
func RenderOrderConfirmation(p OrderConfirmation) (string, string, error) {
	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, p); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Your PC Nexus order #%s", p.OrderNumber), buf.String(), nil
}

// EmailHandler processes notification tasks by sending email.
type EmailHandler struct {
	Mail   common.EmailSender
	Logger zerolog.Logger
}

// HandleOrderConfirmation implements asynq.HandlerFunc for TypeOrderConfirmation.
func (h EmailHandler) HandleOrderConfirmation(_ context.Context, t *asynq.Task) error {
	p, err := decodeOrderConfirmation(t)
	if err != nil {
		obs.RecordNotification("invalid")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	subject, body, err := RenderOrderConfirmation(p)
	if err != nil {
		obs.RecordNotification("invalid")
		return fmt.Errorf("%w: render: %v", asynq.SkipRetry, err)
	}
	if err := h.Mail.Send(p.Email, subject, body); err != nil {
		obs.RecordNotification("failed")
		h.Logger.Warn().Err(err).Str("order_number", p.OrderNumber).Msg("send order confirmation")
		return err
	}
	obs.RecordNotification("sent")
	h.Logger.Info().Str("order_number", p.OrderNumber).Msg("order confirmation sent")
	return nil
}

// LogSender is an EmailSender that only logs outgoing mail.
type LogSender struct {
	From   string
	Logger zerolog.Logger
}

// Send implements common.EmailSender.
func (s LogSender) Send(to, subject, html string) error {
	s.Logger.Info().Str("from", s.From).Str("to", to).Str("subject", subject).Int("bytes", len(html)).Msg("email")
	return nil
}
