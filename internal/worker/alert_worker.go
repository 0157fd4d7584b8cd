package worker

// alert_worker.go
// Processes stock_alert jobs: mails the configured address when a product or
// fabric runs low or out.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Mailer sends a plain-text email. Implemented by infra.Mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

// AlertWorker turns StockAlert payloads into emails.
type AlertWorker struct {
	mailer Mailer
	to     string
}

// NewAlertWorker creates an AlertWorker delivering to the given address.
// With an empty address alerts are only logged.
func NewAlertWorker(mailer Mailer, to string) *AlertWorker {
	return &AlertWorker{mailer: mailer, to: to}
}

func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var alert StockAlert
	if err := json.Unmarshal(raw, &alert); err != nil {
		// A payload that cannot be decoded will never succeed; drop it.
		log.Error().Err(err).Msg("alert_worker: invalid payload")
		return nil
	}

	logger := log.With().Str("kind", alert.Kind).Str("id", alert.ID).Str("status", alert.Status).Logger()
	if w.to == "" || w.mailer == nil {
		logger.Warn().Msg("alert_worker: no ALERT_EMAIL configured, alert logged only")
		return nil
	}

	subject, body := FormatStockAlert(alert)
	if err := w.mailer.Send(w.to, subject, body); err != nil {
		return fmt.Errorf("alert_worker: send: %w", err)
	}
	logger.Info().Str("to", w.to).Msg("alert_worker: stock alert sent")
	return nil
}

// FormatStockAlert renders the subject and body of an alert email.
func FormatStockAlert(a StockAlert) (string, string) {
	label := strings.ReplaceAll(a.Status, "_", " ")
	subject := fmt.Sprintf("[stock] %s %s is %s", a.Kind, a.ID, label)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %q (%s) is now %s.\n\n", capitalize(a.Kind), a.Name, a.ID, label)
	fmt.Fprintf(&b, "On hand:   %s %s\n", a.Stock, a.Unit)
	fmt.Fprintf(&b, "Threshold: %s %s\n", a.Threshold, a.Unit)
	return subject, b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
