package mailer

import (
	"fmt"

	"shophub/pkg/config"
	"shophub/prometheus"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notification event kinds.
const (
	EventOrderConfirmation  = "order_confirmation"
	EventOrderStatusChanged = "order_status_changed"
	EventPasswordReset      = "password_reset"
	EventEmailVerification  = "email_verification"
	EventContactForm        = "contact_form"
)

// Mailer sends transactional email over SMTP. Sends are best-effort:
// callers fire them asynchronously and failures are logged, never
// surfaced to the request that triggered them.
type Mailer struct {
	smtp        config.SMTPConfig
	frontendURL string
	log         *zap.Logger
}

// New creates a Mailer from configuration. When no SMTP host is
// configured, messages are written to the log instead of being sent.
func New(cfg *config.Config, log *zap.Logger) *Mailer {
	return &Mailer{
		smtp:        cfg.SMTP,
		frontendURL: cfg.Server.FrontendURL,
		log:         log,
	}
}

// AdminEmail returns the configured store-admin address, the recipient
// for contact form submissions.
func (m *Mailer) AdminEmail() string {
	return m.smtp.AdminEmail
}

// SendAsync delivers the notification on a separate goroutine and
// swallows any delivery error after logging it.
func (m *Mailer) SendAsync(to, event string, payload map[string]interface{}) {
	go func() {
		if err := m.Send(to, event, payload); err != nil {
			prometheus.RecordEmail(event, "failed")
			m.log.Error("Failed to send notification email",
				zap.String("event", event),
				zap.String("to", to),
				zap.Error(err))
			return
		}
		prometheus.RecordEmail(event, "sent")
		m.log.Info("Notification email sent",
			zap.String("event", event),
			zap.String("to", to))
	}()
}

// Send renders and delivers a single notification synchronously.
func (m *Mailer) Send(to, event string, payload map[string]interface{}) error {
	subject, body := m.render(event, payload)

	if m.smtp.Host == "" {
		// Console fallback for development environments
		m.log.Info("SMTP not configured, logging email instead",
			zap.String("to", to),
			zap.String("subject", subject))
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.smtp.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	d := gomail.NewDialer(m.smtp.Host, m.smtp.Port, m.smtp.Username, m.smtp.Password)
	return d.DialAndSend(msg)
}

func (m *Mailer) render(event string, p map[string]interface{}) (subject, body string) {
	switch event {
	case EventOrderConfirmation:
		subject = fmt.Sprintf("Order Confirmation - Order #%v", p["order_id"])
		body = fmt.Sprintf(
			"<h1>Order Confirmed</h1><p>Thank you for your order, %v!</p>"+
				"<p>Order #%v has been received and will be processed shortly.</p>"+
				"<p>Total: $%.2f</p>",
			p["customer_name"], p["order_id"], p["total"])
	case EventOrderStatusChanged:
		subject = fmt.Sprintf("Order #%v Status Update", p["order_id"])
		body = fmt.Sprintf(
			"<h1>Order Update</h1><p>Hi %v,</p>"+
				"<p>Your order #%v is now <strong>%v</strong>.</p>",
			p["customer_name"], p["order_id"], p["status"])
	case EventPasswordReset:
		link := fmt.Sprintf("%s/reset-password?token=%v", m.frontendURL, p["token"])
		subject = "Password Reset Request"
		body = fmt.Sprintf(
			"<h1>Password Reset</h1><p>Hi %v,</p>"+
				"<p>Click the link below to reset your password. The link expires in 1 hour.</p>"+
				"<p><a href=%q>%s</a></p>"+
				"<p>If you didn't request this, you can ignore this email.</p>",
			p["first_name"], link, link)
	case EventEmailVerification:
		link := fmt.Sprintf("%s/verify-email?token=%v", m.frontendURL, p["token"])
		subject = "Verify Your Email Address"
		body = fmt.Sprintf(
			"<h1>Welcome to ShopHub</h1><p>Hi %v,</p>"+
				"<p>Please verify your email address by clicking the link below:</p>"+
				"<p><a href=%q>%s</a></p>",
			p["first_name"], link, link)
	case EventContactForm:
		subject = fmt.Sprintf("Contact Form: %v", p["subject"])
		body = fmt.Sprintf(
			"<h1>New Contact Form Submission</h1>"+
				"<p><strong>From:</strong> %v (%v)</p>"+
				"<p><strong>Subject:</strong> %v</p>"+
				"<p>%v</p>",
			p["name"], p["email"], p["subject"], p["message"])
	default:
		subject = "Notification from ShopHub"
		body = fmt.Sprintf("<p>%v</p>", p)
	}
	return subject, body
}
