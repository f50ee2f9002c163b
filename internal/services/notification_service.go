// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/phonespot/backend/internal/config"
	"github.com/phonespot/backend/internal/models"
)

// NotificationService sends transactional email. Every send is best-effort:
// callers fire it from a goroutine and a failed delivery is logged, never
// surfaced to the request that triggered it.
type NotificationService struct {
	config *config.Config
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{config: cfg}
}

const verificationTemplate = `
<h2>Bienvenido a {{.FromName}}, {{.Name}}!</h2>
<p>Tu c&oacute;digo de verificaci&oacute;n es:</p>
<h1 style="letter-spacing: 6px;">{{.Code}}</h1>
<p>El c&oacute;digo vence en 24 horas.</p>
`

const orderConfirmationTemplate = `
<h2>Gracias por tu compra, {{.Name}}!</h2>
<p>Tu pedido <strong>{{.OrderNumber}}</strong> fue recibido.</p>
<table cellpadding="6" border="1" style="border-collapse: collapse;">
  <tr><th>Producto</th><th>Cantidad</th><th>Precio</th><th>Subtotal</th></tr>
  {{range .Items}}
  <tr>
    <td>{{.Name}}{{if .Color}} ({{.Color}}{{if .Memory}}, {{.Memory}}{{end}}){{end}}</td>
    <td>{{.Quantity}}</td>
    <td>${{printf "%.2f" .UnitPrice}}</td>
    <td>${{printf "%.2f" .Subtotal}}</td>
  </tr>
  {{end}}
</table>
<p>Subtotal: ${{printf "%.2f" .Subtotal}}<br>
Env&iacute;o: ${{printf "%.2f" .Shipping}}<br>
<strong>Total: ${{printf "%.2f" .Total}}</strong></p>
<p>Te avisaremos cuando el pedido est&eacute; en camino.</p>
`

const adminOrderAlertTemplate = `
<h2>Nuevo pedido {{.OrderNumber}}</h2>
<p>Cliente: {{.Name}} ({{.Email}})</p>
<p>Total: ${{printf "%.2f" .Total}} &mdash; {{len .Items}} renglones</p>
<p>M&eacute;todo de entrega: {{.ShippingMethod}}</p>
`

func (s *NotificationService) SendVerificationEmail(user *models.User, code string) error {
	body, err := render(verificationTemplate, map[string]interface{}{
		"FromName": s.config.Email.FromName,
		"Name":     user.Name,
		"Code":     code,
	})
	if err != nil {
		return err
	}
	return s.send(user.Email, "Verifica tu cuenta", body)
}

func (s *NotificationService) SendOrderConfirmation(user *models.User, order *models.Order) error {
	body, err := render(orderConfirmationTemplate, map[string]interface{}{
		"Name":        user.Name,
		"OrderNumber": order.OrderNumber,
		"Items":       order.Items,
		"Subtotal":    order.Subtotal,
		"Shipping":    order.Shipping,
		"Total":       order.Total,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Pedido %s confirmado", order.OrderNumber)
	return s.send(user.Email, subject, body)
}

func (s *NotificationService) SendAdminOrderAlert(user *models.User, order *models.Order) error {
	body, err := render(adminOrderAlertTemplate, map[string]interface{}{
		"Name":           user.Name,
		"Email":          user.Email,
		"OrderNumber":    order.OrderNumber,
		"Total":          order.Total,
		"Items":          order.Items,
		"ShippingMethod": order.ShippingMethod,
	})
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Nuevo pedido %s", order.OrderNumber)
	return s.send(s.config.Email.AdminEmail, subject, body)
}

func render(tmpl string, data interface{}) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *NotificationService) send(to, subject, htmlBody string) error {
	cfg := s.config.Email

	// Without SMTP credentials (local development) deliveries are logged only.
	if cfg.SMTPUsername == "" {
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("Email delivery skipped (no SMTP credentials)")
		return nil
	}

	msg := bytes.Buffer{}
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", cfg.FromName, cfg.FromEmail))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(htmlBody)

	auth := smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	addr := cfg.SMTPHost + ":" + cfg.SMTPPort

	if err := smtp.SendMail(addr, auth, cfg.FromEmail, []string{to}, msg.Bytes()); err != nil {
		logrus.WithError(err).WithField("to", to).Error("Failed to send email")
		return err
	}

	return nil
}
