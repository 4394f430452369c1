package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/tiendaluna/storeapi/internal/domain"
)

// Storefront email copy. The customer-facing templates are in Spanish to
// match the shop; the admin notification stays terse.

var statusSubjects = map[domain.OrderStatus]string{
	domain.OrderStatusConfirmed:  "Tu pedido %s fue confirmado",
	domain.OrderStatusProcessing: "Estamos preparando tu pedido %s",
	domain.OrderStatusShipped:    "Tu pedido %s fue enviado",
	domain.OrderStatusDelivered:  "Tu pedido %s fue entregado",
	domain.OrderStatusCancelled:  "Tu pedido %s fue cancelado",
}

var statusIntros = map[domain.OrderStatus]string{
	domain.OrderStatusConfirmed:  "Confirmamos tu pedido y ya estamos trabajando en él.",
	domain.OrderStatusProcessing: "Tu pedido está siendo preparado.",
	domain.OrderStatusShipped:    "Tu pedido ya está en camino.",
	domain.OrderStatusDelivered:  "Tu pedido fue entregado. ¡Gracias por tu compra!",
	domain.OrderStatusCancelled:  "Lamentablemente tu pedido fue cancelado.",
}

// DefaultCancellationReason is used when an admin cancels an order without
// supplying one; payment rejections carry the gateway's own reason.
const DefaultCancellationReason = "El pedido fue cancelado por la tienda. Si ya realizaste el pago, nos pondremos en contacto para coordinar la devolución."

var statusTemplate = template.Must(template.New("status").Parse(`
<h2>Hola {{.Order.CustomerName}},</h2>
<p>{{.Intro}}</p>
<p><strong>Pedido:</strong> {{.Order.OrderNumber}}<br>
<strong>Fecha:</strong> {{.Order.CreatedAt.Format "02/01/2006"}}</p>
{{if .Reason}}<p><strong>Motivo:</strong> {{.Reason}}</p>{{end}}
{{if .TrackingNumber}}<p><strong>Número de seguimiento:</strong> {{.TrackingNumber}}</p>{{end}}
<table>
  <tr><th align="left">Producto</th><th>Cantidad</th><th>Precio</th></tr>
  {{range .Order.Items}}
  <tr><td>{{.Title}}</td><td align="center">{{.Quantity}}</td><td align="right">${{printf "%.2f" .UnitPrice}}</td></tr>
  {{end}}
</table>
<p><strong>Total: ${{printf "%.2f" .Order.Total}}</strong></p>
<p>Tienda Luna</p>
`))

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`
<h2>¡Gracias por tu compra, {{.Order.CustomerName}}!</h2>
<p>Recibimos tu pago{{if .Order.PaymentMethodLabel}} ({{.Order.PaymentMethodLabel}}){{end}} y tu pedido <strong>{{.Order.OrderNumber}}</strong> quedó confirmado.</p>
<table>
  <tr><th align="left">Producto</th><th>Cantidad</th><th>Precio</th></tr>
  {{range .Order.Items}}
  <tr><td>{{.Title}}</td><td align="center">{{.Quantity}}</td><td align="right">${{printf "%.2f" .UnitPrice}}</td></tr>
  {{end}}
</table>
<p><strong>Total: ${{printf "%.2f" .Order.Total}}</strong></p>
<p>Te avisaremos cuando el pedido esté en camino.</p>
<p>Tienda Luna</p>
`))

type templateData struct {
	Order          *domain.Order
	Intro          string
	Reason         string
	TrackingNumber string
}

// RenderStatusEmail renders the generic status-update email for a status in
// CustomerEmailStatuses.
func RenderStatusEmail(order *domain.Order, status domain.OrderStatus) (subject, body string, err error) {
	subjectFmt, ok := statusSubjects[status]
	if !ok {
		return "", "", fmt.Errorf("no status email template for status %s", status)
	}

	data := templateData{
		Order: order,
		Intro: statusIntros[status],
	}
	if status == domain.OrderStatusCancelled {
		data.Reason = DefaultCancellationReason
		if order.CancellationReason != nil && *order.CancellationReason != "" {
			data.Reason = *order.CancellationReason
		}
	}
	if status == domain.OrderStatusShipped && order.TrackingNumber != nil {
		data.TrackingNumber = *order.TrackingNumber
	}

	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}

	return fmt.Sprintf(subjectFmt, order.OrderNumber), buf.String(), nil
}

// RenderConfirmationEmail renders the one-time "payment received" email.
func RenderConfirmationEmail(order *domain.Order) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, templateData{Order: order}); err != nil {
		return "", "", err
	}
	return fmt.Sprintf("¡Gracias por tu compra! Pedido %s", order.OrderNumber), buf.String(), nil
}

// RenderAdminNotification renders the back-office copy of an order update.
func RenderAdminNotification(order *domain.Order, status domain.OrderStatus) (subject, body string) {
	subject = fmt.Sprintf("[storeapi] Pedido %s -> %s", order.OrderNumber, status)
	body = fmt.Sprintf(
		"<p>Pedido <strong>%s</strong> pasó a <strong>%s</strong>.</p>"+
			"<p>Cliente: %s (%s)<br>Total: $%.2f<br>Pago: %s %s</p>",
		order.OrderNumber, status,
		order.CustomerName, order.CustomerEmail,
		order.Total, order.PaymentMethodLabel, order.PaymentStatus,
	)
	return subject, body
}
