package sendgrid

import (
	"context"
	"fmt"
	"strings"

	"github.com/farmbasket/farmbasket-backend/internal/models"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
)

type EmailService interface {
	Send(ctx context.Context, req *models.EmailNotificationRequest) error
	GetSendGridClient() *sendgrid.Client
}

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey string, fromEmail string, fromName string) EmailService {
	return &emailService{client: sendgrid.NewSendClient(apiKey), fromEmail: fromEmail, fromName: fromName}
}

// Send implements EmailService.
func (e *emailService) Send(ctx context.Context, req *models.EmailNotificationRequest) error {

	from := mail.NewEmail(e.fromName, e.fromEmail)
	to := mail.NewEmail("", req.To)

	message := mail.NewV3Mail()
	message.SetFrom(from)

	personalization := mail.NewPersonalization()
	personalization.AddTos(to)

	for _, cc := range req.CC {
		personalization.AddCCs(mail.NewEmail("", cc))
	}

	for _, bcc := range req.BCC {
		personalization.AddBCCs(mail.NewEmail("", bcc))
	}

	personalization.Subject = req.Subject
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", req.Content))
	message.AddContent(mail.NewContent("text/html", req.HTMLContent))

	// send the email
	response, err := e.client.Send(message)

	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	return nil
}

// GetSendGridClient provides access to the internal sendgrid.Client.
func (e *emailService) GetSendGridClient() *sendgrid.Client {
	return e.client
}

const pickupDateFormat = "Monday, 2 January 2006"

// NewOrderConfirmation builds the email sent after an order is placed or
// updated for a pickup date.
func NewOrderConfirmation(to string, shopName string, order *models.Order) *models.EmailNotificationRequest {

	var plain, html strings.Builder

	pickup := order.PickupDate.Format(pickupDateFormat)

	fmt.Fprintf(&plain, "Thank you for your order from %s.\n\n", shopName)
	fmt.Fprintf(&plain, "Pickup: %s\n\n", pickup)

	fmt.Fprintf(&html, "<p>Thank you for your order from %s.</p>", shopName)
	fmt.Fprintf(&html, "<p>Pickup: <strong>%s</strong></p>", pickup)
	html.WriteString("<table><tr><th>Article</th><th>Quantity</th><th>Price</th></tr>")

	for _, item := range order.Articles {
		fmt.Fprintf(&plain, "  %s: %s %s (%s each)\n", item.Name, item.Quantity.String(), item.Unit, item.UnitPrice.StringFixed(2))
		fmt.Fprintf(&html, "<tr><td>%s</td><td>%s %s</td><td>%s</td></tr>", item.Name, item.Quantity.String(), item.Unit, item.Subtotal().StringFixed(2))
	}

	html.WriteString("</table>")

	total := orderTotal(order)
	fmt.Fprintf(&plain, "\nTotal: %s\n", total.StringFixed(2))
	fmt.Fprintf(&html, "<p>Total: <strong>%s</strong></p>", total.StringFixed(2))

	if order.Message != "" {
		fmt.Fprintf(&plain, "\nYour note: %s\n", order.Message)
		fmt.Fprintf(&html, "<p>Your note: %s</p>", order.Message)
	}

	return &models.EmailNotificationRequest{
		To:          to,
		Subject:     fmt.Sprintf("Your %s order for %s", shopName, pickup),
		Content:     plain.String(),
		HTMLContent: html.String(),
	}
}

// NewOrderCancellation builds the email sent after an order is cancelled.
func NewOrderCancellation(to string, shopName string, order *models.Order) *models.EmailNotificationRequest {

	pickup := order.PickupDate.Format(pickupDateFormat)

	plain := fmt.Sprintf("Your %s order for %s has been cancelled.\n", shopName, pickup)
	html := fmt.Sprintf("<p>Your %s order for <strong>%s</strong> has been cancelled.</p>", shopName, pickup)

	return &models.EmailNotificationRequest{
		To:          to,
		Subject:     fmt.Sprintf("Order cancelled for %s", pickup),
		Content:     plain,
		HTMLContent: html,
	}
}

func orderTotal(order *models.Order) decimal.Decimal {
	total := decimal.Zero

	for _, item := range order.Articles {
		total = total.Add(item.Subtotal())
	}

	return total
}
