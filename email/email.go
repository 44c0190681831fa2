package email

import (
	"encoding/base64"
	"fmt"

	"ai-visibility-service/config"

	"github.com/apex/log"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const reportFilename = "ai_visibility_report.csv"

// Sender delivers a finished visibility report to the submitter.
type Sender interface {
	SendReport(recipient string, reportCSV []byte, rowCount int) error
}

// SendGridSender sends reports via SendGrid with the CSV attached.
type SendGridSender struct {
	config *config.Config
	client *sendgrid.Client
}

// NewSendGridSender creates a new SendGrid-backed sender
func NewSendGridSender(cfg *config.Config) *SendGridSender {
	return &SendGridSender{
		config: cfg,
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
	}
}

// SendReport sends the report CSV to a single recipient.
func (s *SendGridSender) SendReport(recipient string, reportCSV []byte, rowCount int) error {
	from := mail.NewEmail(s.config.SendGridFromName, s.config.SendGridFromEmail)
	to := mail.NewEmail(recipient, recipient)
	subject := "Your AI visibility report is ready"

	message := mail.NewV3Mail()
	message.SetFrom(from)
	message.Subject = subject

	p := mail.NewPersonalization()
	p.AddTos(to)
	message.AddPersonalizations(p)

	message.AddContent(mail.NewContent("text/plain", reportText(rowCount)))
	message.AddContent(mail.NewContent("text/html", reportHTML(rowCount)))
	message.AddAttachment(buildReportAttachment(reportCSV))

	response, err := s.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send report to %s: %w", recipient, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected report for %s: status %d: %s", recipient, response.StatusCode, response.Body)
	}

	log.Infof("Report with %d rows sent to %s, status %d", rowCount, recipient, response.StatusCode)
	return nil
}

func buildReportAttachment(reportCSV []byte) *mail.Attachment {
	attachment := mail.NewAttachment()
	attachment.SetContent(base64.StdEncoding.EncodeToString(reportCSV))
	attachment.SetType("text/csv")
	attachment.SetFilename(reportFilename)
	attachment.SetDisposition("attachment")
	return attachment
}

func reportText(rowCount int) string {
	return fmt.Sprintf("Your AI visibility report is attached.\n\nWe analyzed %d prompts. Open the attached CSV to see position, AIV score and competitor domains per prompt.", rowCount)
}

func reportHTML(rowCount int) string {
	return fmt.Sprintf("<p><strong>Your AI visibility report is ready.</strong></p><p>We analyzed %d prompts. The attached CSV lists position, AIV score and competitor domains for each prompt.</p>", rowCount)
}
