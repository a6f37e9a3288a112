package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/xeikhprince488/mansolehubtraining-sub000/config"
)

// EmailService handles sending transactional emails via SMTP.
// Every send is fire-and-forget relative to the calling workflow: failures
// are logged and never propagate into the primary transaction.
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService(env *config.EnviornmentVariable) *EmailService {
	from := env.SMTP_FROM
	if from == "" {
		from = "noreply@mansolehubtraining.com"
	}
	host := env.SMTP_HOST
	if host == "" {
		host = "smtp.gmail.com"
	}

	return &EmailService{
		host:     host,
		port:     env.SMTP_PORT,
		username: env.SMTP_USERNAME,
		password: env.SMTP_PASSWORD,
		from:     from,
		appURL:   env.APP_URL,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// SendAsync dispatches a send on its own goroutine, logging any failure
func (e *EmailService) SendAsync(to, subject, body string) {
	go func() {
		if err := e.sendEmail(to, subject, body); err != nil {
			log.Printf("email to %s (%q) failed: %v", to, subject, err)
		}
	}()
}

// SendPaymentSubmittedEmail confirms receipt of a manual payment submission
func (e *EmailService) SendPaymentSubmittedEmail(toEmail, name, courseTitle, requestID string) {
	subject := "Payment Received - ManSoleHub Training"
	body := e.buildEmailBody(name, fmt.Sprintf(
		`<p>We have received your payment submission for <strong>%s</strong>.</p>
		<p>Your request id is <strong>%s</strong>. Our team reviews bank transfers
		manually; you will get another email once your payment is verified,
		usually within 24 hours.</p>
		<p>You can keep this tab open; the page checks your approval status
		automatically.</p>`, courseTitle, requestID))
	e.SendAsync(toEmail, subject, body)
}

// SendPaymentApprovedEmail notifies the applicant their access is active
func (e *EmailService) SendPaymentApprovedEmail(toEmail, name, courseTitle string, courseID uint) {
	link := fmt.Sprintf("%s/courses/%d", e.appURL, courseID)
	subject := "Payment Approved - ManSoleHub Training"
	body := e.buildEmailBody(name, fmt.Sprintf(
		`<p>Your payment for <strong>%s</strong> has been verified and approved.</p>
		<p style="text-align:center;"><a href="%s" class="button">Start Learning</a></p>
		<p>Note: course content is locked to the first device you watch from.
		Contact support if you need to switch devices.</p>`, courseTitle, link))
	e.SendAsync(toEmail, subject, body)
}

// SendPaymentRejectedEmail notifies the applicant with the reviewer's reason
func (e *EmailService) SendPaymentRejectedEmail(toEmail, name, courseTitle, reason string) {
	subject := "Payment Could Not Be Verified - ManSoleHub Training"
	body := e.buildEmailBody(name, fmt.Sprintf(
		`<p>Unfortunately we could not verify your payment for <strong>%s</strong>.</p>
		<p>Reason: %s</p>
		<p>If you believe this is a mistake, you can submit a new payment request
		with a clearer transaction screenshot, or reply to this email.</p>`, courseTitle, reason))
	e.SendAsync(toEmail, subject, body)
}

// SendPendingRequestsDigest tells an instructor how many requests await review
func (e *EmailService) SendPendingRequestsDigest(toEmail, name string, pendingCount int64) {
	link := fmt.Sprintf("%s/instructor/payment-requests", e.appURL)
	subject := fmt.Sprintf("%d payment request(s) awaiting review", pendingCount)
	body := e.buildEmailBody(name, fmt.Sprintf(
		`<p>You have <strong>%d</strong> pending payment request(s) for your courses.</p>
		<p style="text-align:center;"><a href="%s" class="button">Review Requests</a></p>`,
		pendingCount, link))
	e.SendAsync(toEmail, subject, body)
}

// buildEmailBody wraps content in the shared HTML template
func (e *EmailService) buildEmailBody(name, content string) string {
	if name == "" {
		name = "there"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
               line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto;
               padding: 20px; background-color: #f5f5f5; }
        .container { background-color: #ffffff; border-radius: 8px; padding: 40px; }
        .logo { text-align: center; margin-bottom: 30px; padding-bottom: 20px;
                border-bottom: 2px solid #14532d; }
        .logo h1 { color: #14532d; font-size: 26px; margin: 0; }
        .button { display: inline-block; background-color: #14532d; color: #ffffff !important;
                  padding: 14px 28px; text-decoration: none; border-radius: 6px;
                  font-weight: 600; margin: 20px 0; }
        .footer { margin-top: 30px; padding-top: 20px; border-top: 1px solid #eee;
                  font-size: 12px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="container">
        <div class="logo"><h1>ManSoleHub Training</h1></div>
        <p>Hello %s,</p>
        %s
        <div class="footer">
            <p><strong>ManSoleHub Training</strong></p>
            <p><a href="%s">%s</a></p>
        </div>
    </div>
</body>
</html>`, name, content, e.appURL, e.appURL)
}

// sendEmail sends an email using SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	if !e.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("ManSoleHub Training <%s>", e.from),
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message strings.Builder
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	tlsConfig := &tls.Config{ServerName: e.host}
	if err := conn.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := conn.Mail(e.from); err != nil {
		return err
	}
	if err := conn.Rcpt(to); err != nil {
		return err
	}

	w, err := conn.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message.String())); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return conn.Quit()
}
