package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	gomail "gopkg.in/mail.v2"
)

var (
	emailFrom     = os.Getenv("EMAIL_FROM")
	emailPassword = os.Getenv("EMAIL_PASSWORD")
	smtpHost      = os.Getenv("SMTP_HOST")
	smtpPort      = os.Getenv("SMTP_PORT")
	companyName   = "PerkPass Limited"
)

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #4CAF50; margin: 0;">PerkPass</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>© 2026 PerkPass Limited. All rights reserved.</p>
		</div>
	</div>
</body>
</html>
`

func sendEmail(to, subject, body string) error {
	if emailFrom == "" || emailPassword == "" || smtpHost == "" || smtpPort == "" {
		return fmt.Errorf("email configuration not set")
	}

	port, err := strconv.Atoi(smtpPort)
	if err != nil {
		return fmt.Errorf("invalid SMTP_PORT %q: %v", smtpPort, err)
	}

	message := gomail.NewMessage()
	message.SetHeader("From", fmt.Sprintf("%s <%s>", companyName, emailFrom))
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", body)

	dialer := gomail.NewDialer(smtpHost, port, emailFrom, emailPassword)

	if err := dialer.DialAndSend(message); err != nil {
		log.Printf("Failed to send email to %s: %v", to, err)
		return err
	}

	log.Printf("Successfully sent email to %s", to)
	return nil
}

// SendAccessCodeEmail delivers the one-time access code. The code is never
// surfaced anywhere else, so this email is the only channel a caller has to
// learn it.
func SendAccessCodeEmail(email, code string) error {
	subject := "Your Access Code - PerkPass"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Access Verification</h1>
					<p>Hello,</p>
					<p>Use the code below to verify your email address:</p>
					<div style="text-align: center; margin: 30px 0;">
						<span style="font-size: 32px; letter-spacing: 8px; font-weight: bold; color: #4CAF50;">%s</span>
					</div>
					<p>This code expires in 5 minutes. If you did not request it, you can safely ignore this email.</p>
					<p>Best regards,<br>The PerkPass Team</p>
				</div>`+emailFooter,
		code)

	return sendEmail(email, subject, body)
}

// SendNewUserAlert notifies the administrative address that a previously
// unseen email requested access. Sent only on first-time user creation.
func SendNewUserAlert(adminEmail, userEmail string) error {
	subject := "New Access Request - PerkPass"
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">New Access Request</h1>
					<p>Hello,</p>
					<p>A new user has requested access: <strong>%s</strong>.</p>
					<p>No action is required; this is a notification only.</p>
					<p>Best regards,<br>The PerkPass Team</p>
				</div>`+emailFooter,
		userEmail)

	return sendEmail(adminEmail, subject, body)
}
