package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

// Outbound mail is best-effort: the reset/invite flows log a send failure
// and carry on, matching how the callers treat it.

func smtpConfigured() bool {
	return os.Getenv("SMTP_HOST") != "" && os.Getenv("SMTP_FROM") != ""
}

func sendMail(to, subject, body string) error {
	if !smtpConfigured() {
		log.Printf("smtp not configured, dropping mail to %s (%s)", to, subject)
		return nil
	}
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")

	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"utf-8\"",
		"",
		body,
	}, "\r\n")

	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}
	return smtp.SendMail(host+":"+port, auth, from, []string{to}, []byte(msg))
}

func SendOTPEmail(to, displayName, code string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour password reset code is %s.\nIt expires in 2 minutes and can be used once.\n\nIf you did not request this, you can ignore this email.\n",
		displayName, code)
	return sendMail(to, "Your Saho HR password reset code", body)
}

func SendInviteEmail(to, username, tempPassword, setupToken string) error {
	body := fmt.Sprintf(
		"Welcome to Saho HR.\n\nUsername: %s\nTemporary password: %s\n\nYou will be asked to choose a new password on first login.\n",
		username, tempPassword)
	if setupToken != "" {
		body += fmt.Sprintf(
			"\nTo choose your password right away, use this one-time setup token (valid for 15 minutes):\n%s\n",
			setupToken)
	}
	return sendMail(to, "Your Saho HR account", body)
}
