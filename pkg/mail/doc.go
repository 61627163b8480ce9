// Package mail provides the notification template engine and the mail
// transports (SMTP via gomail, the Resend API, and a recording sender used
// when delivery is suppressed).
package mail
