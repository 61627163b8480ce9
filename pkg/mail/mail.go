package mail

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"sync"
	"time"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/cybershield/notifier/pkg/config"
	"github.com/cybershield/notifier/pkg/metrics"
)

// Message is a single outbound email.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Body     string
	// HTML is sent as a text/html alternative when non-empty.
	HTML    string
	Headers map[string]string
}

// Sender delivers messages to a mail transport. Implementations must be safe for concurrent use.
type Sender interface {
	Send(msgs ...*Message) error
	// Ping opens and closes a connection to the transport without sending anything.
	Ping() error
	GetHost() string
	GetPort() int
}

// NewSender builds the Sender selected by cfg.Provider.
func NewSender(cfg config.Mail, log *zap.SugaredLogger) (Sender, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log = log.Named("mail")

	if cfg.SuppressSend {
		log.Infow("Mail sending is suppressed, messages are recorded only", "provider", cfg.Provider)
		return NewSuppressedSender(cfg.Server, cfg.Port), nil
	}

	switch cfg.Provider {
	case config.ProviderSMTP, "":
		return NewSMTPSender(cfg, log), nil
	case config.ProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, errors.New("resend provider selected but RESEND_API_KEY is empty")
		}
		return NewResendSender(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// ErrSTARTTLSUnavailable is returned when MAIL_USE_TLS is set but the server
// does not offer STARTTLS.
var ErrSTARTTLSUnavailable = errors.New("server does not support STARTTLS")

const dialTimeout = 10 * time.Second

type smtpSender struct {
	dialer     *gomail.Dialer
	requireTLS bool
	maxEmails  int
	debug      bool
	log        *zap.SugaredLogger
}

// NewSMTPSender returns a Sender backed by an SMTP relay.
func NewSMTPSender(cfg config.Mail, log *zap.SugaredLogger) Sender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Infow("Initializing SMTP sender",
		"host", cfg.Server,
		"port", cfg.Port,
		"user", cfg.Username,
		"ssl", cfg.UseSSL,
		"tls", cfg.UseTLS)

	d := gomail.NewDialer(cfg.Server, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	// gomail upgrades with STARTTLS whenever the server offers it, so the TLS
	// settings apply to plain connections too.
	d.TLSConfig = &tls.Config{ServerName: cfg.Server, InsecureSkipVerify: cfg.InsecureSkipVerify} //nolint:gosec // opt-in via MAIL_TLS_INSECURE_SKIP_VERIFY
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for mail TLS connection", "host", cfg.Server)
	}

	return &smtpSender{
		dialer:     d,
		requireTLS: cfg.UseTLS && !cfg.UseSSL,
		maxEmails:  cfg.MaxEmails,
		debug:      cfg.Debug,
		log:        log,
	}
}

// dial opens a gomail connection. With requireTLS set the server must
// advertise STARTTLS first, so credentials never travel in plaintext.
func (s *smtpSender) dial() (gomail.SendCloser, error) {
	if s.requireTLS {
		if err := s.checkSTARTTLS(); err != nil {
			return nil, err
		}
	}
	return s.dialer.Dial()
}

func (s *smtpSender) checkSTARTTLS() error {
	addr := net.JoinHostPort(s.dialer.Host, strconv.Itoa(s.dialer.Port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, s.dialer.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Hello("localhost"); err != nil {
		return err
	}
	ok, _ := c.Extension("STARTTLS")
	_ = c.Quit()
	if !ok {
		return ErrSTARTTLSUnavailable
	}
	return nil
}

func (s *smtpSender) Send(msgs ...*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	batch := s.maxEmails
	if batch <= 0 {
		batch = len(msgs)
	}

	for start := 0; start < len(msgs); start += batch {
		end := start + batch
		if end > len(msgs) {
			end = len(msgs)
		}
		if err := s.sendBatch(msgs[start:end]); err != nil {
			metrics.MailSendFailure.WithLabelValues(s.GetHost()).Add(float64(end - start))
			return err
		}
		metrics.MailSendSuccess.WithLabelValues(s.GetHost()).Add(float64(end - start))
	}
	return nil
}

func (s *smtpSender) sendBatch(msgs []*Message) error {
	conn, err := s.dial()
	if err != nil {
		return fmt.Errorf("connecting to %s:%d: %w", s.GetHost(), s.GetPort(), err)
	}
	defer func() { _ = conn.Close() }()

	out := make([]*gomail.Message, 0, len(msgs))
	for _, m := range msgs {
		if s.debug {
			s.log.Debugw("Sending mail", "to", m.To, "subject", m.Subject, "html", m.HTML != "")
		}
		out = append(out, toGomail(m))
	}
	if err := gomail.Send(conn, out...); err != nil {
		return fmt.Errorf("sending %d message(s) via %s: %w", len(out), s.GetHost(), err)
	}
	s.log.Debugw("Mail batch delivered", "count", len(out))
	return nil
}

func (s *smtpSender) Ping() error {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	return conn.Close()
}

func (s *smtpSender) GetHost() string {
	return s.dialer.Host
}

func (s *smtpSender) GetPort() int {
	return s.dialer.Port
}

func toGomail(m *Message) *gomail.Message {
	msg := gomail.NewMessage()
	if m.FromName != "" {
		msg.SetAddressHeader("From", m.From, m.FromName)
	} else {
		msg.SetHeader("From", m.From)
	}
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	for k, v := range m.Headers {
		msg.SetHeader(k, v)
	}
	msg.SetBody("text/plain", m.Body)
	if m.HTML != "" {
		msg.AddAlternative("text/html", m.HTML)
	}
	return msg
}

// EmailsAPI is the subset of the Resend client used by resendSender.
type EmailsAPI interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// DomainsAPI is the subset of the Resend client used for connectivity checks.
type DomainsAPI interface {
	List() (resend.ListDomainsResponse, error)
}

type resendSender struct {
	emails  EmailsAPI
	domains DomainsAPI
	log     *zap.SugaredLogger
}

const resendHost = "api.resend.com"

// NewResendSender returns a Sender backed by the Resend HTTP API.
func NewResendSender(cfg config.Mail, log *zap.SugaredLogger) Sender {
	client := resend.NewClient(cfg.ResendAPIKey)
	return newResendSender(client.Emails, client.Domains, log)
}

func newResendSender(emails EmailsAPI, domains DomainsAPI, log *zap.SugaredLogger) *resendSender {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	log.Infow("Initializing Resend sender", "host", resendHost)
	return &resendSender{emails: emails, domains: domains, log: log}
}

func (s *resendSender) Send(msgs ...*Message) error {
	for _, m := range msgs {
		from := m.From
		if m.FromName != "" {
			from = fmt.Sprintf("%s <%s>", m.FromName, m.From)
		}
		resp, err := s.emails.Send(&resend.SendEmailRequest{
			From:    from,
			To:      []string{m.To},
			Subject: m.Subject,
			Text:    m.Body,
			Html:    m.HTML,
			Headers: m.Headers,
		})
		if err != nil {
			metrics.MailSendFailure.WithLabelValues(resendHost).Inc()
			return fmt.Errorf("sending message via resend: %w", err)
		}
		metrics.MailSendSuccess.WithLabelValues(resendHost).Inc()
		s.log.Debugw("Mail accepted by resend", "id", resp.Id, "to", m.To)
	}
	return nil
}

func (s *resendSender) Ping() error {
	_, err := s.domains.List()
	return err
}

func (s *resendSender) GetHost() string { return resendHost }

func (s *resendSender) GetPort() int { return 443 }

// SuppressedSender records messages instead of delivering them.
type SuppressedSender struct {
	host string
	port int

	mu     sync.Mutex
	outbox []*Message
}

func NewSuppressedSender(host string, port int) *SuppressedSender {
	return &SuppressedSender{host: host, port: port}
}

func (s *SuppressedSender) Send(msgs ...*Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, msgs...)
	return nil
}

func (s *SuppressedSender) Ping() error { return nil }

func (s *SuppressedSender) GetHost() string { return s.host }

func (s *SuppressedSender) GetPort() int { return s.port }

// Outbox returns a copy of every message recorded so far.
func (s *SuppressedSender) Outbox() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Message, len(s.outbox))
	copy(out, s.outbox)
	return out
}
