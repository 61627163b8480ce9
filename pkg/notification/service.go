package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cybershield/notifier/pkg/mail"
	"github.com/cybershield/notifier/pkg/metrics"
	"github.com/cybershield/notifier/pkg/system"
	"github.com/cybershield/notifier/pkg/telemetry"
)

const (
	DefaultTemplate = mail.TemplateCustom
	DefaultName     = "User"
	DefaultSubject  = "Notification from CyberShield Pro"
	DefaultBody     = "You have a new notification from CyberShield Pro."

	// MailerHeader identifies messages sent by this service.
	MailerHeader = "X-Mailer"
	MailerName   = "CyberShield Pro Notification System"

	outcomeSent = "sent"
)

// Request is the inbound notification payload.
type Request struct {
	Email    string `json:"email" binding:"required,email"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body"`
	Time     string `json:"time"`
}

// Result describes a delivered notification.
type Result struct {
	Recipient string
	Type      string
}

type ServiceOptions struct {
	From     string
	FromName string
	Logger   *zap.SugaredLogger
}

// Service renders and dispatches notifications. It holds no per-request state.
type Service struct {
	registry *mail.Registry
	sender   mail.Sender
	from     string
	fromName string
	log      *zap.SugaredLogger
	tracer   trace.Tracer
}

func NewService(registry *mail.Registry, sender mail.Sender, opts ServiceOptions) *Service {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Service{
		registry: registry,
		sender:   sender,
		from:     opts.From,
		fromName: opts.FromName,
		log:      log.Named("notification"),
		tracer:   otel.Tracer(telemetry.TracerName),
	}
}

// Send validates req, renders its template and hands the message to the transport.
// Failures are returned as *Error and logged once with the recipient and template.
// log may be nil, in which case the service logger is used.
func (s *Service) Send(ctx context.Context, req Request, log *zap.SugaredLogger) (Result, error) {
	if log == nil {
		log = s.log
	}
	ctx, span := s.tracer.Start(ctx, "notification.send")
	defer span.End()

	req = ApplyDefaults(req)
	res := Result{Recipient: req.Email, Type: req.Type}
	log = log.With(system.NotificationFields(req.Email, req.Type)...)
	span.SetAttributes(attribute.String("notification.type", req.Type))

	err := s.send(ctx, req)
	outcome := outcomeSent
	if err != nil {
		var nerr *Error
		if errors.As(err, &nerr) {
			outcome = nerr.Kind.String()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		if nerr != nil && nerr.Kind == KindTransport {
			log.Errorw("Failed to send notification", "error", nerr.Err)
		} else {
			log.Warnw("Rejected notification request", "reason", err.Error())
		}
	} else {
		log.Infow("Notification sent successfully")
	}
	metrics.NotificationsTotal.WithLabelValues(s.metricType(req.Type), outcome).Inc()
	span.SetAttributes(attribute.String("notification.outcome", outcome))

	return res, err
}

func (s *Service) send(_ context.Context, req Request) error {
	if req.Email == "" {
		return validationError("Email address is required")
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return &Error{Kind: KindValidation, Message: fmt.Sprintf("Invalid email address: %s", req.Email), Err: err}
	}

	rendered, err := s.registry.Render(req.Type, Variables(req))
	if err != nil {
		return templateError(req.Type, err)
	}

	msg := &mail.Message{
		From:     s.from,
		FromName: s.fromName,
		To:       req.Email,
		Subject:  rendered.Subject,
		Body:     rendered.Body,
		HTML:     req.HTMLBody,
		Headers:  map[string]string{MailerHeader: MailerName},
	}
	if err := s.sender.Send(msg); err != nil {
		return &Error{
			Kind:    KindTransport,
			Message: fmt.Sprintf("Failed to send notification: %v", err),
			Err:     err,
		}
	}
	return nil
}

// metricType bounds label cardinality to registered templates.
func (s *Service) metricType(name string) string {
	if _, ok := s.registry.Lookup(name); ok {
		return name
	}
	return "unknown"
}

// ApplyDefaults trims the recipient and template and fills in the fallback name.
// The custom template also gets a default subject and body.
func ApplyDefaults(req Request) Request {
	req.Email = strings.TrimSpace(req.Email)
	req.Type = strings.TrimSpace(req.Type)
	if req.Type == "" {
		req.Type = DefaultTemplate
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = DefaultName
	}
	if req.Type == DefaultTemplate {
		if req.Subject == "" {
			req.Subject = DefaultSubject
		}
		if req.Body == "" {
			req.Body = DefaultBody
		}
	}
	return req
}

// Variables builds the placeholder bindings. Optional fields are only bound when
// present so templates that need them fail with a missing-variable error.
func Variables(req Request) map[string]string {
	vars := map[string]string{
		mail.VarName:  req.Name,
		mail.VarEmail: req.Email,
	}
	if req.Time != "" {
		vars[mail.VarTime] = req.Time
	}
	if req.Subject != "" {
		vars[mail.VarSubject] = req.Subject
	}
	if req.Body != "" {
		vars[mail.VarBody] = req.Body
	}
	return vars
}

func templateError(name string, err error) *Error {
	msg := fmt.Sprintf("Invalid template type: %s", name)
	var missing *mail.MissingVariableError
	if errors.As(err, &missing) {
		msg = fmt.Sprintf("%s (missing variable %s)", msg, missing.Variable)
	}
	return &Error{Kind: KindTemplate, Message: msg, Err: err}
}
