package mail

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// TimestampLayout is the layout used for the default {time} variable.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	TemplateCustom        = "custom"
	TemplateLogin         = "login"
	TemplateSignup        = "signup"
	TemplatePasswordReset = "password_reset"
	TemplateThreatAlert   = "threat_alert"
	TemplateContact       = "contact"
)

// Variable names every caller can rely on.
const (
	VarName    = "name"
	VarTime    = "time"
	VarSubject = "subject"
	VarBody    = "body"
	VarEmail   = "email"
)

var (
	ErrUnknownTemplate = errors.New("unknown template")
	ErrMissingVariable = errors.New("missing template variable")
)

// UnknownTemplateError is returned by Render when the requested template is not registered.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("unknown template %q", e.Name)
}

func (e *UnknownTemplateError) Is(target error) bool {
	return target == ErrUnknownTemplate
}

// MissingVariableError is returned by Render when a placeholder has no bound value.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %q references unbound placeholder {%s}", e.Template, e.Variable)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}

// TemplateDefinition is the raw subject/body pattern pair for a template.
type TemplateDefinition struct {
	Name    string
	Subject string
	Body    string
}

// Template is a parsed, immutable template.
type Template struct {
	name         string
	def          TemplateDefinition
	subject      []segment
	body         []segment
	placeholders []string
}

// segment is either literal text or a placeholder reference.
type segment struct {
	text        string
	placeholder bool
}

func (t *Template) Name() string { return t.name }

// Definition returns the unparsed patterns the template was built from.
func (t *Template) Definition() TemplateDefinition { return t.def }

// Placeholders returns the sorted set of variables referenced by the subject and body.
func (t *Template) Placeholders() []string {
	return slices.Clone(t.placeholders)
}

// Rendered is the result of substituting variables into a template.
type Rendered struct {
	Subject string `json:"subject" yaml:"subject"`
	Body    string `json:"body" yaml:"body"`
}

// Registry is an immutable name -> template table. It is safe for concurrent use.
type Registry struct {
	templates map[string]*Template
	names     []string
	now       func() time.Time
}

// RegistryOption customises a Registry at construction time.
type RegistryOption func(*Registry)

// WithClock overrides the clock used for the default {time} variable.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry parses the given definitions. Duplicate or empty names are rejected.
func NewRegistry(defs []TemplateDefinition, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		templates: make(map[string]*Template, len(defs)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, errors.New("template name must not be empty")
		}
		if _, exists := r.templates[def.Name]; exists {
			return nil, fmt.Errorf("duplicate template %q", def.Name)
		}
		r.templates[def.Name] = parseTemplate(def)
		r.names = append(r.names, def.Name)
	}
	slices.Sort(r.names)
	return r, nil
}

// DefaultRegistry returns a registry holding the built-in notification templates.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	r, err := NewRegistry(DefaultTemplates(), opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

func (r *Registry) Lookup(name string) (*Template, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Render resolves the named template against vars. vars is never modified.
// When vars carries no "time" value the registry clock is used.
func (r *Registry) Render(name string, vars map[string]string) (Rendered, error) {
	t, ok := r.templates[name]
	if !ok {
		return Rendered{}, &UnknownTemplateError{Name: name}
	}

	bound := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		bound[k] = v
	}
	if bound[VarTime] == "" {
		bound[VarTime] = r.now().Format(TimestampLayout)
	}

	for _, p := range t.placeholders {
		if _, ok := bound[p]; !ok {
			return Rendered{}, &MissingVariableError{Template: name, Variable: p}
		}
	}

	return Rendered{
		Subject: substitute(t.subject, bound),
		Body:    substitute(t.body, bound),
	}, nil
}

func substitute(segments []segment, vars map[string]string) string {
	var b strings.Builder
	for _, s := range segments {
		if s.placeholder {
			b.WriteString(vars[s.text])
			continue
		}
		b.WriteString(s.text)
	}
	return b.String()
}

func parseTemplate(def TemplateDefinition) *Template {
	t := &Template{
		name:    def.Name,
		def:     def,
		subject: parsePattern(def.Subject),
		body:    parsePattern(def.Body),
	}
	for _, segs := range [][]segment{t.subject, t.body} {
		for _, s := range segs {
			if s.placeholder && !slices.Contains(t.placeholders, s.text) {
				t.placeholders = append(t.placeholders, s.text)
			}
		}
	}
	slices.Sort(t.placeholders)
	return t
}

// parsePattern splits a pattern into literal and placeholder segments.
// Braces that do not enclose a valid identifier are kept as literal text.
func parsePattern(pattern string) []segment {
	var (
		segs []segment
		lit  strings.Builder
	)
	for i := 0; i < len(pattern); {
		if pattern[i] == '{' {
			if end := strings.IndexByte(pattern[i+1:], '}'); end >= 0 {
				ident := pattern[i+1 : i+1+end]
				if isIdent(ident) {
					if lit.Len() > 0 {
						segs = append(segs, segment{text: lit.String()})
						lit.Reset()
					}
					segs = append(segs, segment{text: ident, placeholder: true})
					i += end + 2
					continue
				}
			}
		}
		lit.WriteByte(pattern[i])
		i++
	}
	if lit.Len() > 0 {
		segs = append(segs, segment{text: lit.String()})
	}
	return segs
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DefaultTemplates returns the built-in template definitions.
func DefaultTemplates() []TemplateDefinition {
	return []TemplateDefinition{
		{
			Name:    TemplateCustom,
			Subject: "{subject}",
			Body:    "Hello {name},\n\n{body}\n\nSent at: {time}\n\nCyberShield Pro Security Team",
		},
		{
			Name:    TemplateLogin,
			Subject: "New Login Detected - CyberShield Pro",
			Body: "Hello {name},\n\n" +
				"A new sign-in to your CyberShield Pro account was detected at {time}.\n\n" +
				"If this was you, no action is needed. If you do not recognise this activity, " +
				"reset your password immediately and contact security@cybershieldpro.com.\n\n" +
				"CyberShield Pro Security Team",
		},
		{
			Name:    TemplateSignup,
			Subject: "Welcome to CyberShield Pro - Your Account is Ready!",
			Body: "Hello {name},\n\n" +
				"Welcome to CyberShield Pro! Your account was created on {time}.\n\n" +
				"Security tip: enable two-factor authentication in your account settings.\n\n" +
				"This is an automated message. Please do not reply.\n\n" +
				"CyberShield Pro Security Team",
		},
		{
			Name:    TemplatePasswordReset,
			Subject: "Password Reset Request - CyberShield Pro",
			Body: "Hello {name},\n\n" +
				"A password reset was requested for your account at {time}.\n\n" +
				"If you did not request a reset, ignore this email; your password stays unchanged.\n\n" +
				"CyberShield Pro Security Team",
		},
		{
			Name:    TemplateThreatAlert,
			Subject: "THREAT ALERT: {subject}",
			Body: "Hello {name},\n\n" +
				"A threat was reported at {time}:\n\n{body}\n\n" +
				"Review the incident in your CyberShield Pro dashboard.\n\n" +
				"CyberShield Pro Security Team",
		},
		{
			Name:    TemplateContact,
			Subject: "New Contact Form Submission from {name}",
			Body: "A contact form was submitted at {time}.\n\n" +
				"Name: {name}\nEmail: {email}\n\nMessage:\n{body}",
		},
	}
}
