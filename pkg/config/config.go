package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// Mail holds the mail transport settings.
type Mail struct {
	Provider           string `mapstructure:"MAIL_PROVIDER" yaml:"provider"`
	Server             string `mapstructure:"MAIL_SERVER" yaml:"server"`
	Port               int    `mapstructure:"MAIL_PORT" yaml:"port"`
	// UseTLS requires STARTTLS before authenticating. When false STARTTLS is
	// still used if the server offers it. Ignored when UseSSL is set.
	UseTLS             bool   `mapstructure:"MAIL_USE_TLS" yaml:"useTLS"`
	UseSSL             bool   `mapstructure:"MAIL_USE_SSL" yaml:"useSSL"`
	InsecureSkipVerify bool   `mapstructure:"MAIL_TLS_INSECURE_SKIP_VERIFY" yaml:"insecureSkipVerify"`
	Username           string `mapstructure:"MAIL_USERNAME" yaml:"username"`
	Password           string `mapstructure:"MAIL_PASSWORD" yaml:"password"`
	DefaultSender      string `mapstructure:"MAIL_DEFAULT_SENDER" yaml:"defaultSender"`
	SenderName         string `mapstructure:"MAIL_SENDER_NAME" yaml:"senderName"`
	// MaxEmails caps the number of messages sent over one connection. 0 means unlimited.
	MaxEmails        int    `mapstructure:"MAIL_MAX_EMAILS" yaml:"maxEmails"`
	ASCIIAttachments bool   `mapstructure:"MAIL_ASCII_ATTACHMENTS" yaml:"asciiAttachments"`
	SuppressSend     bool   `mapstructure:"MAIL_SUPPRESS_SEND" yaml:"suppressSend"`
	Debug            bool   `mapstructure:"MAIL_DEBUG" yaml:"debug"`
	ResendAPIKey     string `mapstructure:"RESEND_API_KEY" yaml:"resendAPIKey"`
}

type Server struct {
	Port  int  `mapstructure:"PORT" yaml:"port"`
	Debug bool `mapstructure:"NOTIFIER_DEBUG" yaml:"debug"`
	// StrictJSON rejects malformed request bodies instead of treating them as {}.
	StrictJSON     bool     `mapstructure:"NOTIFIER_STRICT_JSON" yaml:"strictJSON"`
	AllowedOrigins []string `mapstructure:"NOTIFIER_ALLOWED_ORIGINS" yaml:"allowedOrigins"`
}

type Telemetry struct {
	Enabled      bool    `mapstructure:"OTEL_ENABLED" yaml:"enabled"`
	Exporter     string  `mapstructure:"OTEL_EXPORTER" yaml:"exporter"`
	Endpoint     string  `mapstructure:"OTEL_ENDPOINT" yaml:"endpoint"`
	Insecure     bool    `mapstructure:"OTEL_INSECURE" yaml:"insecure"`
	SamplingRate float64 `mapstructure:"OTEL_SAMPLING_RATE" yaml:"samplingRate"`
}

type Config struct {
	Server    Server    `mapstructure:",squash" yaml:"server"`
	Mail      Mail      `mapstructure:",squash" yaml:"mail"`
	Telemetry Telemetry `mapstructure:",squash" yaml:"telemetry"`
}

// Options control where Load looks for configuration.
type Options struct {
	// EnvFiles are loaded with godotenv before reading the environment. Missing files are skipped.
	EnvFiles []string
	// ConfigFile is an optional YAML/JSON/TOML file using the same upper-case keys as the environment.
	ConfigFile string
}

var defaults = map[string]any{
	"MAIL_PROVIDER":                 ProviderSMTP,
	"MAIL_SERVER":                   "smtp.gmail.com",
	"MAIL_PORT":                     587,
	"MAIL_USE_TLS":                  true,
	"MAIL_USE_SSL":                  false,
	"MAIL_TLS_INSECURE_SKIP_VERIFY": false,
	"MAIL_USERNAME":                 "",
	"MAIL_PASSWORD":                 "",
	"MAIL_DEFAULT_SENDER":           "noreply@cybershieldpro.com",
	"MAIL_SENDER_NAME":              "CyberShield Pro",
	"MAIL_MAX_EMAILS":               0,
	"MAIL_ASCII_ATTACHMENTS":        false,
	"MAIL_SUPPRESS_SEND":            false,
	"MAIL_DEBUG":                    false,
	"RESEND_API_KEY":                "",
	"PORT":                          5000,
	"NOTIFIER_DEBUG":                false,
	"NOTIFIER_STRICT_JSON":          false,
	"NOTIFIER_ALLOWED_ORIGINS":      []string{},
	"OTEL_ENABLED":                  false,
	"OTEL_EXPORTER":                 "stdout",
	"OTEL_ENDPOINT":                 "",
	"OTEL_INSECURE":                 false,
	"OTEL_SAMPLING_RATE":            1.0,
}

// Load reads configuration from env files, an optional config file and the process environment,
// in increasing order of precedence.
func Load(opts Options) (Config, error) {
	var cfg Config

	for _, f := range opts.EnvFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return cfg, fmt.Errorf("loading env file %s: %w", f, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
		if err := v.BindEnv(k); err != nil {
			return cfg, fmt.Errorf("binding %s: %w", k, err)
		}
	}
	// Older deployments export the SMTP password as EMAIL_PASSWORD.
	if err := v.BindEnv("MAIL_PASSWORD", "MAIL_PASSWORD", "EMAIL_PASSWORD"); err != nil {
		return cfg, fmt.Errorf("binding MAIL_PASSWORD: %w", err)
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("reading config file %s: %w", opts.ConfigFile, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Defaults()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Defaults fills zero values that would make the service unusable.
func (c *Config) Defaults() {
	if c.Mail.Provider == "" {
		c.Mail.Provider = ProviderSMTP
	}
	c.Mail.Provider = strings.ToLower(c.Mail.Provider)
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Mail.DefaultSender == "" {
		c.Mail.DefaultSender = "noreply@cybershieldpro.com"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	// Implicit TLS replaces STARTTLS. MAIL_USE_TLS defaults to true, so it is
	// cleared rather than rejected when only MAIL_USE_SSL is set.
	if c.Mail.UseSSL {
		c.Mail.UseTLS = false
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "stdout"
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.Mail.Provider != ProviderSMTP && c.Mail.Provider != ProviderResend {
		errs = append(errs, fmt.Errorf("MAIL_PROVIDER must be %q or %q, got %q", ProviderSMTP, ProviderResend, c.Mail.Provider))
	}
	if c.Mail.Provider == ProviderSMTP && c.Mail.Server == "" {
		errs = append(errs, errors.New("MAIL_SERVER is required"))
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		errs = append(errs, fmt.Errorf("MAIL_PORT must be between 1 and 65535, got %d", c.Mail.Port))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Mail.MaxEmails < 0 {
		errs = append(errs, fmt.Errorf("MAIL_MAX_EMAILS must not be negative, got %d", c.Mail.MaxEmails))
	}
	if c.Telemetry.SamplingRate < 0 || c.Telemetry.SamplingRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLING_RATE must be within [0,1], got %v", c.Telemetry.SamplingRate))
	}
	return errors.Join(errs...)
}

// ListenAddress returns the address the HTTP server binds to.
func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// Redacted returns a copy with secrets masked, suitable for logging or printing.
func (c Config) Redacted() Config {
	out := c
	out.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	if out.Mail.Password != "" {
		out.Mail.Password = "******"
	}
	if out.Mail.ResendAPIKey != "" {
		out.Mail.ResendAPIKey = "******"
	}
	return out
}

// splitList flattens comma-separated entries, as environment variables arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
