package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every key Load reads so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{"EMAIL_PASSWORD"}
	for k := range defaults {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, old) })
		}
	}
}

// unsetAfter removes keys that godotenv writes into the process environment.
func unsetAfter(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(Options{})

	require.NoError(t, err)
	assert.Equal(t, ProviderSMTP, cfg.Mail.Provider)
	assert.Equal(t, "smtp.gmail.com", cfg.Mail.Server)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.True(t, cfg.Mail.UseTLS)
	assert.False(t, cfg.Mail.UseSSL)
	assert.Empty(t, cfg.Mail.Username)
	assert.Empty(t, cfg.Mail.Password)
	assert.Equal(t, "noreply@cybershieldpro.com", cfg.Mail.DefaultSender)
	assert.Equal(t, "CyberShield Pro", cfg.Mail.SenderName)
	assert.Zero(t, cfg.Mail.MaxEmails)
	assert.False(t, cfg.Mail.ASCIIAttachments)
	assert.False(t, cfg.Mail.SuppressSend)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.False(t, cfg.Server.StrictJSON)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRate)
	assert.Equal(t, ":5000", cfg.ListenAddress())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_SERVER", "smtp.example.com")
	t.Setenv("MAIL_PORT", "2525")
	t.Setenv("MAIL_USE_TLS", "false")
	t.Setenv("MAIL_USERNAME", "alerts@example.com")
	t.Setenv("MAIL_PASSWORD", "s3cret")
	t.Setenv("MAIL_MAX_EMAILS", "10")
	t.Setenv("MAIL_SUPPRESS_SEND", "true")
	t.Setenv("PORT", "8080")
	t.Setenv("NOTIFIER_STRICT_JSON", "true")
	t.Setenv("NOTIFIER_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load(Options{})

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Server)
	assert.Equal(t, 2525, cfg.Mail.Port)
	assert.False(t, cfg.Mail.UseTLS)
	assert.Equal(t, "alerts@example.com", cfg.Mail.Username)
	assert.Equal(t, "s3cret", cfg.Mail.Password)
	assert.Equal(t, 10, cfg.Mail.MaxEmails)
	assert.True(t, cfg.Mail.SuppressSend)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.StrictJSON)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ":8080", cfg.ListenAddress())
}

func TestLoad_EmailPasswordFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("EMAIL_PASSWORD", "legacy")

	cfg, err := Load(Options{})

	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Mail.Password)

	t.Setenv("MAIL_PASSWORD", "preferred")
	cfg, err = Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "preferred", cfg.Mail.Password)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	unsetAfter(t, "MAIL_SERVER", "MAIL_USERNAME")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAIL_SERVER=smtp.dotenv.test\nMAIL_USERNAME=dotenv@example.com\n"), 0o600))

	cfg, err := Load(Options{EnvFiles: []string{filepath.Join(dir, "missing.env"), envFile}})

	require.NoError(t, err)
	assert.Equal(t, "smtp.dotenv.test", cfg.Mail.Server)
	assert.Equal(t, "dotenv@example.com", cfg.Mail.Username)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_SERVER", "smtp.env.test")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MAIL_SERVER=smtp.dotenv.test\n"), 0o600))

	cfg, err := Load(Options{EnvFiles: []string{envFile}})

	require.NoError(t, err)
	assert.Equal(t, "smtp.env.test", cfg.Mail.Server)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_PORT", "465")

	dir := t.TempDir()
	file := filepath.Join(dir, "notifier.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
MAIL_SERVER: smtp.file.test
MAIL_PORT: 2525
MAIL_USE_TLS: false
MAIL_USE_SSL: true
OTEL_ENABLED: true
OTEL_EXPORTER: none
`), 0o600))

	cfg, err := Load(Options{ConfigFile: file})

	require.NoError(t, err)
	assert.Equal(t, "smtp.file.test", cfg.Mail.Server)
	assert.Equal(t, 465, cfg.Mail.Port, "environment wins over the config file")
	assert.True(t, cfg.Mail.UseSSL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_MAX_EMAILS", "-1")

	_, err := Load(Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "MAIL_MAX_EMAILS")
}

func TestLoad_SSLOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAIL_USE_SSL", "true")
	t.Setenv("MAIL_PORT", "465")

	cfg, err := Load(Options{})

	require.NoError(t, err)
	assert.True(t, cfg.Mail.UseSSL)
	assert.False(t, cfg.Mail.UseTLS, "implicit TLS replaces the STARTTLS default")
	assert.Equal(t, 465, cfg.Mail.Port)
}

func validConfig() Config {
	return Config{
		Server: Server{Port: 5000},
		Mail: Mail{
			Provider: ProviderSMTP,
			Server:   "smtp.example.com",
			Port:     587,
			UseTLS:   true,
		},
		Telemetry: Telemetry{SamplingRate: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "resend without server", mutate: func(c *Config) {
			c.Mail.Provider = ProviderResend
			c.Mail.Server = ""
		}},
		{name: "unknown provider", mutate: func(c *Config) { c.Mail.Provider = "pigeon" }, wantErr: "MAIL_PROVIDER"},
		{name: "smtp without server", mutate: func(c *Config) { c.Mail.Server = "" }, wantErr: "MAIL_SERVER is required"},
		{name: "mail port out of range", mutate: func(c *Config) { c.Mail.Port = 70000 }, wantErr: "MAIL_PORT"},
		{name: "server port zero", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "PORT must be"},
		{name: "negative max emails", mutate: func(c *Config) { c.Mail.MaxEmails = -1 }, wantErr: "MAIL_MAX_EMAILS"},
		{name: "tls and ssl", mutate: func(c *Config) { c.Mail.UseSSL = true }},
		{name: "sampling rate", mutate: func(c *Config) { c.Telemetry.SamplingRate = 1.5 }, wantErr: "OTEL_SAMPLING_RATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Port = 0
	cfg.Mail.MaxEmails = -5

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_PORT")
	assert.Contains(t, err.Error(), "MAIL_MAX_EMAILS")
}

func TestDefaults_SSLClearsTLS(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.UseSSL = true

	cfg.Defaults()

	assert.True(t, cfg.Mail.UseSSL)
	assert.False(t, cfg.Mail.UseTLS)
}

func TestDefaults(t *testing.T) {
	var cfg Config
	cfg.Mail.Provider = "RESEND"

	cfg.Defaults()

	assert.Equal(t, ProviderResend, cfg.Mail.Provider)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, "noreply@cybershieldpro.com", cfg.Mail.DefaultSender)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "stdout", cfg.Telemetry.Exporter)
}

func TestRedacted(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Password = "hunter2"
	cfg.Mail.ResendAPIKey = "re_123"
	cfg.Server.AllowedOrigins = []string{"https://a.example.com"}

	red := cfg.Redacted()

	assert.Equal(t, "******", red.Mail.Password)
	assert.Equal(t, "******", red.Mail.ResendAPIKey)
	assert.Equal(t, "hunter2", cfg.Mail.Password, "the original is untouched")

	red.Server.AllowedOrigins[0] = "mutated"
	assert.Equal(t, "https://a.example.com", cfg.Server.AllowedOrigins[0])

	empty := validConfig().Redacted()
	assert.Empty(t, empty.Mail.Password, "unset secrets stay empty")
}
