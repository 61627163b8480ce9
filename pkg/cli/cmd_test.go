package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"

	"github.com/cybershield/notifier/pkg/client"
	"github.com/cybershield/notifier/pkg/config"
	"github.com/cybershield/notifier/pkg/version"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	root := NewRootCommand(Config{OutputWriter: buf})
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand(DefaultConfig())
	require.NotNil(t, root)
	assert.Equal(t, "notifier", root.Use)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "render", "templates", "config", "send", "health", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("notifier %s\n", version.GetBuildInfo()), out)

	out, err = runCommand(t, "version", "-o", "json")
	require.NoError(t, err)
	var info version.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Version, info.Version)

	out, err = runCommand(t, "version", "-o", "yaml")
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.GitCommit, info.GitCommit)

	_, err = runCommand(t, "version", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}

func TestTemplatesCommand(t *testing.T) {
	out, err := runCommand(t, "templates")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	for _, name := range []string{"custom", "login", "signup", "password_reset", "threat_alert", "contact"} {
		assert.Contains(t, out, name)
	}

	out, err = runCommand(t, "templates", "-o", "json")
	require.NoError(t, err)
	var summaries []templateSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summaries))
	require.Len(t, summaries, 6)
	assert.Equal(t, "contact", summaries[0].Name)
	assert.Equal(t, []string{"body", "email", "name", "time"}, summaries[0].Placeholders)
}

func TestRenderCommand(t *testing.T) {
	out, err := runCommand(t, "render", "--type", "login", "--name", "Alice", "--time", "2025-06-01 08:00:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Subject: New Login Detected - CyberShield Pro\n")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "2025-06-01 08:00:00")

	out, err = runCommand(t, "render", "-o", "json")
	require.NoError(t, err)
	var rendered map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rendered))
	assert.Equal(t, "Notification from CyberShield Pro", rendered["subject"])
	assert.Contains(t, rendered["body"], "Hello User,")

	out, err = runCommand(t, "render", "--type", "threat_alert", "--var", "subject=Ransomware,body=Quarantined")
	require.NoError(t, err)
	assert.Contains(t, out, "THREAT ALERT: Ransomware")
	assert.Contains(t, out, "Quarantined")

	_, err = runCommand(t, "render", "--type", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestConfigCommand(t *testing.T) {
	t.Setenv("MAIL_PASSWORD", "hunter2")
	t.Setenv("MAIL_SERVER", "smtp.config.test")

	out, err := runCommand(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "smtp.config.test")
	assert.Contains(t, out, "******")
	assert.NotContains(t, out, "hunter2")

	out, err = runCommand(t, "config", "-o", "json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.NotContains(t, out, "hunter2")
}

func TestConfigCommand_InvalidConfig(t *testing.T) {
	t.Setenv("MAIL_PROVIDER", "pigeon")

	_, err := runCommand(t, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_PROVIDER")
}

func TestRemoteCommands_Unreachable(t *testing.T) {
	addr := freeAddr(t)

	_, err := runCommand(t, "--server", "http://"+addr, "health", "--timeout", "500ms")
	assert.Error(t, err)

	_, err = runCommand(t, "--server", "http://"+addr, "send", "a@b.com", "--timeout", "500ms")
	assert.Error(t, err)

	_, err = runCommand(t, "send")
	assert.Error(t, err, "recipient argument is required")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestServe_EndToEnd(t *testing.T) {
	addr := freeAddr(t)
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	var port int
	_, err = fmt.Sscanf(portStr, "%d", &port)
	require.NoError(t, err)

	cfg := config.Config{
		Server: config.Server{Port: port},
		Mail: config.Mail{
			Provider:      config.ProviderSMTP,
			Server:        "localhost",
			Port:          25,
			DefaultSender: "noreply@cybershieldpro.com",
			SenderName:    "CyberShield Pro",
			SuppressSend:  true,
		},
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, cfg, zaptest.NewLogger(t), false)
	}()

	server := fmt.Sprintf("http://127.0.0.1:%d", port)
	c, err := client.New(client.WithServer(server), client.WithTimeout(time.Second))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := c.Health(context.Background())
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	out, err := runCommand(t, "--server", server, "send", "alice@example.com", "--type", "login", "--name", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Notification sent successfully (recipient: alice@example.com, type: login)\n", out)

	out, err = runCommand(t, "--server", server, "health", "-o", "json")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &health))
	assert.Equal(t, "Email service is operational", health["message"])

	_, err = runCommand(t, "--server", server, "send", "not-an-email")
	require.Error(t, err)
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 400, httpErr.StatusCode)
	assert.Equal(t, "Invalid email address: not-an-email", httpErr.Message)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
