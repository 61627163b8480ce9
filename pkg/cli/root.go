package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cybershield/notifier/pkg/config"
)

const defaultServer = "http://localhost:5000"

type Config struct {
	OutputWriter io.Writer
	// EnvFiles are loaded before the environment is read.
	EnvFiles []string
}

type runtimeState struct {
	envFiles     []string
	configFile   string
	outputFormat string
	server       string
	debug        bool
	writer       io.Writer
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		EnvFiles:     []string{".env"},
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{envFiles: cfg.EnvFiles, writer: cfg.OutputWriter}

	root := &cobra.Command{
		Use:           "notifier",
		Short:         "CyberShield Pro notification service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.server == "" {
				rt.server = os.Getenv("NOTIFIER_SERVER")
			}
			if rt.server == "" {
				rt.server = defaultServer
			}
			if rt.outputFormat == "" {
				rt.outputFormat = os.Getenv("NOTIFIER_OUTPUT")
			}
			return nil
		},
	}

	root.PersistentFlags().StringSliceVar(&rt.envFiles, "env-file", rt.envFiles, "Env files to load before reading the environment")
	root.PersistentFlags().StringVar(&rt.configFile, "config-file", "", "Optional config file (yaml, json or toml)")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "", "Output format: text, json, yaml")
	root.PersistentFlags().StringVar(&rt.server, "server", "", "Notification service URL for remote commands (default "+defaultServer+")")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewServeCommand(),
		NewRenderCommand(),
		NewTemplatesCommand(),
		NewConfigCommand(),
		NewSendCommand(),
		NewHealthCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

func (rt *runtimeState) OutputFormat() Format {
	if rt.outputFormat != "" {
		return Format(strings.ToLower(rt.outputFormat))
	}
	return FormatText
}

func (rt *runtimeState) LoadConfig() (config.Config, error) {
	return config.Load(config.Options{EnvFiles: rt.envFiles, ConfigFile: rt.configFile})
}
