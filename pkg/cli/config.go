package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// NewConfigCommand prints the effective configuration with secrets masked.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			cfg, err := rt.LoadConfig()
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			if rt.OutputFormat() == FormatJSON {
				return WriteObject(rt.Writer(), FormatJSON, redacted)
			}
			data, err := yaml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("failed to marshal to YAML: %w", err)
			}
			_, _ = fmt.Fprint(rt.Writer(), string(data))
			return nil
		},
	}
}
