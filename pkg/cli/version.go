package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybershield/notifier/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show notifier version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetBuildInfo()

			writer := cmd.OutOrStdout()
			format := FormatText
			if rt, _ := getRuntime(cmd); rt != nil {
				writer = rt.Writer()
				format = rt.OutputFormat()
			}

			if format == FormatText {
				_, _ = fmt.Fprintf(writer, "notifier %s\n", info)
				return nil
			}
			return WriteObject(writer, format, info)
		},
	}
}
