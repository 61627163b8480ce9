package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cybershield/notifier/pkg/client"
	"github.com/cybershield/notifier/pkg/notification"
	"github.com/cybershield/notifier/pkg/version"
)

func (rt *runtimeState) Client(timeout time.Duration) (*client.Client, error) {
	return client.New(
		client.WithServer(rt.server),
		client.WithUserAgent("notifier/"+version.Version),
		client.WithTimeout(timeout),
	)
}

func NewSendCommand() *cobra.Command {
	var (
		req     notification.Request
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send EMAIL",
		Short: "Send a notification through a running service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			c, err := rt.Client(timeout)
			if err != nil {
				return err
			}
			req.Email = args[0]
			resp, err := c.SendNotification(cmd.Context(), req)
			if err != nil {
				return err
			}
			if rt.OutputFormat() == FormatText {
				_, _ = fmt.Fprintf(rt.Writer(), "%s (recipient: %s, type: %s)\n", resp.Message, resp.Recipient, resp.Type)
				return nil
			}
			return WriteObject(rt.Writer(), rt.OutputFormat(), resp)
		},
	}

	cmd.Flags().StringVarP(&req.Type, "type", "t", "", "Template name (default custom)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Recipient name")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Subject text")
	cmd.Flags().StringVar(&req.Body, "body", "", "Body text")
	cmd.Flags().StringVar(&req.HTMLBody, "html-body", "", "HTML alternative body")
	cmd.Flags().StringVar(&req.Time, "time", "", "Timestamp override")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	return cmd
}

func NewHealthCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the mail transport of a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			c, err := rt.Client(timeout)
			if err != nil {
				return err
			}
			resp, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			if rt.OutputFormat() == FormatText {
				_, _ = fmt.Fprintf(rt.Writer(), "%s (%s)\n", resp.Message, resp.Timestamp)
				return nil
			}
			return WriteObject(rt.Writer(), rt.OutputFormat(), resp)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	return cmd
}
