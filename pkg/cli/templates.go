package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cybershield/notifier/pkg/mail"
	"github.com/cybershield/notifier/pkg/notification"
)

func NewTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in notification templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			registry := mail.DefaultRegistry()
			var summaries []templateSummary
			for _, name := range registry.Names() {
				tmpl, _ := registry.Lookup(name)
				summaries = append(summaries, templateSummary{
					Name:         name,
					Subject:      tmpl.Definition().Subject,
					Placeholders: tmpl.Placeholders(),
				})
			}
			if rt.OutputFormat() == FormatText {
				WriteTemplateTable(rt.Writer(), summaries)
				return nil
			}
			return WriteObject(rt.Writer(), rt.OutputFormat(), summaries)
		},
	}
}

// NewRenderCommand renders a template locally with the same defaults the
// service applies, without sending anything.
func NewRenderCommand() *cobra.Command {
	var (
		req  notification.Request
		vars map[string]string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a notification template locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := getRuntime(cmd)
			if err != nil {
				return err
			}
			rendered, err := renderRequest(mail.DefaultRegistry(), req, vars)
			if err != nil {
				return err
			}
			if rt.OutputFormat() == FormatText {
				WriteRendered(rt.Writer(), rendered)
				return nil
			}
			return WriteObject(rt.Writer(), rt.OutputFormat(), rendered)
		},
	}

	cmd.Flags().StringVarP(&req.Type, "type", "t", notification.DefaultTemplate, "Template name")
	cmd.Flags().StringVar(&req.Email, "email", "user@example.com", "Recipient address bound to {email}")
	cmd.Flags().StringVar(&req.Name, "name", "", "Recipient name")
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Subject text for templates that use {subject}")
	cmd.Flags().StringVar(&req.Body, "body", "", "Body text for templates that use {body}")
	cmd.Flags().StringVar(&req.Time, "time", "", "Timestamp override")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Extra placeholder values (key=value)")

	return cmd
}

func renderRequest(registry *mail.Registry, req notification.Request, extra map[string]string) (mail.Rendered, error) {
	req = notification.ApplyDefaults(req)
	vars := notification.Variables(req)
	for k, v := range extra {
		vars[k] = v
	}
	rendered, err := registry.Render(req.Type, vars)
	if err != nil {
		return mail.Rendered{}, fmt.Errorf("rendering %s: %w", req.Type, err)
	}
	return rendered, nil
}
