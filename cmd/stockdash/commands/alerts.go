package commands

import (
	"context"
	"fmt"

	"github.com/marshallshelly/stockdash/cmd/stockdash/output"
	"github.com/marshallshelly/stockdash/pkg/store"
	"github.com/spf13/cobra"
)

var (
	alertsEnabled bool
	alertsEmail   bool
	alertsSMS     bool
)

// alertsCmd groups the alert settings commands
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Low-stock alert settings",
	Long: `Show or change the low-stock alert settings.

Settings are mirrored in the durable cache, so they stay readable while the
backend is down.`,
}

var alertsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show alert settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(runAlertsShow)
	},
}

var alertsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change alert settings (admin)",
	Long: `Change alert settings. Only the flags given are changed.

Examples:
  stockdash alerts set --enabled=false
  stockdash alerts set --email --sms=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			return runAlertsSet(ctx, a, cmd)
		})
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.AddCommand(alertsShowCmd, alertsSetCmd)

	alertsSetCmd.Flags().BoolVar(&alertsEnabled, "enabled", true, "Enable low-stock alerts")
	alertsSetCmd.Flags().BoolVar(&alertsEmail, "email", false, "Send alerts by email")
	alertsSetCmd.Flags().BoolVar(&alertsSMS, "sms", false, "Send alerts by SMS")
}

func loadAlerts(ctx context.Context, a *app) {
	if err := a.alerts.Load(ctx); err != nil && a.alerts.Source() != store.SourceRemote {
		output.Warning("Server unavailable, showing %s settings", a.alerts.Source())
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func runAlertsShow(ctx context.Context, a *app) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	loadAlerts(ctx, a)
	s := a.alerts.Settings()
	if jsonOutput {
		return output.JSON(s)
	}
	output.Section("Alert Settings")
	output.Table([]string{"SETTING", "VALUE"}, [][]string{
		{"Low-stock alerts", onOff(s.Enabled)},
		{"Email", onOff(s.EmailAlerts)},
		{"SMS", onOff(s.SMSAlerts)},
	})
	output.Muted("source: %s", a.alerts.Source())
	return nil
}

func runAlertsSet(ctx context.Context, a *app, cmd *cobra.Command) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	loadAlerts(ctx, a)

	s := a.alerts.Settings()
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		s.Enabled = alertsEnabled
	}
	if flags.Changed("email") {
		s.EmailAlerts = alertsEmail
	}
	if flags.Changed("sms") {
		s.SMSAlerts = alertsSMS
	}

	if err := a.alerts.Save(ctx, s); err != nil {
		return fail(err, "Failed to save alert settings")
	}
	output.Success("Alert settings saved")
	fmt.Fprintf(output.Stdout, "alerts %s, email %s, sms %s\n", onOff(s.Enabled), onOff(s.EmailAlerts), onOff(s.SMSAlerts))
	return nil
}
