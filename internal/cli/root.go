// Package cli implements erpctl, the command line console for the ERP API.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nurpe/erp-console/internal/apiclient"
	"github.com/nurpe/erp-console/internal/session"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is built once flags are parsed and shared by every subcommand.
type app struct {
	cfg     Config
	store   *session.Store
	client  *apiclient.Client
	out     io.Writer
	expired bool
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		baseURL    string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:          "erpctl",
		Short:        "Command line console for the ERP API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.BaseURL = baseURL
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.store = session.NewStore(cfg.SessionFile)
			a.client = apiclient.New(apiclient.Options{
				BaseURL: cfg.BaseURL,
				Timeout: cfg.Timeout,
				Session: a.store,
				OnSessionExpired: func() {
					a.expired = true
				},
			})
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to the erpctl config file")
	cmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (overrides config and "+baseURLEnv+")")

	cmd.AddCommand(
		loginCmd(a),
		logoutCmd(a),
		whoamiCmd(a),
		bootstrapCmd(a),
		callCmd(a),
		routesCmd(a),
		importPricesCmd(a),
		quoteCmd(a),
	)
	return cmd
}

// describe turns an API error into the message shown to the user. After a
// SESSION_EXPIRED answer the local session is already gone.
func (a *app) describe(err error) error {
	if err == nil {
		return nil
	}
	msg := apiclient.ClassifyError(err)
	if a.expired {
		return fmt.Errorf("%s Run `erpctl login`", msg.Text)
	}
	return fmt.Errorf("%s (%w)", msg.Text, err)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
