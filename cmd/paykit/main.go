package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	gateway    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "paykit",
		Short: "Build and dispatch payment transactions across gateways",
		Long: `paykit builds payment transactions, validates them locally and dispatches
them to the first configured gateway whose capabilities cover the request.

Gateways are enabled in the YAML config file or through PAYKIT_ environment
variables. The in-memory sandbox is enabled by default.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.gateway, "gateway", "g", "", "route to this gateway only")

	rootCmd.AddCommand(connectorsCmd(opts))
	rootCmd.AddCommand(chargeCmd(opts))
	rootCmd.AddCommand(authorizeCmd(opts))
	rootCmd.AddCommand(followUpCmd(opts, "capture", "Capture a preauthorized transaction"))
	rootCmd.AddCommand(followUpCmd(opts, "refund", "Refund a captured transaction"))
	rootCmd.AddCommand(followUpCmd(opts, "reverse", "Reverse a preauthorized or captured transaction"))
	rootCmd.AddCommand(demoCmd(opts))

	return rootCmd
}
