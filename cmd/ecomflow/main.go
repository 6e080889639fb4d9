package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	config  string
	backend string
	root    string
}

var rootCmd = &cobra.Command{
	Use:           "ecomflow",
	Short:         "Batch pipeline for e-commerce orders",
	Long:          "Cleans and enriches date-partitioned order, client and product extracts and computes stock, new-customer and revenue reports.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(rootFlags.config, rootFlags.backend, rootFlags.root)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if app == nil {
			return nil
		}
		return app.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "", "YAML config file (default $ECOM_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&rootFlags.backend, "backend", "", "storage backend: fs|pebble|badger|memory")
	rootCmd.PersistentFlags().StringVar(&rootFlags.root, "root", "", "data root directory")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ecomflow: %v\n", err)
		if app != nil {
			_ = app.Close()
		}
		stop()
		os.Exit(exitCode(err))
	}
}
