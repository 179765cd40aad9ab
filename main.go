package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-zelasli/app"
	zelasli "github.com/km-arc/go-zelasli/framework/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "zelasli",
		Short:        "Zelasli application server",
		SilenceUsage: true,
		Version:      zelasli.Version,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, ".env files to load (default .env)")

	boot := func() (*zelasli.Application, error) {
		a, err := app.New(zelasli.WithEnvFiles(envFiles...))
		if err != nil {
			return nil, err
		}
		return a, a.Boot()
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve HTTP until interrupted",
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				a, err := boot()
				if err != nil {
					return err
				}
				return a.Run(ctx)
			},
		},
		&cobra.Command{
			Use:   "routes",
			Short: "List the registered routes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := boot()
				if err != nil {
					return err
				}
				printRoutes(cmd.OutOrStdout(), a)
				return nil
			},
		},
		&cobra.Command{
			Use:   "bindings",
			Short: "List the container bindings",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := boot()
				if err != nil {
					return err
				}
				printBindings(cmd.OutOrStdout(), a)
				return nil
			},
		},
	)
	return root
}

func printRoutes(w io.Writer, a *zelasli.Application) {
	for _, route := range a.Router().Routes() {
		fmt.Fprintln(w, route.String())
	}
}

func printBindings(w io.Writer, a *zelasli.Application) {
	for _, id := range a.Bindings() {
		kind := "transient"
		switch {
		case a.Resolved(id):
			kind = "resolved"
		case a.IsShared(id):
			kind = "shared"
		}
		fmt.Fprintf(w, "%-16s %s\n", id, kind)
	}
}
