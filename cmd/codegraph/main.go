package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath string
	schemaPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:           "codegraph",
		Short:         "Ask questions about a codebase stored as a graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadDotEnv()
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "codegraph.yaml", "Project config file")
	root.PersistentFlags().StringVar(&schemaPath, "schema", "schema.yaml", "Graph schema file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override: debug, info, warn, error")

	root.AddCommand(askCmd())
	root.AddCommand(schemaCmd())
	root.AddCommand(cypherCmd())
	root.AddCommand(showCmd())
	root.AddCommand(relationsCmd())
	root.AddCommand(listCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
