package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/ingest"
)

func ingestCmd() *cobra.Command {
	var full bool
	var clear bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load repository semantic models into the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, ingest.Options{Full: full, Clear: clear})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Force full re-ingestion (ignore stored hashes)")
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete the whole graph before ingesting")
	return cmd
}

func runIngest(cmd *cobra.Command, opts ingest.Options) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	client, err := a.openGraph(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	result, err := ingest.Run(ctx, a.cfg, a.schema, client, opts)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Ingestion complete.")
	fmt.Fprintf(out, "  Files processed: %d\n", result.FilesProcessed)
	fmt.Fprintf(out, "  Files skipped:   %d\n", result.FilesSkipped)
	fmt.Fprintf(out, "  Nodes upserted:  %d\n", result.NodesUpserted)
	fmt.Fprintf(out, "  Edges upserted:  %d\n", result.EdgesUpserted)
	fmt.Fprintf(out, "  Nodes removed:   %d\n", result.NodesRemoved)

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for _, item := range result.Errors {
			fmt.Fprintf(out, "  - %v\n", item)
		}
		return fmt.Errorf("ingestion completed with errors")
	}

	return nil
}
