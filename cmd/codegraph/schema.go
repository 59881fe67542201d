package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func schemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema summary used in query prompts",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	return cmd
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	client, err := a.openGraph(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	summary, err := a.summarizer(client).Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.String())
	return nil
}
