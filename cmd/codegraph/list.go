package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var label string
	var repository string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List nodes in the graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, label, repository)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Node category to filter")
	cmd.Flags().StringVar(&repository, "repo", "", "Repository to filter")
	return cmd
}

func runList(cmd *cobra.Command, label, repository string) error {
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

	nodes, err := client.ListNodes(ctx, label, repository)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintln(out, "No nodes found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tNAME\tCLASS\tREPOSITORY")
	for _, node := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", node.Label, node.Name, node.Class, node.Repository)
	}
	return tw.Flush()
}
