package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	var label string
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Display nodes with the given name and their properties",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], label)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Node category to disambiguate, such as Class or Method")
	return cmd
}

func runShow(cmd *cobra.Command, name, label string) error {
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

	nodes, err := client.GetNodes(ctx, name, label)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		fmt.Fprintf(out, "No node found for %q.\n", name)
		return nil
	}

	for i, node := range nodes {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Name: %s\n", node.Name)
		fmt.Fprintf(out, "Labels: %s\n", joinValues(node.Labels))
		if node.Repository != "" {
			fmt.Fprintf(out, "Repository: %s\n", node.Repository)
		}

		if len(node.Properties) == 0 {
			continue
		}
		keys := make([]string, 0, len(node.Properties))
		for key := range node.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintln(out, "Properties:")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s: %s\n", key, formatCell(node.Properties[key]))
		}
	}
	return nil
}
