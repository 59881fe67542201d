package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/graph"
)

func relationsCmd() *cobra.Command {
	var relType string
	var direction string
	var depth int
	cmd := &cobra.Command{
		Use:   "relations <name>",
		Short: "Display relationships for a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelations(cmd, args[0], relType, direction, depth)
		},
	}
	cmd.Flags().StringVar(&relType, "type", "", "Relationship type to filter")
	cmd.Flags().StringVar(&direction, "direction", "both", "Direction: outgoing, incoming, or both")
	cmd.Flags().IntVar(&depth, "depth", 1, "Traversal depth (1-5)")
	return cmd
}

func runRelations(cmd *cobra.Command, name, relType, direction string, depth int) error {
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

	rels, err := client.GetRelationships(ctx, name, relType, direction, depth)
	if err != nil {
		return err
	}
	if len(rels) == 0 {
		fmt.Fprintf(out, "No relationships found for %q.\n", name)
		return nil
	}

	for _, rel := range rels {
		fmt.Fprintf(out, "[%d] %s -%s-> %s [%s]\n",
			rel.Depth,
			describeNode(rel.From),
			rel.Type,
			describeNode(rel.To),
			rel.Direction,
		)
	}
	return nil
}

func describeNode(n graph.NodeSummary) string {
	name := n.Name
	if n.Class != "" {
		name = n.Class + "." + n.Name
	}
	if n.Repository != "" {
		return fmt.Sprintf("%s (%s, %s)", name, n.Label, n.Repository)
	}
	return fmt.Sprintf("%s (%s)", name, n.Label)
}
