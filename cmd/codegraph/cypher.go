package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func cypherCmd() *cobra.Command {
	var paramPairs []string
	var asTable bool
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Execute a raw read-only Cypher query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParams(paramPairs)
			if err != nil {
				return err
			}
			return runCypher(cmd, query, params, asTable)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Query parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&asTable, "table", false, "Print rows as a table instead of JSON")
	return cmd
}

func runCypher(cmd *cobra.Command, query string, params map[string]any, asTable bool) error {
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

	rows, err := client.RunCypher(ctx, query, params)
	if err != nil {
		return err
	}

	if asTable {
		return printRows(cmd.OutOrStdout(), rows)
	}
	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	return nil
}

func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}
