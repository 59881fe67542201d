package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/history"
	"codegraph/internal/query"
)

var errNotAnswered = errors.New("question could not be answered")

func askCmd() *cobra.Command {
	var asJSON bool
	var showAttempts bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a natural-language question about the codebase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return runAsk(cmd, question, asJSON, showAttempts)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full run as JSON")
	cmd.Flags().BoolVar(&showAttempts, "attempts", false, "Print every generated query attempt")
	return cmd
}

func runAsk(cmd *cobra.Command, question string, asJSON, showAttempts bool) error {
	ctx := cmd.Context()

	a, err := loadApp(cmd)
	if err != nil {
		return err
	}

	stopTracing, err := a.startTracing(ctx)
	if err != nil {
		return err
	}
	defer stopTracing()

	client, err := a.openGraph(ctx)
	if err != nil {
		return err
	}
	defer client.Close(ctx)

	var opts []query.Option
	store, err := a.openHistory(ctx)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close(ctx)
		opts = append(opts, query.WithRecorder(history.NewRecorder(store)))
	}

	orchestrator, err := a.newOrchestrator(ctx, client, opts...)
	if err != nil {
		return err
	}

	run := orchestrator.RunQuery(ctx, question)

	out := cmd.OutOrStdout()
	if asJSON {
		payload, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Fprintln(out, string(payload))
	} else {
		if showAttempts {
			printAttempts(cmd.ErrOrStderr(), run.Attempts)
		}
		if err := printResult(out, cmd.ErrOrStderr(), run.Result); err != nil {
			return err
		}
	}

	if !run.Succeeded() {
		return errNotAnswered
	}
	return nil
}
