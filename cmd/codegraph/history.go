package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"codegraph/internal/history"
	"codegraph/internal/query"
)

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently answered questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyPruneCmd())
	return cmd
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Display one run with its query attempts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

func historyPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs older than the given age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return runHistoryPrune(cmd, olderThan)
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Minimum age of runs to delete")
	return cmd
}

func openHistoryStore(cmd *cobra.Command) (history.Store, error) {
	a, err := loadApp(cmd)
	if err != nil {
		return nil, err
	}
	store, err := a.openHistory(cmd.Context())
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("run history is disabled: set history.dsn in %s", configPath)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, limit int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tINTENT\tRESULT\tATTEMPTS\tDURATION\tQUESTION")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Intent,
			run.ResultKind,
			run.AttemptCount,
			run.Duration,
			cellReplacer.Replace(run.Question),
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	run, err := store.GetRun(ctx, id)
	if errors.Is(err, history.ErrRunNotFound) {
		fmt.Fprintf(out, "No run found for %q.\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "ID: %s\n", run.ID)
	fmt.Fprintf(out, "Question: %s\n", run.Question)
	fmt.Fprintf(out, "Intent: %s\n", run.Intent)
	fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Duration: %s\n", run.Duration)

	if len(run.Attempts) > 0 {
		fmt.Fprintln(out, "Attempts:")
		for _, attempt := range run.Attempts {
			fmt.Fprintf(out, "  [%d] %s: %s\n", attempt.Number, attempt.Status, cellReplacer.Replace(attempt.Query))
			if attempt.Error != "" {
				fmt.Fprintf(out, "      error: %s\n", attempt.Error)
			}
		}
	}

	fmt.Fprintln(out, "Result:")
	result, err := decodeResult(run.Result)
	if err != nil {
		return err
	}
	return printResult(out, out, result)
}

func runHistoryPrune(cmd *cobra.Command, olderThan time.Duration) error {
	ctx := cmd.Context()

	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	removed, err := store.PruneRuns(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d runs.\n", removed)
	return nil
}

// decodeResult reads the stored JSON form of a query.Result.
func decodeResult(data []byte) (query.Result, error) {
	var stored struct {
		Kind query.ResultKind `json:"kind"`
		Rows []query.Row      `json:"rows"`
		Text string           `json:"text"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return query.Result{}, fmt.Errorf("decoding stored result: %w", err)
	}
	switch stored.Kind {
	case query.ResultRows:
		return query.RowsResult(stored.Rows), nil
	case query.ResultExplanation:
		return query.ExplanationResult(stored.Text), nil
	default:
		return query.FailureResult(stored.Text), nil
	}
}
