package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eveview/eveview/internal/eveview/core"
)

var queryCmd = &cobra.Command{
	Use:   "query [query string]",
	Short: "Query events and print the result as JSON",
	RunE:  runQuery,
}

var (
	flagAlerts    bool
	flagEventType string
	flagOrder     string
	flagSize      int64
	flagSince     time.Duration
)

func init() {
	queryCmd.Flags().BoolVar(&flagAlerts, "alerts", false, "grouped alert view instead of raw events")
	queryCmd.Flags().StringVar(&flagEventType, "event-type", "", "restrict to one eve event type")
	queryCmd.Flags().StringVar(&flagOrder, "order", "", "sort order: asc|desc")
	queryCmd.Flags().Int64Var(&flagSize, "size", 0, "maximum events to return")
	queryCmd.Flags().DurationVar(&flagSince, "since", 0, "only events newer than this (e.g. 24h)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ds, err := openDatastore(ctx)
	if err != nil {
		return err
	}

	queryString := ""
	if len(args) > 0 {
		queryString = args[0]
	}

	var minTimestamp *time.Time
	if flagSince > 0 {
		ts := time.Now().Add(-flagSince)
		minTimestamp = &ts
	}

	var result map[string]any
	if flagAlerts {
		result, err = ds.AlertQuery(ctx, core.AlertQueryOptions{
			QueryString:  queryString,
			TimestampGte: minTimestamp,
		})
	} else {
		result, err = ds.EventQuery(ctx, core.EventQueryParams{
			QueryString:  queryString,
			EventType:    flagEventType,
			Order:        flagOrder,
			Size:         flagSize,
			MinTimestamp: minTimestamp,
		})
	}
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
