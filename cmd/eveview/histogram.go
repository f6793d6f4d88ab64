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

var histogramCmd = &cobra.Command{
	Use:   "histogram [query string]",
	Short: "Print time-bucketed event counts as JSON",
	RunE:  runHistogram,
}

var (
	flagHistInterval  string
	flagHistEventType string
	flagHistSince     time.Duration
)

func init() {
	histogramCmd.Flags().StringVar(&flagHistInterval, "interval", "hour",
		"bucket size: minute|hour|day")
	histogramCmd.Flags().StringVar(&flagHistEventType, "event-type", "",
		"restrict to one eve event type")
	histogramCmd.Flags().DurationVar(&flagHistSince, "since", 24*time.Hour,
		"only events newer than this (e.g. 6h)")
}

func runHistogram(cmd *cobra.Command, args []string) error {
	interval, err := core.HistogramIntervalFromString(flagHistInterval)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ds, err := openDatastore(ctx)
	if err != nil {
		return err
	}

	queryString := ""
	if len(args) > 0 {
		queryString = args[0]
	}
	minTimestamp := time.Now().Add(-flagHistSince)

	result, err := ds.Histogram(ctx, core.HistogramParameters{
		Interval:     interval,
		EventType:    flagHistEventType,
		QueryString:  queryString,
		MinTimestamp: &minTimestamp,
	})
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
