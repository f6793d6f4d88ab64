package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eveview/eveview/internal/eveview/config"
	"github.com/eveview/eveview/internal/eveview/datastore"
	"github.com/eveview/eveview/internal/eveview/elastic"
	"github.com/eveview/eveview/internal/eveview/logger"
	"github.com/eveview/eveview/internal/eveview/sqlite"
)

var (
	cfgFile string
	Version = "v0.1"
	rootCmd = &cobra.Command{
		Use:   "eveview",
		Short: "eveview - Suricata eve event datastore",
		Long:  "eveview: import, query and triage Suricata eve events over Elasticsearch or SQLite.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// load config
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
			} else {
				// default: ./config.yaml
				viper.SetConfigFile("config.yaml")
			}
			if err := viper.ReadInConfig(); err != nil {
				// Most commands work from defaults and flags alone.
				fmt.Fprintf(os.Stderr, "Warning: could not read config (%v). Using defaults and flags.\n", err)
			}
			if err := config.Load(viper.GetViper()); err != nil {
				return err
			}

			// init logger
			cfg := config.Get()
			if err := logger.InitLogger(logger.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
			}); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return nil
		},
	}
)

func init() {
	cobra.OnInitialize()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	// add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(histogramCmd)
	rootCmd.AddCommand(importCmd)
}

// openDatastore builds the configured backend.
func openDatastore(ctx context.Context) (*datastore.Datastore, error) {
	cfg := config.Get()
	switch cfg.Database.Type {
	case "elasticsearch":
		es := cfg.Database.Elasticsearch
		client := elastic.NewClient(es.URL)
		if es.Username != "" {
			client = client.WithBasicAuth(es.Username, es.Password)
		}
		store := elastic.NewEventStore(client, es.Index, es.ECS, es.NoIndexSuffix)
		return datastore.NewElastic(store), nil
	case "sqlite":
		store, err := sqlite.NewEventStore(ctx, &sqlite.ConnectionBuilder{
			Filename: cfg.Database.SQLite.Filename,
		})
		if err != nil {
			return nil, err
		}
		return datastore.NewSQLite(store), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Database.Type)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
