package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"gocortex/adapters/excel"
	"gocortex/adapters/httpapi"
	"gocortex/adapters/jsonl"
	"gocortex/adapters/store"
	"gocortex/app"
	"gocortex/domain/anomaly"
	"gocortex/domain/core"
	"gocortex/domain/inference"
	"gocortex/internal/config"
	"gocortex/internal/testkit"
	"gocortex/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gocortex",
		Short: "Inference result pipeline: run, store, serve and export stream results",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newExportCmd(),
		newIngestCmd(),
		newSummaryCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRepository() (*store.Repository, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	repo, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	return repo, cfg, nil
}

func newRunCmd() *cobra.Command {
	var stream string
	var learn bool

	cmd := &cobra.Command{
		Use:   "run [values...]",
		Short: "Run a demo pipeline pass per value and persist the results",
		Long: `Run the full stage pipeline over a series of numeric inputs using the
built-in deterministic stand-in stages, persisting one inference result
per input into the configured store.

Example: gocortex run --stream demo 21.5 21.5 22.0 35.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			runner := app.NewPassRunner(app.PassConfig{
				StreamID:    core.StreamID(stream),
				Encoder:     testkit.NewStubEncoder("value"),
				Spatial:     &testkit.StubSpatialPooler{Columns: 256},
				Temporal:    testkit.StubTemporalMemory{},
				Classifiers: inference.Classifiers{"value": &testkit.StubClassifier{}},
				Scorer:      testkit.StubAnomalyScorer{},
				Sinks:       []ports.Sink{store.NewSink(repo)},
				Learn:       learn,
			})

			ctx := context.Background()
			window := anomaly.NewWindow(len(args))
			for i, arg := range args {
				value, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid input value %q: %w", arg, err)
				}
				rec, err := runner.RunPass(ctx, i+1, value)
				if err != nil {
					return err
				}
				window.Add(rec.AnomalyScore())
				fmt.Printf("pass %d: input=%v sdr_bits=%d anomaly=%.3f\n",
					rec.SequenceNumber(), rec.LayerInput(), len(rec.SDR()), rec.AnomalyScore())
			}

			if summary, err := window.Summarize(); err == nil {
				fmt.Printf("run summary: mean=%.3f max=%.3f over %d passes\n",
					summary.Mean, summary.Max, summary.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stream, "stream", "demo", "stream ID to record results under")
	cmd.Flags().BoolVar(&learn, "learn", true, "run stages in learning mode")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only results API",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, cfg, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()
			return httpapi.NewServer(repo).ListenAndServe(cfg.Server.Port)
		},
	}
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [stream]",
		Short: "Export a stream's results to an xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			streamID, err := core.ParseStreamID(args[0])
			if err != nil {
				return err
			}
			repo, cfg, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			path := out
			if path == "" {
				path = cfg.Export.Path
			}
			written, err := excel.NewExporter(repo).Export(context.Background(), streamID, path)
			if err != nil {
				return err
			}
			fmt.Printf("exported %d results to %s\n", written, path)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to EXPORT_PATH)")
	return cmd
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [stream] [file]",
		Short: "Ingest a JSONL feed of externally produced inference results",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			streamID, err := core.ParseStreamID(args[0])
			if err != nil {
				return err
			}
			repo, _, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			ingested, err := jsonl.NewReader(repo).IngestFile(context.Background(), streamID, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("ingested %d results into stream %s\n", ingested, streamID)
			return nil
		},
	}
}

func newSummaryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "summary [stream]",
		Short: "Print anomaly score statistics for a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			streamID, err := core.ParseStreamID(args[0])
			if err != nil {
				return err
			}
			repo, _, err := openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			scores, err := repo.Scores(context.Background(), streamID, limit)
			if err != nil {
				return err
			}
			if len(scores) == 0 {
				return fmt.Errorf("no anomaly scores recorded for stream %s", streamID)
			}

			summary, err := anomaly.Summarize(scores)
			if err != nil {
				return err
			}
			encoded, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(strings.TrimSpace(string(encoded)))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 1000, "most recent scores to include")
	return cmd
}
