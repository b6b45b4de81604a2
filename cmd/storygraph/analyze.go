package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kittclouds/storygraph/internal/observability"
	"github.com/kittclouds/storygraph/internal/store"
	"github.com/kittclouds/storygraph/pkg/docstore"
	"github.com/kittclouds/storygraph/pkg/graph"
	"github.com/kittclouds/storygraph/pkg/ingest"
	"github.com/kittclouds/storygraph/pkg/response"
	"github.com/kittclouds/storygraph/pkg/scanner/conductor"
)

type analyzeFlags struct {
	mime        string
	slim        bool
	db          string
	timeout     time.Duration
	concurrency int
}

// documentOutput is one line of analyze output.
type documentOutput struct {
	ID     string `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze <file>...",
		Short: "Analyze manuscripts and print their knowledge graphs as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("db") {
				a.cfg.Store.DSN = f.db
			}
			if cmd.Flags().Changed("timeout") {
				a.cfg.Batch.Timeout = f.timeout
			}
			if cmd.Flags().Changed("concurrency") {
				a.cfg.Batch.Concurrency = f.concurrency
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runAnalyze(cmd, a, f, args)
		},
	}

	cmd.Flags().StringVar(&f.mime, "mime", "", "declared MIME type of every input (default: detect from extension)")
	cmd.Flags().BoolVar(&f.slim, "slim", false, "print the compact graph instead of the full analysis")
	cmd.Flags().StringVar(&f.db, "db", "", "persist results to this SQLite database")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "overall analysis timeout (0 disables)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "documents analyzed in parallel")
	return cmd
}

func runAnalyze(cmd *cobra.Command, a *app, f analyzeFlags, paths []string) error {
	logger := observability.GetLogger()
	ctx := cmd.Context()
	if a.cfg.Batch.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Batch.Timeout)
		defer cancel()
	}

	docs := docstore.New()
	outputs := make(map[string]*documentOutput, len(paths))
	var order []string
	for _, path := range paths {
		if _, seen := outputs[path]; seen {
			continue
		}
		order = append(order, path)
		out := &documentOutput{ID: path}
		outputs[path] = out

		text, err := ingest.Decode(path, f.mime)
		if err != nil {
			logger.Warn("document decode failed", zap.String("document", path), zap.Error(err))
			out.Error = err.Error()
			continue
		}
		docs.Upsert(path, text, f.mime)
	}

	c, err := conductor.New(a.cfg.Analysis.Options(), conductor.WithLogger(logger))
	if err != nil {
		return err
	}

	var db *store.SQLiteStore
	if a.cfg.Store.DSN != "" {
		db, err = store.NewSQLiteStoreWithDSN(a.cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	start := time.Now()
	results := c.AnalyzeBatch(ctx, docs.PendingBatch(), a.cfg.Batch.Concurrency)
	elapsed := time.Since(start).Microseconds()

	for _, r := range results {
		out := outputs[r.ID]
		if r.Err != nil {
			out.Error = r.Err.Error()
			continue
		}
		doc, _ := docs.Get(r.ID)
		docs.MarkAnalyzed(r.ID, doc.Version)
		if f.slim {
			out.Result = response.Slim(r.Result, elapsed)
		} else {
			out.Result = r.Result
		}
		if db != nil {
			if err := persist(ctx, db, docs, r.ID, r.Result); err != nil {
				return err
			}
		}
	}

	failed := 0
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	for _, id := range order {
		out := outputs[id]
		if out.Error != "" {
			failed++
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}

	logger.Info("analysis finished",
		zap.Int("documents", len(order)),
		zap.Int("failed", failed),
		zap.Int64("elapsed_us", elapsed))

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(order))
	}
	return nil
}

func persist(ctx context.Context, db *store.SQLiteStore, docs *docstore.Store, id string, res *graph.AnalysisResult) error {
	doc, _ := docs.Get(id)
	err := db.UpsertDocument(ctx, &store.Document{
		ID:         id,
		Title:      id,
		Mime:       doc.Mime,
		Version:    doc.Version,
		TotalWords: res.TotalWords,
		Chapters:   res.EstimatedChapters,
		Summary:    res.Summary,
		AnalyzedAt: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("persist document %s: %w", id, err)
	}

	if err := db.ClearDocument(ctx, id); err != nil {
		return err
	}
	report, err := conductor.Persist(ctx, db.ForDocument(id), res)
	if err != nil {
		return err
	}
	observability.GetLogger().Debug("document persisted",
		zap.String("document", id),
		zap.Int("nodes", len(report.Nodes)),
		zap.Int("edges", len(report.Edges)),
		zap.Int("skipped", report.Skipped))
	return nil
}
