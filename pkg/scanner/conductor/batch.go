package conductor

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/storygraph/pkg/graph"
)

// Document is one input of a batch.
type Document struct {
	ID   string
	Text string
}

// BatchResult is the outcome of one batch document. Exactly one of Result
// and Err is set.
type BatchResult struct {
	ID     string
	Result *graph.AnalysisResult
	Err    error
}

// AnalyzeContext runs Analyze and gives up when ctx is done. The pipeline
// itself cannot be interrupted; an abandoned run finishes in the background
// and its result is dropped.
func (c *Conductor) AnalyzeContext(ctx context.Context, text string) (*graph.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type outcome struct {
		res *graph.AnalysisResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.Analyze(text)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		return o.res, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AnalyzeBatch analyzes docs with at most concurrency pipelines in flight.
// Failures are reported per document and never stop the siblings; once ctx
// is done, documents not yet started fail with the context error. Results
// keep the order of docs.
func (c *Conductor) AnalyzeBatch(ctx context.Context, docs []Document, concurrency int) []BatchResult {
	results := make([]BatchResult, len(docs))
	if concurrency <= 0 {
		concurrency = 1
	}

	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			results[i].ID = doc.ID
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			res, err := c.AnalyzeContext(ctx, doc.Text)
			if err != nil {
				c.logger.Warn("document analysis failed", zap.String("document", doc.ID), zap.Error(err))
				results[i].Err = err
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
