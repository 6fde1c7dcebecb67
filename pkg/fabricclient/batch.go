package fabricclient

import (
	"context"

	"github.com/rs/zerolog"
)

// BatchItem is one transaction in a batch submission.
type BatchItem struct {
	Fn   string   `json:"fn"`
	Args []string `json:"args"`
}

const (
	BatchStatusSucceeded = "SUCCEEDED"
	BatchStatusFailed    = "FAILED"
)

// BatchItemResult records the individual outcome for one batch entry.
type BatchItemResult struct {
	Index  int
	Status string
	Result *Result
	Err    error
}

// BatchResult aggregates per-item outcomes for observability.
type BatchResult struct {
	Items     []BatchItemResult
	Submitted int
	Succeeded int
	Failed    int
}

// SubmitBatch pushes each item through the orchestrator in order. A failing
// item is recorded and the batch moves on; there is no cross-item rollback
// because every item targets an independent collectible identity.
func (c *Client) SubmitBatch(ctx context.Context, items []BatchItem) BatchResult {
	log := zerolog.Nop()
	if c != nil {
		log = c.log
	}

	out := BatchResult{Items: make([]BatchItemResult, 0, len(items))}
	for i, item := range items {
		out.Submitted++
		res, err := c.Submit(ctx, item.Fn, item.Args...)
		if err != nil {
			out.Failed++
			log.Warn().Int("index", i).Str("fn", item.Fn).Err(err).Msg("batch item failed")
			out.Items = append(out.Items, BatchItemResult{Index: i, Status: BatchStatusFailed, Err: err})
			continue
		}
		out.Succeeded++
		out.Items = append(out.Items, BatchItemResult{Index: i, Status: BatchStatusSucceeded, Result: res})
	}

	log.Info().
		Int("submitted", out.Submitted).
		Int("succeeded", out.Succeeded).
		Int("failed", out.Failed).
		Msg("batch complete")
	return out
}
