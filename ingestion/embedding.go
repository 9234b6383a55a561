package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/reembed"
	"github.com/poiesic/probe/storage"
)

// embeddingProcessor generates embeddings for a document's new segments and
// publishes them to retrieval.
type embeddingProcessor struct {
	documents  storage.DocumentRepository
	segments   storage.SegmentRepository
	models     ai.ModelManager
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// process embeds segments (when the dataset is high quality), enables them,
// and marks document completed. Any failure marks document as errored.
func (ep *embeddingProcessor) process(ctx context.Context, dataset *core.Dataset, document *core.Document, segments []*core.Segment) error {
	logger := ep.logger.With("dataset", dataset.Id, "document", document.Id)
	logger.Info("processing segments for embeddings", "segments", len(segments))

	if err := ep.embed(ctx, dataset, segments); err != nil {
		logger.Error("error generating embeddings", "err", err)
		ep.markFailed(ctx, document, err)
		return err
	}

	for _, segment := range segments {
		segment.Enabled = true
		segment.Status = core.StatusCompleted
	}
	if _, err := ep.segments.UpdateSegments(ctx, segments...); err != nil {
		ep.markFailed(ctx, document, err)
		return err
	}

	document.IndexingStatus = core.StatusCompleted
	document.Error = ""
	if _, err := ep.documents.UpdateDocuments(ctx, document); err != nil {
		return err
	}

	logger.Debug("document indexed")
	return nil
}

func (ep *embeddingProcessor) embed(ctx context.Context, dataset *core.Dataset, segments []*core.Segment) error {
	if dataset.IndexingTechnique != core.IndexingHighQuality || len(segments) == 0 {
		return nil
	}

	embedder, err := ep.models.Embedder(ctx, dataset.TenantID, dataset.EmbeddingModelRef())
	if err != nil {
		return fmt.Errorf("failed to resolve embedding model: %w", err)
	}

	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Content
	}

	// Embed without writing; segments are published with their vectors below.
	embeddings, err := reembed.NewBatchProcessor(ep.segments, embedder, ep.maxRetries, ep.retryDelay).Embed(ctx, texts)
	if err != nil {
		return err
	}
	for i := range segments {
		segments[i].Vector = embeddings[i]
	}
	return nil
}

func (ep *embeddingProcessor) markFailed(ctx context.Context, document *core.Document, cause error) {
	document.IndexingStatus = core.StatusError
	document.Error = cause.Error()
	if _, err := ep.documents.UpdateDocuments(ctx, document); err != nil {
		ep.logger.Error("error recording indexing failure", "document", document.Id, "err", err)
	}
}
