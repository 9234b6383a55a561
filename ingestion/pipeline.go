package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/core"
	"github.com/poiesic/probe/docstore"
	"github.com/poiesic/probe/storage"
)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Pipeline orchestrates the ingestion and processing of documents.
// It stores segments synchronously and embeds them on a worker pool.
type Pipeline struct {
	documents     storage.DocumentRepository
	segments      storage.SegmentRepository
	embeddingPool *ants.Pool
	embeddingProc *embeddingProcessor
	chunker       Chunker
	counter       ai.TokenCounter
	wg            sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker replaces the default sentence chunker.
func WithChunker(chunker Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithTokenCounter sets the counter used to price segments of high quality datasets.
func WithTokenCounter(counter ai.TokenCounter) Option {
	return func(p *Pipeline) error {
		p.counter = counter
		return nil
	}
}

// WithRetry configures how embedding calls are retried.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts < 1 {
			return fmt.Errorf("max attempts must be positive, got %d", maxAttempts)
		}
		p.embeddingProc.maxRetries = maxAttempts
		p.embeddingProc.retryDelay = baseDelay
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	documents storage.DocumentRepository,
	segments storage.SegmentRepository,
	models ai.ModelManager,
	opts ...Option,
) (*Pipeline, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if segments == nil {
		return nil, ErrSegmentRepositoryRequired
	}
	if models == nil {
		return nil, ErrModelManagerRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		documents:     documents,
		segments:      segments,
		embeddingPool: embeddingPool,
		embeddingProc: &embeddingProcessor{
			documents:  documents,
			segments:   segments,
			models:     models,
			maxRetries: defaultMaxRetries,
			retryDelay: defaultRetryDelay,
		},
		chunker: NewSentenceChunker(DefaultSentencesPerChunk, DefaultOverlapSentences),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.embeddingProc.logger = p.logger.With("processor", "embeddings")
	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	UserID string // Recorded as the creator of new segments
}

// Ingest stores text as a new document of dataset and schedules its segments
// for embedding. The returned document is in the indexing state; call Wait to
// block until processing finishes. Errors during async processing are
// recorded on the document and logged, but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, dataset *core.Dataset, name, text string, opts *IngestOptions) (*core.Document, error) {
	if err := core.ValidateDataset(dataset); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &IngestOptions{}
	}

	chunks := p.chunker.Chunk(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoText, name)
	}

	added, err := p.documents.AddDocuments(ctx, &core.Document{
		DatasetID:      dataset.Id,
		Name:           name,
		Enabled:        true,
		IndexingStatus: core.StatusIndexing,
	})
	if err != nil {
		return nil, err
	}
	document := added[0]

	store, err := docstore.NewStore(dataset, opts.UserID, document.Id, p.segments, p.counter)
	if err != nil {
		return nil, err
	}

	nodes := make([]core.IndexNode, len(chunks))
	for i, chunk := range chunks {
		nodes[i] = core.IndexNode{
			Content:    chunk,
			DocID:      uuid.NewString(),
			DocHash:    core.HashContent(chunk),
			DocumentID: document.Id,
			DatasetID:  dataset.Id,
		}
	}

	segments, err := store.AddDocuments(ctx, nodes, false)
	if err != nil {
		p.embeddingProc.markFailed(ctx, document, err)
		return nil, err
	}

	p.logger.Info("ingested document", "dataset", dataset.Id, "document", document.Id, "segments", len(segments))

	// The worker owns its own copy of the document record.
	job := *document
	p.wg.Add(1)
	err = p.embeddingPool.Submit(func() {
		defer p.wg.Done()
		if err := p.embeddingProc.process(context.Background(), dataset, &job, segments); err != nil {
			p.logger.Error("error processing embeddings", "document", document.Id, "err", err)
		}
	})
	if err != nil {
		p.wg.Done()
		p.embeddingProc.markFailed(ctx, document, err)
		return nil, err
	}

	return document, nil
}

// Wait blocks until all submitted documents have been processed.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
