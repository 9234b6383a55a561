// Package hugot serves embeddings from local sentence-transformer models
// through a pure Go ONNX session.
package hugot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/poiesic/probe/ai"
)

// ProviderName is the name the provider registers under in an ai.Manager.
const ProviderName = "hugot"

// DefaultModel produces 384-dimensional embeddings.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

// Provider implements ai.Provider with models stored under a local directory.
// Missing models are downloaded on first use.
type Provider struct {
	modelDir string
	mu       sync.Mutex
	session  *hugot.Session
	models   map[string]*Embedder
	logger   *slog.Logger
}

// NewProvider creates a provider keeping models under modelDir.
func NewProvider(modelDir string) (ai.Provider, error) {
	if modelDir == "" {
		return nil, errors.New("hugot: model directory is required")
	}
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}
	return &Provider{
		modelDir: modelDir,
		session:  session,
		models:   make(map[string]*Embedder),
		logger:   slog.Default().With("component", "hugot-provider"),
	}, nil
}

// Embedder returns the embedder for model, loading it if necessary.
// An empty model selects DefaultModel.
func (p *Provider) Embedder(model string) (ai.Embedder, error) {
	return p.embedder(model)
}

// Reranker scores documents by embedding similarity under model.
func (p *Provider) Reranker(model string) (ai.Reranker, error) {
	embedder, err := p.embedder(model)
	if err != nil {
		return nil, err
	}
	return ai.NewSimilarityReranker(embedder), nil
}

func (p *Provider) embedder(model string) (*Embedder, error) {
	if model == "" {
		model = DefaultModel
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, fmt.Errorf("%w: provider closed", ai.ErrModelNotInitialized)
	}
	if e, ok := p.models[model]; ok {
		return e, nil
	}

	modelPath, err := p.prepareModel(model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrModelCurrentlyUnsupported, err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-" + model,
	}
	pipeline, err := hugot.NewPipeline(p.session, config)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create pipeline for %s: %w", ai.ErrModelInvocation, model, err)
	}

	e := &Embedder{
		pipeline: pipeline,
		logger:   slog.Default().With("component", "hugot-embedder", "model", model),
	}
	p.models[model] = e
	p.logger.Info("loaded model", "model", model, "path", modelPath)
	return e, nil
}

// prepareModel downloads model into modelDir unless it is already there.
func (p *Provider) prepareModel(model string) (string, error) {
	modelPath := filepath.Join(p.modelDir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	} else if !os.IsNotExist(err) {
		return "", err
	}

	if err := os.MkdirAll(p.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}
	options := hugot.NewDownloadOptions()
	options.OnnxFilePath = "onnx/model.onnx"
	p.logger.Info("downloading model", "model", model)
	downloaded, err := hugot.DownloadModel(model, p.modelDir, options)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloaded, nil
}

// Close destroys the session and every pipeline loaded into it.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	err := p.session.Destroy()
	p.session = nil
	clear(p.models)
	return err
}

// Embedder implements ai.Embedder over a feature extraction pipeline.
type Embedder struct {
	mu       sync.Mutex
	pipeline *pipelines.FeatureExtractionPipeline
	logger   *slog.Logger
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated", ai.ErrModelInvocation)
	}
	return vecs[0], nil
}

// EmbedTexts generates vector embeddings for multiple texts in one pipeline run.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	result, err := e.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrModelInvocation, err)
	}
	return result.Embeddings, nil
}
