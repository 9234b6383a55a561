package core

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for persisted entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// HashContent returns a hex encoded BLAKE2b-256 digest of text.
// It is stored as a segment's index node hash to detect content changes.
func HashContent(text string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// SearchMethod selects which retrieval strategies run for a query.
type SearchMethod string

const (
	SearchMethodSemantic SearchMethod = "semantic_search"
	SearchMethodFullText SearchMethod = "full_text_search"
	SearchMethodHybrid   SearchMethod = "hybrid_search"
)

// IndexingTechnique controls whether a dataset is embedded with a model.
type IndexingTechnique string

const (
	IndexingHighQuality IndexingTechnique = "high_quality"
	IndexingEconomy     IndexingTechnique = "economy"
)

// IndexingStatus tracks documents and segments through ingestion.
type IndexingStatus string

const (
	StatusWaiting   IndexingStatus = "waiting"
	StatusIndexing  IndexingStatus = "indexing"
	StatusCompleted IndexingStatus = "completed"
	StatusError     IndexingStatus = "error"
)

// ModelRef names a model hosted by a provider.
type ModelRef struct {
	Provider string
	Model    string
}

// String returns "provider/model".
func (m ModelRef) String() string {
	return m.Provider + "/" + m.Model
}

// RetrievalConfig controls how a dataset is searched.
type RetrievalConfig struct {
	SearchMethod          SearchMethod
	RerankingEnabled      bool
	RerankingModel        *ModelRef // Required when RerankingEnabled
	TopK                  int
	ScoreThresholdEnabled bool
	ScoreThreshold        *float32 // Required when ScoreThresholdEnabled
}

// DefaultRetrievalConfig is used when neither the caller nor the dataset supplies one.
func DefaultRetrievalConfig() *RetrievalConfig {
	return &RetrievalConfig{
		SearchMethod:     SearchMethodSemantic,
		RerankingEnabled: false,
		TopK:             2,
	}
}

// EffectiveThreshold returns the score threshold, or nil when thresholding is disabled.
func (c *RetrievalConfig) EffectiveThreshold() *float32 {
	if !c.ScoreThresholdEnabled {
		return nil
	}
	return c.ScoreThreshold
}

// EffectiveRerankingModel returns the reranking model, or nil when reranking is disabled.
func (c *RetrievalConfig) EffectiveRerankingModel() *ModelRef {
	if !c.RerankingEnabled {
		return nil
	}
	return c.RerankingModel
}

// Dataset is a collection of documents searched as one index.
type Dataset struct {
	Id                ID
	TenantID          string
	Name              string
	IndexingTechnique IndexingTechnique
	EmbeddingProvider string
	EmbeddingModel    string
	RetrievalConfig   *RetrievalConfig // Saved retrieval settings, nil if never configured
	InsertedAt        time.Time
	UpdatedAt         time.Time
}

// EmbeddingModelRef returns the model used to embed the dataset's segments.
func (d *Dataset) EmbeddingModelRef() ModelRef {
	return ModelRef{Provider: d.EmbeddingProvider, Model: d.EmbeddingModel}
}

// Document is a single source file within a dataset.
type Document struct {
	Id             ID
	DatasetID      ID
	Name           string
	Enabled        bool
	Archived       bool
	IndexingStatus IndexingStatus
	Error          string // Last indexing error, if any
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Available reports whether the document participates in retrieval.
func (d *Document) Available() bool {
	return d.Enabled && !d.Archived && d.IndexingStatus == StatusCompleted
}

// Segment is a chunk of a document stored in the retrieval index.
type Segment struct {
	Id            ID
	TenantID      string
	DatasetID     ID
	DocumentID    ID
	IndexNodeID   string // Stable key shared with the search index
	IndexNodeHash string
	Position      int
	Content       string
	Answer        string
	WordCount     int
	Tokens        int
	Enabled       bool
	Status        IndexingStatus
	CreatedBy     string
	Vector        []float32 // Embedding vector (populated by ingestion)
	InsertedAt    time.Time
	UpdatedAt     time.Time
}

// Available reports whether the segment can be returned by retrieval.
func (s *Segment) Available() bool {
	return s.Enabled && s.Status == StatusCompleted
}

// IndexNode is the document-store view of a segment.
type IndexNode struct {
	Content    string
	DocID      string
	DocHash    string
	DocumentID ID
	DatasetID  ID
	Answer     string
}

// Account is the actor performing a retrieval.
type Account struct {
	Id   ID
	Name string
}

// UserTag identifies the account to model providers.
func (a *Account) UserTag() string {
	return "account-" + strconv.FormatUint(uint64(a.Id), 10)
}

// QuerySourceHitTesting tags queries logged by hit testing.
const QuerySourceHitTesting = "hit_testing"

// QueryLogEntry records one query against a dataset.
type QueryLogEntry struct {
	Id            ID
	DatasetID     ID
	Content       string
	Source        string
	CreatedByRole string
	CreatedBy     ID
	InsertedAt    time.Time
}

// ScoredFragment is one hit returned by a search strategy.
type ScoredFragment struct {
	FragmentID string // Segment index node ID
	Text       string
	Score      *float32
	Source     SearchMethod
}

// Position2D is a projected coordinate.
type Position2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// QueryPosition is the query half of a RetrievalResult.
type QueryPosition struct {
	Content  string     `json:"content"`
	Position Position2D `json:"tsne_position"`
}

// HitRecord pairs a stored segment with its score and projected position.
type HitRecord struct {
	Segment  *Segment   `json:"segment"`
	Score    *float32   `json:"score"`
	Position Position2D `json:"tsne_position"`
}

// RetrievalResult is the response of a hit-testing retrieval.
type RetrievalResult struct {
	Query   QueryPosition `json:"query"`
	Records []*HitRecord  `json:"records"`
}

// TextToSpeechSettings configures speech synthesis for an app.
type TextToSpeechSettings struct {
	Enabled  bool
	Voice    string
	Language string
}

// App is an application whose model configuration drives audio features.
type App struct {
	Id           ID
	TenantID     string
	Name         string
	PrePrompt    string
	TextToSpeech TextToSpeechSettings
}

// SegmentMatch is a stored segment scored by an index lookup.
type SegmentMatch struct {
	Segment *Segment
	Score   float32
}
