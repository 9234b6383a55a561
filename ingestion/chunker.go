package ingestion

import (
	"regexp"
	"strings"
)

const (
	// DefaultSentencesPerChunk is the chunk size used when none is configured.
	DefaultSentencesPerChunk = 5

	// DefaultOverlapSentences is the number of sentences adjacent chunks share.
	DefaultOverlapSentences = 1
)

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// Chunker splits document text into segment contents.
type Chunker interface {
	Chunk(text string) []string
}

// SentenceChunker groups sentences into fixed-size windows, repeating the
// last OverlapSentences of each window at the start of the next.
type SentenceChunker struct {
	SentencesPerChunk int
	OverlapSentences  int
}

var _ Chunker = SentenceChunker{}

// NewSentenceChunker creates a chunker. Non-positive sizes select the
// default, and the overlap is clamped to less than the chunk size.
func NewSentenceChunker(sentencesPerChunk, overlapSentences int) SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = DefaultSentencesPerChunk
	}
	overlapSentences = max(0, min(overlapSentences, sentencesPerChunk-1))
	return SentenceChunker{
		SentencesPerChunk: sentencesPerChunk,
		OverlapSentences:  overlapSentences,
	}
}

// Chunk splits text into sentence windows. Text without sentence punctuation
// becomes a single chunk; blank text yields none.
func (c SentenceChunker) Chunk(text string) []string {
	c = NewSentenceChunker(c.SentencesPerChunk, c.OverlapSentences)

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	for i := 0; i < len(sentences); {
		end := min(i+c.SentencesPerChunk, len(sentences))
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.OverlapSentences
	}
	return chunks
}

func splitSentences(text string) []string {
	matches := sentenceSplitter.FindAllStringIndex(text, -1)

	var sentences []string
	last := 0
	for _, m := range matches {
		if s := strings.Join(strings.Fields(text[m[0]:m[1]]), " "); s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}
	// Trailing text without closing punctuation is still a sentence.
	if tail := strings.Join(strings.Fields(text[last:]), " "); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
