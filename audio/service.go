// Package audio converts between speech and text for apps.
//
// The Service validates requests and delegates to pluggable backends; the
// openai sub-package provides one for OpenAI compatible APIs.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/probe/core"
)

// MaxAudioSize is the largest upload Transcribe accepts.
const MaxAudioSize = 15 * 1024 * 1024

// AllowedExtensions lists the audio formats Transcribe accepts.
var AllowedExtensions = []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm", "amr"}

// Transcriber converts audio to text.
type Transcriber interface {
	// Transcribe returns the text spoken in audio. filename carries the
	// format; prompt may guide the model's vocabulary.
	Transcribe(ctx context.Context, filename string, audio io.Reader, prompt string) (string, error)
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// VoiceLister lists the voices available for a language.
type VoiceLister interface {
	Voices(ctx context.Context, language string) ([]Voice, error)
}

// Upload is an uploaded audio file.
type Upload struct {
	Filename string
	Data     []byte
}

// Transcript is the result of a transcription.
type Transcript struct {
	Text string `json:"text"`
}

// Voice is a selectable synthesis voice.
type Voice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Service handles audio requests for apps.
type Service struct {
	transcriber Transcriber
	synthesizer Synthesizer
	voices      VoiceLister
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a Service. Any backend may be nil, in which case the
// operations needing it report that the provider lacks support.
func NewService(transcriber Transcriber, synthesizer Synthesizer, voices VoiceLister, opts ...Option) (*Service, error) {
	s := &Service{
		transcriber: transcriber,
		synthesizer: synthesizer,
		voices:      voices,
		logger:      slog.Default().With("component", "audio"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Transcribe converts upload to text, using the app's pre-prompt as context.
func (s *Service) Transcribe(ctx context.Context, app *core.App, upload *Upload) (*Transcript, error) {
	if app == nil {
		return nil, ErrAppConfigBroken
	}
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrNoAudioUploaded
	}
	if size := int64(len(upload.Data)); size > MaxAudioSize {
		return nil, &AudioTooLargeError{Size: size, Limit: MaxAudioSize}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
	if !slices.Contains(AllowedExtensions, ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAudioType, ext)
	}
	if s.transcriber == nil {
		return nil, ErrProviderNotSupportSpeechToText
	}

	s.logger.Debug("transcribing audio", "app", app.Id, "bytes", len(upload.Data), "format", ext)
	text, err := s.transcriber.Transcribe(ctx, upload.Filename, bytes.NewReader(upload.Data), app.PrePrompt)
	if err != nil {
		s.logger.Error("transcription failed", "app", app.Id, "err", err)
		return nil, err
	}
	return &Transcript{Text: text}, nil
}

// Synthesize speaks text in the app's configured voice.
func (s *Service) Synthesize(ctx context.Context, app *core.App, text string) ([]byte, error) {
	if app == nil {
		return nil, ErrAppConfigBroken
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if s.synthesizer == nil || !app.TextToSpeech.Enabled {
		return nil, ErrProviderNotSupportTextToSpeech
	}

	audio, err := s.synthesizer.Synthesize(ctx, text, app.TextToSpeech.Voice)
	if err != nil {
		s.logger.Error("speech synthesis failed", "app", app.Id, "err", err)
		return nil, err
	}
	return audio, nil
}

// Voices lists the synthesis voices available for language.
func (s *Service) Voices(ctx context.Context, app *core.App, language string) ([]Voice, error) {
	if app == nil {
		return nil, ErrAppConfigBroken
	}
	if language == "" {
		return nil, ErrProviderNotSupportTextToSpeechLanguage
	}
	if s.voices == nil {
		return nil, ErrProviderNotSupportTextToSpeech
	}
	return s.voices.Voices(ctx, language)
}
