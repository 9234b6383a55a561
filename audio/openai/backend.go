// Package openai implements audio backends on OpenAI compatible speech APIs.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/poiesic/probe/ai"
	"github.com/poiesic/probe/audio"
)

// DefaultVoice is used when an app has no voice configured.
const DefaultVoice = string(goopenai.VoiceAlloy)

// ErrAudioHostRequired is returned when the configuration has no audio host.
var ErrAudioHostRequired = errors.New("audio host required")

var voices = []audio.Voice{
	{Name: "Alloy", Value: string(goopenai.VoiceAlloy)},
	{Name: "Echo", Value: string(goopenai.VoiceEcho)},
	{Name: "Fable", Value: string(goopenai.VoiceFable)},
	{Name: "Onyx", Value: string(goopenai.VoiceOnyx)},
	{Name: "Nova", Value: string(goopenai.VoiceNova)},
	{Name: "Shimmer", Value: string(goopenai.VoiceShimmer)},
}

// Backend transcribes and synthesizes speech through one API host.
type Backend struct {
	client             *goopenai.Client
	transcriptionModel string
	speechModel        string
	logger             *slog.Logger
}

var (
	_ audio.Transcriber = (*Backend)(nil)
	_ audio.Synthesizer = (*Backend)(nil)
	_ audio.VoiceLister = (*Backend)(nil)
)

// NewBackend creates a backend for config.AudioHost.
func NewBackend(config *ai.Config) (*Backend, error) {
	if config == nil || config.AudioHost == "" {
		return nil, ErrAudioHostRequired
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.AudioHost

	transcriptionModel := config.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = goopenai.Whisper1
	}
	speechModel := config.SpeechModel
	if speechModel == "" {
		speechModel = string(goopenai.TTSModel1)
	}

	return &Backend{
		client:             goopenai.NewClientWithConfig(clientConfig),
		transcriptionModel: transcriptionModel,
		speechModel:        speechModel,
		logger:             slog.Default().With("component", "audio-openai"),
	}, nil
}

// Transcribe sends audio to the transcription endpoint.
func (b *Backend) Transcribe(ctx context.Context, filename string, audio io.Reader, prompt string) (string, error) {
	resp, err := b.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    b.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
		Prompt:   prompt,
	})
	if err != nil {
		return "", translateError(err)
	}
	return resp.Text, nil
}

// Synthesize returns text spoken in voice as MP3 audio.
func (b *Backend) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}

	resp, err := b.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(b.speechModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, translateError(err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading speech: %w", ai.ErrModelInvocation, err)
	}
	b.logger.Debug("synthesized speech", "voice", voice, "bytes", len(data))
	return data, nil
}

// Voices returns the fixed OpenAI voice set. Every voice speaks every
// supported language.
func (b *Backend) Voices(ctx context.Context, language string) ([]audio.Voice, error) {
	return append([]audio.Voice(nil), voices...), nil
}

func translateError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return ai.ClassifyStatus(apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return ai.ClassifyStatus(reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("%w: %w", ai.ErrModelInvocation, err)
}
