package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrAppConfigBroken is returned when the app or its model configuration is missing.
	ErrAppConfigBroken = errors.New("app model config broken")

	// ErrNoAudioUploaded is returned when a transcription request carries no audio.
	ErrNoAudioUploaded = errors.New("no audio uploaded")

	// ErrAudioTooLarge matches every *AudioTooLargeError.
	ErrAudioTooLarge = errors.New("audio too large")

	// ErrUnsupportedAudioType is returned for files outside the allowed formats.
	ErrUnsupportedAudioType = errors.New("audio type not allowed")

	// ErrProviderNotSupportSpeechToText is returned when no transcriber is configured.
	ErrProviderNotSupportSpeechToText = errors.New("provider does not support speech to text")

	// ErrProviderNotSupportTextToSpeech is returned when no synthesizer is configured
	// or the app has text to speech turned off.
	ErrProviderNotSupportTextToSpeech = errors.New("provider does not support text to speech")

	// ErrProviderNotSupportTextToSpeechLanguage is returned when a voice listing has no language.
	ErrProviderNotSupportTextToSpeechLanguage = errors.New("text to audio voices language parameter loss")

	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text is empty")
)

// AudioTooLargeError reports an upload over the size limit.
type AudioTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *AudioTooLargeError) Error() string {
	return fmt.Sprintf("Audio size larger than %d mb", e.Limit/(1024*1024))
}

func (e *AudioTooLargeError) Is(target error) bool {
	return target == ErrAudioTooLarge
}
