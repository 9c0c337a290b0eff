package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default OpenAI models.
const (
	DefaultTranscribeModel = openai.AudioModelWhisper1
	DefaultSpeechModel     = openai.SpeechModelTTS1
	DefaultVoice           = "alloy"
)

// OpenAIOption configures the OpenAI speech adapters.
type OpenAIOption func(*openaiConfig)

type openaiConfig struct {
	baseURL         string
	transcribeModel openai.AudioModel
	speechModel     openai.SpeechModel
	voice           string
}

// WithBaseURL points the adapters at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openaiConfig) { c.baseURL = url }
}

// WithTranscribeModel overrides the transcription model.
func WithTranscribeModel(model string) OpenAIOption {
	return func(c *openaiConfig) { c.transcribeModel = openai.AudioModel(model) }
}

// WithSpeechModel overrides the synthesis model.
func WithSpeechModel(model string) OpenAIOption {
	return func(c *openaiConfig) { c.speechModel = openai.SpeechModel(model) }
}

// WithVoice overrides the synthesis voice.
func WithVoice(voice string) OpenAIOption {
	return func(c *openaiConfig) { c.voice = voice }
}

func newOpenAIClient(apiKey string, cfg *openaiConfig) *openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(opts...)
	return &client
}

func applyOpenAIOptions(opts []OpenAIOption) *openaiConfig {
	cfg := &openaiConfig{
		transcribeModel: DefaultTranscribeModel,
		speechModel:     DefaultSpeechModel,
		voice:           DefaultVoice,
	}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// OpenAITranscriber implements Transcriber via the OpenAI audio
// transcriptions API.
type OpenAITranscriber struct {
	client *openai.Client
	model  openai.AudioModel
}

var _ Transcriber = (*OpenAITranscriber)(nil)

// NewOpenAITranscriber creates a whisper-backed transcriber.
func NewOpenAITranscriber(apiKey string, opts ...OpenAIOption) *OpenAITranscriber {
	cfg := applyOpenAIOptions(opts)
	return &OpenAITranscriber{
		client: newOpenAIClient(apiKey, cfg),
		model:  cfg.transcribeModel,
	}
}

func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: t.model,
		File:  openai.File(bytes.NewReader(audio), "utterance.webm", "audio/webm"),
	})
	if err != nil {
		return "", fmt.Errorf("speech: transcribe: %w", err)
	}
	return resp.Text, nil
}

// OpenAISynthesizer implements Synthesizer via the OpenAI audio speech
// API.
type OpenAISynthesizer struct {
	client *openai.Client
	model  openai.SpeechModel
	voice  string
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)

// NewOpenAISynthesizer creates a tts-backed synthesizer.
func NewOpenAISynthesizer(apiKey string, opts ...OpenAIOption) *OpenAISynthesizer {
	cfg := applyOpenAIOptions(opts)
	return &OpenAISynthesizer{
		client: newOpenAIClient(apiKey, cfg),
		model:  cfg.speechModel,
		voice:  cfg.voice,
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: s.model,
		Voice: openai.AudioSpeechNewParamsVoice(s.voice),
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech: synthesize read: %w", err)
	}
	return data, nil
}
