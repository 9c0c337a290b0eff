package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

// DefaultGeminiModel is used when no Gemini model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiEngine implements Engine over the Google Gemini API with a
// JSON response MIME type.
type GeminiEngine struct {
	client *genai.Client
	model  string
}

var _ Engine = (*GeminiEngine)(nil)

// NewGeminiEngine creates the engine from a pre-built genai client.
func NewGeminiEngine(client *genai.Client, model string) *GeminiEngine {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEngine{client: client, model: model}
}

func (e *GeminiEngine) Respond(ctx context.Context, sess *session.Session, userText string) (*Reply, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		SystemInstruction: genai.NewContentFromText(systemPrompt(sess), genai.RoleUser),
	}

	var contents []*genai.Content
	for _, m := range recentHistory(sess) {
		role := genai.Role(genai.RoleUser)
		if m.Role == session.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(userText, genai.RoleUser))

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, cfg)
	if err != nil {
		if ae, ok := err.(*apierror.APIError); ok {
			err = ae.Unwrap()
		}
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("engine: no candidates")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	res, err := parseTurn(sb.String())
	if err != nil {
		return nil, fmt.Errorf("engine: gemini: %w", err)
	}
	return buildReply(sess, res), nil
}
