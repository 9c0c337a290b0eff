package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

// DefaultOpenAIModel is used when no chat model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4o

// replySchema constrains the model to the turnResult shape.
var replySchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"response": {Type: "string"},
		"phase": {
			Type: "string",
			Enum: []any{"gathering", "edge_case_discovery", "validation", "complete"},
		},
		"dimensions": {
			Type: "object",
			AdditionalProperties: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"coverage": {
						Type: "string",
						Enum: []any{"not_started", "weak", "partial", "strong"},
					},
					"evidence": {
						Type:  "array",
						Items: &jsonschema.Schema{Type: "string"},
					},
				},
				Required: []string{"coverage", "evidence"},
			},
		},
	},
	Required: []string{"response", "phase", "dimensions"},
}

// OpenAIEngine implements Engine over the OpenAI chat completions API
// with a JSON-schema constrained response.
type OpenAIEngine struct {
	client *openai.Client
	model  openai.ChatModel
}

var _ Engine = (*OpenAIEngine)(nil)

// NewOpenAIEngine creates the engine. model may be empty for the
// default; baseURL may be empty for api.openai.com.
func NewOpenAIEngine(apiKey, model, baseURL string) *OpenAIEngine {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	m := openai.ChatModel(model)
	if m == "" {
		m = DefaultOpenAIModel
	}
	return &OpenAIEngine{client: &client, model: m}
}

func (e *OpenAIEngine) Respond(ctx context.Context, sess *session.Session, userText string) (*Reply, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt(sess)),
	}
	for _, m := range recentHistory(sess) {
		switch m.Role {
		case session.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(userText))

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    e.model,
		Messages: msgs,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "interview_turn",
					Schema: replySchema,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("engine: no choices in completion")
	}
	res, err := parseTurn(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("engine: openai: %w", err)
	}
	return buildReply(sess, res), nil
}
