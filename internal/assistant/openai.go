package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Triage is the routing decision for a citizen report
type Triage struct {
	Department string `json:"department" jsonschema_description:"City department responsible for the issue: BBMP, BWSSB, BESCOM, Traffic Police or Pollution Board"`
	Priority   string `json:"priority" jsonschema_description:"Dispatch priority: Low, Medium, High or Critical"`
	Rationale  string `json:"rationale" jsonschema_description:"One sentence explaining the routing"`
}

// Triager routes reports to departments. Implemented by providers that
// support structured output.
type Triager interface {
	TriageReport(ctx context.Context, reportType, severity, location, description string) (*Triage, error)
}

// GenerateSchema builds a strict JSON schema for structured outputs
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var triageSchema = GenerateSchema[Triage]()

// OpenAIResponder generates replies through the OpenAI chat API
type OpenAIResponder struct {
	client    openai.Client
	model     string
	maxTokens int
}

// NewOpenAIResponder builds an OpenAI-backed responder
func NewOpenAIResponder(apiKey, model string, maxTokens int) *OpenAIResponder {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &OpenAIResponder{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name identifies the provider in responses and logs
func (o *OpenAIResponder) Name() string { return "openai" }

// Respond sends the conversation and returns the model's reply
func (o *OpenAIResponder) Respond(ctx context.Context, system string, history []Message, question string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(system))
	for _, msg := range history {
		if msg.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openai.UserMessage(question))

	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(chatTemperature),
		MaxTokens:   openai.Int(int64(o.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}

// Generate runs a single-prompt completion. precise lowers the
// temperature for recommendation-style output.
func (o *OpenAIResponder) Generate(ctx context.Context, prompt string, precise bool) (string, error) {
	temperature := chatTemperature
	if precise {
		temperature = preciseTemperature
	}
	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(o.model),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no choices")
	}
	return chat.Choices[0].Message.Content, nil
}

// TriageReport asks the model for a structured routing decision
func (o *OpenAIResponder) TriageReport(ctx context.Context, reportType, severity, location, description string) (*Triage, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "report_triage",
		Description: openai.String("Routing decision for a citizen environmental report"),
		Schema:      triageSchema,
		Strict:      openai.Bool(true),
	}

	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You route citizen environmental reports to the responsible Bengaluru city department. " +
				"Departments: BBMP (civic works, waste, trees, flooding), BWSSB (water and sewage), " +
				"BESCOM (electricity), Traffic Police (traffic), Pollution Board (air and noise)."),
			openai.UserMessage(fmt.Sprintf("Type: %s\nSeverity: %s\nLocation: %s\nDescription: %s",
				reportType, severity, location, description)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return nil, fmt.Errorf("triage request: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("triage returned no choices")
	}

	var triage Triage
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &triage); err != nil {
		return nil, fmt.Errorf("parsing triage: %w", err)
	}
	return &triage, nil
}
