package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// defaultSystemPrompt is used when no system prompt file is configured.
const defaultSystemPrompt = `You are a short-form video scriptwriter. You will receive a series of
past scripts from one creator, each tagged [PAST_SCRIPT_N], followed by a
[NEW_TOPIC] tag. Study the tone, pacing, vocabulary and hook style of the
past scripts, then write a brand new spoken script about the new topic in
exactly that voice. Return only the script text, wrapped in a single
<script>...</script> block, with no commentary before or after it.`

// GenerationError wraps a failure from the text-generation backend.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("script generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ScriptResponse is the structured response requested from the model.
type ScriptResponse struct {
	Script string `json:"script" jsonschema_description:"The complete generated video script"`
}

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

var scriptResponseSchema = GenerateSchema[ScriptResponse]()

// Client calls the OpenAI chat API to produce new scripts.
type Client struct {
	client       openai.Client
	systemPrompt string
}

// NewClient creates a generation client. If systemPromptPath is non-empty
// the system prompt is loaded from that file, otherwise a built-in prompt
// is used.
func NewClient(apiKey, systemPromptPath string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("an OpenAI API key is required for script generation")
	}

	prompt := defaultSystemPrompt
	if systemPromptPath != "" {
		data, err := os.ReadFile(systemPromptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt file %s: %w", systemPromptPath, err)
		}
		prompt = string(data)
	}

	return &Client{
		client:       openai.NewClient(option.WithAPIKey(apiKey)),
		systemPrompt: prompt,
	}, nil
}

// Generate sends the aggregated transcripts plus topic to the model and
// returns the generated script. An empty response without an API error means
// the provider suppressed the content; that is reported as an empty script,
// not a failure.
func (c *Client) Generate(ctx context.Context, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		log.Printf("Generate called with an empty prompt")
		return "", nil
	}

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "video_script",
		Description: openai.String("A generated short-form video script"),
		Schema:      scriptResponseSchema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(userText),
		},
		Model: openai.ChatModelGPT4oMini,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("OpenAI API error: %w", err)}
	}

	if len(chatCompletion.Choices) == 0 {
		return "", &GenerationError{Err: fmt.Errorf("no response from OpenAI")}
	}

	rawResponse := chatCompletion.Choices[0].Message.Content
	if rawResponse == "" {
		log.Printf("OpenAI returned an empty response. Finish reason: %s", chatCompletion.Choices[0].FinishReason)
		return "", nil
	}

	var scriptResp ScriptResponse
	if err := json.Unmarshal([]byte(rawResponse), &scriptResp); err != nil {
		return "", &GenerationError{Err: fmt.Errorf("failed to parse OpenAI JSON response: %w", err)}
	}

	return strings.TrimSpace(scriptResp.Script), nil
}
