package openai

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/customHttpClient"
	"github.com/akolanti/RagBot/internal/rag/llm"
	"github.com/akolanti/RagBot/pkg/logger_i"
	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    sdk.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		newOpenAIClient(modelName, apikey)
	})

	if openaiClient == nil {
		return nil
	}
	return &llmClient{client: openaiClient.client, modelName: openaiClient.modelName}
}

func newOpenAIClient(modelName string, apikey string) {
	if apikey == "" {
		logger.Error("OpenAI API key not set, client unavailable")
		return
	}

	c := sdk.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	)
	openaiClient = &llmClient{client: c, modelName: modelName}
	logger.Debug("OpenAI " + modelName + " client created")
	logger.Info("OpenAI client created")
}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	userPrompt := llm.BuildUserPrompt(userQuery, matches, messageHistory)

	resp, err := c.client.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(c.modelName),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(config.ModelContext),
			sdk.UserMessage(userPrompt),
		},
		Temperature: sdk.Float(config.ModelTemperature),
		MaxTokens:   sdk.Int(int64(config.MaxAnswerTokens)),
	})
	if err != nil {
		log.Error("Error generating answer with OpenAI", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}
