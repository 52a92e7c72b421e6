package anthropic

import (
	"context"
	"errors"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/customHttpClient"
	"github.com/akolanti/RagBot/internal/rag/llm"
	"github.com/akolanti/RagBot/pkg/logger_i"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type llmClient struct {
	client    sdk.Client
	modelName string
}

var logger *logger_i.Logger
var anthropicClient *llmClient
var once sync.Once

func GetAnthropicClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_anthropic")
		newAnthropicClient(modelName, apikey)
	})

	if anthropicClient == nil {
		return nil
	}
	return &llmClient{client: anthropicClient.client, modelName: anthropicClient.modelName}
}

func newAnthropicClient(modelName string, apikey string) {
	if apikey == "" {
		logger.Error("Anthropic API key not set, client unavailable")
		return
	}

	c := sdk.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	)
	anthropicClient = &llmClient{client: c, modelName: modelName}
	logger.Debug("Anthropic " + modelName + " client created")
	logger.Info("Anthropic client created")
}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	userPrompt := llm.BuildUserPrompt(userQuery, matches, messageHistory)

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.modelName),
		MaxTokens:   int64(config.MaxAnswerTokens),
		Temperature: sdk.Float(config.ModelTemperature),
		System: []sdk.TextBlockParam{
			{Text: config.ModelContext},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Error("Error generating answer with Anthropic", "error", err)
		return "", err
	}
	if len(msg.Content) == 0 {
		return "", errors.New("empty completion from Anthropic")
	}
	return msg.Content[0].Text, nil
}
