package gemini

import (
	"context"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/rag/llm"
	"github.com/akolanti/RagBot/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Debug("Gemini " + modelName + " client created")
		logger.Info("Gemini client created")
		go closeClient(ctx, geminiClient)
	}

}

func (c *llmClient) Generate(ctx context.Context, userQuery string, matches []string, messageHistory []string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	systemInstruction := &genai.Content{
		Parts: []*genai.Part{
			{Text: config.ModelContext},
		},
	}

	userPrompt := llm.BuildUserPrompt(userQuery, matches, messageHistory)

	temperature := float32(config.ModelTemperature)
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       &temperature,
		MaxOutputTokens:   config.MaxAnswerTokens,
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(userPrompt),
		contentConfig,
	)
	if err != nil {
		log.Error("Error generating answer with Gemini", "error", err)
		return "", err
	}
	return result.Text(), nil
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llm.client = nil
	llm.modelName = ""
}
