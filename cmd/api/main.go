// @title           Knowledge Base Chat API
// @version         1.0
// @description     RAG chat over a markdown knowledge base: session-aware ask endpoint, admin-triggered index rebuilds, GitHub webhook sync.
// @termsOfService  http://swagger.io/terms/

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/RagBot/internal/bot"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/data/store"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	jobmodel "github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/gitsync"
	"github.com/akolanti/RagBot/internal/handlers"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/job"
	"github.com/akolanti/RagBot/internal/mcptool"
	"github.com/akolanti/RagBot/internal/rag"
	"github.com/akolanti/RagBot/internal/rag/embedding"
	"github.com/akolanti/RagBot/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/RagBot/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/RagBot/internal/rag/llm"
	"github.com/akolanti/RagBot/internal/rag/llm/anthropic"
	"github.com/akolanti/RagBot/internal/rag/llm/gemini"
	"github.com/akolanti/RagBot/internal/rag/llm/openai"
	"github.com/akolanti/RagBot/internal/rag/vectorDB"
	"github.com/akolanti/RagBot/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/RagBot/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/RagBot/internal/server"
	"github.com/akolanti/RagBot/internal/session"
	"github.com/akolanti/RagBot/internal/worker"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	config.Load()
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//a fresh volume gets the index baked into the image
	copied, err := index.EnsureDataIndex()
	if err != nil {
		logger.Error("Bundled index copy failed", "error", err)
	} else if copied {
		logger.Info("Bundled index copied into the data directory")
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
	}
	logger.Info("Starting job service")

	if jobStore := store.GetRedisJobStore(serviceContext); jobStore != nil {
		serviceConfig.JobStore = jobStore
	} else {
		logger.Error("Redis job store is offline, falling back to the in-memory store")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	}
	service := job.InitJobService(serviceConfig)

	sessionStoreName := "redis"
	var sessions chatModel.SessionStore
	if redisSessions := store.GetRedisSessionStore(serviceContext); redisSessions != nil {
		sessions = redisSessions
	} else {
		logger.Error("Redis session store is offline, histories stay in memory")
		sessionStoreName = "memory"
		sessions = store.InitSessionStore()
	}

	var vector vectorDB.DataProcessor
	switch config.VectorBackend {
	case "qdrant":
		if client := qdrantDB.GetQuadrantClient(serviceContext); client != nil {
			vector = client
		}
	default:
		if chromemStore := chromemDB.GetChromemStore(serviceContext); chromemStore != nil {
			vector = chromemStore
		}
	}

	var embedder embedding.Embedder
	switch config.EmbeddingProvider {
	case "google":
		embedder = googleEmbedding.GetGoogleEmbeddingClient(serviceContext, config.GoogleEmbeddingModel, config.GoogleAPIKey)
	default:
		embedder = openaiEmbedding.GetOpenAIEmbeddingClient(serviceContext, config.OpenAIEmbeddingModel, config.OpenAIAPIKey)
	}

	//Add skips providers whose keys are missing, the chain keeps the rest
	llmChain := llm.NewChain().
		Add("anthropic", anthropic.GetAnthropicClient(serviceContext, config.AnthropicModelName, config.AnthropicAPIKey)).
		Add("openai", openai.GetOpenAIClient(serviceContext, config.OpenAIModelName, config.OpenAIAPIKey)).
		Add("gemini", gemini.GetGeminiClient(serviceContext, config.GeminiModelName, config.GoogleAPIKey))

	if vector == nil || embedder == nil || len(llmChain.Names()) == 0 {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "VectorDB", vector != nil, "EmbeddingService", embedder != nil, "LLMProviders", llmChain.Names())
		return
	}

	ragService := rag.NewService(vector, llmChain, embedder)

	//init worker pool
	worker.InitServices(service, index.NewBuilder(embedder, vector), gitsync.New())
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	handlers.InitHandlers(handlers.Dependencies{
		Rag:          ragService,
		Sessions:     sessions,
		Cookies:      session.NewManager(),
		Jobs:         service,
		LLMProviders: llmChain.Names(),
		SessionStore: sessionStoreName,
	})

	discordBot, err := bot.New(ragService, sessions)
	if err != nil {
		logger.Error("Discord bot setup failed", "error", err)
	} else if err := discordBot.Start(); err != nil {
		logger.Error("Discord bot failed to start", "error", err)
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr, mcptool.Handler(ragService))

	<-stopExecution
	if discordBot != nil {
		if err := discordBot.Stop(); err != nil {
			logger.Error("Discord bot close failed", "error", err)
		}
	}
	logger.Info("Server stopped")
}
