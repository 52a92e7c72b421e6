package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/rs/cors"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/middleware"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

var (
	server  *http.Server
	_logger *logger_i.Logger
)

type ShutdownParams struct {
	GracefulShutdown chan os.Signal
	StopExecution    chan bool
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    context.CancelFunc
}

// CreateServer registers the routes and serves until shutdown. mcpHandler
// is mounted at /mcp when the MCP surface is enabled, nil skips it.
func CreateServer(listenAddr string, mcpHandler http.Handler) {
	_logger = logger_i.NewLogger("Server")

	r := utils.GetRouter()

	r.Router.Get("/", middleware.PageHandler)
	r.Router.Get("/ping", middleware.PingHandler)
	r.Router.Post("/ask", middleware.AskHandler)
	r.Router.Post("/clear-session", middleware.ClearSessionHandler)
	r.Router.Post("/login", middleware.LoginHandler)
	r.Router.Get("/index-info", middleware.IndexInfoHandler)
	r.Router.Get("/last-updated", middleware.LastUpdatedHandler)
	r.Router.Get("/config", middleware.ConfigHandler)
	r.Router.Get("/test-search", middleware.TestSearchHandler)
	r.Router.Post("/test-search", middleware.TestSearchHandler)
	r.Router.Get("/indexing-status", middleware.IndexingStatusHandler)
	r.Router.Post("/github-webhook", middleware.WebhookHandler)

	r.Router.Post("/rebuild", middleware.RebuildHandler)
	r.Router.Get("/rebuild/{id}", middleware.RebuildStatusHandler)
	r.Router.Post("/update-index", middleware.UpdateIndexHandler)

	if mcpHandler != nil {
		r.Router.Mount("/mcp", mcpHandler)
	}

	// the widget gets embedded on pages the service does not control, so
	// the whole surface is CORS-wrapped
	corsLayer := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      corsLayer.Handler(r.Router),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	_logger.Info("Server is listening at", "address", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		_logger.Error("Server crashed", "error :", err.Error(), "addr", listenAddr)
	}
}

func ShutDownHandler(shutdownParams ShutdownParams) {
	state := <-shutdownParams.GracefulShutdown
	println("\nServer is shutting down", state)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownContextTimeout)
	defer cancel()

	done := make(chan struct{})

	go func() {
		server.SetKeepAlivesEnabled(false)

		if err := server.Shutdown(ctx); err != nil {
			_logger.Error("Could not shutdown gracefully: %s", err)
		}

		//close workers
		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		shutdownParams.CloseServices()
		close(shutdownParams.StopExecution)
		close(done)
	}()

	select {
	case <-done:
		_logger.Info("Gracefully is shutting down")
	case <-ctx.Done():
		_logger.Info("Force Shut down")
		os.Exit(1)
	}
}
