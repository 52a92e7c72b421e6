package handlers

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akolanti/RagBot/internal/adapter"
	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/worker"
)

// PingHandler godoc
// @Summary      Liveness check
// @Description  Answers immediately, index_status says whether an index has ever been built or copied.
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.PingResponse
// @Router       /ping [get]
func PingHandler(w http.ResponseWriter, r *http.Request) {
	indexStatus := "missing"
	if _, ok := index.LastUpdated(); ok {
		indexStatus = "ready"
	}

	writeJsonResponse(w, http.StatusOK, api.PingResponse{
		Status:      "ok",
		Message:     "Knowledge base chat service",
		IndexStatus: indexStatus,
	})
}

// IndexInfoHandler godoc
// @Summary      Inspect the index directories
// @Description  Paths, sizes and build metadata of the active and bundled index. For operators.
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.IndexInfoResponse
// @Router       /index-info [get]
func IndexInfoHandler(w http.ResponseWriter, r *http.Request) {
	res := api.IndexInfoResponse{
		IndexDir:   config.IndexDir(),
		BundledDir: config.BundledIndexDir,
	}

	if info, err := os.Stat(res.IndexDir); err == nil && info.IsDir() {
		res.IndexExists = true
	}
	if info, err := os.Stat(res.BundledDir); err == nil && info.IsDir() {
		res.BundledExists = true
	}
	if data, err := os.ReadFile(config.CopiedAtPath()); err == nil {
		res.CopiedAt = strings.TrimSpace(string(data))
	}
	if size, ok := index.ChunkStoreSize(); ok {
		res.ChunkStoreSize = size
	}
	if meta, err := index.ReadMetadata(); err == nil {
		res.Metadata = adapter.ToIndexMetadata(meta)
	}

	writeJsonResponse(w, http.StatusOK, res)
}

// LastUpdatedHandler godoc
// @Summary      When the index was last built
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.LastUpdatedResponse
// @Router       /last-updated [get]
func LastUpdatedHandler(w http.ResponseWriter, r *http.Request) {
	res := api.LastUpdatedResponse{LastUpdated: "never"}
	if stamp, ok := index.LastUpdated(); ok {
		res.LastUpdated = stamp
	}
	if at, ok := index.LastUpdatedAt(); ok {
		res.Timestamp = at.Unix()
	}
	writeJsonResponse(w, http.StatusOK, res)
}

// ConfigHandler godoc
// @Summary      Sanitized runtime configuration
// @Description  Which backends and models are wired up, plus live worker and session counts. No secrets.
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.ConfigResponse
// @Router       /config [get]
func ConfigHandler(w http.ResponseWriter, r *http.Request) {
	activeSessions, err := handlerInstance.Sessions.ActiveSessions(r.Context())
	if err != nil {
		logRH.Warn("Could not count sessions", "error", err)
	}

	writeJsonResponse(w, http.StatusOK, api.ConfigResponse{
		VectorBackend:     config.VectorBackend,
		EmbeddingProvider: config.EmbeddingProvider,
		LLMProviders:      handlerInstance.LLMProviders,
		RetrievalK:        config.RetrievalK,
		ChunkSize:         config.ChunkSize,
		ChunkOverlap:      config.ChunkOverlap,
		SessionStore:      handlerInstance.SessionStore,
		ActiveSessions:    activeSessions,
		WorkerCount:       worker.CurrentCount(),
		QueueDepth:        handlerInstance.Jobs.QueueDepth(),
		DiscordEnabled:    config.DiscordBotToken != "",
		DocsRepo:          config.DocsRepoName,
	})
}

// TestSearchHandler godoc
// @Summary      Raw retrieval, no generation
// @Description  Runs the embed and search stages for a query and returns the ranked hits. Diagnostic endpoint.
// @Tags         Status
// @Produce      json
// @Param        q  query     string  true   "Query"
// @Param        k  query     int     false  "Result count, defaults to the retrieval depth"
// @Success      200  {object}  api.TestSearchResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /test-search [get]
func TestSearchHandler(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.FormValue("q"))
	if query == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "q is required")
		return
	}

	k := config.RetrievalK
	if raw := r.FormValue("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			k = parsed
		}
	}

	previews, err := handlerInstance.Rag.SearchPreview(r.Context(), query, k)
	if err != nil {
		logRH.Error("Test search failed", "query", query, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Search failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.TestSearchResponse{
		Status:  "success",
		Query:   query,
		Results: adapter.ToSearchHits(previews),
	})
}

// IndexingStatusHandler godoc
// @Summary      Progress of the running or last build
// @Tags         Status
// @Produce      json
// @Success      200  {object}  api.IndexingStatusResponse
// @Router       /indexing-status [get]
func IndexingStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, progress := index.CurrentStatus()
	writeJsonResponse(w, http.StatusOK, api.IndexingStatusResponse{
		Status:  status,
		Percent: progress.Percent,
		Message: progress.Message,
	})
}
