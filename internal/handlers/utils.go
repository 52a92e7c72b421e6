package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/job"
	"github.com/akolanti/RagBot/internal/rag"
	"github.com/akolanti/RagBot/internal/session"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

var (
	handlerInstance *Dependencies //private singleton
	once            sync.Once
	logRH           = logger_i.NewLogger("RequestHandler")
)

// Dependencies is everything the HTTP surface needs. Wired once from main.
type Dependencies struct {
	Rag          rag.Service
	Sessions     chatModel.SessionStore
	Cookies      *session.Manager
	Jobs         *job.Service
	LLMProviders []string
	SessionStore string //"redis" or "memory", for the config endpoint
}

func InitHandlers(d Dependencies) {
	once.Do(func() {
		handlerInstance = &d
		logRH.Info("Starting request handlers")
	})
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response: %v", err)
	}
}

// WriteErrorResponse answers with the error envelope every failing
// endpoint shares.
func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Status: "error", Message: message})
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true

	}
}

func traceIdFrom(ctx context.Context) string {
	if v, ok := ctx.Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}

// AdminTokenHex is the expected admin token: hex sha256 of the configured
// password. Login returns it, the admin middleware compares against it.
func AdminTokenHex() string {
	sum := sha256.Sum256([]byte(config.AdminPassword))
	return hex.EncodeToString(sum[:])
}

// readQuestion pulls the question out of either a form post (the widget)
// or a JSON body (API clients).
func readQuestion(r *http.Request) string {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req api.AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logRH.Warn("Undecodable ask body", "error", err)
			return ""
		}
		return req.Q
	}
	return r.FormValue("q")
}

// appendDataLog appends one timestamped line to a log file in the data
// dir. Failures only get logged, a full disk must not take the request
// down with it.
func appendDataLog(path string, line string) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		logRH.Error("Could not create data dir for log append", "error", err)
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logRH.Error("Could not open log file", "path", path, "error", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s | %s\n", time.Now().Format("2006-01-02 15:04:05"), line)
}
