package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/RagBot/internal/handlers"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var PageHandler = Wrap(handlers.PageHandler)
var PingHandler = Wrap(handlers.PingHandler)
var AskHandler = Wrap(handlers.AskHandler)
var ClearSessionHandler = Wrap(handlers.ClearSessionHandler)
var LoginHandler = Wrap(handlers.LoginHandler)
var IndexInfoHandler = Wrap(handlers.IndexInfoHandler)
var LastUpdatedHandler = Wrap(handlers.LastUpdatedHandler)
var ConfigHandler = Wrap(handlers.ConfigHandler)
var TestSearchHandler = Wrap(handlers.TestSearchHandler)
var IndexingStatusHandler = Wrap(handlers.IndexingStatusHandler)
var WebhookHandler = Wrap(handlers.WebhookHandler)

var RebuildHandler = WrapAdmin(handlers.RebuildHandler)
var RebuildStatusHandler = WrapAdmin(handlers.RebuildStatusHandler)
var UpdateIndexHandler = WrapAdmin(handlers.UpdateIndexHandler)

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(next, false)
}

// WrapAdmin is Wrap plus the admin token check.
func WrapAdmin(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(next, true)
}

func wrapWith(next http.HandlerFunc, adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: 200} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if adminOnly && !re.badRequest.isBadRequest {
			re = adminAuthenticate(re)
		}
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

// processRequest runs the stages every route shares. Stages only mark the
// failure, handleBadRequest in the wrapper is the one place that writes it.
func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Info("New request received")

	re = injectTrace(re)
	if re.badRequest.isBadRequest {
		return re
	}
	return rateLimiter(re)
}
