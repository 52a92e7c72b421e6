package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
)

// AskHandler godoc
// @Summary      Ask the knowledge base a question
// @Description  Retrieves matching documentation and generates an answer, folding the session's recent questions into retrieval for follow-ups.
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Param        request  body      api.AskRequest  true  "The question"
// @Success      200      {object}  api.AskResponse "Answer with rendered sources"
// @Failure      500      {object}  api.ErrorResponse
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.AskDeadline)
	defer cancel()

	if !validateContext(ctx) {
		logRH.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
		return
	}

	question := readQuestion(r)
	// the cookie goes out with the answer, so this has to run before any
	// body is written
	sessionId := handlerInstance.Cookies.SessionID(w, r)

	history, err := handlerInstance.Sessions.GetHistory(ctx, sessionId)
	if err != nil {
		logRH.Warn("History unavailable, answering without it", "error", err)
		history = nil
	}

	result, err := handlerInstance.Rag.Answer(ctx, question, history)
	if err != nil {
		logRH.Error("Ask pipeline failed", "traceId", traceIdFrom(ctx), "error", err)
		appendDataLog(config.ErrorLogPath(), fmt.Sprintf("trace=%s | %v", traceIdFrom(ctx), err))
		WriteErrorResponse(w, http.StatusInternalServerError, config.FailureAnswer)
		return
	}

	if strings.TrimSpace(question) != "" {
		exchange := chatModel.Exchange{Question: question, Answer: result.Answer, Asked: time.Now()}
		if err := handlerInstance.Sessions.SaveExchange(ctx, sessionId, exchange); err != nil {
			logRH.Warn("Could not persist exchange", "sessionId", sessionId, "error", err)
		}
	}

	writeJsonResponse(w, http.StatusOK, api.AskResponse{
		Status:  "success",
		Answer:  result.Answer,
		Sources: result.Sources,
		Cached:  result.Cached,
	})
}

// ClearSessionHandler godoc
// @Summary      Clear the conversation
// @Description  Expires the session cookie and drops the stored history. Succeeds even when no session exists.
// @Tags         Chat
// @Produce      json
// @Success      200  {object}  api.ClearSessionResponse
// @Router       /clear-session [post]
func ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.ClearSessionDeadline)
	defer cancel()

	if sessionId, ok := handlerInstance.Cookies.Clear(w, r); ok {
		if err := handlerInstance.Sessions.ClearSession(ctx, sessionId); err != nil {
			logRH.Warn("Could not drop session history", "sessionId", sessionId, "error", err)
		}
	}

	writeJsonResponse(w, http.StatusOK, api.ClearSessionResponse{
		Status:  "success",
		Message: "Conversation history cleared",
	})
}
