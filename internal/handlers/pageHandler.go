package handlers

import (
	"net/http"

	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/web"
)

// PageHandler godoc
// @Summary      Chat page
// @Description  Serves the embedded chat widget with the knowledge-base build stamp.
// @Tags         Chat
// @Produce      html
// @Success      200  {string}  string  "HTML page"
// @Router       / [get]
func PageHandler(w http.ResponseWriter, r *http.Request) {
	lastUpdated := "never"
	if stamp, ok := index.LastUpdated(); ok {
		lastUpdated = stamp
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.RenderChatPage(w, web.ChatPageData{LastUpdated: lastUpdated}); err != nil {
		logRH.Error("Could not render the chat page", "error", err)
	}
}
