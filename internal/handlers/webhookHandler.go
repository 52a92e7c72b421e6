package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/index"
)

// WebhookHandler godoc
// @Summary      GitHub push webhook
// @Description  Queues a docs sync when the push is for the configured repository. Answers fast, the clone and rebuild happen in a background job.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      api.WebhookPayload  true  "GitHub push event (only ref, repository and pusher are read)"
// @Success      202      {object}  api.WebhookResponse  "Sync queued"
// @Success      200      {object}  api.WebhookResponse  "Ignored or skipped"
// @Failure      400      {object}  api.ErrorResponse
// @Router       /github-webhook [post]
func WebhookHandler(w http.ResponseWriter, r *http.Request) {
	var payload api.WebhookPayload
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the webhook reader :", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logRH.Warn("Undecodable webhook payload", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	if config.DocsRepoName == "" || payload.Repository.Name != config.DocsRepoName {
		logRH.Info("Webhook for unconfigured repository ignored", "repo", payload.Repository.FullName)
		writeJsonResponse(w, http.StatusOK, api.WebhookResponse{
			Status:  "ignored",
			Message: "Push is not for the configured docs repository",
		})
		return
	}

	if index.Locked() {
		logRH.Info("Webhook sync skipped, rebuild lock held")
		writeJsonResponse(w, http.StatusOK, api.WebhookResponse{
			Status:  "skipped",
			Message: "A rebuild is already running",
		})
		return
	}

	appendDataLog(config.WebhookLogPath(), fmt.Sprintf("push repo=%s ref=%s pusher=%s",
		payload.Repository.FullName, payload.Ref, payload.Pusher.Name))

	newJob := handlerInstance.Jobs.EnqueueSync(traceIdFrom(r.Context()), "webhook")
	writeJsonResponse(w, http.StatusAccepted, api.WebhookResponse{
		Status:  "accepted",
		Message: "Docs sync queued: " + newJob.Id,
	})
}
