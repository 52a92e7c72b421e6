package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/akolanti/RagBot/internal/adapter"
	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/index"
)

// LoginHandler godoc
// @Summary      Exchange the admin password for a token
// @Description  Returns the admin token used by the X-Admin-Token header on the protected endpoints.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request  body      api.LoginRequest  true  "Admin password"
// @Success      200      {object}  api.LoginResponse
// @Failure      403      {object}  api.ErrorResponse
// @Router       /login [post]
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var requestData api.LoginRequest
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the login reader :", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil {
		logRH.Warn("Bad login request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	if config.AdminPassword == "" {
		WriteErrorResponse(w, http.StatusInternalServerError, "Admin password is not configured")
		return
	}
	if subtle.ConstantTimeCompare([]byte(requestData.Password), []byte(config.AdminPassword)) != 1 {
		logRH.Warn("Failed admin login", "remote", r.RemoteAddr)
		WriteErrorResponse(w, http.StatusForbidden, "Invalid password")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.LoginResponse{Status: "success", Token: AdminTokenHex()})
}

// RebuildHandler godoc
// @Summary      Rebuild the index from the local docs directory
// @Description  Takes the rebuild lock and queues a background build job. Answers "info" when a rebuild already holds the lock.
// @Tags         Admin
// @Produce      json
// @Success      202  {object}  api.RebuildResponse  "Job queued"
// @Success      200  {object}  api.RebuildResponse  "A rebuild is already running"
// @Failure      500  {object}  api.ErrorResponse
// @Router       /rebuild [post]
func RebuildHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.RebuildDeadline)
	defer cancel()

	if !validateContext(ctx) {
		logRH.Warn("Invalid Context by request ", "remote", r.RemoteAddr)
		return
	}

	// The lock is taken here so two rebuild requests can't both queue.
	// The job releases it when it finishes.
	if err := index.AcquireLock(); err != nil {
		if errors.Is(err, index.ErrLocked) {
			writeJsonResponse(w, http.StatusOK, api.RebuildResponse{
				Status:  "info",
				Message: "A rebuild is already running",
			})
			return
		}
		logRH.Error("Could not take the rebuild lock", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not start the rebuild")
		return
	}

	newJob := handlerInstance.Jobs.EnqueueRebuild(traceIdFrom(ctx), "admin", config.DocsDir)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToRebuildStarted(newJob.Id))
}

// RebuildStatusHandler godoc
// @Summary      Get rebuild job status
// @Tags         Admin
// @Produce      json
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse  "Job not found"
// @Router       /rebuild/{id} [get]
func RebuildStatusHandler(w http.ResponseWriter, r *http.Request) {
	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("Rebuild status request:", "URL path", r.URL.Path)

	result, isFound := handlerInstance.Jobs.JobStore.GetJob(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJsonResponse(w, http.StatusOK, adapter.ToJobResponse(result))
}

// UpdateIndexHandler godoc
// @Summary      Re-copy the bundled index into the data directory
// @Description  Clears the first-boot marker and runs the bundled-index copy again. Refused while a rebuild is running.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  api.UpdateIndexResponse
// @Failure      409  {object}  api.ErrorResponse  "Rebuild in progress"
// @Failure      500  {object}  api.ErrorResponse
// @Router       /update-index [post]
func UpdateIndexHandler(w http.ResponseWriter, r *http.Request) {
	if index.Locked() {
		WriteErrorResponse(w, http.StatusConflict, "A rebuild is running, try again after it finishes")
		return
	}

	// dropping the marker forces the copy even on a volume that booted before
	if err := os.Remove(config.CopyMarkerPath()); err != nil && !os.IsNotExist(err) {
		logRH.Error("Could not clear the copy marker", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not update the index")
		return
	}

	copied, err := index.EnsureDataIndex()
	if err != nil {
		logRH.Error("Bundled index copy failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Could not update the index")
		return
	}

	message := "No bundled index to copy"
	if copied {
		message = "Bundled index copied into the data directory"
	}
	writeJsonResponse(w, http.StatusOK, api.UpdateIndexResponse{Status: "success", Copied: copied, Message: message})
}
