package api

import (
	"time"

	"github.com/akolanti/RagBot/internal/domain/jobModel"
)

// ErrorResponse is the envelope every failing endpoint answers with.
type ErrorResponse struct {
	Status  string `json:"status" example:"error"`
	Message string `json:"message" example:"Something went wrong"`
}

type PingResponse struct {
	Status      string `json:"status" example:"ok"`
	Message     string `json:"message" example:"Knowledge base chat service"`
	IndexStatus string `json:"index_status" example:"ready"`
}

type AskResponse struct {
	Status  string   `json:"status" example:"success"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
	Cached  bool     `json:"cached,omitempty"`
}

type ClearSessionResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"Conversation history cleared"`
}

type LoginResponse struct {
	Status string `json:"status" example:"success"`
	Token  string `json:"token" example:"2bb80d537b1da3e3..."`
}

// RebuildResponse covers both outcomes of POST /rebuild: "started" with a
// job to poll, or "info" when a rebuild already holds the lock.
type RebuildResponse struct {
	Status    string `json:"status" example:"started"`
	Message   string `json:"message,omitempty"`
	JobId     string `json:"job_id,omitempty" example:"a81bc81b-dead-4e5d-abff-90865d1e13b1"`
	StatusURL string `json:"status_url,omitempty" example:"/rebuild/a81bc81b-dead-4e5d-abff-90865d1e13b1"`
}

type JobResponse struct {
	Id          string             `json:"id"`
	JobType     jobModel.JobType   `json:"job_type"`
	Status      jobModel.JobStatus `json:"status"`
	CurrentStep string             `json:"current_step"`
	Error       *JobOutgoingError  `json:"error,omitempty"`
	CreatedTime time.Time          `json:"created_time"`
	EndTime     time.Time          `json:"end_time,omitempty"`

	DocumentCount int `json:"document_count,omitempty"`
	ChunkCount    int `json:"chunk_count,omitempty"`
	ErrorCount    int `json:"error_count,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"500"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type UpdateIndexResponse struct {
	Status  string `json:"status" example:"success"`
	Copied  bool   `json:"copied"`
	Message string `json:"message"`
}

type IndexInfoResponse struct {
	IndexDir       string         `json:"index_dir"`
	IndexExists    bool           `json:"index_exists"`
	BundledDir     string         `json:"bundled_dir"`
	BundledExists  bool           `json:"bundled_exists"`
	CopiedAt       string         `json:"copied_at,omitempty"`
	ChunkStoreSize int64          `json:"chunk_store_bytes"`
	Metadata       *IndexMetadata `json:"metadata,omitempty"`
}

type IndexMetadata struct {
	BuiltAt        time.Time `json:"built_at"`
	DocumentCount  int       `json:"document_count"`
	ChunkCount     int       `json:"chunk_count"`
	ErrorCount     int       `json:"error_count"`
	EmbeddingModel string    `json:"embedding_model"`
	VectorBackend  string    `json:"vector_backend"`
	Version        string    `json:"version"`
}

type LastUpdatedResponse struct {
	LastUpdated string `json:"last_updated" example:"2026-03-14 09:30:00"`
	Timestamp   int64  `json:"timestamp,omitempty" example:"1773480600"`
}

// ConfigResponse is the sanitized runtime view, secrets stay out.
type ConfigResponse struct {
	VectorBackend     string   `json:"vector_backend"`
	EmbeddingProvider string   `json:"embedding_provider"`
	LLMProviders      []string `json:"llm_providers"`
	RetrievalK        int      `json:"retrieval_k"`
	ChunkSize         int      `json:"chunk_size"`
	ChunkOverlap      int      `json:"chunk_overlap"`
	SessionStore      string   `json:"session_store"`
	ActiveSessions    int      `json:"active_sessions"`
	WorkerCount       int64    `json:"worker_count"`
	QueueDepth        int      `json:"queue_depth"`
	DiscordEnabled    bool     `json:"discord_enabled"`
	DocsRepo          string   `json:"docs_repo,omitempty"`
}

type IndexingStatusResponse struct {
	Status  string `json:"status" example:"in_progress"`
	Percent int    `json:"percent" example:"42"`
	Message string `json:"message" example:"Processing document 3 of 7"`
}

type TestSearchResponse struct {
	Status  string      `json:"status" example:"success"`
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
}

type SearchHit struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

type WebhookResponse struct {
	Status  string `json:"status" example:"accepted"`
	Message string `json:"message"`
}

// requests---------------------

type AskRequest struct {
	Q string `json:"q" validate:"required"`
}

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// WebhookPayload is the slice of the GitHub push event the service looks
// at. Everything else in the payload is ignored.
type WebhookPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"repository"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
}
