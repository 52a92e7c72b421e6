package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	RebuildInit    InternalStatus = "Init"
	RebuildLoading InternalStatus = "LoadingDocuments"
	RebuildChunks  InternalStatus = "Chunking"
	EmbeddingCall  InternalStatus = "EmbeddingAPI"
	VectorDBCall   InternalStatus = "VectorDB"
	ArtifactWrite  InternalStatus = "WritingArtifacts"
	RepoCloneCall  InternalStatus = "CloningRepository"
	Error          InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeRebuild JobType = "Rebuild"
	JobTypeSync    JobType = "Sync"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	DocsDir string `json:"docs_dir,omitempty"`
	RepoURL string `json:"repo_url,omitempty"`
	Trigger string `json:"trigger,omitempty"` //admin, webhook, cli

	DocumentCount int `json:"document_count,omitempty"`
	ChunkCount    int `json:"chunk_count,omitempty"`
	ErrorCount    int `json:"error_count,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
