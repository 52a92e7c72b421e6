package adapter

import (
	"fmt"

	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/rag"
)

func ToRebuildStarted(id string) api.RebuildResponse {
	return api.RebuildResponse{
		Status:    "started",
		JobId:     id,
		StatusURL: fmt.Sprintf("/rebuild/%s", id),
	}
}

func ToJobResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	return api.JobResponse{
		Id:          job.Id,
		JobType:     job.JobType,
		Status:      job.Status,
		CurrentStep: string(job.CurrentStep),
		Error:       errorPtr,
		CreatedTime: job.CreatedTime,
		EndTime:     job.EndTime,

		DocumentCount: job.JobPayload.DocumentCount,
		ChunkCount:    job.JobPayload.ChunkCount,
		ErrorCount:    job.JobPayload.ErrorCount,
	}
}

func ToSearchHits(previews []rag.Preview) []api.SearchHit {
	hits := make([]api.SearchHit, 0, len(previews))
	for _, p := range previews {
		hits = append(hits, api.SearchHit{
			Title:   p.Title,
			Source:  p.Source,
			Score:   p.Score,
			Preview: p.Excerpt,
		})
	}
	return hits
}
