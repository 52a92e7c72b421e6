package chatModel

import (
	"context"
	"time"
)

// Exchange is one question/answer pair in a session's history.
type Exchange struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Asked    time.Time `json:"asked"`
}

type SessionStore interface {
	SaveExchange(ctx context.Context, sessionId string, exchange Exchange) error
	GetHistory(ctx context.Context, sessionId string) ([]Exchange, error)
	// RecentQuestions returns up to count questions, oldest first.
	RecentQuestions(ctx context.Context, sessionId string, count int) ([]string, error)
	ClearSession(ctx context.Context, sessionId string) error
	ActiveSessions(ctx context.Context) (int, error)
}
