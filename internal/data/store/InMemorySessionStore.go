package store

import (
	"context"
	"sync"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
)

type sessionEntry struct {
	history  []chatModel.Exchange
	lastSeen time.Time
}

type InMemorySessionStore struct {
	sessionLock *sync.RWMutex
	sessions    map[string]*sessionEntry
}

func InitSessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessionLock: new(sync.RWMutex),
		sessions:    make(map[string]*sessionEntry),
	}
}

func (store *InMemorySessionStore) SaveExchange(ctx context.Context, sessionId string, exchange chatModel.Exchange) error {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()
	store.sweepExpired()

	entry, ok := store.sessions[sessionId]
	if !ok {
		entry = &sessionEntry{}
		store.sessions[sessionId] = entry
	}
	entry.history = append(entry.history, exchange)
	if len(entry.history) > config.SessionMaxExchanges {
		entry.history = entry.history[len(entry.history)-config.SessionMaxExchanges:]
	}
	entry.lastSeen = time.Now()
	inMemLogger.Debug(sessionId, " : Saved exchange to session store")
	return nil
}

func (store *InMemorySessionStore) GetHistory(ctx context.Context, sessionId string) ([]chatModel.Exchange, error) {
	store.sessionLock.RLock()
	defer store.sessionLock.RUnlock()
	entry, ok := store.sessions[sessionId]
	if !ok || store.expired(entry) {
		return nil, nil
	}
	history := make([]chatModel.Exchange, len(entry.history))
	copy(history, entry.history)
	return history, nil
}

func (store *InMemorySessionStore) RecentQuestions(ctx context.Context, sessionId string, count int) ([]string, error) {
	history, err := store.GetHistory(ctx, sessionId)
	if err != nil || len(history) == 0 {
		return nil, err
	}
	if len(history) > count {
		history = history[len(history)-count:]
	}
	var questions []string
	for _, e := range history {
		questions = append(questions, e.Question)
	}
	return questions, nil
}

func (store *InMemorySessionStore) ClearSession(ctx context.Context, sessionId string) error {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()
	delete(store.sessions, sessionId)
	return nil
}

func (store *InMemorySessionStore) ActiveSessions(ctx context.Context) (int, error) {
	store.sessionLock.Lock()
	defer store.sessionLock.Unlock()
	store.sweepExpired()
	return len(store.sessions), nil
}

// callers hold the write lock
func (store *InMemorySessionStore) sweepExpired() {
	for id, entry := range store.sessions {
		if store.expired(entry) {
			delete(store.sessions, id)
		}
	}
}

func (store *InMemorySessionStore) expired(entry *sessionEntry) bool {
	return time.Since(entry.lastSeen) > config.SessionMaxAge
}
