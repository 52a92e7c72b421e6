package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/data/redisStore"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

type RedisSessionStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisSessionStore(ctx context.Context) *RedisSessionStore {
	inner := redisStore.GetRedisStore(ctx, config.RedisSessionStore)
	if inner == nil {
		return nil
	}
	return &RedisSessionStore{
		store:  inner,
		logger: logger_i.NewLogger("SessionStore"),
	}
}

func (s *RedisSessionStore) SaveExchange(ctx context.Context, sessionId string, exchange chatModel.Exchange) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "session Id", sessionId)

	data, err := json.Marshal(exchange)
	if err != nil {
		log.Error("Error marshalling exchange", "error", err)
		return err
	}

	// cap + TTL refresh in one shot, so a chatty session never grows past
	// the exchange limit and an idle one ages out
	err = s.store.ListPushCapped(ctx, sessionId, data, config.SessionMaxExchanges, config.RedisSessionStoreTTL)
	if err != nil {
		log.Error("error saving exchange", "error", err)
		return err
	}
	log.Debug("Saved exchange")
	return nil
}

func (s *RedisSessionStore) GetHistory(ctx context.Context, sessionId string) ([]chatModel.Exchange, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "session Id", sessionId)

	raw, err := s.store.ListGetAll(ctx, sessionId)
	if err != nil {
		if s.store.IsNil(err) {
			return nil, nil
		}
		log.Error("Error getting history", "error", err)
		return nil, err
	}
	return decodeExchanges(raw, log), nil
}

func (s *RedisSessionStore) RecentQuestions(ctx context.Context, sessionId string, count int) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "session Id", sessionId)

	raw, err := s.store.ListGetRecent(ctx, sessionId, int64(count))
	if err != nil && !s.store.IsNil(err) {
		log.Error("Error getting recent questions", "error", err)
		return nil, err
	}

	var questions []string
	for _, e := range decodeExchanges(raw, log) {
		questions = append(questions, e.Question)
	}
	return questions, nil
}

func (s *RedisSessionStore) ClearSession(ctx context.Context, sessionId string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "session Id", sessionId)
	err := s.store.Del(ctx, sessionId)
	if err != nil && !s.store.IsNil(err) {
		log.Error("Error clearing session", "error", err)
		return err
	}
	log.Debug("Cleared session")
	return nil
}

func (s *RedisSessionStore) ActiveSessions(ctx context.Context) (int, error) {
	return s.store.CountKeys(ctx, "*")
}

func decodeExchanges(raw []string, log *logger_i.Logger) []chatModel.Exchange {
	var history []chatModel.Exchange
	for _, entry := range raw {
		var e chatModel.Exchange
		if err := json.Unmarshal([]byte(entry), &e); err != nil {
			log.Error("Skipping undecodable history entry", "error", err)
			continue
		}
		history = append(history, e)
	}
	return history
}

func TestSessionStore(store *redisStore.Store) *RedisSessionStore {
	return &RedisSessionStore{
		store:  store,
		logger: logger_i.NewLogger("test session store"),
	}
}
