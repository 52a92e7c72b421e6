package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

var chainLogger = logger_i.NewLogger("llm_chain")

var ErrNoProviders = errors.New("no llm providers configured")

// Chain tries each provider in order and returns the first usable answer.
// It satisfies Provider itself, so the rag service never knows whether it
// talks to one model or a failover ladder.
type Chain struct {
	entries []chainEntry
}

type chainEntry struct {
	name     string
	provider Provider
}

func NewChain() *Chain {
	return &Chain{}
}

// Add appends a provider to the failover order. Nil providers are skipped,
// callers can pass constructor results straight through.
func (c *Chain) Add(name string, p Provider) *Chain {
	if p != nil {
		c.entries = append(c.entries, chainEntry{name: name, provider: p})
	}
	return c
}

func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.name)
	}
	return names
}

func (c *Chain) Generate(ctx context.Context, query string, matches []string, messageHistory []string) (string, error) {
	log := chainLogger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	if len(c.entries) == 0 {
		return "", ErrNoProviders
	}

	var lastErr error
	for i, e := range c.entries {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if i > 0 {
			metrics.IncrementLLMFailover(e.name)
		}

		answer, err := e.provider.Generate(ctx, query, matches, messageHistory)
		if err != nil {
			log.Error("Provider failed, moving down the chain", "provider", e.name, "error", err)
			lastErr = err
			continue
		}
		if strings.TrimSpace(answer) == "" {
			log.Error("Provider returned an empty answer, moving down the chain", "provider", e.name)
			lastErr = errors.New("empty answer from " + e.name)
			continue
		}
		return answer, nil
	}
	return "", lastErr
}
