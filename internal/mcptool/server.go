package mcptool

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/rag"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

type SearchArgs struct {
	Query string `json:"query" jsonschema:"question or keywords to search the knowledge base for"`
	K     int    `json:"k,omitempty" jsonschema:"how many hits to return, defaults to the retrieval depth"`
}

type SearchHit struct {
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview"`
}

type SearchResult struct {
	Hits []SearchHit `json:"hits"`
}

type AskArgs struct {
	Question string `json:"question" jsonschema:"the question to answer from the documentation"`
}

type AskResult struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

// Handler exposes kb_search and kb_ask over MCP, backed by the same
// pipeline the HTTP endpoints run. Mounted under /mcp by the server.
func Handler(ragService rag.Service) http.Handler {
	log := logger_i.NewLogger("MCP")

	server := mcp.NewServer(&mcp.Implementation{Name: "kb-chat", Version: "1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "kb_search",
		Description: "Search the product documentation and return the best matching passages with relevance scores.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, SearchResult, error) {
		k := args.K
		if k <= 0 {
			k = config.RetrievalK
		}
		previews, err := ragService.SearchPreview(ctx, args.Query, k)
		if err != nil {
			log.Error("kb_search failed", "query", args.Query, "error", err)
			return nil, SearchResult{}, err
		}

		out := SearchResult{Hits: make([]SearchHit, 0, len(previews))}
		var text strings.Builder
		for i, p := range previews {
			out.Hits = append(out.Hits, SearchHit{Title: p.Title, Source: p.Source, Score: p.Score, Preview: p.Excerpt})
			fmt.Fprintf(&text, "%d. %s (%s, score %.2f)\n%s\n\n", i+1, p.Title, p.Source, p.Score, p.Excerpt)
		}
		if len(out.Hits) == 0 {
			text.WriteString("No matching documentation found.")
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: strings.TrimSpace(text.String())}},
		}, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "kb_ask",
		Description: "Answer a question from the product documentation, citing the documents the answer came from.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AskArgs) (*mcp.CallToolResult, AskResult, error) {
		result, err := ragService.Answer(ctx, args.Question, nil)
		if err != nil {
			log.Error("kb_ask failed", "error", err)
			return nil, AskResult{}, err
		}
		// MCP clients render text, the HTML sources block stays off this
		// surface. Sources travel in the structured result instead.
		answer := rag.PlainAnswer(result.Answer)
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: answer}},
		}, AskResult{Answer: answer, Sources: result.Sources}, nil
	})

	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}
