// Command indexer maintains the knowledge base index without going
// through the HTTP API: full builds from a docs directory, artifact
// splitting for git hosted bundles, and an environment preflight.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/data/store"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/rag/embedding"
	"github.com/akolanti/RagBot/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/RagBot/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/RagBot/internal/rag/vectorDB"
	"github.com/akolanti/RagBot/internal/rag/vectorDB/chromemDB"
	"github.com/akolanti/RagBot/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

func main() {
	logger_i.Init()
	config.Load()

	rootCmd := &cobra.Command{
		Use:          "indexer",
		Short:        "Knowledge base index maintenance",
		Long:         "Build the vector index from a docs directory, split or rejoin oversized artifacts, and preflight the runtime environment before a deploy.",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newBuildCmd(), newSplitCmd(), newJoinCmd(), newCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newBuildCmd() *cobra.Command {
	var docsDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the vector index from a docs directory",
		Long:  "Runs the same pipeline as the rebuild endpoint: discover documents, chunk, embed, upsert into the vector store and write the index artifacts. Takes the rebuild lock, a running server will refuse rebuilds until the build finishes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(docsDir)
		},
	}

	cmd.Flags().StringVar(&docsDir, "docs", config.DocsDir, "docs directory to index")
	cmd.Flags().StringVar(&config.DataDir, "data", config.DataDir, "data directory the index is written under")
	cmd.Flags().StringVar(&config.VectorBackend, "backend", config.VectorBackend, "vector backend, chromem or qdrant")
	cmd.Flags().StringVar(&config.EmbeddingProvider, "provider", config.EmbeddingProvider, "embedding provider, openai or google")
	cmd.Flags().IntVar(&config.ChunkSize, "chunk-size", config.ChunkSize, "maximum characters per chunk")
	cmd.Flags().IntVar(&config.ChunkOverlap, "chunk-overlap", config.ChunkOverlap, "characters shared between neighbouring chunks")
	cmd.Flags().IntVar(&config.EmbedBatchSize, "batch-size", config.EmbedBatchSize, "chunks per embedding API call")
	return cmd
}

func runBuild(docsDir string) error {
	if config.ChunkOverlap >= config.ChunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", config.ChunkOverlap, config.ChunkSize)
	}

	if err := index.AcquireLock(); err != nil {
		return err
	}
	defer index.ReleaseLock()

	ctx, cancel := context.WithTimeout(context.Background(), config.RebuildJobTimeout)
	defer cancel()

	embedder, vector, err := buildServices(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Building index from %s into %s\n", docsDir, config.IndexDir())
	fmt.Printf("Backend %s, embeddings %s, chunks of %d with %d overlap, batches of %d\n",
		config.VectorBackend, config.EmbeddingProvider, config.ChunkSize, config.ChunkOverlap, config.EmbedBatchSize)

	started := time.Now()
	result, err := index.NewBuilder(embedder, vector).Build(ctx, docsDir)
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d documents into %d chunks in %s\n",
		result.DocumentCount, result.ChunkCount, time.Since(started).Round(time.Second))
	if result.ErrorCount > 0 {
		fmt.Printf("%d documents failed, details in %s\n",
			result.ErrorCount, filepath.Join(config.IndexDir(), "processing_errors.json"))
	}
	return nil
}

func newSplitCmd() *cobra.Command {
	var dir string
	var partSize int64

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split oversized index files into parts",
		Long:  "Cuts every index file larger than the part size into numbered parts so a bundled index stays under git hosting file size limits. The server joins them back together at boot, or run join by hand.",
		RunE: func(cmd *cobra.Command, args []string) error {
			split, err := index.SplitLargeFiles(dir, partSize)
			if err != nil {
				return err
			}
			if len(split) == 0 {
				fmt.Printf("No files under %s exceed %d bytes\n", dir, partSize)
				return nil
			}
			for _, f := range split {
				fmt.Printf("split %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", config.IndexDir(), "directory to scan")
	cmd.Flags().Int64Var(&partSize, "part-size", config.IndexPartSize, "maximum bytes per part")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "join",
		Short: "Reassemble split index files",
		RunE: func(cmd *cobra.Command, args []string) error {
			joined, err := index.JoinParts(dir)
			if err != nil {
				return err
			}
			if len(joined) == 0 {
				fmt.Printf("No part files under %s\n", dir)
				return nil
			}
			for _, f := range joined {
				fmt.Printf("joined %s\n", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", config.IndexDir(), "directory to scan for part files")
	return cmd
}

func newCheckCmd() *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Preflight the runtime environment",
		Long:  "Verifies the API keys, directories and index artifacts the server needs at boot. With --probe it also calls the embedding provider and Redis to prove the credentials actually work.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(probe)
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "call external services to verify credentials")
	return cmd
}

type report struct {
	failures int
	warnings int
}

func (r *report) ok(format string, args ...any) {
	fmt.Printf("   ok  "+format+"\n", args...)
}

func (r *report) warn(format string, args ...any) {
	r.warnings++
	fmt.Printf(" warn  "+format+"\n", args...)
}

func (r *report) fail(format string, args ...any) {
	r.failures++
	fmt.Printf(" FAIL  "+format+"\n", args...)
}

func runCheck(probe bool) error {
	fmt.Printf("Vector backend %s, embeddings %s\n", config.VectorBackend, config.EmbeddingProvider)
	fmt.Printf("Data dir %s, docs dir %s\n\n", config.DataDir, config.DocsDir)

	r := &report{}
	checkKeys(r)
	checkDirectories(r)
	checkIndex(r)
	if probe {
		checkExternalServices(r)
	}

	fmt.Println()
	if r.failures > 0 {
		return fmt.Errorf("%d check(s) failed", r.failures)
	}
	if r.warnings > 0 {
		fmt.Printf("Passed with %d warning(s)\n", r.warnings)
		return nil
	}
	fmt.Println("All checks passed")
	return nil
}

func checkKeys(r *report) {
	keys := []struct {
		name  string
		value string
	}{
		{"ANTHROPIC_API_KEY", config.AnthropicAPIKey},
		{"OPENAI_API_KEY", config.OpenAIAPIKey},
		{"GOOGLE_API_KEY", config.GoogleAPIKey},
	}
	set := 0
	for _, k := range keys {
		if k.value != "" {
			set++
			r.ok("%s is set", k.name)
		}
	}
	if set == 0 {
		r.fail("no LLM API key set, need at least one of ANTHROPIC_API_KEY, OPENAI_API_KEY or GOOGLE_API_KEY")
	}

	switch config.EmbeddingProvider {
	case "google":
		if config.GoogleAPIKey == "" {
			r.fail("EMBEDDING_PROVIDER is google but GOOGLE_API_KEY is not set")
		}
	default:
		if config.OpenAIAPIKey == "" {
			r.fail("EMBEDDING_PROVIDER is %s but OPENAI_API_KEY is not set", config.EmbeddingProvider)
		}
	}

	if config.AdminPassword == "" {
		r.warn("ADMIN_PASSWORD is not set, admin endpoints reject every login")
	}
	if config.SessionSecret == "dev-insecure-session-secret" {
		r.warn("SESSION_SECRET still has the dev default")
	}
	if config.DiscordBotToken == "" {
		r.ok("DISCORD_BOT_TOKEN not set, the Discord bot stays disabled")
	}
}

func checkDirectories(r *report) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		r.fail("data dir %s: %v", config.DataDir, err)
	} else if err := writable(config.DataDir); err != nil {
		r.fail("data dir %s is not writable: %v", config.DataDir, err)
	} else {
		r.ok("data dir %s is writable", config.DataDir)
	}

	if info, err := os.Stat(config.DocsDir); err != nil {
		r.warn("docs dir %s is missing, builds need --docs or a repo clone", config.DocsDir)
	} else if !info.IsDir() {
		r.fail("docs dir %s is not a directory", config.DocsDir)
	} else {
		r.ok("docs dir %s exists", config.DocsDir)
	}
}

func writable(dir string) error {
	f, err := os.CreateTemp(dir, ".writecheck")
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(f.Name())
}

func checkIndex(r *report) {
	meta, err := index.ReadMetadata()
	if err != nil {
		if info, statErr := os.Stat(config.BundledIndexDir); statErr == nil && info.IsDir() {
			r.warn("no index under %s yet, the server copies the bundled one from %s at boot", config.IndexDir(), config.BundledIndexDir)
		} else {
			r.warn("no index under %s and no bundled index, run a build before serving", config.IndexDir())
		}
		return
	}

	r.ok("index built %s, %d documents, %d chunks", meta.BuiltAt.Format("2006-01-02 15:04"), meta.DocumentCount, meta.ChunkCount)
	if size, found := index.ChunkStoreSize(); found {
		r.ok("chunk store is %.1f MB", float64(size)/(1024*1024))
	}

	model := config.OpenAIEmbeddingModel
	if config.EmbeddingProvider == "google" {
		model = config.GoogleEmbeddingModel
	}
	if meta.EmbeddingModel != "" && meta.EmbeddingModel != model {
		r.warn("index was embedded with %s but the configured model is %s, retrieval will miss", meta.EmbeddingModel, model)
	}
}

func checkExternalServices(r *report) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	embedder, _, err := buildServices(ctx)
	if err != nil {
		r.fail("%v", err)
	} else if _, err := embedder.GetEmbedding(ctx, "connectivity check"); err != nil {
		r.fail("embedding probe failed: %v", err)
	} else {
		r.ok("embedding provider %s answered", config.EmbeddingProvider)
		r.ok("vector backend %s ready", config.VectorBackend)
	}

	if store.GetRedisJobStore(ctx) != nil {
		r.ok("redis answered at %s", config.RedisAddr)
	} else {
		r.warn("redis unreachable at %s, jobs and sessions fall back to memory", config.RedisAddr)
	}
}

func buildServices(ctx context.Context) (embedding.Embedder, vectorDB.DataProcessor, error) {
	var embedder embedding.Embedder
	switch config.EmbeddingProvider {
	case "google":
		embedder = googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey)
	default:
		embedder = openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey)
	}
	if embedder == nil {
		return nil, nil, fmt.Errorf("embedding provider %q failed to initialize", config.EmbeddingProvider)
	}

	var vector vectorDB.DataProcessor
	switch config.VectorBackend {
	case "qdrant":
		if client := qdrantDB.GetQuadrantClient(ctx); client != nil {
			vector = client
		}
	default:
		if chromemStore := chromemDB.GetChromemStore(ctx); chromemStore != nil {
			vector = chromemStore
		}
	}
	if vector == nil {
		return nil, nil, fmt.Errorf("vector backend %q failed to initialize", config.VectorBackend)
	}
	return embedder, vector, nil
}
