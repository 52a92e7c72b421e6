package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/data/store"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/handlers"
	"github.com/akolanti/RagBot/internal/index"
	"github.com/akolanti/RagBot/internal/job"
	"github.com/akolanti/RagBot/internal/rag"
	"github.com/akolanti/RagBot/internal/session"
)

type MockRagService struct {
	OnAnswer func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error)
	OnSearch func(ctx context.Context, query string, k int) ([]rag.Preview, error)
}

func (m *MockRagService) Answer(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, query, history)
	}
	return rag.Result{Answer: "mock answer"}, nil
}

func (m *MockRagService) SearchPreview(ctx context.Context, query string, k int) ([]rag.Preview, error) {
	if m.OnSearch != nil {
		return m.OnSearch(ctx, query, k)
	}
	return nil, nil
}

var (
	mockRag  = &MockRagService{}
	sessions *store.InMemorySessionStore
	jobs     *job.Service
)

// One process-wide init, InitHandlers is once-guarded. Tests reconfigure
// behavior through the mock's function fields.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "handlers-test-*")
	if err != nil {
		os.Exit(1)
	}
	config.DataDir = dir
	config.AdminPassword = "test-admin-pw"
	config.DocsRepoName = "kb-docs"

	sessions = store.InitSessionStore()

	// no worker pool in these tests, something has to drain the signals
	dispatcherChannel := make(chan bool)
	go func() {
		for range dispatcherChannel {
		}
	}()
	jobs = job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, config.BufferLimit),
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.InitInMemoryJobStore(),
	})

	handlers.InitHandlers(handlers.Dependencies{
		Rag:          mockRag,
		Sessions:     sessions,
		Cookies:      session.NewManager(),
		Jobs:         jobs,
		LLMProviders: []string{"anthropic", "openai", "gemini"},
		SessionStore: "memory",
	})

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func resetMock(t *testing.T) {
	t.Cleanup(func() {
		mockRag.OnAnswer = nil
		mockRag.OnSearch = nil
	})
}

func askForm(question string, cookies []*http.Cookie) *http.Request {
	form := url.Values{"q": {question}}
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("undecodable response %q: %v", w.Body.String(), err)
	}
}

func TestAskHandlerAnswersAndSetsCookie(t *testing.T) {
	resetMock(t)
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		return rag.Result{
			Answer:  "Orders ship within 3 days.<details><summary>Sources</summary>\n<ul>\n<li>Shipping policy</li>\n</ul>\n</details>",
			Sources: []string{"Shipping policy"},
		}, nil
	}

	w := httptest.NewRecorder()
	handlers.AskHandler(w, askForm("how long does shipping take", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res api.AskResponse
	decodeInto(t, w, &res)
	if res.Status != "success" {
		t.Errorf("unexpected status %q", res.Status)
	}
	if !strings.Contains(res.Answer, "<details>") {
		t.Errorf("answer lost its sources block: %q", res.Answer)
	}
	if len(res.Sources) != 1 || res.Sources[0] != "Shipping policy" {
		t.Errorf("unexpected sources %v", res.Sources)
	}

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == config.SessionCookieName {
			found = true
		}
	}
	if !found {
		t.Error("ask did not issue a session cookie")
	}
}

func TestAskHandlerFollowUpCarriesHistory(t *testing.T) {
	resetMock(t)
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		return rag.Result{Answer: "first answer"}, nil
	}

	first := httptest.NewRecorder()
	handlers.AskHandler(first, askForm("what are the return rules", nil))
	cookies := first.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no cookie on the first ask")
	}

	var sawHistory []chatModel.Exchange
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		sawHistory = history
		return rag.Result{Answer: "second answer"}, nil
	}

	second := httptest.NewRecorder()
	handlers.AskHandler(second, askForm("and for companies?", cookies))

	if len(sawHistory) != 1 {
		t.Fatalf("expected 1 prior exchange, got %d", len(sawHistory))
	}
	if sawHistory[0].Question != "what are the return rules" {
		t.Errorf("history carries the wrong question: %q", sawHistory[0].Question)
	}
	if sawHistory[0].Answer != "first answer" {
		t.Errorf("history carries the wrong answer: %q", sawHistory[0].Answer)
	}
}

func TestAskHandlerAcceptsJSONBody(t *testing.T) {
	resetMock(t)
	var gotQuestion string
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		gotQuestion = query
		return rag.Result{Answer: "ok"}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"q":"json question"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handlers.AskHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if gotQuestion != "json question" {
		t.Errorf("question not read from JSON body: %q", gotQuestion)
	}
}

func TestAskHandlerFailureAnswersApologyAndLogs(t *testing.T) {
	resetMock(t)
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		return rag.Result{}, &rag.StepError{Step: rag.StepVectorSearch, Err: errors.New("store gone")}
	}

	w := httptest.NewRecorder()
	handlers.AskHandler(w, askForm("anything", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var res api.ErrorResponse
	decodeInto(t, w, &res)
	if res.Status != "error" {
		t.Errorf("unexpected envelope status %q", res.Status)
	}
	if res.Message != config.FailureAnswer {
		t.Errorf("expected the apology message, got %q", res.Message)
	}

	logged, err := os.ReadFile(config.ErrorLogPath())
	if err != nil {
		t.Fatalf("no error.log append: %v", err)
	}
	if !strings.Contains(string(logged), "store gone") {
		t.Errorf("error.log misses the cause: %q", logged)
	}
}

func TestClearSessionWithoutCookie(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.ClearSessionHandler(w, httptest.NewRequest(http.MethodPost, "/clear-session", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("clear without a session must still succeed, got %d", w.Code)
	}
	var res api.ClearSessionResponse
	decodeInto(t, w, &res)
	if res.Status != "success" {
		t.Errorf("unexpected status %q", res.Status)
	}
}

func TestClearSessionDropsHistory(t *testing.T) {
	resetMock(t)
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		return rag.Result{Answer: "noted"}, nil
	}

	first := httptest.NewRecorder()
	handlers.AskHandler(first, askForm("remember me", nil))
	cookies := first.Result().Cookies()

	clearReq := httptest.NewRequest(http.MethodPost, "/clear-session", nil)
	for _, c := range cookies {
		clearReq.AddCookie(c)
	}
	cleared := httptest.NewRecorder()
	handlers.ClearSessionHandler(cleared, clearReq)
	if cleared.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", cleared.Code)
	}

	var sawHistory []chatModel.Exchange
	mockRag.OnAnswer = func(ctx context.Context, query string, history []chatModel.Exchange) (rag.Result, error) {
		sawHistory = history
		return rag.Result{Answer: "fresh"}, nil
	}
	again := httptest.NewRecorder()
	handlers.AskHandler(again, askForm("who am i", cookies))

	if len(sawHistory) != 0 {
		t.Errorf("history survived the clear: %v", sawHistory)
	}
}

func TestLoginHandler(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"wrong"}`))
	handlers.LoginHandler(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("wrong password should 403, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"password":"test-admin-pw"}`))
	handlers.LoginHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res api.LoginResponse
	decodeInto(t, w, &res)
	if res.Token != handlers.AdminTokenHex() {
		t.Error("login token does not match the admin token")
	}
}

func TestRebuildHandlerQueuesJob(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.RebuildHandler(w, httptest.NewRequest(http.MethodPost, "/rebuild", nil))
	t.Cleanup(index.ReleaseLock)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var res api.RebuildResponse
	decodeInto(t, w, &res)
	if res.Status != "started" || res.JobId == "" {
		t.Fatalf("unexpected rebuild response %+v", res)
	}
	if res.StatusURL != "/rebuild/"+res.JobId {
		t.Errorf("status url %q does not point at the job", res.StatusURL)
	}

	saved, found := jobs.JobStore.GetJob(context.Background(), res.JobId)
	if !found {
		t.Fatal("queued job is not in the store yet")
	}
	if saved.Status != jobModel.JobStatusQueued {
		t.Errorf("expected QUEUED, got %q", saved.Status)
	}

	// second rebuild while the lock is held answers info, not a new job
	again := httptest.NewRecorder()
	handlers.RebuildHandler(again, httptest.NewRequest(http.MethodPost, "/rebuild", nil))
	if again.Code != http.StatusOK {
		t.Fatalf("expected 200 info, got %d", again.Code)
	}
	var info api.RebuildResponse
	decodeInto(t, again, &info)
	if info.Status != "info" {
		t.Errorf("expected info status, got %q", info.Status)
	}
}

func TestRebuildStatusHandler(t *testing.T) {
	newJob := jobs.EnqueueRebuild("trace-1", "admin", config.DocsDir)

	req := httptest.NewRequest(http.MethodGet, "/rebuild/"+newJob.Id, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", newJob.Id)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	handlers.RebuildStatusHandler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res api.JobResponse
	decodeInto(t, w, &res)
	if res.Id != newJob.Id || res.Status != jobModel.JobStatusQueued {
		t.Errorf("unexpected job response %+v", res)
	}

	missing := httptest.NewRequest(http.MethodGet, "/rebuild/nope", nil)
	rctx = chi.NewRouteContext()
	rctx.URLParams.Add("id", "nope")
	missing = missing.WithContext(context.WithValue(missing.Context(), chi.RouteCtxKey, rctx))
	w = httptest.NewRecorder()
	handlers.RebuildStatusHandler(w, missing)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown job should 404, got %d", w.Code)
	}
}

func TestWebhookHandlerFiltersRepositories(t *testing.T) {
	body := `{"ref":"refs/heads/main","repository":{"name":"somebody-elses-repo","full_name":"x/somebody-elses-repo"},"pusher":{"name":"mallory"}}`
	w := httptest.NewRecorder()
	handlers.WebhookHandler(w, httptest.NewRequest(http.MethodPost, "/github-webhook", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res api.WebhookResponse
	decodeInto(t, w, &res)
	if res.Status != "ignored" {
		t.Errorf("push for a foreign repo must be ignored, got %q", res.Status)
	}
}

func TestWebhookHandlerSkippedWhileLocked(t *testing.T) {
	if err := index.AcquireLock(); err != nil {
		t.Fatalf("could not take the lock: %v", err)
	}
	t.Cleanup(index.ReleaseLock)

	body := `{"ref":"refs/heads/main","repository":{"name":"kb-docs","full_name":"acme/kb-docs"},"pusher":{"name":"dev"}}`
	w := httptest.NewRecorder()
	handlers.WebhookHandler(w, httptest.NewRequest(http.MethodPost, "/github-webhook", strings.NewReader(body)))

	var res api.WebhookResponse
	decodeInto(t, w, &res)
	if res.Status != "skipped" {
		t.Errorf("expected skipped while locked, got %q", res.Status)
	}
}

func TestWebhookHandlerQueuesSync(t *testing.T) {
	body := `{"ref":"refs/heads/main","repository":{"name":"kb-docs","full_name":"acme/kb-docs"},"pusher":{"name":"dev"}}`
	w := httptest.NewRecorder()
	handlers.WebhookHandler(w, httptest.NewRequest(http.MethodPost, "/github-webhook", strings.NewReader(body)))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var res api.WebhookResponse
	decodeInto(t, w, &res)
	if res.Status != "accepted" {
		t.Errorf("unexpected status %q", res.Status)
	}

	logged, err := os.ReadFile(config.WebhookLogPath())
	if err != nil {
		t.Fatalf("no webhook.log append: %v", err)
	}
	if !strings.Contains(string(logged), "acme/kb-docs") {
		t.Errorf("webhook.log misses the repository: %q", logged)
	}
}

func TestTestSearchHandler(t *testing.T) {
	resetMock(t)

	w := httptest.NewRecorder()
	handlers.TestSearchHandler(w, httptest.NewRequest(http.MethodGet, "/test-search", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing q should 400, got %d", w.Code)
	}

	mockRag.OnSearch = func(ctx context.Context, query string, k int) ([]rag.Preview, error) {
		if k != 3 {
			t.Errorf("k not passed through, got %d", k)
		}
		return []rag.Preview{{Title: "Shipping policy", Source: "guides/shipping.md", Score: 0.91, Excerpt: "Orders ship..."}}, nil
	}
	w = httptest.NewRecorder()
	handlers.TestSearchHandler(w, httptest.NewRequest(http.MethodGet, "/test-search?q=shipping&k=3", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res api.TestSearchResponse
	decodeInto(t, w, &res)
	if len(res.Results) != 1 || res.Results[0].Title != "Shipping policy" {
		t.Errorf("unexpected results %+v", res.Results)
	}
}

func TestPingAndLastUpdated(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.PingHandler(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	var ping api.PingResponse
	decodeInto(t, w, &ping)
	if ping.IndexStatus != "missing" {
		t.Errorf("no index built, expected missing, got %q", ping.IndexStatus)
	}

	stampPath := filepath.Join(config.IndexDir(), "last_updated.txt")
	if err := os.MkdirAll(config.IndexDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(stampPath, []byte("2026-03-14 09:30:00"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(stampPath) })

	w = httptest.NewRecorder()
	handlers.PingHandler(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	decodeInto(t, w, &ping)
	if ping.IndexStatus != "ready" {
		t.Errorf("stamp written, expected ready, got %q", ping.IndexStatus)
	}

	w = httptest.NewRecorder()
	handlers.LastUpdatedHandler(w, httptest.NewRequest(http.MethodGet, "/last-updated", nil))
	var last api.LastUpdatedResponse
	decodeInto(t, w, &last)
	if last.LastUpdated != "2026-03-14 09:30:00" {
		t.Errorf("unexpected stamp %q", last.LastUpdated)
	}
	if last.Timestamp == 0 {
		t.Error("stamp should parse into a unix timestamp")
	}
}

func TestIndexingStatusHandler(t *testing.T) {
	if err := index.WriteProgress(42, "Processing document 3 of 7"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Remove(config.ProgressFilePath()) })

	w := httptest.NewRecorder()
	handlers.IndexingStatusHandler(w, httptest.NewRequest(http.MethodGet, "/indexing-status", nil))
	var res api.IndexingStatusResponse
	decodeInto(t, w, &res)
	if res.Status != index.StatusInProgress || res.Percent != 42 {
		t.Errorf("unexpected progress %+v", res)
	}
	if res.Message != "Processing document 3 of 7" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestConfigHandlerStaysSanitized(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.ConfigHandler(w, httptest.NewRequest(http.MethodGet, "/config", nil))

	var res api.ConfigResponse
	decodeInto(t, w, &res)
	if res.VectorBackend != config.VectorBackend {
		t.Errorf("unexpected backend %q", res.VectorBackend)
	}
	if res.SessionStore != "memory" {
		t.Errorf("unexpected session store %q", res.SessionStore)
	}
	if len(res.LLMProviders) != 3 {
		t.Errorf("unexpected providers %v", res.LLMProviders)
	}
	if strings.Contains(w.Body.String(), config.AdminPassword) {
		t.Error("config response leaked the admin password")
	}
}

func TestUpdateIndexHandler(t *testing.T) {
	origBundled := config.BundledIndexDir
	t.Cleanup(func() { config.BundledIndexDir = origBundled })

	config.BundledIndexDir = filepath.Join(t.TempDir(), "missing")
	w := httptest.NewRecorder()
	handlers.UpdateIndexHandler(w, httptest.NewRequest(http.MethodPost, "/update-index", nil))
	var res api.UpdateIndexResponse
	decodeInto(t, w, &res)
	if res.Copied {
		t.Error("nothing bundled, copied must be false")
	}

	bundled := t.TempDir()
	if err := os.WriteFile(filepath.Join(bundled, "index_metadata.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	config.BundledIndexDir = bundled
	w = httptest.NewRecorder()
	handlers.UpdateIndexHandler(w, httptest.NewRequest(http.MethodPost, "/update-index", nil))
	decodeInto(t, w, &res)
	if !res.Copied {
		t.Errorf("expected a forced copy: %+v", res)
	}

	if err := index.AcquireLock(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(index.ReleaseLock)
	w = httptest.NewRecorder()
	handlers.UpdateIndexHandler(w, httptest.NewRequest(http.MethodPost, "/update-index", nil))
	if w.Code != http.StatusConflict {
		t.Errorf("update during a rebuild should 409, got %d", w.Code)
	}
}
