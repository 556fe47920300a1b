package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/artemis-chat-go/internal/config"
	"github.com/artemis-chat-go/internal/i18n"
	"github.com/artemis-chat-go/internal/middleware"
	"github.com/artemis-chat-go/internal/models"
	"github.com/artemis-chat-go/internal/services/ai"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	genericReply   = "I’m here to help with shopping, delivery, returns, gifts, or talking to artisans. Ask me anything."
	materialsReply = "It’s artisan-made with premium materials chosen for the design. For exact materials, ask the artisan via “Chat with Artisan.”"
)

// fakeHF stands in for the inference API. Each model answers with a fixed
// status and body; every call is recorded.
type fakeHF struct {
	mu        sync.Mutex
	calls     []string
	prompts   []string
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status      int
	contentType string
	body        string
}

func (f *fakeHF) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	model := strings.TrimPrefix(r.URL.Path, "/models/")
	var body struct {
		Inputs string `json:"inputs"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.prompts = append(f.prompts, body.Inputs)
	resp, ok := f.responses[model]
	f.mu.Unlock()

	if !ok {
		resp = fakeResponse{status: http.StatusNotFound, body: `{"error":"Model not found"}`}
	}
	if resp.contentType != "" {
		w.Header().Set("Content-Type", resp.contentType)
	}
	if resp.status != 0 {
		w.WriteHeader(resp.status)
	}
	w.Write([]byte(resp.body))
}

func (f *fakeHF) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type testEnv struct {
	hf     *fakeHF
	cfg    *config.InferenceConfig
	router *mux.Router
}

func newTestEnv(t *testing.T, responses map[string]fakeResponse, configure func(*config.InferenceConfig)) *testEnv {
	t.Helper()

	hf := &fakeHF{responses: responses}
	server := httptest.NewServer(hf)
	t.Cleanup(server.Close)

	cfg := &config.InferenceConfig{
		BaseURL:         server.URL,
		Token:           "hf_test",
		ChatModel:       "org/primary",
		FallbackModel:   "org/secondary",
		LastResortModel: "org/last",
		ImageModel:      "org/image",
		ClipModel:       "org/clip",
		TextTimeout:     2 * time.Second,
		ImageTimeout:    2 * time.Second,
		MaxNewTokens:    320,
		Temperature:     0.3,
	}
	if configure != nil {
		configure(cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	localizer, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "en", Languages: []string{"en", "hi"}})
	require.NoError(t, err)

	metrics := middleware.NewMetrics()
	client := ai.NewClient(cfg, logger)
	limiter := middleware.NewRateLimiter(&config.RateLimitConfig{}, metrics, logger)
	router := NewRouter(
		NewChatHandler(cfg, client, localizer, metrics, logger),
		NewEmbedHandler(cfg, client, metrics, logger),
		limiter,
		metrics,
		1<<20,
	)

	return &testEnv{hf: hf, cfg: cfg, router: router}
}

func (e *testEnv) post(t *testing.T, body string) (*httptest.ResponseRecorder, models.ResponseEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, ChatPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var env models.ResponseEnvelope
	if rr.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func ok(text string) fakeResponse {
	return fakeResponse{status: http.StatusOK, contentType: "application/json", body: `[{"generated_text":` + mustJSON(text) + `}]`}
}

func mustJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func assertEnvelopeBasics(t *testing.T, rr *httptest.ResponseRecorder, env models.ResponseEnvelope) {
	t.Helper()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, env.TraceID)
	assert.Equal(t, env.TraceID, rr.Header().Get("x-trace-id"))
	assert.GreaterOrEqual(t, env.ElapsedMs, int64(0))
}

func TestChat_MalformedMessages(t *testing.T) {
	bodies := []string{
		`{"messages":"hello"}`,
		`{"messages":{"role":"user"}}`,
		`{"messages":42,"options":{"forceLocal":true}}`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)
			rr, _ := env.post(t, body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, "messages must be an array", resp["error"])
			assert.Empty(t, env.hf.Calls())
		})
	}
}

func TestChat_ForceLocal(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{"org/primary": ok("remote")}, nil)

	rr, resp := env.post(t, `{
		"messages":[{"role":"user","content":"what material is it"}],
		"context":{"product":{"name":"Vase"}},
		"options":{"forceLocal":true,"generateImage":true,"hfModel":"org/primary"}
	}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderLocalOnly, resp.Provider)
	assert.Equal(t, NoteForcedLocal, resp.Note)
	assert.Equal(t, materialsReply, resp.Reply)
	assert.Empty(t, resp.ModelUsed)
	assert.Empty(t, env.hf.Calls())
}

func TestChat_ImageNotConfigured(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*config.InferenceConfig)
	}{
		{"no token", func(c *config.InferenceConfig) { c.Token = "" }},
		{"no image model", func(c *config.InferenceConfig) { c.ImageModel = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil, tc.configure)
			rr, resp := env.post(t, `{"messages":[{"role":"user","content":"draw a pot"}],"options":{"generateImage":true}}`)

			assertEnvelopeBasics(t, rr, resp)
			assert.Equal(t, models.ProviderLocalFallback, resp.Provider)
			assert.Equal(t, NoteImageNotConfigured, resp.Note)
			assert.Equal(t, "Image generator not configured. Set HF_TOKEN and HF_IMAGE_MODEL.", resp.Reply)
			assert.Empty(t, resp.ImageDataURI)
			assert.Empty(t, env.hf.Calls())
		})
	}
}

func TestChat_ImageGenerated(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/override": {status: http.StatusOK, contentType: "image/png", body: "PNG"},
	}, nil)

	rr, resp := env.post(t, `{
		"messages":[{"role":"user","content":"ignored"}],
		"options":{"generateImage":true,"imageModel":"'org/override:v1'","imagePrompt":"a blue pot"}
	}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderHuggingFaceImage, resp.Provider)
	assert.Equal(t, "org/override", resp.ModelUsed)
	assert.Equal(t, NoteOK, resp.Note)
	assert.Equal(t, "data:image/png;base64,UE5H", resp.ImageDataURI)
	assert.Equal(t, "Here is your generated image.", resp.Reply)
	assert.Equal(t, []string{"org/override"}, env.hf.Calls())
	assert.Equal(t, []string{"a blue pot"}, env.hf.prompts)
}

func TestChat_ImagePromptDefaultsToLastMessage(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/image": {status: http.StatusOK, contentType: "image/jpeg", body: "JPG"},
	}, nil)

	_, resp := env.post(t, `{"messages":[{"role":"user","content":"first"},{"role":"user","content":"a brass lamp"}],"options":{"generateImage":1}}`)

	assert.Equal(t, models.ProviderHuggingFaceImage, resp.Provider)
	assert.Equal(t, []string{"a brass lamp"}, env.hf.prompts)
}

func TestChat_ImageFailureFallsBack(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/image": {status: http.StatusServiceUnavailable, body: "loading"},
	}, nil)

	rr, resp := env.post(t, `{"messages":[{"role":"user","content":"draw"}],"options":{"generateImage":true}}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderLocalFallback, resp.Provider)
	assert.Equal(t, "image-error:HF_LOADING: org/image", resp.Note)
	assert.Equal(t, genericReply, resp.Reply)
	assert.Empty(t, resp.ImageDataURI)
	assert.Empty(t, resp.ModelUsed)
}

func TestChat_NoToken(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{"org/primary": ok("remote")}, func(c *config.InferenceConfig) { c.Token = "" })

	rr, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}]}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderLocalFallback, resp.Provider)
	assert.Equal(t, NoteNoToken, resp.Note)
	assert.Equal(t, genericReply, resp.Reply)
	assert.Empty(t, env.hf.Calls())
}

func TestChat_PrimarySucceeds(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{"org/primary": ok("Namaste! How can I help?")}, nil)

	rr, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}],"context":{"path":"/shop"}}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderHuggingFace, resp.Provider)
	assert.Equal(t, "org/primary", resp.ModelUsed)
	assert.Equal(t, NoteOK, resp.Note)
	assert.Equal(t, "Namaste! How can I help?", resp.Reply)
	assert.Equal(t, []string{"org/primary"}, env.hf.Calls())

	require.Len(t, env.hf.prompts, 1)
	assert.True(t, strings.HasPrefix(env.hf.prompts[0], "<system>\n"))
	assert.Contains(t, env.hf.prompts[0], "Current page: /shop.")
	assert.True(t, strings.HasSuffix(env.hf.prompts[0], "User: hi\n\nAssistant:"))
}

func TestChat_SecondaryAfterPrimaryFails(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/primary":   {status: http.StatusServiceUnavailable},
		"org/secondary": ok("from secondary"),
	}, nil)

	rr, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}]}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderHuggingFace, resp.Provider)
	assert.Equal(t, "fallback:1", resp.Note)
	assert.Equal(t, "org/secondary", resp.ModelUsed)
	assert.Equal(t, "from secondary", resp.Reply)
	assert.Equal(t, []string{"org/primary", "org/secondary"}, env.hf.Calls())
}

func TestChat_LastResort(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/primary":   {status: http.StatusTooManyRequests},
		"org/secondary": {status: http.StatusInternalServerError},
		"org/last":      ok("tiny but alive"),
	}, nil)

	_, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, "fallback:2", resp.Note)
	assert.Equal(t, "org/last", resp.ModelUsed)
	assert.Equal(t, []string{"org/primary", "org/secondary", "org/last"}, env.hf.Calls())
}

func TestChat_RequestOverridesModels(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"custom/second": ok("custom"),
	}, nil)

	_, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}],"options":{"hfModel":" \"custom/first:main\" ","hfFallback":"custom/second"}}`)

	assert.Equal(t, "fallback:1", resp.Note)
	assert.Equal(t, "custom/second", resp.ModelUsed)
	assert.Equal(t, []string{"custom/first", "custom/second"}, env.hf.Calls())
}

func TestChat_AllModelsFail(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{
		"org/primary":   {status: http.StatusUnauthorized},
		"org/secondary": {status: http.StatusUnauthorized},
		"org/last":      {status: http.StatusServiceUnavailable},
	}, nil)

	rr, resp := env.post(t, `{
		"messages":[{"role":"user","content":"will it ship to my zip?"}],
		"context":{"product":{"name":"Rug","price":1200}}
	}`)

	assertEnvelopeBasics(t, rr, resp)
	assert.Equal(t, models.ProviderLocalFallback, resp.Provider)
	assert.Equal(t, "HF_LOADING:org/last", resp.Note)
	assert.Empty(t, resp.ModelUsed)
	assert.Contains(t, resp.Reply, "Check delivery")
	assert.Len(t, env.hf.Calls(), 3)
}

func TestChat_SkipsBlankCandidates(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{}, func(c *config.InferenceConfig) {
		c.FallbackModel = ""
		c.LastResortModel = ""
	})

	_, resp := env.post(t, `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, []string{"org/primary"}, env.hf.Calls())
	assert.Equal(t, "HF_NOT_FOUND:org/primary", resp.Note)
}

func TestChat_NoCandidates(t *testing.T) {
	env := newTestEnv(t, nil, func(c *config.InferenceConfig) {
		c.ChatModel = ""
		c.FallbackModel = ""
		c.LastResortModel = ""
	})

	_, resp := env.post(t, `{"messages":[]}`)

	assert.Equal(t, models.ProviderLocalFallback, resp.Provider)
	assert.Equal(t, NoteHFError, resp.Note)
	assert.Empty(t, env.hf.Calls())
}

func TestChat_LenientBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `this is not json`, genericReply},
		{"empty", ``, genericReply},
		{"messages null", `{"messages":null}`, genericReply},
		{"messages missing", `{"options":{"forceLocal":true}}`, genericReply},
		{"odd message entries", `{"messages":[null,42,{"role":"user","content":7}]}`, genericReply},
		{"bad context ignored", `{"messages":[],"context":"nope"}`, genericReply},
		{
			"numeric product name",
			`{"messages":[{"role":"user","content":"what material is it"}],"context":{"path":"/p/1","role":"buyer","product":{"name":123,"category":"Pottery"}}}`,
			materialsReply,
		},
		{
			"product techniques not a list",
			`{"messages":[{"role":"user","content":"what material is it"}],"context":{"product":{"name":"Vase","techniques":{"a":1}}}}`,
			materialsReply,
		},
		{
			"product not an object",
			`{"messages":[{"role":"user","content":"what material is it"}],"context":{"path":"/p/1","product":"Vase"}}`,
			genericReply,
		},
		{"empty array flag", `{"messages":[],"options":{"forceLocal":[]}}`, genericReply},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, nil, func(c *config.InferenceConfig) { c.Token = "" })
			rr, resp := env.post(t, tc.body)

			assertEnvelopeBasics(t, rr, resp)
			assert.Equal(t, tc.want, resp.Reply)
		})
	}
}

func TestChat_OddProductFieldsKeepContext(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{"org/primary": ok("sure")}, nil)

	_, resp := env.post(t, `{
		"messages":[{"role":"user","content":"tell me more"}],
		"context":{"path":"/p/1","role":"buyer","product":{"name":123,"category":"Pottery","price":450,"techniques":"wheel throwing"}}
	}`)

	assert.Equal(t, models.ProviderHuggingFace, resp.Provider)
	require.Len(t, env.hf.prompts, 1)
	prompt := env.hf.prompts[0]
	assert.Contains(t, prompt, "Current page: /p/1.")
	assert.Contains(t, prompt, "User role: buyer.")
	assert.Contains(t, prompt, "Product: 123 • Category: Pottery • Price: ₹450 • Stock:  • Origin:  • Techniques: wheel throwing")
}

func TestChat_InferenceSeriesBounded(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{}, nil)

	before := seriesCount(t, "artemis_inference_requests_total")
	for i := 0; i < 25; i++ {
		_, resp := env.post(t, fmt.Sprintf(`{"messages":[{"role":"user","content":"hi"}],"options":{"hfModel":"caller/m%d","hfFallback":"caller/f%d"}}`, i, i))
		require.Equal(t, models.ProviderLocalFallback, resp.Provider)
	}
	after := seriesCount(t, "artemis_inference_requests_total")

	assert.Len(t, env.hf.Calls(), 75)
	assert.LessOrEqual(t, after-before, 1)
}

// seriesCount returns how many label combinations a metric family has in
// the default registry.
func seriesCount(t *testing.T, name string) int {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return len(mf.GetMetric())
		}
	}
	return 0
}

func TestChat_ClientDisconnectDoesNotAbortChain(t *testing.T) {
	env := newTestEnv(t, map[string]fakeResponse{"org/secondary": ok("still here")}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, ChatPath, strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.ProviderHuggingFace, resp.Provider)
	assert.Equal(t, "fallback:1", resp.Note)
	assert.Equal(t, []string{"org/primary", "org/secondary"}, env.hf.Calls())
}

type failingWriter struct {
	header http.Header
}

func (w *failingWriter) Header() http.Header       { return w.header }
func (w *failingWriter) WriteHeader(int)           {}
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteJSON_LogsWriteFailure(t *testing.T) {
	logger, hook := logtest.NewNullLogger()

	writeJSON(logger, &failingWriter{header: http.Header{}}, http.StatusOK, map[string]string{"reply": "x"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Failed to write response", entry.Message)
	assert.Equal(t, http.StatusOK, entry.Data["status"])
}

func TestChat_LocalisedFallback(t *testing.T) {
	env := newTestEnv(t, nil, func(c *config.InferenceConfig) { c.Token = "" })

	req := httptest.NewRequest(http.MethodPost, ChatPath, bytes.NewBufferString(`{"messages":[]}`))
	req.Header.Set("Accept-Language", "hi-IN,hi;q=0.9")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEqual(t, genericReply, resp.Reply)
	assert.NotEmpty(t, resp.Reply)
}

func TestChat_Preflight(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, ChatPath, nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Empty(t, rr.Body.String())
}

func TestChat_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	req := httptest.NewRequest(http.MethodGet, ChatPath, nil)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "POST", rr.Header().Get("Allow"))
}

func TestChat_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	hf := env.hf

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	localizer, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "en", Languages: []string{"en"}})
	require.NoError(t, err)
	metrics := middleware.NewMetrics()
	router := NewRouter(
		NewChatHandler(env.cfg, ai.NewClient(env.cfg, logger), localizer, metrics, logger),
		NewEmbedHandler(env.cfg, ai.NewClient(env.cfg, logger), metrics, logger),
		middleware.NewRateLimiter(&config.RateLimitConfig{}, metrics, logger),
		metrics,
		16,
	)

	req := httptest.NewRequest(http.MethodPost, ChatPath, strings.NewReader(`{"messages":[{"role":"user","content":"a long message"}]}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceeds 16 bytes")
	assert.Empty(t, hf.Calls())
}

func TestChat_ElapsedUsesClock(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	localizer, err := i18n.NewLocalizer(&config.I18nConfig{DefaultLanguage: "en", Languages: []string{"en"}})
	require.NoError(t, err)

	h := NewChatHandler(&config.InferenceConfig{}, nil, localizer, middleware.NewMetrics(), logger)
	base := time.UnixMilli(1_700_000_000_000)
	ticks := []time.Time{base, base.Add(1500 * time.Millisecond)}
	h.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, ChatPath, strings.NewReader(`{"messages":[]}`)))

	var resp models.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, int64(1500), resp.ElapsedMs)
	assert.True(t, strings.HasPrefix(resp.TraceID, "loyw3v28-"), resp.TraceID)
}

func TestNoteOutcome(t *testing.T) {
	assert.Equal(t, "ok", noteOutcome("ok"))
	assert.Equal(t, "fallback", noteOutcome("fallback:2"))
	assert.Equal(t, "HF_LOADING", noteOutcome("HF_LOADING:org/last"))
	assert.Equal(t, "image-error", noteOutcome("image-error:HF_LOADING: org/image"))
}
