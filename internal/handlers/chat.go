package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/artemis-chat-go/internal/config"
	"github.com/artemis-chat-go/internal/i18n"
	"github.com/artemis-chat-go/internal/middleware"
	"github.com/artemis-chat-go/internal/models"
	"github.com/artemis-chat-go/internal/services/ai"
	"github.com/artemis-chat-go/internal/services/fallback"
	"github.com/artemis-chat-go/internal/services/prompt"
	"github.com/artemis-chat-go/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	NoteOK                 = "ok"
	NoteForcedLocal        = "forced-local"
	NoteImageNotConfigured = "image-not-configured"
	NoteNoToken            = "no-hf-token"
	NoteHFError            = "hf-error"
)

var errMessagesNotArray = errors.New("messages must be an array")

// ChatHandler serves the chat endpoint. It holds no per-request state and is
// safe for concurrent use.
type ChatHandler struct {
	config    *config.InferenceConfig
	inference ai.Service
	fallback  *fallback.Responder
	localizer *i18n.Localizer
	metrics   *middleware.Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewChatHandler creates a new chat handler
func NewChatHandler(
	cfg *config.InferenceConfig,
	inference ai.Service,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *ChatHandler {
	return &ChatHandler{
		config:    cfg,
		inference: inference,
		fallback:  fallback.NewResponder(localizer),
		localizer: localizer,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ServeHTTP handles one chat request. Inference failures never surface as
// HTTP errors; the reply degrades to the local responder and the reason is
// reported in the note.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSON(h.logger, w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method Not Allowed"})
		return
	}

	start := h.now()
	traceID := newTraceID(start)
	w.Header().Set("x-trace-id", traceID)
	log := logger.WithTrace(h.logger, traceID)

	req, err := decodeChatRequest(r.Body)
	if err != nil {
		log.WithError(err).Warn("Rejected chat request")
		writeJSON(log, w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	lang := h.localizer.Match(r.Header.Get("Accept-Language"))
	// A client disconnect must not cut the candidate chain short.
	env := h.respond(context.WithoutCancel(r.Context()), req, lang, log)

	elapsed := h.now().Sub(start).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	env.ElapsedMs = elapsed
	env.TraceID = traceID

	log.WithFields(logrus.Fields{
		"provider":   env.Provider,
		"model":      env.ModelUsed,
		"note":       env.Note,
		"elapsed_ms": env.ElapsedMs,
		"messages":   len(req.Messages),
	}).Info("Chat request served")
	h.metrics.RecordChatResponse(string(env.Provider), noteOutcome(env.Note))

	writeJSON(log, w, http.StatusOK, env)
}

// respond walks the request modes in priority order: forced local, image,
// missing token, then the text model chain.
func (h *ChatHandler) respond(ctx context.Context, req *models.ChatRequest, lang string, log *logrus.Entry) models.ResponseEnvelope {
	opts := req.Options

	if opts.ForceLocal {
		return h.local(req, lang, models.ProviderLocalOnly, NoteForcedLocal)
	}

	if opts.GenerateImage {
		return h.generateImage(ctx, req, lang, log)
	}

	if h.config.Token == "" {
		return h.local(req, lang, models.ProviderLocalFallback, NoteNoToken)
	}

	return h.chat(ctx, req, lang, log)
}

func (h *ChatHandler) local(req *models.ChatRequest, lang string, provider models.Provider, note string) models.ResponseEnvelope {
	return models.ResponseEnvelope{
		Reply:    h.fallback.Reply(req.Messages, req.Context, lang),
		Provider: provider,
		Note:     note,
	}
}

func (h *ChatHandler) generateImage(ctx context.Context, req *models.ChatRequest, lang string, log *logrus.Entry) models.ResponseEnvelope {
	model := ai.ResolveModelID(req.Options.ImageModel, h.config.ImageModel)
	if h.config.Token == "" || model == "" {
		return models.ResponseEnvelope{
			Reply:    h.fallback.Message(lang, i18n.MsgImageNotConfigured),
			Provider: models.ProviderLocalFallback,
			Note:     NoteImageNotConfigured,
		}
	}

	imagePrompt := req.Options.ImagePrompt
	if imagePrompt == "" {
		imagePrompt = req.LastContent()
	}

	started := time.Now()
	dataURI, err := h.inference.GenerateImage(ctx, model, h.config.Token, imagePrompt)
	h.metrics.RecordInference("image", attemptStatus(err), time.Since(started))
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"model": model,
			"kind":  ai.KindOf(err),
		}).Warn("Image generation failed, using local fallback")
		return h.local(req, lang, models.ProviderLocalFallback, "image-error:"+err.Error())
	}

	return models.ResponseEnvelope{
		Reply:        h.fallback.Message(lang, i18n.MsgImageReady),
		Provider:     models.ProviderHuggingFaceImage,
		ModelUsed:    model,
		ImageDataURI: dataURI,
		Note:         NoteOK,
	}
}

// chat tries each candidate model once, in order, and stops at the first
// success.
func (h *ChatHandler) chat(ctx context.Context, req *models.ChatRequest, lang string, log *logrus.Entry) models.ResponseEnvelope {
	text := prompt.Compose(prompt.SystemPrompt(req.Context, req.Options), req.Messages)

	var lastNote string
	for i, model := range h.candidates(req.Options) {
		started := time.Now()
		reply, err := h.inference.GenerateText(ctx, model, h.config.Token, text)
		h.metrics.RecordInference("text", attemptStatus(err), time.Since(started))
		if err == nil {
			note := NoteOK
			if i > 0 {
				note = fmt.Sprintf("fallback:%d", i)
			}
			return models.ResponseEnvelope{
				Reply:     reply,
				Provider:  models.ProviderHuggingFace,
				ModelUsed: model,
				Note:      note,
			}
		}

		lastNote = failureNote(err, model)
		log.WithError(err).WithFields(logrus.Fields{
			"model":   model,
			"attempt": i,
			"kind":    ai.KindOf(err),
		}).Warn("Chat model failed")
	}

	if lastNote == "" {
		lastNote = NoteHFError
	}
	return h.local(req, lang, models.ProviderLocalFallback, lastNote)
}

// candidates lists the models to try: primary, fallback, then the last
// resort, skipping blanks.
func (h *ChatHandler) candidates(opts models.RequestOptions) []string {
	all := []string{
		ai.ResolveModelID(opts.HFModel, h.config.ChatModel),
		ai.ResolveModelID(opts.HFFallback, h.config.FallbackModel),
		ai.SanitizeModelID(h.config.LastResortModel),
	}

	out := make([]string, 0, len(all))
	for _, m := range all {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func failureNote(err error, model string) string {
	var ie *ai.InferenceError
	if errors.As(err, &ie) {
		return ie.Note()
	}
	return NoteHFError + ":" + model
}

func attemptStatus(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := ai.KindOf(err); kind != "" {
		return string(kind)
	}
	return "error"
}

// noteOutcome reduces a note to a low-cardinality metric label.
func noteOutcome(note string) string {
	if i := strings.IndexByte(note, ':'); i >= 0 {
		return note[:i]
	}
	return note
}

// newTraceID derives a correlation id from the request start time plus a
// short random suffix.
func newTraceID(start time.Time) string {
	return strconv.FormatInt(start.UnixMilli(), 36) + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}

// decodeChatRequest parses a chat body. A body that is not valid JSON is
// treated as empty; a messages field that is present but not an array is
// rejected. Malformed context or options are ignored.
func decodeChatRequest(body io.Reader) (*models.ChatRequest, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	req := &models.ChatRequest{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return req, nil
	}

	if raw, ok := fields["messages"]; ok && !isNull(raw) {
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return nil, errMessagesNotArray
		}
		if err := json.Unmarshal(raw, &req.Messages); err != nil {
			return nil, errMessagesNotArray
		}
	}

	if raw, ok := fields["context"]; ok {
		var rc models.RequestContext
		if err := json.Unmarshal(raw, &rc); err == nil {
			req.Context = rc
		}
	}

	if raw, ok := fields["options"]; ok {
		var opts models.RequestOptions
		if err := json.Unmarshal(raw, &opts); err == nil {
			req.Options = opts
		}
	}

	return req, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func writeJSON(log logrus.FieldLogger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.WithError(err).WithField("status", status).Warn("Failed to write response")
	}
}
