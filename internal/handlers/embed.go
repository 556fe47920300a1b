package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artemis-chat-go/internal/config"
	"github.com/artemis-chat-go/internal/middleware"
	"github.com/artemis-chat-go/internal/models"
	"github.com/artemis-chat-go/internal/services/ai"
	"github.com/sirupsen/logrus"
)

// maxImageBytes bounds images fetched by URL for embedding.
const maxImageBytes = 10 << 20

var errUnsupportedImageURL = errors.New("image url must use http or https")

// base64Encodings are tried in order; clients send padded, unpadded and
// URL-safe payloads.
var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// EmbedHandler proxies CLIP-style feature extraction for text or images.
type EmbedHandler struct {
	config     *config.InferenceConfig
	inference  ai.Service
	httpClient *http.Client
	metrics    *middleware.Metrics
	logger     *logrus.Logger
}

// NewEmbedHandler creates a new embedding handler
func NewEmbedHandler(cfg *config.InferenceConfig, inference ai.Service, metrics *middleware.Metrics, logger *logrus.Logger) *EmbedHandler {
	return &EmbedHandler{
		config:     cfg,
		inference:  inference,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		metrics:    metrics,
		logger:     logger,
	}
}

func (h *EmbedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeJSON(h.logger, w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method Not Allowed"})
		return
	}

	if h.config.Token == "" {
		writeJSON(h.logger, w, http.StatusInternalServerError, models.ErrorResponse{Error: "HF_TOKEN not configured"})
		return
	}

	var req models.EmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = models.EmbedRequest{}
	}

	model := ai.ResolveModelID(req.Model, h.config.ClipModel, config.DefaultClipModel)

	var input ai.EmbeddingInput
	switch req.Type {
	case "text":
		if req.Text == "" {
			writeJSON(h.logger, w, http.StatusBadRequest, models.ErrorResponse{Error: "text required"})
			return
		}
		input.Text = req.Text
	case "image":
		if req.Image == "" {
			writeJSON(h.logger, w, http.StatusBadRequest, models.ErrorResponse{Error: "image (url or data:) required"})
			return
		}
		data, err := h.loadImage(r.Context(), req.Image)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, errUnsupportedImageURL) {
				status = http.StatusBadRequest
			}
			h.logger.WithError(err).Warn("Failed to load image for embedding")
			writeJSON(h.logger, w, status, models.ErrorResponse{Error: err.Error()})
			return
		}
		input.Image = data
	default:
		writeJSON(h.logger, w, http.StatusBadRequest, models.ErrorResponse{Error: `type must be "text" or "image"`})
		return
	}

	started := time.Now()
	vector, err := h.inference.FeatureExtraction(r.Context(), model, h.config.Token, input)
	h.metrics.RecordInference("embedding", attemptStatus(err), time.Since(started))
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"model": model,
			"type":  req.Type,
		}).Error("Embedding request failed")
		writeJSON(h.logger, w, http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(h.logger, w, http.StatusOK, models.EmbedResponse{Vector: vector})
}

// loadImage decodes a data: URI or downloads an http(s) URL.
func (h *EmbedHandler) loadImage(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "data:") {
		_, payload, found := strings.Cut(src, ",")
		if !found {
			return nil, errors.New("malformed data uri")
		}
		return decodeBase64(payload)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errUnsupportedImageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image url: %w", err)
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image failed: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	var firstErr error
	for _, enc := range base64Encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("invalid base64 image: %w", firstErr)
}
