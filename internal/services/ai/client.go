package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/artemis-chat-go/internal/config"
	"github.com/sirupsen/logrus"
)

// GenericReply is returned when a text model answers with something that
// carries no generated text.
const GenericReply = "I’m here to help."

// maxResponseBytes caps how much of an upstream body is read. Image models
// return a few MB at most.
const maxResponseBytes = 32 << 20

// Service is the hosted inference API as seen by the handlers. Each method
// performs exactly one upstream call.
type Service interface {
	GenerateText(ctx context.Context, modelID, token, prompt string) (string, error)
	GenerateImage(ctx context.Context, modelID, token, prompt string) (string, error)
	FeatureExtraction(ctx context.Context, modelID, token string, input EmbeddingInput) (interface{}, error)
}

// Client talks to the Hugging Face inference API over plain HTTP.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	textTimeout  time.Duration
	imageTimeout time.Duration
	maxNewTokens int
	temperature  float64
	logger       *logrus.Logger
}

// NewClient creates a new inference client
func NewClient(cfg *config.InferenceConfig, logger *logrus.Logger) *Client {
	logger.WithFields(logrus.Fields{
		"baseURL":         cfg.BaseURL,
		"chatModel":       cfg.ChatModel,
		"fallbackModel":   cfg.FallbackModel,
		"imageModel":      cfg.ImageModel,
		"tokenConfigured": cfg.Token != "",
	}).Info("Inference client initialized")

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:   &http.Client{},
		textTimeout:  cfg.TextTimeout,
		imageTimeout: cfg.ImageTimeout,
		maxNewTokens: cfg.MaxNewTokens,
		temperature:  cfg.Temperature,
		logger:       logger,
	}
}

type waitOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// upstreamResponse is a fully read 2xx response.
type upstreamResponse struct {
	status      int
	contentType string
	body        []byte
}

// modelPath escapes each segment of an "org/name" model id.
func modelPath(modelID string) string {
	segments := strings.Split(modelID, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func (c *Client) modelURL(prefix, modelID string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, prefix, modelPath(modelID))
}

func marshalJSON(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// post sends one request and classifies the outcome. Non-2xx statuses and
// transport failures come back as *InferenceError.
func (c *Client) post(ctx context.Context, endpoint, modelID, token, contentType string, body io.Reader, timeout time.Duration) (*upstreamResponse, error) {
	// The timeout bounds this one call; the client itself has none.
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	c.logger.WithFields(logrus.Fields{
		"model":   modelID,
		"url":     endpoint,
		"timeout": timeout.String(),
	}).Debug("Sending inference request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &InferenceError{
			Kind:   KindNetworkError,
			Model:  modelID,
			Detail: truncate([]byte(err.Error())),
			Err:    err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &InferenceError{
			Kind:   KindNetworkError,
			Status: resp.StatusCode,
			Model:  modelID,
			Detail: truncate([]byte(err.Error())),
			Err:    err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ie := &InferenceError{
			Kind:   kindForStatus(resp.StatusCode),
			Status: resp.StatusCode,
			Model:  modelID,
			Detail: truncate(data),
		}
		c.logger.WithFields(logrus.Fields{
			"model":  modelID,
			"status": resp.StatusCode,
			"kind":   ie.Kind,
			"body":   ie.Detail,
		}).Warn("Inference request failed")
		return nil, ie
	}

	return &upstreamResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}
