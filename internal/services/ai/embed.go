package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// EmbeddingInput is either text or raw image bytes; Image wins when set.
type EmbeddingInput struct {
	Text  string
	Image []byte
}

type featureRequest struct {
	Inputs string `json:"inputs"`
}

// FeatureExtraction returns the embedding for one text or image. Nested
// vectors are flattened once, keeping the first row.
func (c *Client) FeatureExtraction(ctx context.Context, modelID, token string, input EmbeddingInput) (interface{}, error) {
	var (
		body        io.Reader
		contentType string
	)
	if input.Image != nil {
		body = bytes.NewReader(input.Image)
		contentType = "application/octet-stream"
	} else {
		reader, err := marshalJSON(featureRequest{Inputs: input.Text})
		if err != nil {
			return nil, err
		}
		body = reader
		contentType = "application/json"
	}

	resp, err := c.post(ctx, c.modelURL("pipeline/feature-extraction", modelID), modelID, token, contentType, body, c.textTimeout)
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return nil, &InferenceError{
			Kind:    KindBadResponse,
			Status:  resp.status,
			Model:   modelID,
			Detail:  truncate(resp.body),
			Message: "Unexpected embedding response",
			Err:     err,
		}
	}
	return flattenOnce(out), nil
}

func flattenOnce(v interface{}) interface{} {
	rows, ok := v.([]interface{})
	if !ok || len(rows) == 0 {
		return v
	}
	if first, ok := rows[0].([]interface{}); ok {
		return first
	}
	return rows
}
