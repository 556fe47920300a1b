package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"mime"
	"strings"
)

type imageRequest struct {
	Inputs  string      `json:"inputs"`
	Options waitOptions `json:"options"`
}

// GenerateImage runs one text-to-image call and returns the picture as a
// base64 data URI.
func (c *Client) GenerateImage(ctx context.Context, modelID, token, prompt string) (string, error) {
	body, err := marshalJSON(imageRequest{
		Inputs:  prompt,
		Options: waitOptions{WaitForModel: true},
	})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, c.modelURL("models", modelID), modelID, token, "application/json", body, c.imageTimeout)
	if err != nil {
		return "", err
	}

	if mimeType, ok := imageMIMEType(resp.contentType); ok {
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(resp.body), nil
	}

	badResponse := &InferenceError{
		Kind:    KindBadResponse,
		Status:  resp.status,
		Model:   modelID,
		Detail:  truncate(resp.body),
		Message: "Unexpected image response",
	}

	var payload struct {
		Error interface{} `json:"error"`
	}
	if err := json.Unmarshal(resp.body, &payload); err == nil && payload.Error != nil {
		switch e := payload.Error.(type) {
		case string:
			badResponse.Message = e
		default:
			if raw, err := json.Marshal(e); err == nil {
				badResponse.Message = string(raw)
			}
		}
	}

	return "", badResponse
}

// imageMIMEType returns the media type of an image/* content type without
// parameters.
func imageMIMEType(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}
	mediaType = strings.ToLower(mediaType)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", false
	}
	return mediaType, true
}
