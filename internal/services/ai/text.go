package ai

import (
	"context"
	"encoding/json"
)

type textParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type textRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters textParameters `json:"parameters"`
	Options    waitOptions    `json:"options"`
}

// GenerateText runs one text-generation call against modelID.
func (c *Client) GenerateText(ctx context.Context, modelID, token, prompt string) (string, error) {
	body, err := marshalJSON(textRequest{
		Inputs: prompt,
		Parameters: textParameters{
			MaxNewTokens:   c.maxNewTokens,
			Temperature:    c.temperature,
			ReturnFullText: false,
		},
		Options: waitOptions{WaitForModel: true},
	})
	if err != nil {
		return "", err
	}

	resp, err := c.post(ctx, c.modelURL("models", modelID), modelID, token, "application/json", body, c.textTimeout)
	if err != nil {
		return "", err
	}

	return extractGeneratedText(resp.body), nil
}

// extractGeneratedText accepts both [{"generated_text": ...}] and
// {"generated_text": ...}. Anything else yields GenericReply.
func extractGeneratedText(body []byte) string {
	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return GenericReply
	}

	switch v := data.(type) {
	case []interface{}:
		if len(v) > 0 {
			if obj, ok := v[0].(map[string]interface{}); ok {
				if text, ok := obj["generated_text"].(string); ok {
					return text
				}
			}
		}
	case map[string]interface{}:
		if text, ok := v["generated_text"].(string); ok {
			return text
		}
	}
	return GenericReply
}
