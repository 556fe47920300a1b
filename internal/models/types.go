package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Provider names the path that produced a reply.
type Provider string

const (
	ProviderLocalOnly        Provider = "local-only"
	ProviderLocalFallback    Provider = "local-fallback"
	ProviderHuggingFace      Provider = "huggingface"
	ProviderHuggingFaceImage Provider = "huggingface-image"
)

// ChatMessage represents one conversation turn
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts null entries and non-string content, both of which
// decode to an empty message instead of failing the whole request.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	*m = ChatMessage{}
	var raw struct {
		Role    interface{} `json:"role"`
		Content interface{} `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	if role, ok := raw.Role.(string); ok {
		m.Role = role
	}
	if content, ok := raw.Content.(string); ok {
		m.Content = content
	}
	return nil
}

// Scalar is a display-only value that may arrive as a JSON string or number.
// Numbers keep their literal text.
type Scalar string

func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
	default:
		*s = Scalar(data)
	}
	return nil
}

// Flag is a loosely typed boolean option: true, non-zero numbers and
// non-empty strings, arrays or objects all count as set.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case bool:
		*f = Flag(val)
	case float64:
		*f = val != 0
	case string:
		*f = val != ""
	case []interface{}:
		*f = len(val) != 0
	case map[string]interface{}:
		*f = len(val) != 0
	default:
		*f = false
	}
	return nil
}

// Techniques is a list of craft techniques. A single string is taken as a
// one-item list; other shapes decode to an empty list.
type Techniques []string

func (t *Techniques) UnmarshalJSON(data []byte) error {
	*t = nil
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch val := v.(type) {
	case string:
		if val != "" {
			*t = Techniques{val}
		}
	case []interface{}:
		for _, item := range val {
			switch s := item.(type) {
			case string:
				*t = append(*t, s)
			case float64:
				*t = append(*t, strconv.FormatFloat(s, 'f', -1, 64))
			}
		}
	}
	return nil
}

// ProductInfo is display-only product metadata supplied by the page. Every
// field tolerates numbers where text is expected.
type ProductInfo struct {
	Name       Scalar     `json:"name"`
	Category   Scalar     `json:"category"`
	Price      Scalar     `json:"price"`
	Stock      Scalar     `json:"stock"`
	Region     Scalar     `json:"region"`
	Techniques Techniques `json:"techniques"`
}

// IsZero reports whether no product field was supplied.
func (p *ProductInfo) IsZero() bool {
	return p == nil || (p.Name == "" && p.Category == "" && p.Price == "" &&
		p.Stock == "" && p.Region == "" && len(p.Techniques) == 0)
}

type RequestContext struct {
	Path    Scalar       `json:"path"`
	Product *ProductInfo `json:"product"`
	Role    Scalar       `json:"role"`
}

// UnmarshalJSON decodes each field on its own so a malformed product does
// not discard the page path or role. Only a non-object context fails.
func (c *RequestContext) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*c = RequestContext{}
	if raw, ok := fields["path"]; ok {
		json.Unmarshal(raw, &c.Path)
	}
	if raw, ok := fields["role"]; ok {
		json.Unmarshal(raw, &c.Role)
	}
	if raw, ok := fields["product"]; ok {
		var product ProductInfo
		if err := json.Unmarshal(raw, &product); err == nil && !isNullJSON(raw) {
			c.Product = &product
		}
	}
	return nil
}

func isNullJSON(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// HasProduct reports whether the context carries any product data.
func (c RequestContext) HasProduct() bool {
	return !c.Product.IsZero()
}

type RequestOptions struct {
	Persona       string `json:"persona"`
	HFModel       string `json:"hfModel"`
	HFFallback    string `json:"hfFallback"`
	ImageModel    string `json:"imageModel"`
	ForceLocal    Flag   `json:"forceLocal"`
	GenerateImage Flag   `json:"generateImage"`
	ImagePrompt   string `json:"imagePrompt"`
}

// ChatRequest is the decoded chat endpoint body.
type ChatRequest struct {
	Messages []ChatMessage
	Context  RequestContext
	Options  RequestOptions
}

// LastContent returns the content of the final message, or "".
func (r *ChatRequest) LastContent() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// ResponseEnvelope is the chat endpoint's only response shape.
type ResponseEnvelope struct {
	Reply        string   `json:"reply"`
	Provider     Provider `json:"provider"`
	ModelUsed    string   `json:"modelUsed,omitempty"`
	ImageDataURI string   `json:"imageDataUri,omitempty"`
	Note         string   `json:"note"`
	ElapsedMs    int64    `json:"elapsedMs"`
	TraceID      string   `json:"traceId"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// EmbedRequest is the embedding endpoint body.
type EmbedRequest struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Image string `json:"image"`
	Model string `json:"model"`
}

// EmbedResponse wraps the (once-flattened) feature vector.
type EmbedResponse struct {
	Vector interface{} `json:"vector"`
}

// FormatTechniques renders techniques as a comma separated list.
func (p *ProductInfo) FormatTechniques() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.Techniques, ", ")
}

