// Package prompt renders the instruction text and conversation transcript
// sent to text-generation models.
package prompt

import (
	"fmt"
	"strings"

	"github.com/artemis-chat-go/internal/models"
)

const (
	// DefaultPersona is used when a request names none.
	DefaultPersona = "friendly and helpful"

	// HistoryWindow is how many trailing messages reach the model.
	HistoryWindow = 10
)

const guidelines = "Guidelines: Help with materials/care/gifting/delivery generally; for exact details, recommend “Chat with Artisan.”"

// SystemPrompt builds the assistant instructions for one request. Only the
// product fields present in ctx are rendered.
func SystemPrompt(ctx models.RequestContext, opts models.RequestOptions) string {
	persona := opts.Persona
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}

	lines := []string{
		fmt.Sprintf("You are Artemis, an AI assistant for an artisan marketplace. Your personality is %s. "+
			"Be concise, kind, and helpful. Never invent unavailable product specifics "+
			"(dimensions, materials) — instead, suggest asking the artisan.", persona),
	}

	if ctx.Path != "" {
		lines = append(lines, fmt.Sprintf("Current page: %s.", ctx.Path))
	}

	if ctx.HasProduct() {
		p := ctx.Product
		lines = append(lines, fmt.Sprintf("Product: %s • Category: %s • Price: ₹%s • Stock: %s • Origin: %s • Techniques: %s",
			p.Name, p.Category, p.Price, p.Stock, p.Region, p.FormatTechniques()))
	} else {
		lines = append(lines, "Product: none.")
	}

	if ctx.Role != "" {
		lines = append(lines, fmt.Sprintf("User role: %s.", ctx.Role))
	}

	lines = append(lines, guidelines)
	return strings.Join(lines, "\n")
}

// Compose renders the system prompt and the recent history into a single
// completion prompt ending with an "Assistant:" cue.
func Compose(system string, messages []models.ChatMessage) string {
	var parts []string
	if system != "" {
		parts = append(parts, "<system>\n"+system+"\n</system>\n")
	}

	if len(messages) > HistoryWindow {
		messages = messages[len(messages)-HistoryWindow:]
	}

	history := make([]string, 0, len(messages))
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		if m.Role == "assistant" {
			history = append(history, "Assistant: "+m.Content)
		} else {
			history = append(history, "User: "+m.Content)
		}
	}

	parts = append(parts, strings.Join(history, "\n"), "\nAssistant:")
	return strings.Join(parts, "\n")
}
