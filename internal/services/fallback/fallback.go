// Package fallback answers chat requests locally when no inference model is
// available. Replies are canned and chosen by keyword.
package fallback

import (
	"strings"

	"github.com/artemis-chat-go/internal/i18n"
	"github.com/artemis-chat-go/internal/models"
)

// rule maps message keywords to a canned reply. Rules are checked in order
// and the first hit wins.
type rule struct {
	messageID string
	keywords  []string
}

var productRules = []rule{
	{messageID: i18n.MsgFallbackMaterials, keywords: []string{"material", "made of"}},
	{messageID: i18n.MsgFallbackCare, keywords: []string{"care", "wash", "clean"}},
	{messageID: i18n.MsgFallbackDelivery, keywords: []string{"ship", "deliver", "pincode", "zip", "eta"}},
}

// Responder picks canned replies.
type Responder struct {
	localizer *i18n.Localizer
}

func NewResponder(localizer *i18n.Localizer) *Responder {
	return &Responder{localizer: localizer}
}

// MessageID returns the catalog id of the reply for the last message.
func MessageID(messages []models.ChatMessage, ctx models.RequestContext) string {
	var last string
	if len(messages) > 0 {
		last = strings.ToLower(messages[len(messages)-1].Content)
	}

	if ctx.HasProduct() {
		for _, r := range productRules {
			for _, kw := range r.keywords {
				if strings.Contains(last, kw) {
					return r.messageID
				}
			}
		}
	}
	return i18n.MsgFallbackGeneric
}

// Reply returns the canned reply in lang.
func (r *Responder) Reply(messages []models.ChatMessage, ctx models.RequestContext, lang string) string {
	return r.localizer.Get(lang, MessageID(messages, ctx), nil)
}

// Message returns a fixed catalog message in lang.
func (r *Responder) Message(lang, messageID string) string {
	return r.localizer.Get(lang, messageID, nil)
}
