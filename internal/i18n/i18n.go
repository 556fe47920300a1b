package i18n

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/artemis-chat-go/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var catalogs embed.FS

// Localizer resolves canned replies for a caller's Accept-Language.
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	languages       []language.Tag
	matcher         language.Matcher
}

// NewLocalizer creates a new localizer
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	defaultTag, err := language.Parse(cfg.DefaultLanguage)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", cfg.DefaultLanguage, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	// The default language goes first so the matcher falls back to it.
	tags := []language.Tag{defaultTag}
	for _, lang := range cfg.Languages {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("invalid language %q: %w", lang, err)
		}
		if _, err := bundle.LoadMessageFileFS(catalogs, fmt.Sprintf("locales/%s.json", lang)); err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", lang, err)
		}
		if tag != defaultTag {
			tags = append(tags, tag)
		}
	}

	return &Localizer{
		bundle:          bundle,
		defaultLanguage: defaultTag.String(),
		languages:       tags,
		matcher:         language.NewMatcher(tags),
	}, nil
}

// Match picks the supported language for an Accept-Language header value.
func (l *Localizer) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return l.defaultLanguage
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return l.defaultLanguage
	}
	_, index, confidence := l.matcher.Match(desired...)
	if confidence == language.No {
		return l.defaultLanguage
	}
	return l.languages[index].String()
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer := i18n.NewLocalizer(l.bundle, lang, l.defaultLanguage)

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// Message IDs
const (
	MsgFallbackMaterials  = "fallback_materials"
	MsgFallbackCare       = "fallback_care"
	MsgFallbackDelivery   = "fallback_delivery"
	MsgFallbackGeneric    = "fallback_generic"
	MsgImageNotConfigured = "image_not_configured"
	MsgImageReady         = "image_ready"
)
