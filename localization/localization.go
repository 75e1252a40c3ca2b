package localization

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFS embed.FS

// Language is a locale tag supported by the portal.
type Language string

const (
	// LanguageMalay is the primary market locale of the association.
	LanguageMalay Language = "ms"
	// LanguageEnglish is the secondary locale.
	LanguageEnglish Language = "en"
)

// DefaultLanguage is used whenever no preference is available.
// The portal deliberately defaults to the local market locale.
const DefaultLanguage = LanguageMalay

// Supported lists the locales the catalog ships message packs for.
func Supported() []Language {
	return []Language{LanguageMalay, LanguageEnglish}
}

// ParseLanguage normalises a raw locale tag to a supported Language.
// Region subtags are ignored so "en-US" resolves to "en".
func ParseLanguage(tag string) (Language, bool) {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(tag)), "-")
	for _, lang := range Supported() {
		if base == string(lang) {
			return lang, true
		}
	}
	return "", false
}

type contextKey string

func (c contextKey) String() string {
	return "strata/localization/" + string(c)
}

const ctxKeyLanguage = contextKey("languageKey")

// ToContext adds language to the current supplied context.
func ToContext(ctx context.Context, lang []string) context.Context {
	return context.WithValue(ctx, ctxKeyLanguage, lang)
}

// FromContext extracts language from the supplied context if any exist.
func FromContext(ctx context.Context) []string {
	languages, ok := ctx.Value(ctxKeyLanguage).([]string)
	if !ok {
		return nil
	}

	return languages
}

type Manager interface {
	Bundle() *i18n.Bundle

	// Keys enumerates every message id in the catalog across all locales.
	Keys() []string

	// Catalog returns the raw key to text table for one locale.
	Catalog(lang Language) map[string]string

	// Resolve localizes a message id for the supplied locale. An
	// unresolved id degrades to the id itself, it never fails.
	Resolve(ctx context.Context, lang Language, messageID string) string

	Translate(ctx context.Context, request any, messageID string) string
}

type managerImpl struct {
	bundle   *i18n.Bundle
	catalogs map[Language]map[string]string
}

// NewManager loads the embedded message packs for all supported locales.
func NewManager() (Manager, error) {
	bundle := i18n.NewBundle(language.Malay)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	catalogs := make(map[Language]map[string]string)
	for _, lang := range Supported() {
		path := fmt.Sprintf("messages/messages.%s.toml", lang)
		if _, err := bundle.LoadMessageFileFS(messageFS, path); err != nil {
			return nil, fmt.Errorf("loading message pack %q: %w", path, err)
		}

		raw, err := messageFS.ReadFile(path)
		if err != nil {
			return nil, err
		}

		catalog := make(map[string]string)
		if err = toml.Unmarshal(raw, &catalog); err != nil {
			return nil, fmt.Errorf("decoding message pack %q: %w", path, err)
		}
		catalogs[lang] = catalog
	}

	return &managerImpl{bundle: bundle, catalogs: catalogs}, nil
}

// Bundle accesses the translation bundle instantiated in the system.
func (s *managerImpl) Bundle() *i18n.Bundle {
	return s.bundle
}

func (s *managerImpl) Keys() []string {
	seen := make(map[string]struct{})
	for _, catalog := range s.catalogs {
		for key := range catalog {
			seen[key] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (s *managerImpl) Catalog(lang Language) map[string]string {
	catalog := make(map[string]string, len(s.catalogs[lang]))
	for key, text := range s.catalogs[lang] {
		catalog[key] = text
	}
	return catalog
}

func (s *managerImpl) Resolve(ctx context.Context, lang Language, messageID string) string {
	localizer := i18n.NewLocalizer(s.bundle, string(lang), string(DefaultLanguage))

	translated, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageID,
		DefaultMessage: &i18n.Message{ID: messageID},
	})
	if err != nil || translated == "" {
		util.Log(ctx).WithField("messageID", messageID).WithField("language", lang).
			Debug("Resolve -- message id not in catalog, degrading to the raw id")
		return messageID
	}

	return translated
}

// Translate performs a quick translation based on the supplied message id.
// The request object carries the locale and can be a string, []string or
// a context previously populated via ToContext.
func (s *managerImpl) Translate(ctx context.Context, request any, messageID string) string {
	var languageSlice []string

	switch v := request.(type) {
	case context.Context:
		languageSlice = FromContext(v)

	case string:
		languageSlice = []string{v}

	case []string:
		languageSlice = v

	default:
		logger := util.Log(ctx).WithField("messageID", messageID)
		logger.Warn("Translate -- no valid request object found, use string, []string or context")
		return messageID
	}

	for _, tag := range languageSlice {
		if lang, ok := ParseLanguage(tag); ok {
			return s.Resolve(ctx, lang, messageID)
		}
	}

	return s.Resolve(ctx, DefaultLanguage, messageID)
}
