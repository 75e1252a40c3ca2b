package localization_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/pitabwire/strata/localization"
)

type LocalizationTestSuite struct {
	suite.Suite

	loc localization.Manager
}

func TestLocalizationSuite(t *testing.T) {
	suite.Run(t, &LocalizationTestSuite{})
}

func (s *LocalizationTestSuite) SetupSuite() {
	loc, err := localization.NewManager()
	s.Require().NoError(err)
	s.loc = loc
}

func (s *LocalizationTestSuite) TestParseLanguage() {
	testCases := []struct {
		name     string
		tag      string
		expected localization.Language
		ok       bool
	}{
		{name: "malay tag", tag: "ms", expected: localization.LanguageMalay, ok: true},
		{name: "english tag", tag: "en", expected: localization.LanguageEnglish, ok: true},
		{name: "region subtag stripped", tag: "en-US", expected: localization.LanguageEnglish, ok: true},
		{name: "mixed case", tag: "MS", expected: localization.LanguageMalay, ok: true},
		{name: "surrounding whitespace", tag: "  en  ", expected: localization.LanguageEnglish, ok: true},
		{name: "unsupported locale", tag: "sw", ok: false},
		{name: "empty tag", tag: "", ok: false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			lang, ok := localization.ParseLanguage(tc.tag)
			require.Equal(s.T(), tc.ok, ok)
			if tc.ok {
				require.Equal(s.T(), tc.expected, lang)
			}
		})
	}
}

func (s *LocalizationTestSuite) TestCatalogsAreComplete() {
	keys := s.loc.Keys()
	require.NotEmpty(s.T(), keys)

	for _, lang := range localization.Supported() {
		catalog := s.loc.Catalog(lang)
		require.Len(s.T(), catalog, len(keys), "locale %s should carry every key", lang)

		for _, key := range keys {
			require.NotEmpty(s.T(), catalog[key], "locale %s is missing %q", lang, key)
			require.NotEqual(s.T(), key, catalog[key], "locale %s carries an untranslated %q", lang, key)
		}
	}
}

func (s *LocalizationTestSuite) TestResolve() {
	testCases := []struct {
		name      string
		lang      localization.Language
		messageID string
		expected  string
	}{
		{name: "malay nav entry", lang: localization.LanguageMalay, messageID: "nav.home", expected: "Utama"},
		{name: "english nav entry", lang: localization.LanguageEnglish, messageID: "nav.home", expected: "Home"},
		{name: "malay theme entry", lang: localization.LanguageMalay, messageID: "theme.dark", expected: "Mod Gelap"},
		{name: "english theme entry", lang: localization.LanguageEnglish, messageID: "theme.light", expected: "Light Mode"},
		{
			name:      "missing id degrades to the id",
			lang:      localization.LanguageEnglish,
			messageID: "nav.doesNotExist",
			expected:  "nav.doesNotExist",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			require.Equal(s.T(), tc.expected, s.loc.Resolve(context.Background(), tc.lang, tc.messageID))
		})
	}
}

func (s *LocalizationTestSuite) TestTranslate() {
	ctx := context.Background()

	testCases := []struct {
		name     string
		request  any
		expected string
	}{
		{name: "string request", request: "en", expected: "Home"},
		{name: "slice picks first supported", request: []string{"sw", "ms"}, expected: "Utama"},
		{name: "context request", request: localization.ToContext(ctx, []string{"en"}), expected: "Home"},
		{name: "unparseable falls back to default locale", request: []string{"sw"}, expected: "Utama"},
		{name: "unsupported request type returns the id", request: 42, expected: "nav.home"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			require.Equal(s.T(), tc.expected, s.loc.Translate(ctx, tc.request, "nav.home"))
		})
	}
}
