package metadata

import (
	"strings"

	"golang.org/x/text/language"
)

// Localizer normalizes fetched text toward the configured locale. It is a
// heuristic fallback for text TMDB could not serve localized, not a
// translation layer.
type Localizer interface {
	Localize(text string) string
}

// ForLocale selects the localizer strategy for a BCP 47 locale tag.
// Unrecognized or unsupported locales get a pass-through localizer.
func ForLocale(locale string) Localizer {
	tag, err := language.Parse(locale)
	if err != nil {
		return noopLocalizer{}
	}
	base, _ := tag.Base()
	if base.String() == "sv" {
		return swedishLocalizer{}
	}
	return noopLocalizer{}
}

// noopLocalizer passes text through unchanged.
type noopLocalizer struct{}

func (noopLocalizer) Localize(text string) string { return text }

// swedishTerms maps the English domain terms that leak through unlocalized
// TMDB responses to their Swedish equivalents.
var swedishTerms = []struct{ from, to string }{
	{"Season", "Säsong"},
	{"Episode", "Avsnitt"},
	{"Movie", "Film"},
	{"Overview", "Översikt"},
}

// swedishLocalizer substitutes known English domain terms. Text that already
// contains Swedish characters is assumed localized and passed through.
type swedishLocalizer struct{}

func (swedishLocalizer) Localize(text string) string {
	if text == "" || strings.ContainsAny(text, "åäöÅÄÖ") {
		return text
	}
	for _, term := range swedishTerms {
		text = strings.ReplaceAll(text, term.from, term.to)
	}
	return text
}
