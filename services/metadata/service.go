package metadata

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"jellybridge/internal/cache"
	"jellybridge/models"
)

// lookupTTL keeps lookup results for a day: titles and years are stable
// identifiers for a given work.
const lookupTTL = 24 * time.Hour

// Resolver looks up canonical title, artwork and rating on TMDB. Enrichment
// is an optional enhancement: every failure path yields nil, never an error.
type Resolver struct {
	client    *tmdbClient
	store     *cache.Store
	localizer Localizer
}

// NewResolver creates a resolver. An empty apiKey disables lookups entirely;
// Lookup then always returns nil.
func NewResolver(apiKey, locale string, store *cache.Store, httpc *http.Client) *Resolver {
	r := &Resolver{
		store:     store,
		localizer: ForLocale(locale),
	}
	if strings.TrimSpace(apiKey) != "" {
		r.client = newTMDBClient(apiKey, locale, httpc)
	}
	return r
}

// Enabled reports whether an API key is configured.
func (r *Resolver) Enabled() bool {
	return r.client != nil
}

// Localizer returns the text-normalization strategy for the configured
// locale.
func (r *Resolver) Localizer() Localizer {
	return r.localizer
}

// Lookup resolves the first TMDB search result for (title, year) into a
// MetadataRecord. It returns nil when no key is configured, the service is
// unreachable, or the search matches nothing. Hits are cached long-term;
// misses and failures are not, so a transient outage does not pin an empty
// result.
func (r *Resolver) Lookup(ctx context.Context, title string, year int, isMovie bool) *models.MetadataRecord {
	if r.client == nil || strings.TrimSpace(title) == "" {
		return nil
	}

	key := lookupKey(title, year, isMovie)
	if rec, ok := cache.Get[models.MetadataRecord](r.store, key); ok {
		return &rec
	}

	hit, err := r.client.search(ctx, title, year, isMovie)
	if err != nil {
		log.Printf("[metadata] lookup %q (%d): %v", title, year, err)
		return nil
	}
	if hit == nil {
		return nil
	}

	rec := r.toRecord(hit, title, year)
	if err := cache.Put(r.store, key, lookupTTL, rec); err != nil {
		log.Printf("[metadata] cache %q: %v", key, err)
	}
	return &rec
}

func lookupKey(title string, year int, isMovie bool) string {
	kind := "s"
	if isMovie {
		kind = "m"
	}
	yearPart := ""
	if year > 0 {
		yearPart = fmt.Sprintf("%d", year)
	}
	return fmt.Sprintf("metadata-lookup:%s|%s|%s", kind, title, yearPart)
}

// toRecord maps a search hit to the normalized record, applying the
// localization pass to the overview text.
func (r *Resolver) toRecord(hit *tmdbResult, title string, year int) models.MetadataRecord {
	name := hit.Title
	if name == "" {
		name = hit.Name
	}
	if name == "" {
		name = title
	}

	date := hit.ReleaseDate
	if date == "" {
		date = hit.FirstAirDate
	}
	recYear := ""
	if len(date) >= 4 {
		recYear = date[:4]
	} else if year > 0 {
		recYear = fmt.Sprintf("%d", year)
	}

	return models.MetadataRecord{
		Title:    name,
		Overview: r.localizer.Localize(hit.Overview),
		Poster:   r.client.imageURL(hit.PosterPath),
		Backdrop: r.client.imageURL(hit.BackdropPath),
		Year:     recYear,
		Rating:   math.Round(hit.VoteAverage*10) / 10,
	}
}
