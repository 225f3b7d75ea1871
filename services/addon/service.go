package addon

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"jellybridge/models"
	"jellybridge/services/metadata"
)

// library is the slice of the library adapter the aggregator consumes.
type library interface {
	ListItems(ctx context.Context, kind models.ItemKind) ([]models.LibraryItem, error)
	GetItem(ctx context.Context, id string) (models.LibraryItem, error)
	ListEpisodes(ctx context.Context, seriesID string) ([]models.LibraryItem, error)
	ResolveSeasonEpisodes(ctx context.Context, seriesID string) ([]models.SeasonEpisodes, error)
	PrimaryImageURL(ctx context.Context, item models.LibraryItem, width int) string
	BackdropImageURL(ctx context.Context, item models.LibraryItem, width int) string
	StreamURL(ctx context.Context, itemID string) string
}

// resolver is the slice of the metadata resolver the aggregator consumes.
type resolver interface {
	Lookup(ctx context.Context, title string, year int, isMovie bool) *models.MetadataRecord
}

// Poster and thumbnail widths follow what Stremio renders at each surface.
const (
	catalogPosterWidth = 500
	metaPosterWidth    = 700
	backdropWidth      = 1920
	thumbnailWidth     = 350
)

// DefaultConcurrency bounds the catalog enrichment fan-out when no explicit
// limit is configured.
const DefaultConcurrency = 8

// Service merges library items with TMDB enrichment into the three canonical
// response shapes. Every operation degrades to a well-formed partial or empty
// result instead of surfacing a protocol-level fault.
type Service struct {
	library     library
	resolver    resolver
	localizer   metadata.Localizer
	concurrency int
}

// NewService creates the aggregator. concurrency bounds the per-item
// enrichment fan-out during catalog assembly.
func NewService(lib library, res resolver, localizer metadata.Localizer, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if localizer == nil {
		localizer = metadata.ForLocale("")
	}
	return &Service{
		library:     lib,
		resolver:    res,
		localizer:   localizer,
		concurrency: concurrency,
	}
}

func kindForType(mediaType string) models.ItemKind {
	if mediaType == "series" {
		return models.ItemKindSeries
	}
	return models.ItemKindMovie
}

// Catalog lists all items of the requested type, each enriched with a TMDB
// poster when one resolves. Enrichment fans out through a bounded worker pool
// while the final order follows the upstream listing order. A failed listing
// yields an empty catalog; a failed per-item lookup degrades only that item
// to its library artwork.
func (s *Service) Catalog(ctx context.Context, mediaType string) []models.CatalogEntry {
	kind := kindForType(mediaType)
	items, err := s.library.ListItems(ctx, kind)
	if err != nil {
		log.Printf("[addon] catalog %s: %v", mediaType, err)
		return []models.CatalogEntry{}
	}

	entries := make([]models.CatalogEntry, len(items))
	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i, item := range items {
		p.Go(func() {
			poster := ""
			if rec := s.resolver.Lookup(ctx, item.Name, item.ProductionYear, kind == models.ItemKindMovie); rec != nil {
				poster = rec.Poster
			}
			if poster == "" {
				poster = s.library.PrimaryImageURL(ctx, item, catalogPosterWidth)
			}
			entries[i] = models.CatalogEntry{
				ID:          EncodeItemID(item.ID),
				Type:        mediaType,
				Name:        item.Name,
				Poster:      poster,
				PosterShape: "regular",
			}
		})
	}
	p.Wait()
	return entries
}

// Meta resolves the canonical metadata object for one item. Upstream errors
// are converted into a minimal placeholder so the addon stays responsive.
func (s *Service) Meta(ctx context.Context, mediaType, id string) models.CanonicalMeta {
	placeholder := models.CanonicalMeta{ID: id, Type: mediaType}

	decoded, err := DecodeID(id)
	if err != nil {
		log.Printf("[addon] meta %s: %v", id, err)
		return placeholder
	}

	item, err := s.library.GetItem(ctx, decoded.ItemID)
	if err != nil {
		log.Printf("[addon] meta %s: %v", id, err)
		return placeholder
	}

	if mediaType == "series" {
		return s.seriesMeta(ctx, id, item)
	}
	return s.movieMeta(ctx, id, item)
}

// movieMeta merges library fields with resolver output: external overview,
// poster, backdrop and rating win over library fields.
func (s *Service) movieMeta(ctx context.Context, id string, item models.LibraryItem) models.CanonicalMeta {
	meta := models.CanonicalMeta{
		ID:          id,
		Type:        "movie",
		Name:        item.Name,
		Poster:      s.library.PrimaryImageURL(ctx, item, metaPosterWidth),
		Background:  s.library.BackdropImageURL(ctx, item, backdropWidth),
		Description: item.Overview,
		Runtime:     ticksToMinutes(item.RunTimeTicks),
		Genres:      item.Genres,
		IMDBRating:  "N/A",
	}
	if item.ProductionYear > 0 {
		meta.ReleaseInfo = strconv.Itoa(item.ProductionYear)
	}

	if rec := s.resolver.Lookup(ctx, item.Name, item.ProductionYear, true); rec != nil {
		if rec.Overview != "" {
			meta.Description = rec.Overview
		}
		if rec.Poster != "" {
			meta.Poster = rec.Poster
		}
		if rec.Backdrop != "" {
			meta.Background = rec.Backdrop
		}
		if rec.Rating > 0 {
			meta.IMDBRating = strconv.FormatFloat(rec.Rating, 'f', 1, 64)
		}
	}
	return meta
}

// seriesMeta builds the series object with its episode list. Episodes are
// library-sourced only and always emitted sorted by (season, episode)
// ascending regardless of upstream ordering.
func (s *Service) seriesMeta(ctx context.Context, id string, item models.LibraryItem) models.CanonicalMeta {
	meta := models.CanonicalMeta{
		ID:          id,
		Type:        "series",
		Name:        item.Name,
		Poster:      s.library.PrimaryImageURL(ctx, item, metaPosterWidth),
		Background:  s.library.BackdropImageURL(ctx, item, backdropWidth),
		Description: item.Overview,
		Genres:      item.Genres,
	}
	if item.ProductionYear > 0 {
		meta.ReleaseInfo = strconv.Itoa(item.ProductionYear)
	}

	episodes, err := s.library.ListEpisodes(ctx, item.ID)
	if err != nil {
		log.Printf("[addon] episodes of %s: %v", item.ID, err)
		return meta
	}

	videos := make([]models.Video, 0, len(episodes))
	for _, ep := range episodes {
		videos = append(videos, models.Video{
			ID:        EncodeEpisodeID(item.ID, ep.ParentIndexNumber, ep.IndexNumber, ep.ID),
			Title:     ep.Name,
			Season:    ep.ParentIndexNumber,
			Episode:   ep.IndexNumber,
			Released:  ep.PremiereDate,
			Thumbnail: s.library.PrimaryImageURL(ctx, ep, thumbnailWidth),
		})
	}
	sort.Slice(videos, func(i, j int) bool {
		if videos[i].Season != videos[j].Season {
			return videos[i].Season < videos[j].Season
		}
		return videos[i].Episode < videos[j].Episode
	})
	meta.Videos = videos
	return meta
}

// Streams resolves the playable targets for an opaque id. Episode ids yield
// one direct stream for the episode's own item id; a bare series id
// enumerates every discovered episode and yields one titled stream per
// episode. Errors yield an empty list.
func (s *Service) Streams(ctx context.Context, mediaType, id string) []models.Stream {
	decoded, err := DecodeID(id)
	if err != nil {
		log.Printf("[addon] stream %s: %v", id, err)
		return []models.Stream{}
	}

	if decoded.IsEpisode() {
		return []models.Stream{{
			Name:  "Direct Stream",
			Title: s.localizer.Localize(fmt.Sprintf("Season %d Episode %d", decoded.Season, decoded.Episode)),
			URL:   s.library.StreamURL(ctx, decoded.EpisodeID),
		}}
	}

	if mediaType == "series" {
		return s.seriesStreams(ctx, decoded.ItemID)
	}

	return []models.Stream{{
		Name:  "Direct Stream",
		Title: s.localizer.Localize("Movie"),
		URL:   s.library.StreamURL(ctx, decoded.ItemID),
	}}
}

// seriesStreams enumerates the episodes of a series (season-scoped first,
// flat fallback) and returns one stream per episode with its season/episode
// context.
func (s *Service) seriesStreams(ctx context.Context, seriesID string) []models.Stream {
	seasons, err := s.library.ResolveSeasonEpisodes(ctx, seriesID)
	if err != nil {
		log.Printf("[addon] streams of %s: %v", seriesID, err)
		return []models.Stream{}
	}

	streams := make([]models.Stream, 0, len(seasons))
	for _, season := range seasons {
		for _, ep := range season.Episodes {
			title := fmt.Sprintf("Season %d Episode %d", season.Season, ep.IndexNumber)
			if ep.Name != "" {
				title += " - " + ep.Name
			}
			streams = append(streams, models.Stream{
				Name:  "Direct Stream",
				Title: s.localizer.Localize(title),
				URL:   s.library.StreamURL(ctx, ep.ID),
			})
		}
	}
	return streams
}
