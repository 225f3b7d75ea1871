package jellyfin

import (
	"context"
	"log"
	"sort"
	"time"

	"jellybridge/internal/cache"
	"jellybridge/models"
)

const (
	// Catalog listings change infrequently.
	catalogTTL = 6 * time.Hour

	// Single items and episode listings change more often (artwork edits,
	// newly added episodes).
	itemTTL = 30 * time.Minute
)

// Service is the library adapter: it fetches items and episodes from the
// Jellyfin server through the shared cache store.
type Service struct {
	client *Client
	store  *cache.Store
}

// NewService creates a library adapter backed by client and store.
func NewService(client *Client, store *cache.Store) *Service {
	return &Service{client: client, store: store}
}

// ListItems returns all library items of the given kind, raw and unenriched.
func (s *Service) ListItems(ctx context.Context, kind models.ItemKind) ([]models.LibraryItem, error) {
	key := "catalog:" + string(kind)
	return cache.GetOrFetch(s.store, key, catalogTTL, func() ([]models.LibraryItem, error) {
		items, err := s.client.fetchAllItems(ctx, kind)
		if err != nil {
			return nil, err
		}
		log.Printf("[library] fetched %d %s items", len(items), kind)
		return items, nil
	})
}

// GetItem returns one item with full fields.
func (s *Service) GetItem(ctx context.Context, id string) (models.LibraryItem, error) {
	return cache.GetOrFetch(s.store, "meta:"+id, itemTTL, func() (models.LibraryItem, error) {
		return s.client.fetchItem(ctx, id)
	})
}

// ListEpisodes returns all episodes under a series via the flat parent-id
// query, including season and episode indices and premiere dates.
func (s *Service) ListEpisodes(ctx context.Context, seriesID string) ([]models.LibraryItem, error) {
	return cache.GetOrFetch(s.store, "episodes:"+seriesID, itemTTL, func() ([]models.LibraryItem, error) {
		return s.client.fetchEpisodes(ctx, seriesID)
	})
}

// ResolveSeasonEpisodes enumerates a series season by season. When the server
// reports zero seasons it falls back to the flat episode query and groups the
// result by season index, because not every deployment exposes season
// groupings uniformly. Seasons that fail to enumerate are skipped rather than
// failing the whole resolution.
func (s *Service) ResolveSeasonEpisodes(ctx context.Context, seriesID string) ([]models.SeasonEpisodes, error) {
	seasons, err := cache.GetOrFetch(s.store, "seasons:"+seriesID, itemTTL, func() ([]models.LibraryItem, error) {
		return s.client.fetchSeasons(ctx, seriesID)
	})
	if err != nil {
		return nil, err
	}

	if len(seasons) == 0 {
		episodes, err := s.ListEpisodes(ctx, seriesID)
		if err != nil {
			return nil, err
		}
		return groupBySeason(episodes), nil
	}

	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].IndexNumber < seasons[j].IndexNumber
	})

	var out []models.SeasonEpisodes
	for _, season := range seasons {
		episodes, err := s.client.fetchSeasonEpisodes(ctx, seriesID, season.ID)
		if err != nil {
			log.Printf("[library] season %d of %s: %v", season.IndexNumber, seriesID, err)
			continue
		}
		out = append(out, models.SeasonEpisodes{Season: season.IndexNumber, Episodes: episodes})
	}
	return out, nil
}

// PrimaryImageURL builds the poster URL for an item.
func (s *Service) PrimaryImageURL(ctx context.Context, item models.LibraryItem, width int) string {
	return s.client.PrimaryImageURL(ctx, item, width)
}

// BackdropImageURL builds the backdrop URL for an item.
func (s *Service) BackdropImageURL(ctx context.Context, item models.LibraryItem, width int) string {
	return s.client.BackdropImageURL(ctx, item, width)
}

// StreamURL builds the direct playback URL for an item.
func (s *Service) StreamURL(ctx context.Context, itemID string) string {
	return s.client.StreamURL(ctx, itemID)
}

// groupBySeason partitions a flat episode listing by season index, ordered by
// season ascending.
func groupBySeason(episodes []models.LibraryItem) []models.SeasonEpisodes {
	byIndex := make(map[int][]models.LibraryItem)
	for _, ep := range episodes {
		byIndex[ep.ParentIndexNumber] = append(byIndex[ep.ParentIndexNumber], ep)
	}

	indices := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]models.SeasonEpisodes, 0, len(indices))
	for _, idx := range indices {
		eps := byIndex[idx]
		sort.Slice(eps, func(i, j int) bool {
			return eps[i].IndexNumber < eps[j].IndexNumber
		})
		out = append(out, models.SeasonEpisodes{Season: idx, Episodes: eps})
	}
	return out
}
