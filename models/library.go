package models

// ItemKind selects the Jellyfin item type for library queries.
type ItemKind string

const (
	ItemKindMovie  ItemKind = "Movie"
	ItemKindSeries ItemKind = "Series"
)

// LibraryItem is the raw Jellyfin record for a movie, series, season or
// episode. Field names follow the Jellyfin API; only the fields the bridge
// requests are mapped.
type LibraryItem struct {
	ID                string   `json:"Id"`
	Name              string   `json:"Name"`
	Type              string   `json:"Type,omitempty"`
	ProductionYear    int      `json:"ProductionYear,omitempty"`
	PrimaryImageTag   string   `json:"PrimaryImageTag,omitempty"`
	BackdropImageTags []string `json:"BackdropImageTags,omitempty"`
	Overview          string   `json:"Overview,omitempty"`
	Genres            []string `json:"Genres,omitempty"`

	// RunTimeTicks is the runtime in 100-nanosecond ticks.
	RunTimeTicks int64 `json:"RunTimeTicks,omitempty"`

	// Episode fields. ParentIndexNumber is the season index and IndexNumber
	// the episode index within that season.
	ParentIndexNumber int    `json:"ParentIndexNumber,omitempty"`
	IndexNumber       int    `json:"IndexNumber,omitempty"`
	SeriesID          string `json:"SeriesId,omitempty"`
	PremiereDate      string `json:"PremiereDate,omitempty"`
}

// SeasonEpisodes groups the episodes discovered under one season index.
type SeasonEpisodes struct {
	Season   int
	Episodes []LibraryItem
}
