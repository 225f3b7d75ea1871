package models

// MetadataRecord is a normalized TMDB lookup result used to enrich library
// items with localized overview text, artwork and a rating.
type MetadataRecord struct {
	Title    string  `json:"title"`
	Overview string  `json:"overview,omitempty"`
	Poster   string  `json:"poster,omitempty"`
	Backdrop string  `json:"backdrop,omitempty"`
	Year     string  `json:"year,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// CatalogEntry is a catalog summary as consumed by Stremio.
type CatalogEntry struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	PosterShape string `json:"posterShape,omitempty"`
}

// Video is one episode entry inside a series meta object.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	Released  string `json:"released,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// CanonicalMeta is the merged, addon-facing metadata object. For movies the
// TMDB fields win over the library fields; for series the episode list is
// library-sourced only, sorted by (season, episode) ascending.
type CanonicalMeta struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Poster      string   `json:"poster,omitempty"`
	Background  string   `json:"background,omitempty"`
	Description string   `json:"description,omitempty"`
	ReleaseInfo string   `json:"releaseInfo,omitempty"`
	Runtime     int      `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	IMDBRating  string   `json:"imdbRating,omitempty"`
	Videos      []Video  `json:"videos,omitempty"`
}

// Stream is a resolved playable target pointing at the Jellyfin playback
// endpoint.
type Stream struct {
	Name  string `json:"name,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}
