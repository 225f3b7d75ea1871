package models

// ManifestCatalog declares one catalog the addon serves.
type ManifestCatalog struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Manifest is the addon manifest served at /manifest.json.
type Manifest struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Types       []string          `json:"types"`
	Catalogs    []ManifestCatalog `json:"catalogs"`
	Resources   []string          `json:"resources"`
	IDPrefixes  []string          `json:"idPrefixes"`
}

// DefaultManifest returns the manifest for the bridge's fixed surface: one
// movie catalog, one series catalog, and the catalog/meta/stream resources.
func DefaultManifest() Manifest {
	return Manifest{
		ID:          "community.jellybridge",
		Version:     "1.0.0",
		Name:        "Jellybridge",
		Description: "Jellyfin library with TMDB artwork and localized metadata",
		Types:       []string{"movie", "series"},
		Catalogs: []ManifestCatalog{
			{Type: "movie", ID: "jellybridge-movies", Name: "Jellyfin"},
			{Type: "series", ID: "jellybridge-series", Name: "Jellyfin"},
		},
		Resources:  []string{"catalog", "meta", "stream"},
		IDPrefixes: []string{"lib:"},
	}
}
