package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"jellybridge/models"
)

// aggregatorService is the slice of the aggregator the HTTP layer consumes.
type aggregatorService interface {
	Catalog(ctx context.Context, mediaType string) []models.CatalogEntry
	Meta(ctx context.Context, mediaType, id string) models.CanonicalMeta
	Streams(ctx context.Context, mediaType, id string) []models.Stream
}

// AddonHandler serves the four addon protocol endpoints. Every response is a
// well-formed 200; upstream failures surface as empty or placeholder payloads
// so clients never see a protocol-level error.
type AddonHandler struct {
	service  aggregatorService
	manifest models.Manifest
}

// NewAddonHandler creates an AddonHandler serving the given manifest.
func NewAddonHandler(service aggregatorService, manifest models.Manifest) *AddonHandler {
	return &AddonHandler{
		service:  service,
		manifest: manifest,
	}
}

type catalogResponse struct {
	Metas []models.CatalogEntry `json:"metas"`
}

type metaResponse struct {
	Meta models.CanonicalMeta `json:"meta"`
}

type streamResponse struct {
	Streams []models.Stream `json:"streams"`
}

// Manifest handles GET /manifest.json
func (h *AddonHandler) Manifest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.manifest)
}

// Catalog handles GET /catalog/{type}/{id}.json
func (h *AddonHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := vars["type"]

	entries := h.service.Catalog(r.Context(), mediaType)
	if entries == nil {
		entries = []models.CatalogEntry{}
	}
	writeJSON(w, catalogResponse{Metas: entries})
}

// Meta handles GET /meta/{type}/{id}.json
func (h *AddonHandler) Meta(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := vars["type"]
	id := vars["id"]

	meta := h.service.Meta(r.Context(), mediaType, id)
	writeJSON(w, metaResponse{Meta: meta})
}

// Stream handles GET /stream/{type}/{id}.json
func (h *AddonHandler) Stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	mediaType := vars["type"]
	id := vars["id"]

	streams := h.service.Streams(r.Context(), mediaType, id)
	if streams == nil {
		streams = []models.Stream{}
	}
	writeJSON(w, streamResponse{Streams: streams})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[handlers] encode response: %v", err)
	}
}
