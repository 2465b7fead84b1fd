package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/guility/relrag/internal/propertyschema"
	"github.com/guility/relrag/internal/relrag"
	"github.com/guility/relrag/internal/search"
)

func (s *Server) handlePropertySchema(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}

	items, err := s.propSchema.ListSchema(r.Context(), subjectFrom(r), id)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	out := make([]map[string]any, len(items))
	for i, item := range items {
		out[i] = map[string]any{
			"key":    item.Key,
			"label":  propertyschema.Label(item.Key),
			"type":   string(item.Type),
			"values": item.Values,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"properties": out})
}

// filterWire is the wire encoding of one property filter: {eq} maps to Eq,
// {one_of:[...]} to OneOf, {gte?,lte?} to Range, matching §9's "dynamic
// property filter spec" tagged variant. Only the object form is accepted: a
// bare string, number or boolean does not decode into filterWire, so the
// whole body is rejected as invalid JSON, and an object with none of these
// keys is rejected as a malformed filter.
type filterWire struct {
	Eq    *string  `json:"eq"`
	OneOf []string `json:"one_of"`
	Gte   *string  `json:"gte"`
	Lte   *string  `json:"lte"`
}

func (f filterWire) toFilter() (relrag.PropertyFilter, bool) {
	switch {
	case f.Eq != nil:
		return relrag.NewEqFilter(*f.Eq), true
	case f.OneOf != nil:
		return relrag.NewOneOfFilter(f.OneOf), true
	case f.Gte != nil || f.Lte != nil:
		return relrag.NewRangeFilter(f.Gte, f.Lte), true
	default:
		return relrag.PropertyFilter{}, false
	}
}

type searchRequest struct {
	Query        string                 `json:"query"`
	VectorWeight float64                `json:"vector_weight"`
	FTSWeight    float64                `json:"fts_weight"`
	Limit        int                    `json:"limit"`
	Filters      map[string]filterWire  `json:"filters"`
}

type searchResultDTO struct {
	ChunkID       string            `json:"chunk_id"`
	PackID        string            `json:"pack_id"`
	DocumentID    string            `json:"document_id"`
	Content       string            `json:"content"`
	VectorScore   float64           `json:"vector_score"`
	FTSScore      float64           `json:"fts_score"`
	Score         float64           `json:"score"`
	DocumentTitle string            `json:"document_title,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}

	filters := make(map[string]relrag.PropertyFilter, len(req.Filters))
	for key, wire := range req.Filters {
		filter, ok := wire.toFilter()
		if !ok {
			respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "malformed filter for key " + key})
			return
		}
		filters[key] = filter
	}

	results, err := s.search.HybridSearch(r.Context(), subjectFrom(r), search.Input{
		CollectionID: id,
		Query:        req.Query,
		VectorWeight: req.VectorWeight,
		FTSWeight:    req.FTSWeight,
		Limit:        req.Limit,
		Filters:      filters,
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	items := make([]searchResultDTO, len(results))
	for i, res := range results {
		items[i] = searchResultDTO{
			ChunkID:       res.ChunkID.String(),
			PackID:        res.PackID.String(),
			DocumentID:    res.DocumentID.String(),
			Content:       res.Content,
			VectorScore:   res.VectorScore,
			FTSScore:      res.FTSScore,
			Score:         res.Score,
			DocumentTitle: res.DocumentTitle,
			Metadata:      res.Metadata,
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": items})
}
