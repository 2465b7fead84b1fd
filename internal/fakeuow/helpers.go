package fakeuow

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guility/relrag/internal/relrag"
)

// nowFunc is a seam so tests can pin time.Now() if ever needed; the fakes
// use wall-clock time by default, same as production adapters would.
var nowFunc = time.Now

func paginate[T any](items []T, limit int, idOf func(T) string) relrag.Page[T] {
	if limit <= 0 {
		limit = 20
	}
	if len(items) > limit {
		return relrag.Page[T]{Items: items[:limit], NextCursor: idOf(items[limit-1])}
	}
	return relrag.Page[T]{Items: items}
}

// cosineAndFTSSearch is a small, non-indexed stand-in for the SQL in §4.H:
// it computes cosine similarity against the query embedding and a crude
// term-overlap "rank" against the FTS query, combines them with the given
// weights, applies property filters as an AND of per-filter membership
// tests, and returns the top results ordered by combined score descending.
func cosineAndFTSSearch(s *Store, params relrag.SearchParams) []relrag.SearchResult {
	var results []relrag.SearchResult

	for packID, members := range s.packCollection {
		if !members[params.CollectionID] {
			continue
		}
		pack, ok := s.packs[packID]
		if !ok || pack.IsDeleted() {
			continue
		}
		doc, ok := s.documents[pack.DocumentID]
		if !ok {
			continue
		}
		if !passesPropertyFilters(s.properties[doc.ID], params.PropertyFilters) {
			continue
		}

		for _, cid := range sortedIDs(s.chunks) {
			chunk := s.chunks[cid]
			if chunk.PackID != packID {
				continue
			}
			vectorScore := cosineSimilarity(chunk.Embedding, params.QueryEmbedding)
			ftsScore := termOverlapRank(chunk.Content, params.QueryFTS)
			combined := vectorScore*params.VectorWeight + ftsScore*params.FTSWeight

			title, metadata := splitTitleAndMetadata(s.properties[doc.ID])
			results = append(results, relrag.SearchResult{
				ChunkID:       chunk.ID,
				PackID:        pack.ID,
				DocumentID:    doc.ID,
				Content:       chunk.Content,
				VectorScore:   vectorScore,
				FTSScore:      ftsScore,
				Score:         combined,
				DocumentTitle: title,
				Metadata:      metadata,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func termOverlapRank(content, query string) float64 {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0
	}
	contentTerms := strings.Fields(strings.ToLower(content))
	set := make(map[string]bool, len(contentTerms))
	for _, t := range contentTerms {
		set[t] = true
	}
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return 0
	}
	var hits int
	for _, t := range queryTerms {
		if set[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTerms))
}

func splitTitleAndMetadata(props []relrag.Property) (string, map[string]string) {
	title := ""
	metadata := map[string]string{}
	for _, p := range props {
		if p.Key == "title" {
			title = p.Value
			continue
		}
		metadata[p.Key] = p.Value
	}
	return title, metadata
}

func passesPropertyFilters(props []relrag.Property, filters map[string]relrag.PropertyFilter) bool {
	if len(filters) == 0 {
		return true
	}
	byKey := map[string]string{}
	for _, p := range props {
		byKey[p.Key] = p.Value
	}
	for key, filter := range filters {
		if !filter.Active() {
			continue
		}
		value, present := byKey[key]
		switch filter.Kind {
		case relrag.FilterEq:
			if !present || value != filter.Eq {
				return false
			}
		case relrag.FilterOneOf:
			if !present || !containsString(filter.OneOf, value) {
				return false
			}
		case relrag.FilterRange:
			if !present {
				return false
			}
			if !inRange(value, filter.Gte, filter.Lte) {
				return false
			}
		}
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func inRange(value string, gte, lte *string) bool {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		// Fall back to lexicographic (date-string) comparison.
		if gte != nil && value < *gte {
			return false
		}
		if lte != nil && value > *lte {
			return false
		}
		return true
	}
	if gte != nil {
		g, err := strconv.ParseFloat(*gte, 64)
		if err == nil && v < g {
			return false
		}
	}
	if lte != nil {
		l, err := strconv.ParseFloat(*lte, 64)
		if err == nil && v > l {
			return false
		}
	}
	return true
}
