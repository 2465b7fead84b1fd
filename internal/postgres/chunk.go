package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/guility/relrag/internal/relrag"
)

type chunkRepository struct {
	tx pgx.Tx
}

func (r *chunkRepository) CreateBatch(ctx context.Context, chunks []relrag.Chunk) ([]relrag.Chunk, error) {
	for _, c := range chunks {
		_, err := r.tx.Exec(ctx, `INSERT INTO chunk (id, pack_id, content, embedding, position)
VALUES ($1, $2, $3, $4, $5)`, c.ID, c.PackID, c.Content, pgvector.NewVector(c.Embedding), c.Position)
		if err != nil {
			return nil, err
		}
	}
	return chunks, nil
}

func (r *chunkRepository) DeleteByPackID(ctx context.Context, packID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM chunk WHERE pack_id = $1`, packID)
	return err
}

func (r *chunkRepository) GetByPackID(ctx context.Context, packID uuid.UUID) ([]relrag.Chunk, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, pack_id, content, embedding, position FROM chunk
WHERE pack_id = $1 ORDER BY position`, packID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relrag.Chunk
	for rows.Next() {
		var c relrag.Chunk
		var vec pgvector.Vector
		if err := rows.Scan(&c.ID, &c.PackID, &c.Content, &vec, &c.Position); err != nil {
			return nil, err
		}
		c.Embedding = vec.Slice()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Search implements §4.H: one ranked SQL statement fusing pgvector cosine
// similarity (grounded on postgres_vector.go's "1 - (vec <=> $1::vector)"
// expression) and full-text rank (grounded on postgres_search.go's
// to_tsvector/plainto_tsquery/ts_rank idiom), under property filters built
// as one EXISTS clause per filter (grounded on
// original_source/.../chunk_repository.py's _build_property_filter_conditions).
func (r *chunkRepository) Search(ctx context.Context, params relrag.SearchParams) ([]relrag.SearchResult, error) {
	hasVector := len(params.QueryEmbedding) > 0
	vectorScoreExpr := "0"
	args := []any{}
	if hasVector {
		vectorScoreExpr = "(1 - (c.embedding <=> $1))"
		args = append(args, pgvector.NewVector(params.QueryEmbedding))
	}

	args = append(args, params.QueryFTS, params.VectorWeight, params.FTSWeight, params.CollectionID)
	ftsArg, vwArg, fwArg, collArg := len(args)-3, len(args)-2, len(args)-1, len(args)
	ftsScoreExpr := fmt.Sprintf(`(CASE WHEN $%d = '' THEN 0 ELSE ts_rank(to_tsvector('simple', c.content), plainto_tsquery('simple', $%d)) END)`, ftsArg, ftsArg)

	var whereExtra strings.Builder
	next := len(args) + 1
	for key, filter := range params.PropertyFilters {
		if !filter.Active() {
			continue
		}
		clause, filterArgs := buildFilterClause(key, filter, &next)
		whereExtra.WriteString(" AND ")
		whereExtra.WriteString(clause)
		args = append(args, filterArgs...)
	}

	limitArg := len(args) + 1
	args = append(args, params.Limit)

	query := fmt.Sprintf(`
SELECT c.id, c.pack_id, p.document_id, c.content,
       %s AS vector_score,
       %s AS fts_score
FROM chunk c
JOIN pack p ON p.id = c.pack_id AND p.deleted_at IS NULL
JOIN pack_collection pc ON pc.pack_id = p.id
WHERE pc.collection_id = $%d%s
ORDER BY (%s)*$%d + (%s)*$%d DESC
LIMIT $%d`,
		vectorScoreExpr, ftsScoreExpr, collArg, whereExtra.String(), vectorScoreExpr, vwArg, ftsScoreExpr, fwArg, limitArg)

	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []relrag.SearchResult
	docIDs := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var res relrag.SearchResult
		if err := rows.Scan(&res.ChunkID, &res.PackID, &res.DocumentID, &res.Content, &res.VectorScore, &res.FTSScore); err != nil {
			return nil, err
		}
		res.Score = res.VectorScore*params.VectorWeight + res.FTSScore*params.FTSWeight
		results = append(results, res)
		docIDs[res.DocumentID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	titles, metadata, err := r.loadDocumentProperties(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].DocumentTitle = titles[results[i].DocumentID]
		results[i].Metadata = metadata[results[i].DocumentID]
	}
	return results, nil
}

func buildFilterClause(key string, filter relrag.PropertyFilter, next *int) (string, []any) {
	alias := fmt.Sprintf("pr%d", *next)
	keyArg := *next
	*next++

	switch filter.Kind {
	case relrag.FilterEq:
		valueArg := *next
		*next++
		clause := fmt.Sprintf("EXISTS (SELECT 1 FROM property %s WHERE %s.document_id = p.document_id AND %s.key = $%d AND %s.value = $%d)",
			alias, alias, alias, keyArg, alias, valueArg)
		return clause, []any{key, filter.Eq}
	case relrag.FilterOneOf:
		valueArg := *next
		*next++
		clause := fmt.Sprintf("EXISTS (SELECT 1 FROM property %s WHERE %s.document_id = p.document_id AND %s.key = $%d AND %s.value = ANY($%d))",
			alias, alias, alias, keyArg, alias, valueArg)
		return clause, []any{key, filter.OneOf}
	case relrag.FilterRange:
		// Mirrors chunk_repository.py's _build_property_filter_conditions:
		// attempt a numeric cast of whichever endpoints are present, and
		// fall back to a date cast if either fails to parse as a number.
		cast := "::numeric"
		if !parsesAsNumber(filter.Gte) || !parsesAsNumber(filter.Lte) {
			cast = "::date"
		}
		gteArg := *next
		*next++
		lteArg := *next
		*next++
		clause := fmt.Sprintf(`EXISTS (SELECT 1 FROM property %s WHERE %s.document_id = p.document_id AND %s.key = $%d
  AND ($%d::text IS NULL OR %s.value%s >= $%d%s)
  AND ($%d::text IS NULL OR %s.value%s <= $%d%s))`,
			alias, alias, alias, keyArg,
			gteArg, alias, cast, gteArg, cast,
			lteArg, alias, cast, lteArg, cast)
		return clause, []any{key, filter.Gte, filter.Lte}
	default:
		return "TRUE", nil
	}
}

// parsesAsNumber reports whether s, if present, parses as a float64. A nil
// endpoint doesn't constrain the cast choice, matching the Python original's
// try/except over only the endpoints actually supplied.
func parsesAsNumber(s *string) bool {
	if s == nil {
		return true
	}
	_, err := strconv.ParseFloat(*s, 64)
	return err == nil
}

func (r *chunkRepository) loadDocumentProperties(ctx context.Context, docIDs map[uuid.UUID]struct{}) (map[uuid.UUID]string, map[uuid.UUID]map[string]string, error) {
	titles := make(map[uuid.UUID]string, len(docIDs))
	metadata := make(map[uuid.UUID]map[string]string, len(docIDs))
	if len(docIDs) == 0 {
		return titles, metadata, nil
	}
	ids := make([]uuid.UUID, 0, len(docIDs))
	for id := range docIDs {
		ids = append(ids, id)
		metadata[id] = map[string]string{}
	}

	rows, err := r.tx.Query(ctx, `SELECT document_id, key, value FROM property WHERE document_id = ANY($1)`, ids)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var docID uuid.UUID
		var key, value string
		if err := rows.Scan(&docID, &key, &value); err != nil {
			return nil, nil, err
		}
		if key == "title" {
			titles[docID] = value
			continue
		}
		metadata[docID][key] = value
	}
	return titles, metadata, rows.Err()
}
