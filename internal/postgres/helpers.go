package postgres

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

func itoa(n int) string { return strconv.Itoa(n) }

func joinAnd(clauses []string) string { return strings.Join(clauses, " AND ") }

// decodeCursor turns an opaque pagination cursor into the UUID keyset bound
// it encodes. An empty cursor starts from the beginning (uuid.Nil sorts
// before every real ID column value in the "id > $1" predicate).
func decodeCursor(cursor string) (uuid.UUID, error) {
	if cursor == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(cursor)
}

// trimPage caps items to limit and derives NextCursor from the last kept
// item's ID, matching the over-fetch-by-one keyset pagination idiom used
// across every List method in this package.
func trimPage[T any](items []T, limit int, idOf func(T) uuid.UUID) relrag.Page[T] {
	if len(items) > limit {
		items = items[:limit]
		return relrag.Page[T]{Items: items, NextCursor: idOf(items[len(items)-1]).String()}
	}
	return relrag.Page[T]{Items: items}
}

func pageOf(items []relrag.Document, limit int) relrag.Page[relrag.Document] {
	return trimPage(items, limit, func(d relrag.Document) uuid.UUID { return d.ID })
}
