package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/relrag"
)

func TestDecodeCursor_EmptyIsNil(t *testing.T) {
	id, err := decodeCursor("")
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)
}

func TestDecodeCursor_InvalidIsError(t *testing.T) {
	_, err := decodeCursor("not-a-uuid")
	assert.Error(t, err)
}

func TestTrimPage_SetsNextCursorOnOverfetch(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	page := trimPage(ids, 2, func(id uuid.UUID) uuid.UUID { return id })
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[1].String(), page.NextCursor)
}

func TestTrimPage_NoNextCursorWhenExactlyAtLimit(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	page := trimPage(ids, 2, func(id uuid.UUID) uuid.UUID { return id })
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}

func TestBuildFilterClause_Eq(t *testing.T) {
	next := 6
	clause, args := buildFilterClause("status", relrag.NewEqFilter("open"), &next)
	assert.Contains(t, clause, "pr6.key = $6")
	assert.Contains(t, clause, "pr6.value = $7")
	assert.Equal(t, []any{"status", "open"}, args)
	assert.Equal(t, 8, next)
}

func TestBuildFilterClause_OneOf(t *testing.T) {
	next := 6
	clause, args := buildFilterClause("lang", relrag.NewOneOfFilter([]string{"en", "fr"}), &next)
	assert.Contains(t, clause, "ANY($7)")
	assert.Equal(t, []any{"lang", []string{"en", "fr"}}, args)
}

func TestBuildFilterClause_Range(t *testing.T) {
	gte := "2020-01-01"
	next := 6
	clause, args := buildFilterClause("created_date", relrag.NewRangeFilter(&gte, nil), &next)
	assert.Contains(t, clause, ">= $7")
	assert.Contains(t, clause, "<= $8")
	assert.Equal(t, []any{"created_date", &gte, (*string)(nil)}, args)
	assert.Equal(t, 9, next)
}
