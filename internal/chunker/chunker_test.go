package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/relrag"
)

func cfg(strategy relrag.ChunkingStrategy, size, overlap int) relrag.Configuration {
	return relrag.Configuration{
		ID:               uuid.New(),
		ChunkingStrategy: strategy,
		ChunkSize:        size,
		ChunkOverlap:     overlap,
	}
}

func TestChunk_EmptyInputYieldsEmptySequence(t *testing.T) {
	c := New()
	out, err := c.Chunk("   \n\t  ", cfg(relrag.ChunkingRecursive, 10, 2))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestChunk_UnsupportedStrategyFailsInvalidArgument(t *testing.T) {
	c := New()
	_, err := c.Chunk("hello", cfg(relrag.ChunkingStrategy("bogus"), 10, 2))
	require.Error(t, err)
	var invalid *relrag.InvalidArgumentError
	assert.ErrorAs(t, err, &invalid)
}

func TestChunk_RecursiveSlidingWindow(t *testing.T) {
	c := New()
	text := "This is a test document with enough text to be chunked."
	out, err := c.Chunk(text, cfg(relrag.ChunkingRecursive, 20, 5))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	for _, piece := range out {
		assert.NotEmpty(t, piece)
		assert.Equal(t, piece, strings.TrimSpace(piece))
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c := New()
	text := "Determinism matters: the same input must yield the same chunks, byte for byte, every single time we run it."
	config := cfg(relrag.ChunkingRecursive, 15, 4)
	first, err := c.Chunk(text, config)
	require.NoError(t, err)
	second, err := c.Chunk(text, config)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunk_FixedBehavesLikeRecursive(t *testing.T) {
	c := New()
	text := "Fixed and recursive strategies are the same sliding window under two names."
	recursive, err := c.Chunk(text, cfg(relrag.ChunkingRecursive, 12, 3))
	require.NoError(t, err)
	fixed, err := c.Chunk(text, cfg(relrag.ChunkingFixed, 12, 3))
	require.NoError(t, err)
	assert.Equal(t, recursive, fixed)
}

func TestChunk_SemanticPrefersSentenceBoundary(t *testing.T) {
	c := New()
	text := "Alpha beta gamma delta. Epsilon zeta eta theta iota kappa lambda mu nu xi omicron pi rho sigma tau."
	out, err := c.Chunk(text, cfg(relrag.ChunkingSemantic, 30, 5))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "Alpha beta gamma delta.", out[0])
}

func TestChunk_RuneSafety(t *testing.T) {
	c := New()
	text := "héllo wörld with ünïcödé çharacters ánd more"
	out, err := c.Chunk(text, cfg(relrag.ChunkingRecursive, 8, 2))
	require.NoError(t, err)
	for _, piece := range out {
		assert.True(t, len([]rune(piece)) > 0)
		assert.True(t, utf8.ValidString(piece))
	}
}

func TestChunk_OverlapGreaterThanOrEqualSizeStillProgresses(t *testing.T) {
	c := New()
	text := "abcdefghijklmnopqrstuvwxyz"
	out, err := c.Chunk(text, cfg(relrag.ChunkingRecursive, 5, 5))
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
