// Package chunker implements the Chunker port: deterministic, reproducible
// splitting of a document's text into overlapping windows.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/guility/relrag/internal/relrag"
)

// SlidingWindowChunker implements relrag.Chunker for the recursive, fixed,
// and semantic strategies declared in Configuration.ChunkingStrategy.
//
// recursive and fixed both walk a fixed-size sliding window with stride
// step = max(1, chunk_size - chunk_overlap); the distinction between them in
// the system this was ported from is purely naming, not algorithm. semantic
// additionally prefers to end each window at a nearby paragraph or sentence
// boundary instead of cutting at the raw rune offset.
type SlidingWindowChunker struct{}

// New returns a ready-to-use SlidingWindowChunker.
func New() *SlidingWindowChunker {
	return &SlidingWindowChunker{}
}

const semanticLookback = 80

func (c *SlidingWindowChunker) Chunk(text string, cfg relrag.Configuration) ([]string, error) {
	switch cfg.ChunkingStrategy {
	case relrag.ChunkingRecursive, relrag.ChunkingFixed:
		return slidingWindow(text, cfg.ChunkSize, cfg.ChunkOverlap, false), nil
	case relrag.ChunkingSemantic:
		return slidingWindow(text, cfg.ChunkSize, cfg.ChunkOverlap, true), nil
	default:
		return nil, &relrag.InvalidArgumentError{Message: "unsupported chunking strategy: " + string(cfg.ChunkingStrategy)}
	}
}

// slidingWindow is the rune-safe Go port of the reference
// RecursiveChunker.chunk: strip the input, bail out on empty, then slide a
// window of chunkSize runes with stride max(1, chunkSize-chunkOverlap),
// stripping and discarding empty substrings as they're produced.
func slidingWindow(text string, chunkSize, chunkOverlap int, boundarySeek bool) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	step := chunkSize - chunkOverlap
	if step < 1 {
		step = 1
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	idxs := runeBoundaries(text)
	total := len(idxs) - 1 // number of runes

	var chunks []string
	for start := 0; start < total; start += step {
		end := start + chunkSize
		if end > total {
			end = total
		}
		if boundarySeek {
			end = seekBoundary(text, idxs, start, end, total)
		}
		if end <= start {
			continue
		}
		piece := strings.TrimSpace(text[idxs[start]:idxs[end]])
		if piece != "" {
			chunks = append(chunks, piece)
		}
	}
	return chunks
}

// runeBoundaries returns idxs where idxs[j] is the byte offset of rune j;
// idxs[len(idxs)-1] == len(text). Avoids slicing a multi-byte rune in half.
func runeBoundaries(text string) []int {
	idxs := make([]int, 0, utf8.RuneCountInString(text)+1)
	idxs = append(idxs, 0)
	for i := 0; i < len(text); {
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
		idxs = append(idxs, i)
	}
	return idxs
}

// seekBoundary nudges end backward, within semanticLookback runes of the
// raw cut point, to the nearest paragraph break ("\n\n") or sentence break
// (". "). Falls back to the raw cut when no boundary is found in range.
func seekBoundary(text string, idxs []int, start, end, total int) int {
	if end >= total {
		return end
	}
	lookbackStart := end - semanticLookback
	if lookbackStart < start {
		lookbackStart = start
	}
	window := text[idxs[lookbackStart]:idxs[end]]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return lookbackStart + utf8.RuneCountInString(window[:i+2])
	}
	if i := strings.LastIndex(window, ". "); i >= 0 {
		return lookbackStart + utf8.RuneCountInString(window[:i+2])
	}
	return end
}
