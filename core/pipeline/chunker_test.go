package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWithOverlap(t *testing.T) {
	t.Run("Short text is a single chunk", func(t *testing.T) {
		chunks := SplitWithOverlap("short section text", 2000, 200)

		require.Len(t, chunks, 1)
		assert.Equal(t, "short section text", chunks[0].Text)
		assert.Equal(t, 0, chunks[0].Offset)
	})

	t.Run("Empty text yields no chunks", func(t *testing.T) {
		chunks := SplitWithOverlap("", 2000, 200)
		assert.Empty(t, chunks)
	})

	t.Run("Long text splits with overlap", func(t *testing.T) {
		text := strings.Repeat("a", 250)
		chunks := SplitWithOverlap(text, 100, 20)

		require.Greater(t, len(chunks), 1)
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk.Text), 100)
			if i > 0 {
				// Consecutive chunks share the overlap region
				assert.Equal(t, chunks[i-1].Offset+80, chunk.Offset)
			}
		}

		last := chunks[len(chunks)-1]
		assert.Equal(t, len(text), last.Offset+len(last.Text), "Expected the last chunk to reach the end of the text")
	})

	t.Run("Offsets remap chunk text into section coordinates", func(t *testing.T) {
		text := strings.Repeat("x", 90) + "TARGET" + strings.Repeat("y", 90)
		chunks := SplitWithOverlap(text, 100, 30)

		found := false
		for _, chunk := range chunks {
			idx := strings.Index(chunk.Text, "TARGET")
			if idx < 0 {
				continue
			}
			found = true
			assert.Equal(t, 90, chunk.Offset+idx, "Expected offset remap to recover the section position")
		}
		assert.True(t, found, "Expected the target span to be fully contained in at least one chunk")
	})

	t.Run("Overlap larger than size is clamped", func(t *testing.T) {
		text := strings.Repeat("a", 300)
		chunks := SplitWithOverlap(text, 100, 150)

		require.Greater(t, len(chunks), 1)
		assert.Less(t, len(chunks), 20, "Expected clamped overlap to still make progress")
	})
}
