package pipeline

// TextChunk is one piece of a section split for model input. Offset is the
// byte position of the chunk within the whole section, used to remap span
// offsets back to section coordinates.
type TextChunk struct {
	Text   string
	Offset int
}

// SplitWithOverlap splits text into chunks of at most size bytes with the
// given overlap between consecutive chunks, so spans crossing a chunk
// boundary are fully contained in at least one chunk. Text at most size
// bytes long is returned as a single chunk.
func SplitWithOverlap(text string, size int, overlap int) []TextChunk {
	if text == "" {
		return nil
	}
	if size <= 0 || len(text) <= size {
		return []TextChunk{{Text: text, Offset: 0}}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	step := size - overlap

	var chunks []TextChunk
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, TextChunk{Text: text[start:], Offset: start})
			break
		}
		chunks = append(chunks, TextChunk{Text: text[start:end], Offset: start})
	}

	return chunks
}
