package call

import "strings"

const (
	// Replies longer than chunkThreshold characters are streamed in
	// pieces so speech synthesis can start early.
	chunkThreshold = 100
	// Target piece size. Pieces break on word boundaries, so actual
	// sizes vary around this.
	chunkTarget = 50
)

// chunkContent splits a long reply into word-boundary pieces. Short
// replies pass through whole. Splitting on spaces means a multi-byte
// rune is never cut in half.
func chunkContent(content string) []string {
	if len(content) <= chunkThreshold {
		return []string{content}
	}
	words := strings.Fields(content)
	if len(words) == 0 {
		return []string{content}
	}

	var chunks []string
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > chunkTarget {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
