package call

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestShortContentPassesThrough(t *testing.T) {
	in := "See you Tuesday at nine."
	chunks := chunkContent(in)
	if len(chunks) != 1 || chunks[0] != in {
		t.Fatalf("short content must not be split: %v", chunks)
	}
}

func TestLongContentSplitsOnWordBoundaries(t *testing.T) {
	in := strings.Repeat("every word here is whole ", 10)
	chunks := chunkContent(in)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks")
	}
	for _, chunk := range chunks {
		for _, word := range strings.Fields(chunk) {
			switch word {
			case "every", "word", "here", "is", "whole":
			default:
				t.Fatalf("word split mid-boundary: %q in %q", word, chunk)
			}
		}
	}
	if strings.Join(strings.Fields(strings.Join(chunks, " ")), " ") != strings.TrimSpace(strings.Join(strings.Fields(in), " ")) {
		t.Fatalf("chunks lost content")
	}
}

func TestMultiByteRunesSurviveChunking(t *testing.T) {
	in := strings.Repeat("café naïve jalapeño résumé über ", 6)
	for _, chunk := range chunkContent(in) {
		if !utf8.ValidString(chunk) {
			t.Fatalf("invalid utf-8 in chunk %q", chunk)
		}
	}
}

func TestExactThresholdNotSplit(t *testing.T) {
	in := strings.Repeat("a", 100)
	chunks := chunkContent(in)
	if len(chunks) != 1 {
		t.Fatalf("content at the threshold must pass whole, got %d chunks", len(chunks))
	}
}

func TestSingleOversizeWordKeptIntact(t *testing.T) {
	in := strings.Repeat("supercalifragilistic", 8)
	chunks := chunkContent(in)
	if len(chunks) != 1 || chunks[0] != in {
		t.Fatalf("an unbreakable word is sent whole: %v", chunks)
	}
}
