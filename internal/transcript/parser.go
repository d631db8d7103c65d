package transcript

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

const musicMarker = "[Music]"

// ParseTranscript joins the segments of an srv1 caption document with single spaces.
// Blank segments and music markers are dropped.
func ParseTranscript(data []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		segments []string
		current  strings.Builder
		depth    int
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEmptyTranscript, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "text" {
				if depth == 0 {
					current.Reset()
				}
				depth++
			}
		case xml.CharData:
			if depth > 0 {
				current.Write(el)
			}
		case xml.EndElement:
			if el.Name.Local == "text" && depth > 0 {
				depth--
				if depth == 0 {
					if segment := cleanSegment(current.String()); segment != "" {
						segments = append(segments, segment)
					}
				}
			}
		}
	}

	if len(segments) == 0 {
		return "", ErrEmptyTranscript
	}
	return strings.Join(segments, " "), nil
}

func cleanSegment(s string) string {
	s = strings.TrimSpace(html.UnescapeString(s))
	if s == musicMarker {
		return ""
	}
	return s
}

// Chunk splits text into groups of at most size words.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkWords
	}

	words := strings.Fields(text)
	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}
