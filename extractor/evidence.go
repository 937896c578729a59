package extractor

import (
	"strconv"
	"strings"
)

// anchorValue locates value inside text and returns a short excerpt
// centered on the match, for fields an Extractor recovered without already
// knowing their source span (notably the LLM extractor, which gets
// structured JSON back with no offsets attached). It recurses into lists
// and maps, naming nested fields "field[i]" and "field.key" respectively.
//
// The search key is the first 50 characters of the stringified value,
// lowercased, matched against a lowercased copy of text. Only string values
// are searched; a miss, an empty string or a non-string scalar yields no
// Evidence at all rather than a fabricated anchor.
func anchorValue(text, fieldPath string, value any, chunkIndex int) []Evidence {
	switch v := value.(type) {
	case []any:
		var out []Evidence
		for i, item := range v {
			out = append(out, anchorValue(text, indexPath(fieldPath, i), item, chunkIndex)...)
		}
		return out
	case map[string]any:
		var out []Evidence
		for key, item := range v {
			out = append(out, anchorValue(text, fieldPath+"."+key, item, chunkIndex)...)
		}
		return out
	default:
		ev, ok := anchorScalar(text, fieldPath, stringify(v), chunkIndex)
		if !ok {
			return nil
		}
		return []Evidence{ev}
	}
}

func indexPath(fieldPath string, i int) string {
	return fieldPath + "[" + strconv.Itoa(i) + "]"
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return ""
	}
}

const anchorExcerptRadius = 50
const anchorKeyLen = 50

func anchorScalar(text, fieldPath, value string, chunkIndex int) (Evidence, bool) {
	if len(value) <= 3 {
		return Evidence{}, false
	}

	key := value
	if len(key) > anchorKeyLen {
		key = key[:anchorKeyLen]
	}

	lowerText := strings.ToLower(text)
	idx := strings.Index(lowerText, strings.ToLower(key))
	if idx < 0 {
		return Evidence{}, false
	}

	start := idx - anchorExcerptRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(value) + anchorExcerptRadius
	if end > len(text) {
		end = len(text)
	}

	return Evidence{
		FieldPath:   fieldPath,
		Excerpt:     text[start:end],
		ChunkIndex:  chunkIndex,
		StartOffset: start,
		EndOffset:   end,
	}, true
}
