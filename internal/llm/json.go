package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// extractJSON trims whitespace and a surrounding markdown code fence, if the
// model added one despite being told not to.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the language tag line, e.g. ```json
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeDocument parses text into a generic JSON tree. Numbers decode as
// float64 so the schema validator sees a uniform representation.
func decodeDocument(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return doc, nil
}
