package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	fieldName   = "name"
	fieldImages = "image_files"
)

var jsonNull = []byte("null")

// Parse reads a JSON array of {"name": string, "image_files": [string]}.
// An empty payload is an empty catalog; anything malformed is a *ParseError
// and no partial catalog is returned.
func Parse(payload string) (*Catalog, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return Empty(), nil
	}

	fail := func(index int, format string, args ...interface{}) (*Catalog, error) {
		return nil, &ParseError{Payload: payload, Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	if !utf8.ValidString(trimmed) {
		return fail(-1, "payload is not valid UTF-8")
	}
	if trimmed[0] != '[' {
		return fail(-1, "top-level value is not an array")
	}

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elements); err != nil {
		return fail(-1, "%v", err)
	}

	c := Empty()
	for i, raw := range elements {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			return fail(i, "element is not an object")
		}

		rawName, ok := fields[fieldName]
		if !ok {
			return fail(i, "missing %s", fieldName)
		}
		var name string
		if isNull(rawName) || json.Unmarshal(rawName, &name) != nil {
			return fail(i, "%s is not a string", fieldName)
		}

		rawImages, ok := fields[fieldImages]
		if !ok {
			return fail(i, "missing %s", fieldImages)
		}
		images, ok := decodeStrings(rawImages)
		if !ok {
			return fail(i, "%s is not an array of strings", fieldImages)
		}

		if err := c.add(Category{Name: name, Images: images}); err != nil {
			return fail(i, "%v", err)
		}
	}

	return c, nil
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if isNull(raw) || json.Unmarshal(raw, &items) != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if isNull(item) || json.Unmarshal(item, &s) != nil {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// Encode serializes the catalog back into the payload format accepted by Parse.
func Encode(c *Catalog) (string, error) {
	docs := c.Categories()
	for i := range docs {
		if docs[i].Images == nil {
			docs[i].Images = []string{}
		}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
