package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// entryForm holds the text fields of an entry request, whether it arrived as
// multipart, urlencoded or JSON.
type entryForm map[string][]string

func readEntryForm(c *gin.Context) (entryForm, error) {
	if c.ContentType() == gin.MIMEJSON {
		var raw map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil {
			return nil, &RequestError{Status: http.StatusBadRequest, Msg: "malformed JSON body"}
		}
		out := entryForm{}
		for k, v := range raw {
			switch t := v.(type) {
			case nil:
				out[k] = []string{""}
			case string:
				out[k] = []string{t}
			default:
				b, _ := json.Marshal(t)
				out[k] = []string{string(b)}
			}
		}
		return out, nil
	}
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil && err != http.ErrNotMultipart {
		return nil, &RequestError{Status: http.StatusBadRequest, Msg: "malformed form body"}
	}
	return entryForm(c.Request.PostForm), nil
}

func (f entryForm) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f entryForm) get(key string) string {
	if v := f[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (f entryForm) ptr(key string) *string {
	if !f.has(key) {
		return nil
	}
	v := f.get(key)
	return &v
}

// list reads a repeated field, a JSON array, or a delimited string.
func (f entryForm) list(key string, seps string) []string {
	vals := f[key]
	if len(vals) > 1 {
		return trimAll(vals)
	}
	return parseStringList(f.get(key), seps)
}

func parseStringList(raw, seps string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var arr []any
	if strings.HasPrefix(raw, "[") && json.Unmarshal([]byte(raw), &arr) == nil {
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			out = append(out, fmt.Sprint(item))
		}
		return trimAll(out)
	}
	return trimAll(strings.FieldsFunc(raw, func(r rune) bool { return strings.ContainsRune(seps, r) }))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// customAttributes accepts a JSON object or "name: value" lines.
func (f entryForm) customAttributes() map[string]any {
	raw := strings.TrimSpace(f.get("customCategories"))
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err == nil {
		return obj
	}
	out := map[string]any{}
	for _, line := range strings.Split(raw, "\n") {
		name, value, ok := strings.Cut(line, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if ok && name != "" && value != "" {
			out[name] = value
		}
	}
	return out
}

// keepImages reads a JSON array, repeated values or a single reference. It is
// nil when the caller did not say which images to keep.
func (f entryForm) keepImages() []string {
	if len(f["keepImages"]) > 1 {
		return trimAll(f["keepImages"])
	}
	raw := strings.TrimSpace(f.get("keepImages"))
	switch {
	case raw == "":
		return nil
	case strings.HasPrefix(raw, "["):
		var arr []string
		if err := json.Unmarshal([]byte(raw), &arr); err != nil {
			return nil
		}
		return arr
	}
	return []string{raw}
}
