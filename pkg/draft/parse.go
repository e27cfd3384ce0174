package draft

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// parseDraft extracts a Draft from model output. It accepts a bare JSON
// object or a fenced JSON block. When no structured payload is found it
// degrades to treating the first line as the subject and the rest as body.
func parseDraft(text string) (*Draft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, eris.New("draft: empty generator output")
	}

	if raw, ok := extractJSONObject(text); ok {
		var d Draft
		if err := json.Unmarshal([]byte(raw), &d); err == nil && d.Body != "" {
			d.Subject = strings.TrimSpace(d.Subject)
			d.Body = strings.TrimSpace(d.Body)
			return &d, nil
		}
	}

	// Unstructured fallback.
	lines := strings.SplitN(text, "\n", 2)
	subject := strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject:"))
	body := ""
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	if body == "" {
		return nil, eris.New("draft: generator output has no body")
	}
	return &Draft{Subject: subject, Body: body}, nil
}

// extractJSONObject finds the outermost {...} in the text, stripping an
// optional markdown fence.
func extractJSONObject(text string) (string, bool) {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
