package jira

import (
	"encoding/json"
	"strings"
)

// PlainTextToADF converts plain text to an ADF (Atlassian Document Format)
// document. The v3 API takes descriptions as ADF, not plain text; import
// documents carry plain text, so each description is wrapped into a minimal
// doc of paragraphs, one per input line. Returns nil for empty text so the
// field can be omitted entirely.
func PlainTextToADF(text string) json.RawMessage {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	content := make([]interface{}, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			content = append(content, map[string]interface{}{
				"type":    "paragraph",
				"content": []interface{}{},
			})
			continue
		}
		content = append(content, map[string]interface{}{
			"type": "paragraph",
			"content": []interface{}{
				map[string]interface{}{"type": "text", "text": line},
			},
		})
	}

	doc := map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}

	data, _ := json.Marshal(doc)
	return data
}
