package lessongen

import (
	"encoding/json"
	"fmt"
	"strings"

	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
	"github.com/yungbote/curriculum-backend/internal/platform/openai"
)

// ExtractMessageText returns the text of the first "message" output item.
func ExtractMessageText(op string, resp *openai.Response) (string, error) {
	if resp == nil {
		return "", apperr.Malformed(op, "empty response")
	}
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		var b strings.Builder
		for _, part := range item.Content {
			if part.Type == "output_text" || part.Type == "text" {
				b.WriteString(part.Text)
			}
		}
		text := strings.TrimSpace(b.String())
		if text == "" {
			return "", apperr.Malformed(op, "message item has no text")
		}
		return text, nil
	}
	return "", apperr.Malformed(op, "no message item in output")
}

// StripCodeFence removes a ``` or ```lang fence wrapping the whole text.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	nl := strings.IndexByte(s, '\n')
	if nl < 0 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[nl+1:]
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseSubsectionTitles decodes the first JSON string array embedded in text.
// It requires exactly 4 non-empty titles.
func ParseSubsectionTitles(text string) ([]string, error) {
	const op = "lessongen.ParseSubsectionTitles"
	s := StripCodeFence(text)
	for i := strings.IndexByte(s, '['); i >= 0; {
		var titles []string
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		if err := dec.Decode(&titles); err == nil {
			out := make([]string, 0, len(titles))
			for _, t := range titles {
				if t = strings.TrimSpace(t); t != "" {
					out = append(out, t)
				}
			}
			if len(out) != SubsectionCount || len(titles) != SubsectionCount {
				return nil, apperr.Malformed(op, fmt.Sprintf("expected %d titles, got %d", SubsectionCount, len(out)))
			}
			return out, nil
		}
		next := strings.IndexByte(s[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, apperr.Malformed(op, "no JSON string array found")
}
