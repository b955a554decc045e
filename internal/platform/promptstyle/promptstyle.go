package promptstyle

import "strings"

const marker = "CURRICULUM_PROMPT_STYLE_V1"

// ApplySystem prepends a short guidance block to system prompts. mode is
// "json", "html" or "text". Already styled prompts are returned unchanged.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" || strings.Contains(base, marker) {
		return base
	}

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nYou are a senior instructional designer writing professional training material.")
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nUse provided context as grounding; do not invent statistics, quotes or citations.")
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "json":
		b.WriteString("\nReturn only the requested JSON value with no commentary or code fences.")
	case "html":
		b.WriteString("\nReturn only semantic HTML body content with no markdown, code fences or <html>/<body> wrappers.")
	default:
		b.WriteString("\nBe concise and structured when helpful.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return b.String()
}
