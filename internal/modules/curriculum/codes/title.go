package codes

import (
	"regexp"
	"strings"
)

// Checked in order; the first match wins.
var titlePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Za-z0-9]{6}__\d{2,3})\s+(.*)$`),
	regexp.MustCompile(`^([A-Za-z0-9]{7})\s+(.*)$`),
	regexp.MustCompile(`^(\d{2,3})\s+(.*)$`),
}

type ParsedTitle struct {
	Code  string
	Clean string
}

// ParseTitle splits a numbered title into its code prefix and clean remainder.
// Unnumbered titles come back unchanged with an empty code.
func ParseTitle(title string) ParsedTitle {
	for _, re := range titlePrefixes {
		if m := re.FindStringSubmatch(title); m != nil {
			return ParsedTitle{Code: m[1], Clean: m[2]}
		}
	}
	return ParsedTitle{Clean: title}
}

// CleanTitle strips any code prefix.
func CleanTitle(title string) string { return ParseTitle(title).Clean }

// CourseTitle renders "<courseCode> <clean>".
func CourseTitle(courseCode, clean string) string {
	return courseCode + " " + strings.TrimSpace(clean)
}

// NodeTitle renders "<programCode>__<code> <clean>" for topics and lessons.
func NodeTitle(programCode, code, clean string) string {
	return programCode + "__" + code + " " + strings.TrimSpace(clean)
}
