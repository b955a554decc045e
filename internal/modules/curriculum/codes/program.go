// Package codes generates, parses and validates the hierarchical identifiers
// stamped onto programs, courses, topics and lessons.
package codes

import (
	"regexp"
	"strconv"
	"strings"

	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

const (
	ProgramCodeLength = 6
	DefaultGenreDigit = "2"
	fallbackNiche     = "GEN"
)

var genreDigits = map[string]string{
	"technology-software": "1",
	"business-management": "2",
	"healthcare-medical":  "3",
	"education-training":  "4",
	"creative-arts":       "5",
	"science-research":    "6",
}

var nicheStopWords = map[string]bool{
	"and": true, "or": true, "the": true, "of": true, "for": true, "in": true, "on": true,
	"at": true, "to": true, "a": true, "an": true, "with": true, "by": true,
}

var (
	nonLetters       = regexp.MustCompile(`[^A-Za-z\s]+`)
	programCodeShape = regexp.MustCompile(`^[1-6][A-Z]{3}[0-9]{2}$`)
)

// GenreDigit maps a course domain to its program genre digit.
func GenreDigit(domain string) string {
	if d, ok := genreDigits[strings.ToLower(strings.TrimSpace(domain))]; ok {
		return d
	}
	return DefaultGenreDigit
}

// DomainForGenre is the inverse of GenreDigit for the six known domains.
func DomainForGenre(digit string) (string, bool) {
	for domain, d := range genreDigits {
		if d == digit {
			return domain, true
		}
	}
	return "", false
}

// NicheCode reduces free niche text to three uppercase letters.
// A single word, or two words, use the leading letters of the first word;
// three or more words use the initials of the first three.
func NicheCode(niche string) string {
	cleaned := nonLetters.ReplaceAllString(niche, " ")
	words := make([]string, 0, 4)
	for _, w := range strings.Fields(cleaned) {
		if nicheStopWords[strings.ToLower(w)] {
			continue
		}
		words = append(words, strings.ToUpper(w))
	}

	var code string
	switch len(words) {
	case 0:
		return fallbackNiche
	case 1, 2:
		code = words[0]
		if len(code) > 3 {
			code = code[:3]
		}
	default:
		code = words[0][:1] + words[1][:1] + words[2][:1]
	}
	for len(code) < 3 {
		code += "X"
	}
	return code
}

// TimestampSuffix returns the two decimal digits that precede the last two
// digits of epochMillis, left padded with zeros.
func TimestampSuffix(epochMillis int64) string {
	if epochMillis < 0 {
		epochMillis = -epochMillis
	}
	s := strconv.FormatInt(epochMillis, 10)
	start := len(s) - 4
	end := len(s) - 2
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	out := ""
	if start < end {
		out = s[start:end]
	}
	for len(out) < 2 {
		out = "0" + out
	}
	return out
}

// ProgramCode builds the six character program identifier.
func ProgramCode(domain, niche string, epochMillis int64) string {
	return GenreDigit(domain) + NicheCode(niche) + TimestampSuffix(epochMillis)
}

type ProgramCodeParts struct {
	Genre     string `json:"genre"`
	Niche     string `json:"niche"`
	Timestamp string `json:"timestamp"`
}

// ValidateProgramCode checks the fixed shape of a program code and splits it.
func ValidateProgramCode(code string) (ProgramCodeParts, error) {
	const op = "codes.ValidateProgramCode"
	switch {
	case len(code) != ProgramCodeLength:
		return ProgramCodeParts{}, apperr.Invalid(op, "code", "must be exactly 6 characters")
	case code[0] < '1' || code[0] > '6':
		return ProgramCodeParts{}, apperr.Invalid(op, "code", "genre digit must be 1-6")
	case !isUpperLetters(code[1:4]):
		return ProgramCodeParts{}, apperr.Invalid(op, "code", "niche must be 3 uppercase letters")
	case !isDigits(code[4:6]):
		return ProgramCodeParts{}, apperr.Invalid(op, "code", "timestamp suffix must be 2 digits")
	}
	return ProgramCodeParts{Genre: code[:1], Niche: code[1:4], Timestamp: code[4:6]}, nil
}

// IsProgramCode is ValidateProgramCode without the reason.
func IsProgramCode(code string) bool { return programCodeShape.MatchString(code) }

func isUpperLetters(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return s != ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
