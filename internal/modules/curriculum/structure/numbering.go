package structure

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/codes"
	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

// MaxLessonParents is the most courses, and topics per course, that can hold
// lessons: lesson codes embed a two digit topic code.
const MaxLessonParents = 9

// Titles stamped by ApplyNumbering with sequences past the parseable widths.
var stampedPrefix = regexp.MustCompile(`^([1-6][A-Z]{3}\d{2}(?:__)?\d+)\s+(.*)$`)

// ApplyNumbering returns a copy of p with codes stamped on every node. A valid
// existing program code is kept; otherwise one is generated from now. The
// input is never modified.
func ApplyNumbering(p Program, now func() time.Time) (Program, error) {
	out := p.Clone()
	if _, err := codes.ValidateProgramCode(out.Code); err != nil {
		if now == nil {
			now = time.Now
		}
		out.Code = codes.ProgramCode(out.domain(), out.niche(), now().UnixMilli())
	}
	pc := out.Code

	for ci := range out.Courses {
		c := &out.Courses[ci]
		code, err := codes.CourseCode(pc, ci+1)
		if err != nil {
			return Program{}, err
		}
		c.Code = code
		c.Title = codes.CourseTitle(code, StripCode(c.Title))

		for ti := range c.Topics {
			t := &c.Topics[ti]
			tcode, err := codes.TopicCode(ci+1, ti+1)
			if err != nil {
				return Program{}, err
			}
			t.Code = tcode
			t.Title = codes.NodeTitle(pc, tcode, StripCode(t.Title))

			for li := range t.Lessons {
				l := &t.Lessons[li]
				lcode, err := codes.LessonCode(tcode, li+1)
				if err != nil {
					return Program{}, apperr.Invalid("structure.ApplyNumbering", "program.courses", fmt.Sprintf(
						"course %d topic %d cannot hold lessons: lesson codes support at most %d courses and %d topics per course",
						ci+1, ti+1, MaxLessonParents, MaxLessonParents))
				}
				l.Code = lcode
				l.Title = codes.NodeTitle(pc, lcode, StripCode(l.Title))
			}
		}
	}
	return out, nil
}

// StripCode removes a code prefix so titles can be re-stamped. A seven
// character first word is only treated as a course code when it starts with a
// valid program code.
func StripCode(title string) string {
	t := strings.TrimSpace(title)
	if m := stampedPrefix.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[2])
	}
	parsed := codes.ParseTitle(t)
	if parsed.Code == "" {
		return t
	}
	if len(parsed.Code) == codes.ProgramCodeLength+1 && !codes.IsProgramCode(parsed.Code[:codes.ProgramCodeLength]) {
		return t
	}
	return strings.TrimSpace(parsed.Clean)
}

func (p Program) domain() string {
	if d := strings.TrimSpace(p.Domain); d != "" {
		return d
	}
	return p.DesignParameters.CourseDomain
}

func (p Program) niche() string {
	if n := strings.TrimSpace(p.Niche); n != "" {
		return n
	}
	return p.Title
}
