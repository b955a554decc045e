package structure

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	apperr "github.com/yungbote/curriculum-backend/internal/pkg/errors"
)

func fixedClock() time.Time { return time.UnixMilli(1700000004567) }

func sampleProgram() Program {
	return Program{
		Title:  "Digital Marketing Mastery",
		Niche:  "Digital Marketing",
		Domain: "business-management",
		Courses: []Course{
			{Title: "Brand Basics", Topics: []Topic{
				{Title: "Positioning", Lessons: []Lesson{{Title: "Intro to Positioning"}, {Title: "Welcome Packets"}}},
				{Title: "Messaging"},
			}},
			{Title: "Welcome Course"},
		},
	}
}

func TestApplyNumberingStampsCodes(t *testing.T) {
	got, err := ApplyNumbering(sampleProgram(), fixedClock)
	if err != nil {
		t.Fatalf("ApplyNumbering: %v", err)
	}
	if got.Code != "2DIG45" {
		t.Fatalf("program code = %q", got.Code)
	}
	c := got.Courses[0]
	if c.Code != "2DIG451" || c.Title != "2DIG451 Brand Basics" {
		t.Fatalf("course: %q %q", c.Code, c.Title)
	}
	tp := c.Topics[0]
	if tp.Code != "11" || tp.Title != "2DIG45__11 Positioning" {
		t.Fatalf("topic: %q %q", tp.Code, tp.Title)
	}
	if l := tp.Lessons[1]; l.Code != "112" || l.Title != "2DIG45__112 Welcome Packets" {
		t.Fatalf("lesson: %q %q", l.Code, l.Title)
	}
	if got.Courses[1].Title != "2DIG452 Welcome Course" {
		t.Fatalf("a seven letter first word must survive: %q", got.Courses[1].Title)
	}
}

func TestApplyNumberingIsIdempotent(t *testing.T) {
	once, err := ApplyNumbering(sampleProgram(), fixedClock)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	later := func() time.Time { return time.UnixMilli(1800000009999) }
	twice, err := ApplyNumbering(once, later)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if twice.Code != once.Code {
		t.Fatalf("valid program code should be kept: %q -> %q", once.Code, twice.Code)
	}
	if fmt.Sprint(titles(once)) != fmt.Sprint(titles(twice)) {
		t.Fatalf("titles changed:\n%v\n%v", titles(once), titles(twice))
	}
}

func TestApplyNumberingIdempotentPastParseableWidth(t *testing.T) {
	p := Program{Code: "2DIG45", Courses: []Course{{Title: "C", Topics: []Topic{{Title: "T"}}}}}
	for i := 0; i < 12; i++ {
		p.Courses[0].Topics[0].Lessons = append(p.Courses[0].Topics[0].Lessons, Lesson{Title: fmt.Sprintf("Lesson %d", i+1)})
	}
	once, err := ApplyNumbering(p, fixedClock)
	if err != nil {
		t.Fatalf("ApplyNumbering: %v", err)
	}
	twice, _ := ApplyNumbering(once, fixedClock)
	if got := twice.Courses[0].Topics[0].Lessons[11].Title; got != "2DIG45__1112 Lesson 12" {
		t.Fatalf("lesson 12 title = %q", got)
	}
}

func TestApplyNumberingDoesNotMutateInput(t *testing.T) {
	in := sampleProgram()
	if _, err := ApplyNumbering(in, fixedClock); err != nil {
		t.Fatalf("ApplyNumbering: %v", err)
	}
	if in.Code != "" || in.Courses[0].Title != "Brand Basics" || in.Courses[0].Topics[0].Lessons[0].Title != "Intro to Positioning" {
		t.Fatalf("input mutated: %+v", in)
	}
}

func TestApplyNumberingStripsLegacyPrefixes(t *testing.T) {
	p := Program{Code: "1AIX07", Courses: []Course{{
		Title: "9ZZZ999 Old Course",
		Topics: []Topic{{
			Title:   "12 Legacy Topic",
			Lessons: []Lesson{{Title: "XXXXXX__113 Moved Lesson"}},
		}},
	}}}
	got, err := ApplyNumbering(p, fixedClock)
	if err != nil {
		t.Fatalf("ApplyNumbering: %v", err)
	}
	// 9ZZZ99 is not a valid program code shape, so the course title is kept whole.
	if got.Courses[0].Title != "1AIX071 9ZZZ999 Old Course" {
		t.Fatalf("course: %q", got.Courses[0].Title)
	}
	if got.Courses[0].Topics[0].Title != "1AIX07__11 Legacy Topic" {
		t.Fatalf("topic: %q", got.Courses[0].Topics[0].Title)
	}
	if got.Courses[0].Topics[0].Lessons[0].Title != "1AIX07__111 Moved Lesson" {
		t.Fatalf("lesson: %q", got.Courses[0].Topics[0].Lessons[0].Title)
	}
}

func TestApplyNumberingRejectsWideTopicCodes(t *testing.T) {
	p := Program{Code: "2DIG45"}
	for i := 0; i < 10; i++ {
		p.Courses = append(p.Courses, Course{Title: "C", Topics: []Topic{{Title: "T", Lessons: []Lesson{{Title: "L"}}}}})
	}
	_, err := ApplyNumbering(p, fixedClock)
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("course 10 yields a 3 char topic code; expected invalid argument, got %v", err)
	}
	if !strings.Contains(err.Error(), "course 10 topic 1") || !strings.Contains(err.Error(), "at most 9 courses and 9 topics per course") {
		t.Fatalf("error should name the limit: %v", err)
	}
}

func TestApplyNumberingEmptyTree(t *testing.T) {
	got, err := ApplyNumbering(Program{Title: "AI"}, fixedClock)
	if err != nil {
		t.Fatalf("ApplyNumbering: %v", err)
	}
	if got.Code != "2AIX45" || len(got.Courses) != 0 {
		t.Fatalf("got %+v", got)
	}
}

func TestLessonsListsTreeOrder(t *testing.T) {
	refs := sampleProgram().Lessons()
	if len(refs) != 2 || refs[1] != (LessonRef{Course: 0, Topic: 0, Lesson: 1}) {
		t.Fatalf("refs: %+v", refs)
	}
}

func titles(p Program) []string {
	var out []string
	for _, c := range p.Courses {
		out = append(out, c.Title)
		for _, t := range c.Topics {
			out = append(out, t.Title)
			for _, l := range t.Lessons {
				out = append(out, l.Title)
			}
		}
	}
	return out
}
