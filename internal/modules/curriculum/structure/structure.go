// Package structure holds the program tree and stamps hierarchical codes onto it.
package structure

import (
	"github.com/yungbote/curriculum-backend/internal/modules/curriculum/designparams"
)

type Program struct {
	Code             string                  `json:"code,omitempty"`
	Title            string                  `json:"title"`
	Niche            string                  `json:"niche,omitempty"`
	Domain           string                  `json:"domain,omitempty"`
	Description      string                  `json:"description,omitempty"`
	DesignParameters designparams.Parameters `json:"designParameters"`
	VectorStoreIDs   []string                `json:"vectorStoreIds,omitempty"`
	Courses          []Course                `json:"courses"`
}

type Course struct {
	Code             string                  `json:"code,omitempty"`
	Title            string                  `json:"title"`
	Description      string                  `json:"description,omitempty"`
	Context          string                  `json:"context,omitempty"`
	DesignParameters designparams.Parameters `json:"designParameters"`
	Topics           []Topic                 `json:"topics"`
}

type Topic struct {
	Code        string   `json:"code,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Lessons     []Lesson `json:"lessons"`
}

type Lesson struct {
	Code                 string `json:"code,omitempty"`
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	MustHave             string `json:"mustHave,omitempty"`
	DesignConsiderations string `json:"designConsiderations,omitempty"`
}

// LessonRef locates a lesson by its zero-based position in the tree.
type LessonRef struct {
	Course, Topic, Lesson int
}

// Lessons lists every lesson position in tree order.
func (p Program) Lessons() []LessonRef {
	var out []LessonRef
	for ci, c := range p.Courses {
		for ti, t := range c.Topics {
			for li := range t.Lessons {
				out = append(out, LessonRef{Course: ci, Topic: ti, Lesson: li})
			}
		}
	}
	return out
}

// Clone returns a deep copy.
func (p Program) Clone() Program {
	out := p
	out.VectorStoreIDs = append([]string(nil), p.VectorStoreIDs...)
	out.Courses = make([]Course, len(p.Courses))
	for ci, c := range p.Courses {
		nc := c
		nc.Topics = make([]Topic, len(c.Topics))
		for ti, t := range c.Topics {
			nt := t
			nt.Lessons = append([]Lesson(nil), t.Lessons...)
			nc.Topics[ti] = nt
		}
		out.Courses[ci] = nc
	}
	return out
}
