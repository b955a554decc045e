// Package designparams resolves the layered instructional design parameters
// of a program and course and renders them as prompt directives.
package designparams

import (
	"fmt"
	"strings"
)

type Key string

const (
	CourseDomain        Key = "courseDomain"
	TargetAudienceLevel Key = "targetAudienceLevel"
	CourseToneStyle     Key = "courseToneStyle"
	ContentFocus        Key = "contentFocus"
)

// Keys lists every parameter in rendering order.
var Keys = []Key{CourseDomain, TargetAudienceLevel, CourseToneStyle, ContentFocus}

func (k Key) known() bool {
	for _, kk := range Keys {
		if kk == k {
			return true
		}
	}
	return false
}

// Parameters is a full or partial parameter set. An empty field means unset.
type Parameters struct {
	CourseDomain        string `json:"courseDomain,omitempty"`
	TargetAudienceLevel string `json:"targetAudienceLevel,omitempty"`
	CourseToneStyle     string `json:"courseToneStyle,omitempty"`
	ContentFocus        string `json:"contentFocus,omitempty"`
}

func (p Parameters) Get(k Key) string {
	switch k {
	case CourseDomain:
		return p.CourseDomain
	case TargetAudienceLevel:
		return p.TargetAudienceLevel
	case CourseToneStyle:
		return p.CourseToneStyle
	case ContentFocus:
		return p.ContentFocus
	}
	return ""
}

func (p *Parameters) set(k Key, v string) {
	switch k {
	case CourseDomain:
		p.CourseDomain = v
	case TargetAudienceLevel:
		p.TargetAudienceLevel = v
	case CourseToneStyle:
		p.CourseToneStyle = v
	case ContentFocus:
		p.ContentFocus = v
	}
}

// Map renders the parameters keyed by their wire names, skipping unset ones.
func (p Parameters) Map() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		if v := p.Get(k); v != "" {
			out[string(k)] = v
		}
	}
	return out
}

// FromMap builds a partial parameter set from loosely typed input, ignoring
// unknown keys and non-string values.
func FromMap(raw map[string]any) Parameters {
	var p Parameters
	for _, k := range Keys {
		if s, ok := raw[string(k)].(string); ok {
			p.set(k, strings.TrimSpace(s))
		}
	}
	return p
}

// Defaults returns the hard-coded default for every key.
func Defaults() Parameters {
	var p Parameters
	for _, k := range Keys {
		p.set(k, catalog[k].Default)
	}
	return p
}

// Resolve merges layers with precedence defaults < program < course. Values
// outside a key's option set are skipped so the next layer applies.
func Resolve(course, program Parameters) Parameters {
	out := Defaults()
	for _, layer := range []Parameters{program, course} {
		for _, k := range Keys {
			if v := strings.TrimSpace(layer.Get(k)); v != "" && Allowed(k, v) {
				out.set(k, v)
			}
		}
	}
	return out
}

type ValidationResult struct {
	IsValid             bool       `json:"isValid"`
	Errors              []string   `json:"errors"`
	ValidatedParameters Parameters `json:"validatedParameters"`
}

// Validate checks each supplied value against its option set. Unset keys take
// their default silently; rejected values are reported and replaced with the default.
func Validate(p Parameters) ValidationResult {
	res := ValidationResult{IsValid: true, Errors: []string{}}
	for _, k := range Keys {
		def := catalog[k]
		v := strings.TrimSpace(p.Get(k))
		switch {
		case v == "":
			res.ValidatedParameters.set(k, def.Default)
		case Allowed(k, v):
			res.ValidatedParameters.set(k, v)
		default:
			res.IsValid = false
			res.Errors = append(res.Errors, fmt.Sprintf("invalid %s %q: must be one of %s", k, v, strings.Join(optionValues(def), ", ")))
			res.ValidatedParameters.set(k, def.Default)
		}
	}
	return res
}

func optionValues(d Definition) []string {
	out := make([]string, 0, len(d.Options))
	for _, o := range d.Options {
		out = append(out, o.Value)
	}
	return out
}
