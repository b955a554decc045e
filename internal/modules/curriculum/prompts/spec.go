package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/curriculum-backend/internal/platform/promptstyle"
)

// Spec is the declaration format for a prompt. System and User may be plain
// strings or go templates over Input.
type Spec struct {
	Name       PromptName
	Version    int
	Mode       string
	System     string
	User       string
	Validators []Validator
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// MakeTemplate compiles a Spec into a Template.
func MakeTemplate(s Spec) (Template, error) {
	if strings.TrimSpace(string(s.Name)) == "" {
		return Template{}, fmt.Errorf("missing prompt name")
	}
	if s.Version <= 0 {
		return Template{}, fmt.Errorf("invalid version for %s", s.Name)
	}
	sysT, err := template.New("system").Funcs(funcs).Option("missingkey=zero").Parse(s.System)
	if err != nil {
		return Template{}, fmt.Errorf("%s system template parse: %w", s.Name, err)
	}
	userT, err := template.New("user").Funcs(funcs).Option("missingkey=zero").Parse(s.User)
	if err != nil {
		return Template{}, fmt.Errorf("%s user template parse: %w", s.Name, err)
	}
	render := func(t *template.Template, in Input) string {
		var b bytes.Buffer
		_ = t.Execute(&b, in)
		return strings.TrimSpace(b.String())
	}
	mode := s.Mode
	if mode == "" {
		mode = "text"
	}
	tt := Template{
		Name:    s.Name,
		Version: s.Version,
		Mode:    mode,
		System:  func(in Input) string { return promptstyle.ApplySystem(render(sysT, in), mode) },
		User:    func(in Input) string { return render(userT, in) },
	}
	if len(s.Validators) > 0 {
		tt.Validate = func(in Input) error {
			for _, v := range s.Validators {
				if v == nil {
					continue
				}
				if err := v(in); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return tt, nil
}

// RegisterSpec is the one-liner used by RegisterAll.
func RegisterSpec(s Spec) {
	t, err := MakeTemplate(s)
	if err != nil {
		panic(err)
	}
	Register(t)
}
