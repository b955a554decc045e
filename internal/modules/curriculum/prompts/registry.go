package prompts

import (
	"fmt"
	"strings"
	"sync"
)

type Template struct {
	Name     PromptName
	Version  int
	Mode     string
	System   func(Input) string
	User     func(Input) string
	Validate Validator
}

var (
	registryMu   sync.RWMutex
	registry     = map[PromptName]Template{}
	registerOnce sync.Once
)

// Register registers a compiled Template, replacing any previous one with the same name.
func Register(t Template) {
	registryMu.Lock()
	registry[t.Name] = t
	registryMu.Unlock()
}

// Build renders a registered prompt.
func Build(name PromptName, in Input) (Prompt, error) {
	registerOnce.Do(RegisterAll)

	registryMu.RLock()
	t, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("unknown prompt: %s", string(name))
	}
	if t.System == nil || t.User == nil {
		return Prompt{}, fmt.Errorf("prompt %s missing system/user renderers", string(name))
	}
	if t.Validate != nil {
		if err := t.Validate(in); err != nil {
			return Prompt{}, fmt.Errorf("%s: %w", string(name), err)
		}
	}
	return Prompt{
		Name:    string(t.Name),
		Version: t.Version,
		Mode:    t.Mode,
		System:  strings.TrimSpace(t.System(in)),
		User:    strings.TrimSpace(t.User(in)),
	}, nil
}
