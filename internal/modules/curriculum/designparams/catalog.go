package designparams

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

type Option struct {
	Value     string `yaml:"value" json:"value"`
	Label     string `yaml:"label" json:"label"`
	Directive string `yaml:"directive" json:"directive"`
}

type Definition struct {
	Key     Key      `yaml:"key" json:"key"`
	Label   string   `yaml:"label" json:"label"`
	Default string   `yaml:"default" json:"default"`
	Options []Option `yaml:"options" json:"options"`
}

func (d Definition) option(value string) (Option, bool) {
	for _, o := range d.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

type yamlCatalog struct {
	Version    int          `yaml:"version"`
	Parameters []Definition `yaml:"parameters"`
}

var catalog = mustLoadCatalog(catalogYAML)

func mustLoadCatalog(raw []byte) map[Key]Definition {
	defs, err := loadCatalog(raw)
	if err != nil {
		panic(fmt.Sprintf("designparams: embedded catalog invalid: %v", err))
	}
	return defs
}

func loadCatalog(raw []byte) (map[Key]Definition, error) {
	var c yamlCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	out := make(map[Key]Definition, len(c.Parameters))
	for _, d := range c.Parameters {
		d.Key = Key(strings.TrimSpace(string(d.Key)))
		if !d.Key.known() {
			return nil, fmt.Errorf("unknown parameter key %q", d.Key)
		}
		if len(d.Options) == 0 {
			return nil, fmt.Errorf("%s: no options", d.Key)
		}
		for i := range d.Options {
			d.Options[i].Directive = strings.TrimSpace(d.Options[i].Directive)
			if d.Options[i].Value == "" || d.Options[i].Directive == "" {
				return nil, fmt.Errorf("%s: option %d incomplete", d.Key, i)
			}
		}
		if _, ok := d.option(d.Default); !ok {
			return nil, fmt.Errorf("%s: default %q is not an option", d.Key, d.Default)
		}
		out[d.Key] = d
	}
	for _, k := range Keys {
		if _, ok := out[k]; !ok {
			return nil, fmt.Errorf("missing parameter %q", k)
		}
	}
	return out, nil
}

// Definitions returns the option tables in key order.
func Definitions() []Definition {
	out := make([]Definition, 0, len(Keys))
	for _, k := range Keys {
		out = append(out, catalog[k])
	}
	return out
}

// Allowed reports whether value is one of key's options.
func Allowed(key Key, value string) bool {
	d, ok := catalog[key]
	if !ok {
		return false
	}
	_, ok = d.option(value)
	return ok
}
