package designparams

import (
	"strings"
	"testing"
)

func TestDefaultsAreTotal(t *testing.T) {
	d := Defaults()
	want := Parameters{
		CourseDomain:        "business-management",
		TargetAudienceLevel: "intermediate",
		CourseToneStyle:     "professional",
		ContentFocus:        "balanced",
	}
	if d != want {
		t.Fatalf("defaults: got %+v want %+v", d, want)
	}
}

func TestResolvePrecedence(t *testing.T) {
	program := Parameters{CourseDomain: "healthcare-medical", CourseToneStyle: "academic"}
	course := Parameters{CourseToneStyle: "practical", ContentFocus: "bogus"}

	got := Resolve(course, program)
	if got.CourseDomain != "healthcare-medical" {
		t.Fatalf("program default not applied: %+v", got)
	}
	if got.CourseToneStyle != "practical" {
		t.Fatalf("course override not applied: %+v", got)
	}
	if got.TargetAudienceLevel != "intermediate" {
		t.Fatalf("hard default not applied: %+v", got)
	}
	if got.ContentFocus != "balanced" {
		t.Fatalf("invalid override should fall through to default: %+v", got)
	}
}

func TestResolveEmptyLayers(t *testing.T) {
	if got := Resolve(Parameters{}, Parameters{}); got != Defaults() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestValidateBogusDomain(t *testing.T) {
	res := Validate(Parameters{CourseDomain: "bogus"})
	if res.IsValid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one error, got %v", res.Errors)
	}
	if res.ValidatedParameters != Defaults() {
		t.Fatalf("expected defaults substituted, got %+v", res.ValidatedParameters)
	}
}

func TestValidateAcceptsOptions(t *testing.T) {
	in := Parameters{
		CourseDomain:        "science-research",
		TargetAudienceLevel: "expert",
		CourseToneStyle:     "inspirational",
		ContentFocus:        "theoretical",
	}
	res := Validate(in)
	if !res.IsValid || len(res.Errors) != 0 {
		t.Fatalf("expected valid, got %+v", res)
	}
	if res.ValidatedParameters != in {
		t.Fatalf("expected passthrough, got %+v", res.ValidatedParameters)
	}
}

func TestFromMapIgnoresUnknown(t *testing.T) {
	p := FromMap(map[string]any{
		"courseDomain": " creative-arts ",
		"contentFocus": 3,
		"colour":       "blue",
	})
	if p.CourseDomain != "creative-arts" || p.ContentFocus != "" {
		t.Fatalf("unexpected %+v", p)
	}
	if m := p.Map(); len(m) != 1 || m["courseDomain"] != "creative-arts" {
		t.Fatalf("unexpected map %v", m)
	}
}

func TestInstructionBlockDeterministic(t *testing.T) {
	p := Resolve(Parameters{TargetAudienceLevel: "beginner"}, Parameters{})
	a := InstructionBlock(p)
	b := InstructionBlock(p)
	if a != b {
		t.Fatalf("instruction block not deterministic")
	}
	for _, want := range []string{"COURSE DOMAIN: Business & Management", "TARGET AUDIENCE LEVEL: Beginner", "CONTENT FOCUS: Balanced"} {
		if !strings.Contains(a, want) {
			t.Fatalf("missing %q in:\n%s", want, a)
		}
	}
	if AudienceLabel(p) != "Beginner" {
		t.Fatalf("audience label: %q", AudienceLabel(p))
	}
}

func TestCatalogOptionCounts(t *testing.T) {
	want := map[Key]int{CourseDomain: 6, TargetAudienceLevel: 4, CourseToneStyle: 5, ContentFocus: 3}
	for _, d := range Definitions() {
		if len(d.Options) != want[d.Key] {
			t.Fatalf("%s: %d options, want %d", d.Key, len(d.Options), want[d.Key])
		}
	}
}

func TestLoadCatalogRejectsBadDefault(t *testing.T) {
	raw := []byte(`
parameters:
  - key: courseDomain
    default: nope
    options:
      - value: a
        directive: x
`)
	if _, err := loadCatalog(raw); err == nil {
		t.Fatalf("expected error for default outside options")
	}
}
