package prompts

import (
	"fmt"
	"strings"
)

type Validator func(Input) error

func RequireNonEmpty(field string, get func(Input) string) Validator {
	return func(in Input) error {
		if get == nil {
			return fmt.Errorf("validator for %s: getter is nil", field)
		}
		if strings.TrimSpace(get(in)) == "" {
			return fmt.Errorf("%s required", field)
		}
		return nil
	}
}

func RequireSubsections(n int) Validator {
	return func(in Input) error {
		if len(in.Subsections) != n {
			return fmt.Errorf("exactly %d subsections required, got %d", n, len(in.Subsections))
		}
		for i, s := range in.Subsections {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("subsection %d is empty", i+1)
			}
		}
		return nil
	}
}
