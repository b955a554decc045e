package designparams

import "strings"

const instructionHeader = "INSTRUCTIONAL DESIGN PARAMETERS"

// InstructionBlock renders one labeled directive per key. Unset or unknown
// values render the key's default directive.
func InstructionBlock(p Parameters) string {
	var b strings.Builder
	b.WriteString(instructionHeader)
	for _, k := range Keys {
		def := catalog[k]
		opt, ok := def.option(p.Get(k))
		if !ok {
			opt, _ = def.option(def.Default)
		}
		b.WriteString("\n\n")
		b.WriteString(strings.ToUpper(def.Label))
		b.WriteString(": ")
		b.WriteString(opt.Label)
		b.WriteString("\n")
		b.WriteString(opt.Directive)
	}
	return b.String()
}

// AudienceLabel is the human label of the audience level, e.g. "Intermediate".
func AudienceLabel(p Parameters) string {
	def := catalog[TargetAudienceLevel]
	if opt, ok := def.option(p.TargetAudienceLevel); ok {
		return opt.Label
	}
	opt, _ := def.option(def.Default)
	return opt.Label
}
