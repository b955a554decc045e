package prompts

// RegisterAll registers every lesson prompt. Build calls it once on first use.
func RegisterAll() {
	RegisterSpec(Spec{
		Name:    PromptSubsectionPlan,
		Version: 1,
		Mode:    "json",
		System: `
You plan the internal structure of a single training lesson.
Produce exactly 4 subsection titles that progress from foundational to applied.
Titles must be specific to the lesson; avoid generic labels such as "Introduction" or "Conclusion".
Return a JSON array of 4 strings and nothing else.`,
		User: `
Lesson: {{.LessonTitle}}
{{if .LessonDescription}}Lesson description: {{.LessonDescription}}
{{end}}{{if .TopicTitle}}Topic: {{.TopicTitle}}
{{end}}{{if .CourseTitle}}Course: {{.CourseTitle}}
{{end}}{{if .AudienceLabel}}Audience level: {{.AudienceLabel}}
{{end}}
{{if .WebSearchContext}}WEB RESEARCH PREVIEW (highest priority):
{{.WebSearchContext}}

{{end}}{{if .RetrievalContent}}REFERENCE MATERIAL PREVIEW:
{{.RetrievalContent}}

{{end}}{{if .CourseContext}}COURSE CONTEXT PREVIEW:
{{.CourseContext}}

{{end}}{{.InstructionBlock}}

Respond with: ["Title 1", "Title 2", "Title 3", "Title 4"]`,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptRetrievalDraft,
		Version: 1,
		Mode:    "html",
		System: `
You write reference-grounded lesson drafts.
Search the attached documents and build the draft from what they actually contain.
Prefer facts, definitions, procedures and examples found in the documents over general knowledge.`,
		User: `
Write 1000-1200 words of HTML covering the lesson below, grounded in the attached reference documents.

Lesson: {{.LessonTitle}}
{{if .LessonDescription}}Description: {{.LessonDescription}}
{{end}}{{if .TopicTitle}}Topic: {{.TopicTitle}}
{{end}}{{if .CourseTitle}}Course: {{.CourseTitle}}
{{end}}{{if .AudienceLabel}}Audience level: {{.AudienceLabel}}
{{end}}{{if .MustHave}}
Must cover:
{{.MustHave}}
{{end}}
Use <h2>/<h3>, <p>, <ul>/<ol> and <strong>. Do not add a document title.`,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptLessonSynthesis,
		Version: 1,
		Mode:    "html",
		System: `
You write complete, long-form training lessons as semantic HTML.
Combine the supplied context sources using this priority order when they disagree or compete for space:
1. Web research (most current, highest priority)
2. Reference material retrieved from the program documents
3. Course context
4. Instructional design parameters (tone, audience and focus guidance)`,
		User: synthesisUser,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
			RequireSubsections(4),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptLessonFallback,
		Version: 1,
		Mode:    "html",
		System: `
You write complete, long-form training lessons as semantic HTML.
No reference documents are available for this lesson, so the course context is the primary grounding.
Combine the supplied context sources using this priority order:
1. Course context (primary grounding)
2. Web research
3. Instructional design parameters (tone, audience and focus guidance)`,
		User: synthesisUser,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
			RequireSubsections(4),
		},
	})

	RegisterSpec(Spec{
		Name:    PromptLessonWebResearch,
		Version: 1,
		Mode:    "text",
		System: `
You research current, authoritative information for a training lesson.
Summarize findings as plain text notes: key facts, recent developments, statistics with their sources, and practical examples.`,
		User: `
Research the following lesson and return 400-700 words of notes.

Lesson: {{.LessonTitle}}
{{if .LessonDescription}}Description: {{.LessonDescription}}
{{end}}{{if .TopicTitle}}Topic: {{.TopicTitle}}
{{end}}{{if .CourseTitle}}Course: {{.CourseTitle}}
{{end}}`,
		Validators: []Validator{
			RequireNonEmpty("LessonTitle", func(in Input) string { return in.LessonTitle }),
		},
	})
}

const synthesisUser = `
Write the full lesson "{{.LessonTitle}}"{{if .TopicTitle}} for the topic "{{.TopicTitle}}"{{end}}{{if .CourseTitle}} in the course "{{.CourseTitle}}"{{end}}.
{{if .LessonDescription}}Lesson description: {{.LessonDescription}}
{{end}}{{if .AudienceLabel}}Audience: {{.AudienceLabel}} learners
{{end}}
{{if .WebSearchContext}}=== WEB RESEARCH ===
{{.WebSearchContext}}

{{end}}{{if .RetrievalContent}}=== REFERENCE MATERIAL ===
{{.RetrievalContent}}

{{end}}{{if .CourseContext}}=== COURSE CONTEXT ===
{{.CourseContext}}

{{end}}{{if .MustHave}}=== MUST-HAVE CONTENT ===
{{.MustHave}}

{{end}}{{if .DesignConsiderations}}=== DESIGN CONSIDERATIONS ===
{{.DesignConsiderations}}

{{end}}{{.InstructionBlock}}

REQUIRED STRUCTURE (4000-4500 words total):
1. <h2>Overview</h2> (about 200 words)
{{range $i, $s := .Subsections}}{{inc (inc $i)}}. <h2>{{$s}}</h2> (about 800 words)
{{end}}6. <h2>Key Takeaways</h2> (about 200 words)
7. <h2>Common Misconceptions</h2> (about 200 words)
8. <h2>Practical Application</h2> (about 200 words)

The four main subsections together must total 3200-3600 words.
Use the four subsection titles above verbatim as <h2> headings, in exactly this order.
Use <h3>, <p>, <ul>/<ol>, <strong> and <blockquote> inside sections. Return HTML only.`
