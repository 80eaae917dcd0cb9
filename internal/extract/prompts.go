package extract

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract.md
var extractPromptRaw string

// extractTemplate is the parsed user-instruction template. Parsed once at
// package init; reused on every Extract call.
var extractTemplate = template.Must(template.New("extract").Parse(extractPromptRaw))
