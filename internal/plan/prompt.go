// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plan

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/game-scout/pkg/types"
)

const plannerSystem = "You plan web research for video game articles. You reply with JSON only."

var planPromptTmpl = template.Must(template.New("plan").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Plan web searches for an article about a video game.

Game: {{.Subject.Name}}
{{- if .Subject.Genres}}
Genres: {{join .Subject.Genres ", "}}{{end}}
{{- if .Subject.Categories}}
Article categories: {{join .Subject.Categories ", "}}{{end}}
Intent: {{.Intent}}
{{- if .Subject.Instruction}}
Editorial instruction: {{.Subject.Instruction}}{{end}}
{{- if .Discovery}}

An exploratory search for this game returned:
{{.Discovery.Excerpt}}
Use these findings to identify the game precisely in every query.{{end}}

Produce a draft article title and between {{.Min}} and {{.Max}} search queries.
For each query give:
- text: the search query
- provider: "lexical" for keyword web search{{if .Semantic}}, "semantic" for meaning-based search of long-form analysis{{end}}
- category: "overview", "category" (topic-specific), or "recent" (news and patches)
- purpose: one sentence on why the query is needed
- expected_findings: what the results should contain
{{- if .Semantic}}
- variants: optional alternative phrasings for semantic queries{{end}}

Respond with a JSON object:
{"draft_title": "...", "queries": [{"text": "...", "provider": "lexical", "category": "overview", "purpose": "...", "expected_findings": ["..."]}]}
Do not include any text outside the JSON object.
`))

var discoveryPromptTmpl = template.Must(template.New("discovery").Parse(`Decide whether a video game is well enough known to plan web research directly.

Game: {{.Subject.Name}}
{{- range $k, $v := .Subject.Identifiers}}
{{$k}}: {{$v}}{{end}}
Intent: {{.Intent}}

If the name is ambiguous, very new, obscure, or shared with other media,
an exploratory search is needed first.

Respond with a JSON object:
{"needs_discovery": false, "reason": "...", "query": "exploratory search text if needed", "provider": "lexical"}
Do not include any text outside the JSON object.
`))

type promptData struct {
	Subject   types.Subject
	Intent    string
	Discovery *DiscoveryContext
	Min, Max  int
	Semantic  bool
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
