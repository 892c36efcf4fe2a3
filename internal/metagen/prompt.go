package metagen

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/kitaplan/kitaplan-backend/internal/domain"
	"github.com/kitaplan/kitaplan-backend/internal/gateway"
)

// Prompt is the rendered pair of chat messages sent to the gateway.
type Prompt struct {
	System string
	User   string
}

func (p Prompt) Messages() []gateway.Message {
	return []gateway.Message{
		{Role: "system", Content: p.System},
		{Role: "user", Content: p.User},
	}
}

func (p Prompt) Len() int { return len(p.System) + len(p.User) }

const systemTemplate = `
You tag kindergarten classroom activities with educational metadata for a lesson plan.
You may only use module names and curriculum codes from the provided catalogs.
Return JSON only, with exactly these fields:
{"reasoning": string, "modules": [string], "curriculum_refs": [string], "objectives": [string]}
Do not include markdown or commentary.`

const userTemplate = `
ACTIVITY:
{{.Activity}}

WEEKLY THEME:
{{.Theme}}

AVAILABLE MODULES (name: description):
{{range .Modules}}- {{.Name}}: {{.Description}}
{{end}}
AVAILABLE CURRICULUM REFERENCES (code: text):
{{range .Refs}}- {{.Code}}: {{.Text}}
{{end}}
Task:
- Pick every module this activity develops (at least one).
- Pick the curriculum codes it covers (at least one, codes from the list above only).
- Write 2-4 concrete learning objectives observable in the classroom.
- reasoning: one short paragraph explaining the choices.`

// promptInput is the template data for one request. Theme renders as the
// empty string when absent.
type promptInput struct {
	Activity string
	Theme    string
	Refs     []*domain.CurriculumReference
	Modules  []*domain.EducationalModule
}

// Builder renders the generation prompt. Templates are compiled once at
// construction; a missing or unparsable override file fails startup rather
// than individual requests.
type Builder struct {
	system *template.Template
	user   *template.Template
}

func NewBuilder(templatePath string) (*Builder, error) {
	userText := userTemplate
	if strings.TrimSpace(templatePath) != "" {
		b, err := os.ReadFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("prompt template %s: %w", templatePath, err)
		}
		userText = string(b)
	}

	sysT, err := template.New("system").Option("missingkey=zero").Parse(systemTemplate)
	if err != nil {
		return nil, fmt.Errorf("system template parse: %w", err)
	}
	userT, err := template.New("user").Option("missingkey=zero").Parse(userText)
	if err != nil {
		return nil, fmt.Errorf("user template parse: %w", err)
	}

	// Execution errors (e.g. a reference to a field promptInput does not
	// have) only surface when the template runs, so render both against a
	// minimal input to keep template problems a startup failure.
	sample := promptInput{
		Activity: "activity",
		Theme:    "theme",
		Refs:     []*domain.CurriculumReference{{Code: "0.0", Text: "reference"}},
		Modules:  []*domain.EducationalModule{{Name: "module", Description: "description"}},
	}
	if _, err := render(sysT, sample); err != nil {
		return nil, fmt.Errorf("system template render: %w", err)
	}
	if _, err := render(userT, sample); err != nil {
		return nil, fmt.Errorf("user template render: %w", err)
	}

	return &Builder{system: sysT, user: userT}, nil
}

// Build is a deterministic function of the request and the loaded catalogs.
// Render errors can still occur for override templates whose failure depends
// on the catalog contents; they are never swallowed.
func (b *Builder) Build(req Request, rc *RefContext) (Prompt, error) {
	in := promptInput{
		Activity: strings.TrimSpace(req.Activity),
		Theme:    strings.TrimSpace(req.Theme),
		Refs:     rc.Refs,
		Modules:  rc.Modules,
	}
	system, err := render(b.system, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	user, err := render(b.user, in)
	if err != nil {
		return Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}
	return Prompt{System: system, User: user}, nil
}

func render(t *template.Template, in promptInput) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, in); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
