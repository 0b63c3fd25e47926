// Package template implements letter templates: plain text with named
// {{placeholder}} tokens, a CRUD store, and the ordered variable list used
// to fill the placeholders.
package template

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	// templateLexer switches into expression mode on "{{" so that
	// identifiers are only recognized inside placeholders. A single "{"
	// stays literal text.
	templateLexer = lexer.MustStateful(lexer.Rules{
		"Root": {
			{Name: "OpenExpr", Pattern: `\{\{`, Action: lexer.Push("Expr")},
			{Name: "Text", Pattern: `[^{]+|\{`},
		},
		"Expr": {
			{Name: "Whitespace", Pattern: `\s+`},
			{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
			{Name: "CloseExpr", Pattern: `\}\}`, Action: lexer.Pop()},
		},
	})

	templateParser = participle.MustBuild[Template](
		participle.Lexer(templateLexer),
		participle.Elide("Whitespace"),
	)
)

// Template is the parsed form of a letter template.
type Template struct {
	Parts []*Part `parser:"@@*"`
}

// Part is either literal text or a placeholder.
type Part struct {
	Placeholder *Placeholder `parser:"  @@"`
	Text        string       `parser:"| @Text"`
}

// Placeholder references a variable by id, e.g. {{company}}.
type Placeholder struct {
	Name string `parser:"OpenExpr @Ident CloseExpr"`
}

// Parse parses template text into its AST.
func Parse(text string) (*Template, error) {
	tpl, err := templateParser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("template: parse failed: %w", err)
	}
	return tpl, nil
}

// Placeholders returns the distinct placeholder names in order of first
// appearance.
func (t *Template) Placeholders() []string {
	seen := map[string]bool{}
	var names []string
	for _, part := range t.Parts {
		if part.Placeholder == nil {
			continue
		}
		name := part.Placeholder.Name
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Render substitutes placeholder values. A placeholder without a value
// renders as its bracketed label ("[Company Name]"), which the letter
// formatter later styles as an unfilled token; labels missing from the map
// fall back to the placeholder name itself.
func (t *Template) Render(values map[string]string, labels map[string]string) string {
	var b strings.Builder
	for _, part := range t.Parts {
		if part.Placeholder == nil {
			b.WriteString(part.Text)
			continue
		}
		name := part.Placeholder.Name
		if v, ok := values[name]; ok && v != "" {
			b.WriteString(v)
			continue
		}
		label := labels[name]
		if label == "" {
			label = name
		}
		b.WriteString("[" + label + "]")
	}
	return b.String()
}
