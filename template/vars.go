package template

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Variable describes one fillable field of a template. The order of the
// variable list is the order fields are presented to the user.
type Variable struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Type     string   `yaml:"type"` // text/email/tel/textarea/select
	Required bool     `yaml:"required"`
	Options  []string `yaml:"options,omitempty"` // for type select
}

// DefaultVariables returns the built-in field set shared by the built-in
// templates.
func DefaultVariables() []Variable {
	return []Variable{
		{ID: "name", Label: "Full Name", Type: "text", Required: true},
		{ID: "email", Label: "Email", Type: "email", Required: true},
		{ID: "phone", Label: "Phone", Type: "tel"},
		{ID: "company", Label: "Company Name", Type: "text", Required: true},
		{ID: "position", Label: "Position", Type: "text", Required: true},
		{ID: "techstack", Label: "Tech Stack", Type: "textarea"},
		{ID: "source", Label: "Where did you find the posting", Type: "select",
			Options: []string{"LinkedIn", "Company website", "Referral", "Other"}},
	}
}

// LoadVariables reads a variable list from YAML.
func LoadVariables(r io.Reader) ([]Variable, error) {
	var vars []Variable
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&vars); err != nil {
		return nil, fmt.Errorf("template: decode variables failed: %w", err)
	}
	for i, v := range vars {
		if v.ID == "" {
			return nil, fmt.Errorf("template: variable #%d is missing an id", i+1)
		}
	}
	return vars, nil
}

// Labels builds the id→label map Render uses for unfilled placeholders.
func Labels(vars []Variable) map[string]string {
	out := make(map[string]string, len(vars))
	for _, v := range vars {
		label := v.Label
		if label == "" {
			label = v.ID
		}
		out[v.ID] = label
	}
	return out
}

// MissingRequired reports which required variables have no value.
func MissingRequired(vars []Variable, values map[string]string) []string {
	var missing []string
	for _, v := range vars {
		if v.Required && values[v.ID] == "" {
			missing = append(missing, v.ID)
		}
	}
	return missing
}
