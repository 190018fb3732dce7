package notifications

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	defaultAssignmentTemplate = `*New task assigned to you*
*Title:* {{.Title}}
{{- if .Customer}}
*Customer:* {{.Customer}}
{{- end}}
{{- if .Company}}
*Company:* {{.Company}}
{{- end}}
*Due:* {{.Due}}
*Priority:* {{.Priority}}
*Assigned by:* {{.Actor}}`

	defaultReminderTemplate = `*Reminder:* {{.Title}}
{{- if .Customer}}
*Customer:* {{.Customer}}
{{- end}}
{{- if .Company}}
*Company:* {{.Company}}
{{- end}}
*Due:* {{.Due}}
*Priority:* {{.Priority}}
*Status:* {{.Status}}`

	defaultCompletionTemplate = `*Task completed:* {{.Title}}
{{- if .Customer}}
*Customer:* {{.Customer}}
{{- end}}
{{- if .Company}}
*Company:* {{.Company}}
{{- end}}
*Completed by:* {{.Actor}}
{{- if .Resolution}}
*Resolution:* {{.Resolution}}
{{- end}}`
)

// TemplateSet holds the raw template sources as read from YAML.
type TemplateSet struct {
	Assignment string `yaml:"assignment"`
	Reminder   string `yaml:"reminder"`
	Completion string `yaml:"completion"`
}

type Templates struct {
	assignment *template.Template
	reminder   *template.Template
	completion *template.Template
}

type messageData struct {
	TaskID     string
	Title      string
	Customer   string
	Company    string
	Due        string
	Priority   string
	Status     string
	Assignee   string
	Actor      string
	Resolution string
}

func DefaultTemplates() *Templates {
	t, err := NewTemplates(TemplateSet{})
	if err != nil {
		panic(err)
	}
	return t
}

// NewTemplates compiles set, falling back to the built-in text for empty entries.
func NewTemplates(set TemplateSet) (*Templates, error) {
	if set.Assignment == "" {
		set.Assignment = defaultAssignmentTemplate
	}
	if set.Reminder == "" {
		set.Reminder = defaultReminderTemplate
	}
	if set.Completion == "" {
		set.Completion = defaultCompletionTemplate
	}

	var (
		t   Templates
		err error
	)
	if t.assignment, err = template.New("assignment").Parse(set.Assignment); err != nil {
		return nil, fmt.Errorf("templates: parse assignment: %w", err)
	}
	if t.reminder, err = template.New("reminder").Parse(set.Reminder); err != nil {
		return nil, fmt.Errorf("templates: parse reminder: %w", err)
	}
	if t.completion, err = template.New("completion").Parse(set.Completion); err != nil {
		return nil, fmt.Errorf("templates: parse completion: %w", err)
	}
	return &t, nil
}

func ParseTemplatesYAML(data []byte) (*Templates, error) {
	var set TemplateSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("templates: decode yaml: %w", err)
	}
	return NewTemplates(set)
}

// LoadTemplates reads overrides from path; an empty path yields the defaults.
func LoadTemplates(path string) (*Templates, error) {
	if path == "" {
		return DefaultTemplates(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", path, err)
	}
	return ParseTemplatesYAML(data)
}

func render(t *template.Template, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
