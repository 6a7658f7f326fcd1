package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"plancraft/pkg/logging"
)

// TemplateData is what notification templates are rendered with.
type TemplateData struct {
	Kind    Kind
	Title   string
	Message string
}

// Templates holds the title and message templates for one notification kind.
// An empty template leaves the corresponding text unchanged.
type Templates struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

type compiled struct {
	title   *template.Template
	message *template.Template
}

// TemplateNotifier rewrites notifications through per-kind templates and
// forwards the result to Next.
type TemplateNotifier struct {
	next      Notifier
	templates map[Kind]compiled
}

// NewTemplateNotifier parses the templates for each kind. Templates may use
// the sprig function map, e.g. `{{ .Title | upper }}`.
func NewTemplateNotifier(next Notifier, byKind map[Kind]Templates) (*TemplateNotifier, error) {
	n := &TemplateNotifier{next: next, templates: make(map[Kind]compiled, len(byKind))}
	for kind, t := range byKind {
		var c compiled
		var err error
		if c.title, err = parse(string(kind)+".title", t.Title); err != nil {
			return nil, err
		}
		if c.message, err = parse(string(kind)+".message", t.Message); err != nil {
			return nil, err
		}
		n.templates[kind] = c
	}
	return n, nil
}

func parse(name, text string) (*template.Template, error) {
	if text == "" {
		return nil, nil
	}
	t, err := template.New(name).Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse notification template %s: %w", name, err)
	}
	return t, nil
}

// Notify renders and forwards. A template that fails to execute falls back
// to the original text.
func (n *TemplateNotifier) Notify(kind Kind, title, message string) {
	data := TemplateData{Kind: kind, Title: title, Message: message}
	if c, ok := n.templates[kind]; ok {
		title = render(c.title, data, title)
		message = render(c.message, data, message)
	}
	if n.next != nil {
		n.next.Notify(kind, title, message)
	}
}

func render(t *template.Template, data TemplateData, fallback string) string {
	if t == nil {
		return fallback
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logging.Error("Notify", err, "Failed to render template %s", t.Name())
		return fallback
	}
	return buf.String()
}
