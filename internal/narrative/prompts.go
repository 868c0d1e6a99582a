package narrative

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed prompts.yaml
var promptsYAML []byte

type promptEntry struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Template    string  `yaml:"template"`
}

type prompt struct {
	temperature float32
	maxTokens   int
	tmpl        *template.Template
}

// Catalog holds the parsed prompt templates, one per narrative kind.
type Catalog struct {
	prompts map[Kind]prompt
}

var printer = message.NewPrinter(language.English)

var templateFuncs = template.FuncMap{
	"population": func(n *int64) string {
		if n == nil {
			return "N/A"
		}
		return printer.Sprintf("%d", *n)
	},
	"days": func(n *int) string {
		if n == nil {
			return "N/A"
		}
		return strconv.Itoa(*n)
	},
	"orNA": func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	},
	"join": func(items []string, empty string) string {
		if len(items) == 0 {
			return empty
		}
		return strings.Join(items, ", ")
	},
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
}

// DefaultCatalog parses the embedded prompt catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(promptsYAML)
}

// ParseCatalog reads a YAML prompt catalog. Every narrative kind must be
// present.
func ParseCatalog(data []byte) (*Catalog, error) {
	var entries map[string]promptEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}

	c := &Catalog{prompts: make(map[Kind]prompt, len(entries))}
	for _, kind := range []Kind{KindUrgentAction, KindFacilitySummary, KindExplanation} {
		entry, ok := entries[string(kind)]
		if !ok {
			return nil, fmt.Errorf("prompt catalog: missing %s", kind)
		}
		if entry.MaxTokens <= 0 {
			return nil, fmt.Errorf("prompt catalog: %s: max_tokens must be positive", kind)
		}
		tmpl, err := template.New(string(kind)).Funcs(templateFuncs).Option("missingkey=error").Parse(entry.Template)
		if err != nil {
			return nil, fmt.Errorf("prompt catalog: %s: %w", kind, err)
		}
		c.prompts[kind] = prompt{temperature: entry.Temperature, maxTokens: entry.MaxTokens, tmpl: tmpl}
	}
	return c, nil
}

// Render builds the completion request for kind from facts.
func (c *Catalog) Render(kind Kind, facts any) (Request, error) {
	p, ok := c.prompts[kind]
	if !ok {
		return Request{}, fmt.Errorf("no prompt for %s", kind)
	}

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, facts); err != nil {
		return Request{}, fmt.Errorf("render %s prompt: %w", kind, err)
	}
	return Request{
		Kind:        kind,
		Prompt:      sb.String(),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}, nil
}
