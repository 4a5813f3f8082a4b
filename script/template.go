package script

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\${([^}]+)}`)

// Template is a string with embedded ${...} expressions, compiled once and
// renderable with different globals per run.
type Template struct {
	raw     string
	literal []string
	scripts []Script
}

// NewTemplate compiles every ${...} expression in raw. A string without
// expressions compiles to a template that renders as itself.
func NewTemplate(engine Compiler, raw string) (*Template, error) {
	if strings.Count(raw, "${") > strings.Count(raw, "}") {
		return nil, fmt.Errorf("unclosed expression in template %q", raw)
	}
	matches := exprPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return &Template{raw: raw}, nil
	}

	tpl := &Template{raw: raw}
	lastEnd := 0
	for _, match := range matches {
		tpl.literal = append(tpl.literal, raw[lastEnd:match[0]])
		expr := raw[match[2]:match[3]]
		compiled, err := engine.Compile(context.Background(), expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile template expression %q: %w", expr, err)
		}
		tpl.scripts = append(tpl.scripts, compiled)
		lastEnd = match[1]
	}
	tpl.literal = append(tpl.literal, raw[lastEnd:])
	return tpl, nil
}

// HasExpressions reports whether the template contains any ${...} parts.
func (t *Template) HasExpressions() bool {
	return len(t.scripts) > 0
}

// Render evaluates each expression with the given globals and joins the
// results with the literal parts.
func (t *Template) Render(ctx context.Context, globals map[string]any) (string, error) {
	if len(t.scripts) == 0 {
		return t.raw, nil
	}
	var builder strings.Builder
	for i, script := range t.scripts {
		builder.WriteString(t.literal[i])
		value, err := script.Evaluate(ctx, globals)
		if err != nil {
			return "", fmt.Errorf("failed to render template %q: %w", t.raw, err)
		}
		builder.WriteString(value.String())
	}
	builder.WriteString(t.literal[len(t.literal)-1])
	return builder.String(), nil
}
