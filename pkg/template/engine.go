package template

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

// placeholderRegex matches {{path.to.value}} references. Whitespace inside
// the braces is tolerated so hand-written templates don't break on spacing.
var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\s*\}\}`)

// businessNamespace is the reserved root for auto-injected business data.
const businessNamespace = "business"

// Engine renders templates with automatic business-context injection.
type Engine struct {
	business         BusinessContext
	defaultVarLength int
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultVariableLength overrides the length assumed for variables
// without a declared MaxLength during worst-case SMS estimation.
func WithDefaultVariableLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultVarLength = n
		}
	}
}

// New creates a template engine bound to a business context.
func New(business BusinessContext, opts ...Option) *Engine {
	e := &Engine{
		business:         business,
		defaultVarLength: defaultVariableLength,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render substitutes data into the template and returns the rendered output.
// The business context is merged under business.* before substitution;
// caller-supplied data cannot override it.
//
// Missing optional references render as an empty string. A declared-required
// variable absent from data fails the render with ErrMissingVariable.
func (e *Engine) Render(tpl Template, data map[string]any) (RenderedOutput, error) {
	if tpl.BodyText == "" {
		return RenderedOutput{}, ErrEmptyBodyTemplate
	}

	for _, v := range tpl.Variables {
		if !v.Required {
			continue
		}
		if _, ok := lookup(data, v.Name); !ok {
			return RenderedOutput{}, fmt.Errorf("%w: %s", ErrMissingVariable, v.Name)
		}
	}

	merged := make(map[string]any, len(data)+1)
	for k, v := range data {
		merged[k] = v
	}
	merged[businessNamespace] = e.business.asMap()

	out := RenderedOutput{
		Text: substitute(tpl.BodyText, merged),
	}
	if tpl.SubjectTemplate != "" {
		out.Subject = substitute(tpl.SubjectTemplate, merged)
	}
	if tpl.BodyHTML != "" {
		out.HTML = substitute(tpl.BodyHTML, merged)
	}
	out.CharacterCount = utf8.RuneCountInString(out.Text)
	out.SegmentCount = SegmentCount(out.Text)

	return out, nil
}

// Validate checks a template against the variable names a caller intends to
// provide. Each declared-required variable missing from provided is an
// error. Each reference outside the declared variable list is a warning,
// except references under business.* which are always injected.
func (e *Engine) Validate(tpl Template, provided []string) ValidationResult {
	res := ValidationResult{Valid: true}

	for _, v := range tpl.Variables {
		if v.Required && !slices.Contains(provided, v.Name) {
			res.Errors = append(res.Errors, fmt.Sprintf("missing required variable %q", v.Name))
		}
	}

	seen := make(map[string]bool)
	for _, ref := range References(tpl) {
		root, _, _ := strings.Cut(ref, ".")
		if root == businessNamespace || seen[root] {
			continue
		}
		seen[root] = true
		if _, ok := tpl.variable(root); !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("reference %q is not a declared variable", ref))
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

// References extracts every placeholder path used anywhere in the template,
// in order of first appearance.
func References(tpl Template) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, src := range []string{tpl.SubjectTemplate, tpl.BodyHTML, tpl.BodyText} {
		for _, m := range placeholderRegex.FindAllStringSubmatch(src, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				refs = append(refs, m[1])
			}
		}
	}
	return refs
}

// substitute replaces every placeholder with the stringified value at its
// dotted path. Unresolved references become empty strings rather than
// leaking raw {{...}} markers to recipients.
func substitute(src string, data map[string]any) string {
	return placeholderRegex.ReplaceAllStringFunc(src, func(m string) string {
		path := placeholderRegex.FindStringSubmatch(m)[1]
		v, ok := lookup(data, path)
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

// lookup resolves a dotted path through nested maps.
func lookup(data map[string]any, path string) (any, bool) {
	cur := any(data)
	for part := range strings.SplitSeq(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// stringify converts resolved values into their rendered form.
// Nil renders empty; numbers and booleans stringify without decoration.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
