package pipeline

import (
	"strconv"
	"strings"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// parseBraces parses the inline braces-plus-quotes DSL, an alternative to
// structured YAML for pipelines authored by hand or generated by a tool
// call. Grammar (informal):
//
//	pipeline "<name>" {
//	  template "<name>" { param: value, ... }    // OR an explicit steps block
//	  steps {
//	    step "<id>" <action> { param: value, ... } [depends_on: ["a","b"]]
//	  }
//	  output { format: "structured", limit: 20, strategy: "balanced" }
//	}
//
// Placeholder values of the form {{param}} are left as literal strings in
// Params and resolved later by the template resolver, mirroring the
// teacher's {{key}} session-state substitution convention.
func parseBraces(text string) (*Config, error) {
	toks := tokenizeBraces(text)
	p := &bracesParser{toks: toks}
	cfg, err := p.parsePipeline()
	if err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "invalid pipeline DSL", err)
	}
	return cfg, nil
}

type bracesParser struct {
	toks []string
	pos  int
}

func (p *bracesParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos]
}

func (p *bracesParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *bracesParser) expect(tok string) error {
	got := p.next()
	if got != tok {
		return litsearcherr.New(litsearcherr.InvalidInput, "expected "+tok+" got "+got)
	}
	return nil
}

func (p *bracesParser) parsePipeline() (*Config, error) {
	if p.peek() != "pipeline" {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "expected top-level \"pipeline\" block")
	}
	p.next()
	cfg := &Config{}
	cfg.Name = unquote(p.next())
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for p.peek() != "}" && p.peek() != "" {
		switch p.peek() {
		case "template":
			p.next()
			cfg.Template = unquote(p.next())
			params, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			cfg.TemplateParams = params
		case "steps":
			p.next()
			if err := p.expect("{"); err != nil {
				return nil, err
			}
			steps, err := p.parseSteps()
			if err != nil {
				return nil, err
			}
			cfg.Steps = steps
			if err := p.expect("}"); err != nil {
				return nil, err
			}
		case "output":
			p.next()
			obj, err := p.parseObject()
			if err != nil {
				return nil, err
			}
			cfg.Output = OutputSpec{
				Format:   stringField(obj, "format"),
				Limit:    intField(obj, "limit"),
				Strategy: stringField(obj, "strategy"),
			}
		case "description":
			p.next()
			cfg.Description = unquote(p.next())
		case "tags":
			p.next()
			cfg.Tags = p.parseStringList()
		default:
			return nil, litsearcherr.New(litsearcherr.InvalidInput, "unexpected token in pipeline block: "+p.peek())
		}
	}
	return cfg, p.expect("}")
}

func (p *bracesParser) parseSteps() ([]Step, error) {
	var steps []Step
	for p.peek() == "step" {
		p.next()
		id := unquote(p.next())
		action := Action(p.next())
		params, err := p.parseObject()
		if err != nil {
			return nil, err
		}
		step := Step{ID: id, Action: action, Params: params}
		if p.peek() == "depends_on" {
			p.next()
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			step.DependsOn = p.parseStringList()
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// parseObject parses a `{ key: value, key2: value2 }` block into a map.
func (p *bracesParser) parseObject() (map[string]any, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	obj := make(map[string]any)
	for p.peek() != "}" && p.peek() != "" {
		key := p.next()
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj[key] = val
		if p.peek() == "," {
			p.next()
		}
	}
	return obj, p.expect("}")
}

func (p *bracesParser) parseValue() (any, error) {
	tok := p.peek()
	switch {
	case tok == "[":
		return p.parseStringList(), nil
	case strings.HasPrefix(tok, "\""):
		return unquote(p.next()), nil
	case tok == "true" || tok == "false":
		p.next()
		return tok == "true", nil
	default:
		if n, err := strconv.Atoi(tok); err == nil {
			p.next()
			return n, nil
		}
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			p.next()
			return f, nil
		}
		p.next()
		return tok, nil
	}
}

func (p *bracesParser) parseStringList() []string {
	if p.peek() == "[" {
		p.next()
	}
	var out []string
	for p.peek() != "]" && p.peek() != "" {
		out = append(out, unquote(p.next()))
		if p.peek() == "," {
			p.next()
		}
	}
	if p.peek() == "]" {
		p.next()
	}
	return out
}

func unquote(tok string) string {
	return strings.Trim(tok, "\"")
}

func stringField(obj map[string]any, key string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return ""
}

func intField(obj map[string]any, key string) int {
	switch v := obj[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

// tokenizeBraces splits the DSL into a flat token stream: quoted strings
// are kept whole (including their quotes), and `{`, `}`, `[`, `]`, `:`,
// `,` are always their own tokens.
func tokenizeBraces(text string) []string {
	var toks []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			cur.WriteRune(r)
			if inQuote {
				toks = append(toks, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		case r == '#':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case strings.ContainsRune("{}[]:,", r):
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}
