package pipeline

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// Parse accepts pipeline text in either of the two interchangeable
// shapes — structured-indent YAML or the braces-plus-quotes DSL — and
// returns the same Config either way. The shape is detected by whether
// the first non-blank, non-comment line opens with an unquoted `{`-style
// block keyword; YAML documents never start that way.
func Parse(text string) (*Config, error) {
	if looksLikeBraceForm(text) {
		return parseBraces(text)
	}
	return parseYAML(text)
}

func looksLikeBraceForm(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return strings.Contains(trimmed, "{") && !strings.HasPrefix(trimmed, "{")
	}
	return false
}

func parseYAML(text string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(text), &cfg); err != nil {
		return nil, litsearcherr.Wrap(litsearcherr.InvalidInput, "invalid pipeline YAML", err)
	}
	return &cfg, nil
}
