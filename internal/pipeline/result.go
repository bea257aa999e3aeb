package pipeline

import "github.com/soochol/litsearch-mcp/internal/article"

// StepResult is the polymorphic output a step produces: an article set, a
// scalar, or an id list. Consumers type-assert the shape they expect;
// mismatches are a pipeline-authoring error caught at validation time in
// a fuller implementation, and as an empty result here.
type StepResult struct {
	Articles []article.UnifiedArticle
	IDs      []string
	Scalar   any
}

// Empty reports whether the result carries no data at all — the shape a
// soft-failed step's result takes.
func (r StepResult) Empty() bool {
	return len(r.Articles) == 0 && len(r.IDs) == 0 && r.Scalar == nil
}
