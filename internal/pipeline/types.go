// Package pipeline implements the declarative search-pipeline engine:
// parsing, template resolution, DAG validation, and topological-level
// parallel execution, generalizing the teacher's internal/engine (DAG +
// Runner + Session) and internal/services/pipeline_runner.go (sequential
// Stage runner) to the search domain's step actions.
package pipeline

import "time"

// Action enumerates the step actions the executor recognizes.
type Action string

const (
	ActionSearch          Action = "search"
	ActionFilter          Action = "filter"
	ActionRank            Action = "rank"
	ActionMerge           Action = "merge"
	ActionExpand          Action = "expand"
	ActionEnrich          Action = "enrich"
	ActionFetchDetails    Action = "fetch-details"
	ActionFetchCitations  Action = "fetch-citations"
	ActionFetchReferences Action = "fetch-references"
	ActionFetchFulltext   Action = "fetch-fulltext"
)

// Step is a single unit of work in the pipeline graph.
type Step struct {
	ID        string         `yaml:"id"`
	Action    Action         `yaml:"action"`
	Params    map[string]any `yaml:"params"`
	DependsOn []string       `yaml:"depends_on"`
}

// OutputSpec controls the pipeline's final formatting.
type OutputSpec struct {
	Format   string `yaml:"format"` // "structured", "tabular", "xlsx"
	Limit    int    `yaml:"limit"`
	Strategy string `yaml:"strategy"`
}

// ScheduleSpec is the optional schedule subdocument.
type ScheduleSpec struct {
	Cron    string `yaml:"cron"`
	Enabled bool   `yaml:"enabled"`
	Diff    bool   `yaml:"diff"`
	Notify  bool   `yaml:"notify"`
}

// Config is the parsed declarative pipeline document.
type Config struct {
	Name           string         `yaml:"name"`
	Description    string         `yaml:"description"`
	Tags           []string       `yaml:"tags"`
	Template       string         `yaml:"template"`
	TemplateParams map[string]any `yaml:"template_params"`
	Steps          []Step         `yaml:"steps"`
	Output         OutputSpec     `yaml:"output"`
	Schedule       *ScheduleSpec  `yaml:"schedule,omitempty"`
}

// Scope is where a pipeline document lives in the store.
type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeGlobal    Scope = "global"
)

// Meta is the catalog-facing summary of a stored pipeline.
type Meta struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Scope       Scope     `json:"scope"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ContentHash string    `json:"content_hash"`
	StepCount   int       `json:"step_count"`
}

// RunStatus is the terminal state of one pipeline execution.
type RunStatus string

const (
	RunStatusOK      RunStatus = "ok"
	RunStatusPartial RunStatus = "partial"
	RunStatusFailure RunStatus = "failure"
)

// DiffSummary reports set-difference against the previous run for the
// same pipeline, used by scheduled runs.
type DiffSummary struct {
	New             []string `json:"new"`
	Removed         []string `json:"removed"`
	UnchangedCount  int      `json:"unchanged_count"`
}

// ArticleSummary is a compact top-N entry retained on a run record.
type ArticleSummary struct {
	PrimaryID string `json:"primary_id"`
	Title     string `json:"title"`
}

// Run is one execution's record.
type Run struct {
	RunID          string            `json:"run_id"`
	PipelineName   string            `json:"pipeline_name"`
	Scope          Scope             `json:"scope"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	Status         RunStatus         `json:"status"`
	ArticleCount   int               `json:"article_count"`
	Identifiers    []string          `json:"identifiers"`
	TopArticles    []ArticleSummary  `json:"top_articles"`
	Diff           *DiffSummary      `json:"diff,omitempty"`
	StepErrors     map[string]string `json:"step_errors,omitempty"`
}
