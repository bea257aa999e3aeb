package pipeline

import (
	"fmt"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

// dag is the validated dependency graph over a Config's steps. Edges are
// each step's explicit depends_on plus, when absent, an implicit edge from
// the immediately preceding step — mirroring the teacher's explicit-edge
// DAG but adding the spec's "default: previous step's output" rule.
type dag struct {
	steps    map[string]Step
	children map[string][]string
	parents  map[string][]string
	levels   [][]string
}

// buildDAG validates steps form an acyclic graph and computes topological
// levels (steps with no unresolved dependency within that level can run
// concurrently).
func buildDAG(steps []Step) (*dag, error) {
	d := &dag{
		steps:    make(map[string]Step, len(steps)),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}

	for _, s := range steps {
		if _, exists := d.steps[s.ID]; exists {
			return nil, litsearcherr.New(litsearcherr.InvalidInput, fmt.Sprintf("duplicate step id: %s", s.ID))
		}
		d.steps[s.ID] = s
	}

	for i, s := range steps {
		deps := s.DependsOn
		if len(deps) == 0 && i > 0 {
			deps = []string{steps[i-1].ID}
		}
		for _, dep := range deps {
			if _, ok := d.steps[dep]; !ok {
				return nil, litsearcherr.New(litsearcherr.InvalidInput, fmt.Sprintf("step %q depends on undefined step %q", s.ID, dep))
			}
			d.parents[s.ID] = append(d.parents[s.ID], dep)
			d.children[dep] = append(d.children[dep], s.ID)
		}
	}

	levels, err := d.topoLevels()
	if err != nil {
		return nil, err
	}
	d.levels = levels
	return d, nil
}

// topoLevels computes Kahn's-algorithm levels: each level is the set of
// nodes whose in-degree became zero simultaneously, so the executor can
// run an entire level concurrently and move strictly level-by-level.
func (d *dag) topoLevels() ([][]string, error) {
	inDegree := make(map[string]int, len(d.steps))
	for id := range d.steps {
		inDegree[id] = len(d.parents[id])
	}

	var levels [][]string
	remaining := len(d.steps)
	current := make([]string, 0)
	for id, deg := range inDegree {
		if deg == 0 {
			current = append(current, id)
		}
	}

	for len(current) > 0 {
		levels = append(levels, current)
		remaining -= len(current)
		var next []string
		for _, id := range current {
			for _, child := range d.children[id] {
				inDegree[child]--
				if inDegree[child] == 0 {
					next = append(next, child)
				}
			}
		}
		current = next
	}

	if remaining != 0 {
		return nil, litsearcherr.New(litsearcherr.InvalidInput, "pipeline contains a dependency cycle")
	}
	return levels, nil
}

// Validate checks that cfg's step set forms a valid DAG without
// executing it — used by the store/facade to reject a malformed pipeline
// at save time rather than only on first run.
func Validate(cfg *Config) error {
	_, err := buildDAG(cfg.Steps)
	return err
}

func (d *dag) Levels() [][]string       { return d.levels }
func (d *dag) Step(id string) Step      { return d.steps[id] }
func (d *dag) Parents(id string) []string { return d.parents[id] }
