package catalog

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/utils/logging"
)

// Catalog answers membership queries against the goal catalog document. The
// document is the single source of truth: a reference not present in it is
// invalid.
type Catalog struct {
	path string
}

// New creates a Catalog backed by the document at path
func New(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the catalog document path
func (c *Catalog) Path() string {
	return c.path
}

// Load parses the catalog document and returns the set of known goal IDs.
// Blank lines and comment lines are skipped; data rows start with a table-row
// delimiter and the first cell must match the goal reference pattern.
func (c *Catalog) Load(ctx context.Context) (map[types.GoalID]struct{}, error) {
	logger := logging.From(ctx)
	logger.Debug("loading goal catalog", "path", c.path)

	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrCatalogMissing, "goal catalog not readable", goerr.V("path", c.path))
		}
		return nil, goerr.Wrap(err, "failed to read goal catalog", goerr.V("path", c.path))
	}

	goals := make(map[types.GoalID]struct{})
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := strings.Split(strings.Trim(line, "|"), "|")
		if len(cells) == 0 {
			continue
		}
		id := types.GoalID(strings.TrimSpace(cells[0]))
		if id.Validate() == nil {
			goals[id] = struct{}{}
		}
	}

	if len(goals) == 0 {
		return nil, goerr.Wrap(ErrCatalogEmpty, "no goal IDs found", goerr.V("path", c.path))
	}

	logger.Debug("goal catalog loaded", "path", c.path, "count", len(goals))
	return goals, nil
}

// EnsureExist validates that every reference is present in the catalog.
// Unknown references are reported sorted for determinism. The catalog is
// never mutated.
func (c *Catalog) EnsureExist(ctx context.Context, refs []types.GoalID) error {
	logger := logging.From(ctx)
	logger.Debug("validating goal references", "count", len(refs))

	if len(refs) == 0 {
		return goerr.Wrap(ErrNoReferences, "daily log contains no goal references")
	}

	known, err := c.Load(ctx)
	if err != nil {
		return err
	}

	var unknown []string
	for _, ref := range refs {
		if _, ok := known[ref]; !ok {
			unknown = append(unknown, string(ref))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return goerr.Wrap(ErrUnknownReferences, strings.Join(unknown, ", "), goerr.V("unknown", unknown))
	}

	logger.Debug("goal references valid", "count", len(refs))
	return nil
}
