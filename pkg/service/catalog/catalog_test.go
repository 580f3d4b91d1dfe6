package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tsuzuri/pkg/domain/types"
	"github.com/secmon-lab/tsuzuri/pkg/service/catalog"
)

func writeCatalog(t *testing.T, content string) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "goals.md")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0o644)).Required()
	return catalog.New(path)
}

const sampleCatalog = `# Goals

| Goal ID | Title |
| --- | --- |
| G-2025-W39-01 | Ship the pipeline |
| G-2025-W39-02 | Write the weekly review |
`

func TestCatalogLoad(t *testing.T) {
	t.Run("loads goal IDs from table rows", func(t *testing.T) {
		cat := writeCatalog(t, sampleCatalog)
		goals, err := cat.Load(context.Background())
		gt.NoError(t, err).Required()
		gt.Number(t, len(goals)).Equal(2)
		_, ok := goals[types.GoalID("G-2025-W39-01")]
		gt.Bool(t, ok).True()
		_, ok = goals[types.GoalID("G-2025-W39-02")]
		gt.Bool(t, ok).True()
	})

	t.Run("fails when the catalog document is missing", func(t *testing.T) {
		cat := catalog.New(filepath.Join(t.TempDir(), "missing.md"))
		_, err := cat.Load(context.Background())
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, catalog.ErrCatalogMissing)).True()
	})

	t.Run("fails when no table row carries a goal ID", func(t *testing.T) {
		cat := writeCatalog(t, "# Goals\n\njust prose, no table\n")
		_, err := cat.Load(context.Background())
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, catalog.ErrCatalogEmpty)).True()
	})

	t.Run("skips header and separator rows", func(t *testing.T) {
		cat := writeCatalog(t, sampleCatalog)
		goals, err := cat.Load(context.Background())
		gt.NoError(t, err).Required()
		_, ok := goals[types.GoalID("Goal ID")]
		gt.Bool(t, ok).False()
	})
}

func TestCatalogEnsureExist(t *testing.T) {
	t.Run("accepts known references", func(t *testing.T) {
		cat := writeCatalog(t, sampleCatalog)
		err := cat.EnsureExist(context.Background(), []types.GoalID{
			"G-2025-W39-01", "G-2025-W39-02",
		})
		gt.NoError(t, err)
	})

	t.Run("rejects an empty reference set", func(t *testing.T) {
		cat := writeCatalog(t, sampleCatalog)
		err := cat.EnsureExist(context.Background(), nil)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, catalog.ErrNoReferences)).True()
	})

	t.Run("rejects unknown references sorted in the message", func(t *testing.T) {
		cat := writeCatalog(t, sampleCatalog)
		err := cat.EnsureExist(context.Background(), []types.GoalID{
			"G-2025-W39-09", "G-2025-W39-03",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, catalog.ErrUnknownReferences)).True()
		gt.String(t, err.Error()).Contains("G-2025-W39-03, G-2025-W39-09")
	})

	t.Run("propagates a missing catalog", func(t *testing.T) {
		cat := catalog.New(filepath.Join(t.TempDir(), "missing.md"))
		err := cat.EnsureExist(context.Background(), []types.GoalID{"G-2025-W39-01"})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, catalog.ErrCatalogMissing)).True()
	})
}
