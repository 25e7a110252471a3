package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"umlc/internal/engine/ast"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state", "history.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveAndListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	first, err := store.SaveRun(ctx, Run{
		Source:            "models/shop.uml",
		SourceHash:        HashSource("class A"),
		Timestamp:         base,
		Duration:          1500 * time.Microsecond,
		Valid:             true,
		EntityCount:       1,
		RelationshipCount: 0,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID, "id is assigned")

	_, err = store.SaveRun(ctx, Run{
		Source:            "models/shop.uml",
		SourceHash:        HashSource("class A >> "),
		Timestamp:         base.Add(time.Minute),
		Valid:             false,
		EntityCount:       1,
		ImplicitCount:     0,
		RelationshipCount: 0,
		Diagnostics: []ast.Diagnostic{
			{Message: "expected relationship target after >>, found EOF", Line: 1, Column: 12},
			{Message: "unexpected RBrace", Line: 2, Column: 1},
		},
		DiagramJSON: `{"entities":[]}`,
	})
	require.NoError(t, err)

	_, err = store.SaveRun(ctx, Run{Source: "models/other.uml", Timestamp: base.Add(time.Hour), Valid: true})
	require.NoError(t, err)

	runs, err := store.ListRuns(ctx, "models/shop.uml", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	assert.False(t, latest.Valid)
	assert.Equal(t, base.Add(time.Minute), latest.Timestamp)
	require.Len(t, latest.Diagnostics, 2)
	assert.Equal(t, 12, latest.Diagnostics[0].Column)
	assert.Equal(t, "unexpected RBrace", latest.Diagnostics[1].Message)
	assert.Equal(t, `{"entities":[]}`, latest.DiagramJSON)

	older := runs[1]
	assert.Equal(t, first.ID, older.ID)
	assert.True(t, older.Valid)
	assert.Equal(t, 1500*time.Microsecond, older.Duration)
	assert.Empty(t, older.Diagnostics)

	all, err := store.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "models/other.uml", all[0].Source)

	limited, err := store.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_SubSecondOrdering(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{0, 500 * time.Millisecond, 2 * time.Second} {
		_, err := store.SaveRun(ctx, Run{Source: "a.uml", Timestamp: base.Add(offset)})
		require.NoError(t, err)
	}

	latest, ok, err := store.LatestRun(ctx, "a.uml")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, base.Add(2*time.Second), latest.Timestamp)

	runs, err := store.ListRuns(ctx, "a.uml", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, base.Add(500*time.Millisecond), runs[1].Timestamp)
}

func TestStore_LatestRunMissing(t *testing.T) {
	store := openStore(t)

	_, ok, err := store.LatestRun(context.Background(), "nothing.uml")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_SaveRunRequiresSource(t *testing.T) {
	store := openStore(t)

	_, err := store.SaveRun(context.Background(), Run{Source: "  "})
	require.Error(t, err)
}

func TestStore_Prune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := store.SaveRun(ctx, Run{
			Source:      "a.uml",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
			Diagnostics: []ast.Diagnostic{{Message: "x", Line: 1, Column: 1}},
		})
		require.NoError(t, err)
	}
	_, err := store.SaveRun(ctx, Run{Source: "b.uml", Timestamp: base})
	require.NoError(t, err)

	deleted, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	runs, err := store.ListRuns(ctx, "a.uml", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, base.Add(4*time.Minute), runs[0].Timestamp)

	others, err := store.ListRuns(ctx, "b.uml", 0)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	var orphaned int
	require.NoError(t, store.db.QueryRow(
		`SELECT COUNT(*) FROM run_diagnostics WHERE run_id NOT IN (SELECT id FROM runs)`).Scan(&orphaned))
	assert.Zero(t, orphaned, "diagnostics cascade with their run")

	none, err := store.Prune(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	tmpDir := t.TempDir()
	_, err := Open(tmpDir, 0)
	if err == nil {
		t.Fatal("expected open error for directory path")
	}
	if !strings.Contains(err.Error(), "is a directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	if err := os.WriteFile(path, []byte("this is not sqlite"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, 0)
	if err == nil {
		t.Fatal("expected sqlite open error")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "not a database") && !strings.Contains(lower, "schema") {
		t.Fatalf("expected schema/open error, got: %v", err)
	}
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "history.db")
	store, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open(driverName, "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	err = EnsureSchema(db)
	if err == nil {
		t.Fatal("expected drift error")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	store := openStore(t)

	require.NoError(t, EnsureSchema(store.db))
	var version int
	require.NoError(t, store.db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, SchemaVersion, version)
}

func TestBuildTrendReport(t *testing.T) {
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)
	diag := ast.Diagnostic{Message: "x", Line: 1, Column: 1}
	runs := []Run{
		{ID: "c", Timestamp: base.Add(25 * time.Hour), SourceHash: "h2", EntityCount: 7, RelationshipCount: 6},
		{ID: "a", Timestamp: base, SourceHash: "h1", EntityCount: 4, RelationshipCount: 3, Diagnostics: []ast.Diagnostic{diag, diag}},
		{ID: "b", Timestamp: base.Add(2 * time.Hour), SourceHash: "h1", EntityCount: 6, ImplicitCount: 1, RelationshipCount: 5},
	}

	report, err := BuildTrendReport("a.uml", runs, 24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 3, report.RunCount)
	assert.Equal(t, base, report.Since)
	assert.Equal(t, base.Add(25*time.Hour), report.Until)
	require.Len(t, report.Points, 3)

	assert.Equal(t, "a", report.Points[0].RunID)
	assert.True(t, report.Points[0].SourceChanged)

	assert.Equal(t, 2, report.Points[1].DeltaEntities)
	assert.Equal(t, 1, report.Points[1].DeltaImplicit)
	assert.Equal(t, -2, report.Points[1].DeltaDiagnostics)
	assert.False(t, report.Points[1].SourceChanged)
	assert.Equal(t, 1.0, report.Points[1].AvgDiagnostics)

	assert.True(t, report.Points[2].SourceChanged)
	assert.Equal(t, 0.0, report.Points[2].AvgDiagnostics, "first run falls outside the window")

	_, err = BuildTrendReport("a.uml", nil, time.Hour)
	assert.Error(t, err)
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(os.ErrInvalid))
	assert.False(t, IsCorruptError(nil))
}

func TestHashSource(t *testing.T) {
	assert.Equal(t, HashSource("class A"), HashSource("class A"))
	assert.NotEqual(t, HashSource("class A"), HashSource("class B"))
	assert.Len(t, HashSource(""), 64)
}
