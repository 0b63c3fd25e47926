package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "defaults.json"), zap.NewNop())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	want := Defaults{
		Name:      "Jane Doe",
		Email:     "jane@x.com",
		Phone:     "+1 555 0100",
		TechStack: "Go, PostgreSQL",
	}
	s.Save(want)
	assert.Equal(t, want, s.Load())
}

func TestLoadMissingFileReturnsEmpty(t *testing.T) {
	s := testStore(t)
	d := s.Load()
	assert.True(t, d.IsEmpty())
}

func TestLoadCorruptFileReturnsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := NewStore(path, zap.NewNop())
	assert.True(t, s.Load().IsEmpty())
}

func TestClear(t *testing.T) {
	s := testStore(t)
	s.Save(Defaults{Name: "Jane"})
	s.Clear()
	assert.True(t, s.Load().IsEmpty())
	// Clearing an already-empty store is a no-op.
	s.Clear()
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "defaults.json")
	s := NewStore(path, zap.NewNop())
	s.Save(Defaults{Name: "Jane"})
	assert.Equal(t, "Jane", s.Load().Name)
}

func TestSaveFailureIsSilent(t *testing.T) {
	dir := t.TempDir()
	// Use the directory itself as the target path so the write must fail.
	s := NewStore(dir, zap.NewNop())
	s.Save(Defaults{Name: "Jane"})
	assert.True(t, s.Load().IsEmpty())
}
