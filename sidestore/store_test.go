package sidestore

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabled(t *testing.T) {
	s := New(Options{Enabled: false, Path: "/should/not/be/created"}, nil)
	s.Set("k", "v")
	_, ok := s.Get("k")
	assert.False(t, ok)
	s.Remove("k")
	assert.NoError(t, Close(s))
}

func TestMemory(t *testing.T) {
	s := New(Options{Enabled: true}, nil)

	_, ok := s.Get("k")
	assert.False(t, ok)

	s.Set("k", "v")
	v, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	s.Set("k", "v2")
	v, _ = s.Get("k")
	assert.Equal(t, "v2", v)

	s.Remove("k")
	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.NoError(t, Close(s))
}

func TestPrefixed(t *testing.T) {
	mem := NewMemory()
	s := Prefixed(mem, "app:")
	s.Set("session", "blob")

	v, ok := mem.Get("app:session")
	require.True(t, ok)
	assert.Equal(t, "blob", v)
	_, ok = mem.Get("session")
	assert.False(t, ok)

	other := Prefixed(mem, "other:")
	_, ok = other.Get("session")
	assert.False(t, ok, "prefixes isolate namespaces")
	assert.Equal(t, 1, mem.Len())
}

func TestBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sessions.db")

	s := New(Options{Enabled: true, Path: path, Prefix: "p:"}, nil)
	s.Set("a", "1")
	s.Set("b", "2")
	s.Remove("b")
	require.NoError(t, Close(s))

	// reopen and read back through the same prefix
	s = New(Options{Enabled: true, Path: path, Prefix: "p:"}, nil)
	defer Close(s)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
	_, ok = s.Get("b")
	assert.False(t, ok)

	raw, err := OpenBolt(path+".2", nil)
	require.NoError(t, err)
	defer raw.Close()
	_, ok = raw.Get("missing")
	assert.False(t, ok)
}

func TestBolt_ErrorsAreContained(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	b, err := OpenBolt(filepath.Join(t.TempDir(), "s.db"), logger)
	require.NoError(t, err)
	require.NoError(t, b.Close())

	assert.NotPanics(t, func() {
		b.Set("k", "v")
		_, ok := b.Get("k")
		assert.False(t, ok)
		b.Remove("k")
	})
	assert.Contains(t, logs.String(), "side-store set failed")
	assert.Contains(t, logs.String(), "side-store get failed")
}

func TestNew_UnopenableFallsBackToDisabled(t *testing.T) {
	dir := t.TempDir()
	// a directory cannot be opened as a database file
	path := filepath.Join(dir, "db")
	require.NoError(t, os.Mkdir(path, 0o755))

	var logs bytes.Buffer
	s := New(Options{Enabled: true, Path: path}, slog.New(slog.NewTextHandler(&logs, nil)))
	assert.IsType(t, Disabled{}, s)
	assert.Contains(t, logs.String(), "side-store unavailable")
}
