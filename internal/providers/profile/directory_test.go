package profile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfiles(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestDirectory_All(t *testing.T) {
	ctx := context.Background()
	path := writeProfiles(t, `[
		{"uuid": "abc-123", "name": "Dana"},
		{"uuid": "def-456", "name": "Sam"}
	]`)

	d := NewDirectory(path)
	profiles, err := d.All(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "abc-123", profiles[0].UUID)
	assert.Equal(t, "Dana", profiles[0].Name)
}

func TestDirectory_Get(t *testing.T) {
	ctx := context.Background()
	path := writeProfiles(t, `[{"uuid": "abc-123", "name": "Dana"}]`)

	d := NewDirectory(path)
	p, err := d.Get(ctx, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "Dana", p.Name)

	_, err = d.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_MissingFile(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(filepath.Join(t.TempDir(), "nope.json"))

	profiles, err := d.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = d.Get(ctx, "abc-123")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDirectory_MalformedFile(t *testing.T) {
	ctx := context.Background()
	d := NewDirectory(writeProfiles(t, "not json"))

	_, err := d.All(ctx)
	require.Error(t, err)
}
