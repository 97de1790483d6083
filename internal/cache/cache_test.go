// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/developer0hye/anytomd/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyFingerprint(t *testing.T) {
	a := Key([]byte("data"), "describe=false")
	b := Key([]byte("data"), "describe=true")
	c := Key([]byte("other"), "describe=false")
	assert.NotEqual(t, a, b, "options change the key")
	assert.NotEqual(t, a, c, "content changes the key")
	assert.Equal(t, a, Key([]byte("data"), "describe=false"))
}

func TestGetMiss(t *testing.T) {
	s := openTestStore(t)
	_, hit, err := s.Get("nope")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t)

	title := "Report"
	in := &types.Result{
		Markdown: "# Report\n\nbody\n",
		Title:    &title,
		Warnings: []types.Warning{
			{Code: types.WarnMalformedSegment, Message: "cell contains error value #DIV/0!", Location: "S!E2"},
		},
	}
	key := Key([]byte("input"), "")
	require.NoError(t, s.Put(key, in))

	out, hit, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, in.Markdown, out.Markdown)
	require.NotNil(t, out.Title)
	assert.Equal(t, "Report", *out.Title)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, types.WarnMalformedSegment, out.Warnings[0].Code)
	assert.Equal(t, "S!E2", out.Warnings[0].Location)
}

func TestPutReplaces(t *testing.T) {
	s := openTestStore(t)
	key := Key([]byte("input"), "")
	require.NoError(t, s.Put(key, &types.Result{Markdown: "old\n"}))
	require.NoError(t, s.Put(key, &types.Result{Markdown: "new\n"}))

	out, hit, err := s.Get(key)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "new\n", out.Markdown)
	assert.Nil(t, out.Title)
}
