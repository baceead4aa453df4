package gitsource

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/owner/words.git", filepath.Join("repos", "github.com", "owner", "words")},
		{"http://example.com/lists", filepath.Join("repos", "example.com", "lists")},
		{"ssh://git@example.com/owner/words.git", filepath.Join("repos", "example.com", "owner", "words")},
		{"git@github.com:owner/words.git", filepath.Join("repos", "github.com", "owner", "words")},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := LocalPath("repos", tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, IsURL(tt.url))
		})
	}

	for _, bad := range []string{"/home/me/lists", "lists", "git@github.com"} {
		_, err := LocalPath("repos", bad)
		assert.Error(t, err, bad)
		assert.False(t, IsURL(bad), bad)
	}
}

func TestSyncExistingPathErrors(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	t.Run("not a repository", func(t *testing.T) {
		err := Sync(context.Background(), log, "https://example.com/x.git", t.TempDir(), nil)
		require.ErrorIs(t, err, git.ErrRepositoryNotExists)
	})

	t.Run("repository without origin", func(t *testing.T) {
		dir := t.TempDir()
		_, err := git.PlainInit(dir, false)
		require.NoError(t, err)

		err = Sync(context.Background(), log, "https://example.com/x.git", dir, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to pull changes")
	})
}
