package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/wikiserve/internal/model"
	"github.com/rcliao/wikiserve/internal/store"
)

func TestLogCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "wiki.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.Commit(ctx, model.CommitMeta{Message: "first"}, []store.Change{{Path: "Home.md", Data: []byte("v1")}})
	require.NoError(t, err)
	head, err := s.Commit(ctx, model.CommitMeta{Message: "second"}, []store.Change{{Path: "docs/Guide.md", Data: []byte("g")}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"log", "--db", dbPath, "--limit", "1"})
	t.Cleanup(func() {
		RootCmd.SetOut(nil)
		RootCmd.SetArgs(nil)
	})
	require.NoError(t, RootCmd.Execute())

	var commits []model.Commit
	require.NoError(t, json.Unmarshal(out.Bytes(), &commits))
	require.Len(t, commits, 1)
	assert.Equal(t, head, commits[0].ID)
	assert.Equal(t, "second", commits[0].Message)
	assert.Equal(t, []string{"docs/Guide.md"}, commits[0].Paths)
	assert.True(t, store.IsVersion(commits[0].Parent))
}
