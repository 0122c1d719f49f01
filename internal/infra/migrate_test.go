package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQL(t *testing.T) {
	input := `-- header
CREATE TABLE IF NOT EXISTS a (id text);

  -- indented comment
CREATE INDEX IF NOT EXISTS a_idx ON a (id);
`
	assert.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS a (id text)",
		"CREATE INDEX IF NOT EXISTS a_idx ON a (id)",
	}, SplitSQL(input))
	assert.Empty(t, SplitSQL("-- only a comment\n\n"))
}

func TestRepoFileFindsInitMigration(t *testing.T) {
	path, err := RepoFile(filepath.Join("migrations", "0001_init.sql"))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	stmts := SplitSQL(string(content))
	assert.GreaterOrEqual(t, len(stmts), 2)
}
