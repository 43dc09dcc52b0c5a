package envfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestMaterialize_CreatesFromTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	tpl := filepath.Join(dir, ".env.example")
	writeFile(t, tpl, "APP_NAME=demo\nAPP_URL=http://localhost\nDB_HOST=db\n")

	require.NoError(t, Materialize(env, tpl, "APP_URL", "http://localhost:8000"))

	got := readFile(t, env)
	assert.Equal(t, "APP_NAME=demo\nAPP_URL=http://localhost:8000\nDB_HOST=db\n", got)
	assert.Equal(t, 1, strings.Count(got, "APP_URL="))
}

func TestMaterialize_MissingTemplateFails(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := Materialize(filepath.Join(dir, ".env"), filepath.Join(dir, ".env.example"), "APP_URL", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "env template")
}

func TestMaterialize_ExistingFileIgnoresTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	writeFile(t, env, "APP_URL=http://old\n")

	// Template path does not exist; must not matter when the file is present.
	require.NoError(t, Materialize(env, filepath.Join(dir, "missing"), "APP_URL", "http://new"))
	assert.Equal(t, "APP_URL=http://new\n", readFile(t, env))
}

func TestUpsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		initial string
		key     string
		value   string
		want    string
	}{
		{
			name:    "replaces existing value in place",
			initial: "APP_NAME=demo\nAPP_URL=http://old\nDB_HOST=db\n",
			key:     "APP_URL",
			value:   "http://new",
			want:    "APP_NAME=demo\nAPP_URL=http://new\nDB_HOST=db\n",
		},
		{
			name:    "appends when key absent",
			initial: "APP_NAME=demo\n",
			key:     "APP_URL",
			value:   "http://localhost:8000",
			want:    "APP_NAME=demo\nAPP_URL=http://localhost:8000\n",
		},
		{
			name:    "appends to empty file",
			initial: "",
			key:     "APP_URL",
			value:   "http://localhost:8000",
			want:    "APP_URL=http://localhost:8000\n",
		},
		{
			name:    "preserves unrelated lines and order",
			initial: "# comment\nA=1\nAPP_URL=x\nB=2\n",
			key:     "APP_URL",
			value:   "y",
			want:    "# comment\nA=1\nAPP_URL=y\nB=2\n",
		},
		{
			name:    "missing trailing newline preserved on replace",
			initial: "APP_URL=old",
			key:     "APP_URL",
			value:   "new",
			want:    "APP_URL=new",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), ".env")
			writeFile(t, path, tc.initial)

			require.NoError(t, Upsert(path, tc.key, tc.value))
			assert.Equal(t, tc.want, readFile(t, path))
		})
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "APP_NAME=demo\nDB_HOST=db\n")

	require.NoError(t, Upsert(path, "APP_URL", "http://localhost:8000"))
	first := readFile(t, path)

	require.NoError(t, Upsert(path, "APP_URL", "http://localhost:8000"))
	assert.Equal(t, first, readFile(t, path))
}

func TestUpsert_LineCountInvariants(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	writeFile(t, path, "A=1\nAPP_URL=http://old\nB=2\n")
	before := strings.Count(readFile(t, path), "\n")

	// Key pre-existed: line count unchanged.
	require.NoError(t, Upsert(path, "APP_URL", "http://new"))
	assert.Equal(t, before, strings.Count(readFile(t, path), "\n"))

	// New key: line count grows by exactly one.
	require.NoError(t, Upsert(path, "CACHE_DRIVER", "redis"))
	assert.Equal(t, before+1, strings.Count(readFile(t, path), "\n"))
}

func TestUpsert_MissingFileFails(t *testing.T) {
	t.Parallel()

	err := Upsert(filepath.Join(t.TempDir(), "nope"), "K", "v")
	assert.Error(t, err)
}
