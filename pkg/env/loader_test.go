package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	assert.NotNil(t, l.vars)
	assert.Equal(t, Prefix, l.prefix)
	assert.False(t, l.Loaded())
}

func TestDefaultLoader_Load(t *testing.T) {
	path := writeEnv(t, `# Comment
SNIPPETCHECK_DIALECT=javascript
SNIPPETCHECK_LOG_LEVEL="debug"
export SNIPPETCHECK_TIMEOUT_MS=250
EMPTY=
`)

	l := NewLoader()
	require.NoError(t, l.Load(path))
	assert.True(t, l.Loaded())
	assert.Equal(t, "javascript", l.vars["SNIPPETCHECK_DIALECT"])
	assert.Equal(t, "debug", l.vars["SNIPPETCHECK_LOG_LEVEL"])
	assert.Equal(t, "250", l.vars["SNIPPETCHECK_TIMEOUT_MS"])
	assert.Equal(t, "", l.vars["EMPTY"])
}

func TestDefaultLoader_Load_LaterFileWins(t *testing.T) {
	first := writeEnv(t, "SNIPPETCHECK_DIALECT=javascript\n")
	second := writeEnv(t, "SNIPPETCHECK_DIALECT=typescript\n")

	l := NewLoader()
	require.NoError(t, l.Load(first, second))
	assert.Equal(t, "typescript", l.Get("dialect"))
}

func TestDefaultLoader_Load_FileNotFound(t *testing.T) {
	err := NewLoader().Load("/nonexistent/.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/.env")
}

func TestDefaultLoader_Get(t *testing.T) {
	l := NewLoader()
	l.vars["SNIPPETCHECK_FROM_FILE"] = "file"

	assert.Equal(t, "file", l.Get("from_file"))
	assert.Equal(t, "file", l.Get("SNIPPETCHECK_FROM_FILE"))

	t.Setenv("SNIPPETCHECK_FROM_FILE", "os")
	assert.Equal(t, "os", l.Get("from_file"))

	assert.Equal(t, "", l.Get("nonexistent"))
}

func TestDefaultLoader_Lookup_EmptyButSet(t *testing.T) {
	t.Setenv("SNIPPETCHECK_BLANK", "")
	v, ok := NewLoader().Lookup("blank")
	assert.True(t, ok)
	assert.Empty(t, v)
}

func TestDefaultLoader_NoPrefix(t *testing.T) {
	t.Setenv("PLAIN_KEY", "x")
	assert.Equal(t, "x", NewLoaderWithPrefix("").Get("PLAIN_KEY"))
}

func TestDefaultLoader_GetRequired(t *testing.T) {
	l := NewLoader()
	l.vars["SNIPPETCHECK_EXISTS"] = "value"

	v, err := l.GetRequired("exists")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = l.GetRequired("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SNIPPETCHECK_MISSING")
}

func TestDefaultLoader_GetWithDefault(t *testing.T) {
	l := NewLoader()
	l.vars["SNIPPETCHECK_EXISTS"] = "value"

	assert.Equal(t, "value", l.GetWithDefault("exists", "default"))
	assert.Equal(t, "default", l.GetWithDefault("missing", "default"))
}

func TestDefaultLoader_Typed(t *testing.T) {
	l := NewLoader()
	l.vars["SNIPPETCHECK_STRIP_ONLY"] = "false"
	l.vars["SNIPPETCHECK_STACK"] = "512"
	l.vars["SNIPPETCHECK_TIMEOUT_MS"] = "1500"
	l.vars["SNIPPETCHECK_BAD"] = "nope"

	b, ok, err := l.GetBool("strip_only")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, b)

	n, ok, err := l.GetInt("stack")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 512, n)

	d, ok, err := l.GetMillis("timeout_ms")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, ok, err = l.GetInt("missing")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = l.GetBool("bad")
	assert.ErrorContains(t, err, "SNIPPETCHECK_BAD")
	_, _, err = l.GetMillis("bad")
	assert.Error(t, err)
}

func TestDefaultLoader_Set(t *testing.T) {
	l := NewLoader()
	t.Setenv("SNIPPETCHECK_MY_VAR", "")
	require.NoError(t, l.Set("my_var", "my_value"))
	assert.Equal(t, "my_value", os.Getenv("SNIPPETCHECK_MY_VAR"))
	assert.Equal(t, "my_value", l.Get("my_var"))
}

func TestDefaultLoader_All(t *testing.T) {
	l := NewLoader()
	l.vars["A"] = "1"

	all := l.All()
	assert.Equal(t, "1", all["A"])

	all["C"] = "3"
	assert.Empty(t, l.vars["C"])
}
