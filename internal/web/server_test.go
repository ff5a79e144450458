package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"larch/internal/colors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveFixture(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0o644))
	return NewServer(root, colors.Empty())
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	s.Router().ServeHTTP(w, req)
	return w
}

func TestGetTreeJSON(t *testing.T) {
	s := serveFixture(t)
	w := get(t, s, "/api/tree")
	require.Equal(t, http.StatusOK, w.Code)

	var root TreeJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, s.root, root.Name)
	assert.Equal(t, "directory", root.Kind)
	require.Len(t, root.Children, 2)

	// children are sorted by name
	assert.Equal(t, "a.txt", root.Children[0].Name)
	assert.Equal(t, "file", root.Children[0].Kind)
	assert.Equal(t, int64(4), root.Children[0].Size)
	assert.Equal(t, "sub", root.Children[1].Name)
	assert.Equal(t, "directory", root.Children[1].Kind)
	require.Len(t, root.Children[1].Children, 1)
	assert.Equal(t, "b.txt", root.Children[1].Children[0].Name)
}

func TestGetTreeJSONSubPath(t *testing.T) {
	s := serveFixture(t)
	w := get(t, s, "/api/tree?path=sub")
	require.Equal(t, http.StatusOK, w.Code)

	var root TreeJSON
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &root))
	assert.Equal(t, filepath.Join(s.root, "sub"), root.Name)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "b.txt", root.Children[0].Name)
}

func TestGetTreeJSONCannotEscapeRoot(t *testing.T) {
	s := serveFixture(t)
	// ".." collapses against the root instead of escaping it, so this
	// resolves to <root>/etc, which does not exist
	w := get(t, s, "/api/tree?path=../../../etc")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTreeJSONMissing(t *testing.T) {
	s := serveFixture(t)
	w := get(t, s, "/api/tree?path=nonexistent")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTreeText(t *testing.T) {
	s := serveFixture(t)
	w := get(t, s, "/tree")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, s.root, lines[0])
	assert.Equal(t, "├── a.txt", lines[1])
	assert.Equal(t, "└── sub", lines[2])
	assert.Equal(t, "    └── b.txt", lines[3])
	// no ANSI escapes without a color table
	assert.NotContains(t, body, "\x1b[")
}
