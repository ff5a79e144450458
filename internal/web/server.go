// Package web serves the rendered tree over HTTP: JSON for programmatic
// consumers and the plain box-drawing rendering for everything else.
package web

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"larch/internal/colors"
	"larch/internal/source"
	"larch/internal/tree"
	"larch/pkg/types"
)

// TreeJSON is the wire form of one tree node.
type TreeJSON struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Size       int64       `json:"size,omitempty"`
	LinkTarget string      `json:"linkTarget,omitempty"`
	Children   []*TreeJSON `json:"children,omitempty"`
}

// Server exposes a directory root over HTTP. Requests may only name paths
// beneath that root.
type Server struct {
	root  string
	table *colors.Table
}

// NewServer creates a server rooted at dir.
func NewServer(dir string, table *colors.Table) *Server {
	return &Server{root: dir, table: table}
}

// Router builds the gin engine with the tree routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	api := r.Group("/api")
	{
		api.GET("/tree", s.GetTreeJSON)
	}
	r.GET("/tree", s.GetTreeText)
	return r
}

// Run starts serving on addr, blocking until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

// resolve maps the optional ?path= query onto a directory under the root,
// refusing anything that escapes it.
func (s *Server) resolve(c *gin.Context) (string, string, bool) {
	rel := filepath.Clean("/" + c.Query("path"))
	if strings.Contains(rel, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return "", "", false
	}
	label := s.root
	if rel != "/" {
		label = filepath.Join(s.root, rel)
	}
	return label, label, true
}

// GetTreeJSON returns the directory tree as nested JSON.
func (s *Server) GetTreeJSON(c *gin.Context) {
	dir, label, ok := s.resolve(c)
	if !ok {
		return
	}
	t, err := s.build(dir, label)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	root := toJSON(t.Root)
	root.Name = t.Label
	c.JSON(http.StatusOK, root)
}

// GetTreeText returns the same rendering the CLI prints, colorless.
func (s *Server) GetTreeText(c *gin.Context) {
	dir, label, ok := s.resolve(c)
	if !ok {
		return
	}
	t, err := s.build(dir, label)
	if err != nil {
		c.String(http.StatusNotFound, "error: %s\n", err.Error())
		return
	}
	lines := t.Render(s.table, tree.RenderOptions{})
	c.String(http.StatusOK, strings.Join(lines, "\n")+"\n")
}

func (s *Server) build(dir, label string) (*tree.Tree, error) {
	src, err := source.NewFilesystem(dir)
	if err != nil {
		return nil, err
	}
	return tree.Build(label, tree.Disk, src)
}

func toJSON(n *tree.Node) *TreeJSON {
	kind := n.Kind
	if n.IsDir() && kind != types.Symlink {
		kind = types.Directory
	}
	out := &TreeJSON{
		Name: n.Name,
		Kind: kind.String(),
	}
	if n.Meta != nil {
		out.Size = n.Meta.Size
		out.LinkTarget = n.Meta.LinkTarget
	}
	for _, child := range n.SortedChildren() {
		out.Children = append(out.Children, toJSON(child))
	}
	return out
}
