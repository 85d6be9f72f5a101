package goserver

import (
	"path/filepath"
	"strings"

	"github.com/kfcemployee/goserver/internal/message"
)

// File registers a GET route at path that always streams the single file at
// diskPath through ResponseBuilder.File.
func (s *Server) File(path, diskPath string) {
	s.Get(path, func(req *message.Request, resp *message.ResponseBuilder) {
		resp.File(diskPath, "")
	})
}

// Static registers a GET route at prefix+"/*filepath" that serves files out
// of dir, joining the requested path onto dir the same way
// net/http.FileServer does and rejecting any ".." segment in the request so
// a handler can never be made to stream a file outside dir.
func (s *Server) Static(prefix, dir string) {
	prefix = strings.TrimSuffix(prefix, "/")
	s.Get(prefix+"/*filepath", func(req *message.Request, resp *message.ResponseBuilder) {
		rel, _ := req.Param("filepath")
		if containsTraversal(rel) {
			resp.Status(403).JSON([]byte(`{"error":"forbidden"}`))
			return
		}
		resp.File(filepath.Join(dir, rel), "")
	})
}

func containsTraversal(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}
