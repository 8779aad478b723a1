package server

import (
	"embed"
	"io/fs"
	"mime"
	"net/http"
	"path"

	"github.com/rs/zerolog"
)

//go:embed static/js/*
var staticFiles embed.FS

// scriptHandler serves the embedded client scripts under /js/.
func (s *Server) scriptHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Join("static/js", r.PathValue("file"))
		script, err := fs.ReadFile(staticFiles, name)
		if err != nil {
			zerolog.Ctx(r.Context()).Debug().Err(err).Str("file", name).Msg("Script not found")
			http.NotFound(w, r)
			return
		}

		ctype := mime.TypeByExtension(path.Ext(name))
		if ctype == "" {
			ctype = "text/javascript; charset=utf-8"
		}
		w.Header().Set("Content-Type", ctype)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := w.Write(script); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Str("file", name).Msg("Failed to write script")
		}
	}
}
