package httpmiddleware

import (
	"net/http"
	"strings"

	"github.com/klauspost/pgzip"
)

// Gzip compresses response bodies for clients accepting gzip. Responses
// without a body (204, 304, HEAD) are passed through.
func Gzip(level int) Middleware {
	if level < pgzip.DefaultCompression || level > pgzip.BestCompression {
		level = pgzip.DefaultCompression
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			if r.Method == http.MethodHead || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w, level: level}
			defer gw.close()
			next.ServeHTTP(gw, r)
		})
	}
}

func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		enc, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			continue
		}
		return strings.ReplaceAll(strings.TrimSpace(params), " ", "") != "q=0"
	}
	return false
}

type gzipWriter struct {
	http.ResponseWriter
	level       int
	gz          *pgzip.Writer
	wroteHeader bool
	compress    bool
}

func (g *gzipWriter) WriteHeader(code int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true

	h := g.Header()
	if code >= http.StatusOK && code != http.StatusNoContent && code != http.StatusNotModified &&
		h.Get("Content-Encoding") == "" {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		g.compress = true
	}
	g.ResponseWriter.WriteHeader(code)
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if !g.compress {
		return g.ResponseWriter.Write(p)
	}
	if err := g.init(); err != nil {
		return 0, err
	}
	return g.gz.Write(p)
}

func (g *gzipWriter) init() error {
	if g.gz != nil {
		return nil
	}
	gz, err := pgzip.NewWriterLevel(g.ResponseWriter, g.level)
	if err != nil {
		return err
	}
	g.gz = gz
	return nil
}

func (g *gzipWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}

// close flushes the gzip stream. A response announced as gzip without a body
// still gets a valid empty stream.
func (g *gzipWriter) close() {
	if g.compress && g.init() != nil {
		return
	}
	if g.gz != nil {
		_ = g.gz.Close()
	}
}
