package tracing

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// HTTPMiddleware creates Gin middleware that times each request as a hop
// and answers with the merged summary header. Requests for skipPaths are
// passed through untimed.
func HTTPMiddleware(coordinator *Coordinator, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if !coordinator.Active() || skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		hop, ctx := coordinator.Begin(c.Request.Context(), requestURL(c.Request), c.GetHeader(coordinator.HeaderName()))
		c.Request = c.Request.WithContext(ctx)

		w := &hopWriter{ResponseWriter: c.Writer, coordinator: coordinator, hop: hop}
		c.Writer = w

		c.Next()

		// Handlers that never wrote a body still get the header.
		w.finish()
	}
}

// hopWriter finishes the hop right before the response headers are sent.
type hopWriter struct {
	gin.ResponseWriter
	coordinator *Coordinator
	hop         *Hop
	once        sync.Once
}

func (w *hopWriter) finish() {
	w.once.Do(func() {
		if w.ResponseWriter.Written() {
			return
		}
		// A handler may have copied a downstream summary onto its own
		// response without going through the propagating transport.
		if w.hop.Outbound() == "" {
			w.hop.Observe(w.ResponseWriter.Header().Get(w.coordinator.HeaderName()))
		}
		if value, ok := w.coordinator.Finish(w.hop, w.ResponseWriter.Status()); ok {
			w.ResponseWriter.Header().Set(w.coordinator.HeaderName(), value)
		}
	})
}

func (w *hopWriter) WriteHeaderNow() {
	w.finish()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *hopWriter) Write(data []byte) (int, error) {
	w.finish()
	return w.ResponseWriter.Write(data)
}

func (w *hopWriter) WriteString(s string) (int, error) {
	w.finish()
	return w.ResponseWriter.WriteString(s)
}

func (w *hopWriter) Flush() {
	w.finish()
	w.ResponseWriter.Flush()
}

// requestURL rebuilds the absolute URL the client asked for.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
