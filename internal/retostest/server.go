package retostest

import (
	"net/http/httptest"
	"testing"
)

// Server is a Backend listening on a local httptest server.
type Server struct {
	*Backend
	URL string
}

// Start serves a fresh Backend until the test ends.
func Start(tb testing.TB, opts Options) *Server {
	tb.Helper()
	b := New(opts)
	ts := httptest.NewServer(b.Handler())
	tb.Cleanup(ts.Close)
	return &Server{Backend: b, URL: ts.URL}
}
