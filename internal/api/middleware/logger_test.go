package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// hijackRecorder extends httptest.ResponseRecorder with a Hijack that
// records it was reached.
type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	return nil, nil, nil
}

func TestResponseWriterForwardsHijack(t *testing.T) {
	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := newResponseWriter(rec)

	hj, ok := interface{}(rw).(http.Hijacker)
	if !ok {
		t.Fatal("wrapped writer does not implement http.Hijacker")
	}
	if _, _, err := hj.Hijack(); err != nil {
		t.Fatalf("hijack: %v", err)
	}
	if !rec.hijacked {
		t.Error("hijack did not reach the underlying writer")
	}
}

func TestResponseWriterHijackUnsupported(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())
	if _, _, err := rw.Hijack(); err == nil {
		t.Fatal("expected error when underlying writer cannot hijack")
	}
}

func TestLoggerWriterThroughMiddleware(t *testing.T) {
	var sawHijacker, sawFlusher bool
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawHijacker = w.(http.Hijacker)
		_, sawFlusher = w.(http.Flusher)
		w.WriteHeader(http.StatusNoContent)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	if !sawHijacker {
		t.Error("handler behind Logger lost http.Hijacker")
	}
	if !sawFlusher {
		t.Error("handler behind Logger lost http.Flusher")
	}
}
