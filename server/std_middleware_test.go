package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainMiddleware_Order(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}
	h := ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}, tag("first"), tag("second"))

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	s := &Server{}
	var logged bool
	h := s.RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
		logged = zerolog.Ctx(r.Context()).GetLevel() != zerolog.Disabled
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		_, err := uuid.Parse(w.Header().Get(headerRequestID))
		assert.NoError(t, err)
		assert.True(t, logged)
	})

	t.Run("incoming uuid kept", func(t *testing.T) {
		id := uuid.NewString()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(headerRequestID, id)
		w := httptest.NewRecorder()
		h(w, r)
		assert.Equal(t, id, w.Header().Get(headerRequestID))
	})

	t.Run("junk replaced", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(headerRequestID, "<script>")
		w := httptest.NewRecorder()
		h(w, r)
		assert.NotEqual(t, "<script>", w.Header().Get(headerRequestID))
	})
}

func TestRecoverMiddleware(t *testing.T) {
	s := &Server{}
	h := ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, s.RequestIDMiddleware, s.RecoverMiddleware)

	w := httptest.NewRecorder()
	require.NotPanics(t, func() { h(w, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRecoverMiddleware_AbortHandler(t *testing.T) {
	s := &Server{}
	h := s.RecoverMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestFrameSecurityMiddleware(t *testing.T) {
	s := &Server{}
	h := s.FrameSecurityMiddleware(func(w http.ResponseWriter, r *http.Request) {})
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

func TestStatusRecorder(t *testing.T) {
	w := httptest.NewRecorder()
	rec := recorderFor(w)
	rec.WriteHeader(http.StatusTeapot)
	rec.WriteHeader(http.StatusOK)
	assert.Equal(t, http.StatusTeapot, rec.Status())

	implicit := recorderFor(httptest.NewRecorder())
	_, _ = implicit.Write([]byte("hi"))
	assert.Equal(t, http.StatusOK, implicit.Status())
}
