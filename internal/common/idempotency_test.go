package common

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdem(t *testing.T) Idem {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Idem{R: client, TTL: time.Minute}
}

func TestIdemRejectsReplay(t *testing.T) {
	idem := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(IdempotencyHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusCreated, send("/api/v1/users/u1/confirm-order"))
	require.Equal(t, http.StatusConflict, send("/api/v1/users/u1/confirm-order"))
	require.Equal(t, http.StatusCreated, send("/api/v1/users/u2/confirm-order"))
	require.Equal(t, 2, calls)
}

func TestIdemReleasesKeyAfterServerError(t *testing.T) {
	idem := newIdem(t)
	status := http.StatusInternalServerError
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(IdempotencyHeader, "k")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	status = http.StatusOK
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIdemPassThroughWithoutHeader(t *testing.T) {
	idem := Idem{}
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPaginate(t *testing.T) {
	s := []int{1, 2, 3, 4, 5}
	require.Equal(t, []int{3, 4}, Paginate(s, 2, 2))
	require.Equal(t, []int{5}, Paginate(s, 3, 2))
	require.Empty(t, Paginate(s, 4, 2))

	req := httptest.NewRequest(http.MethodGet, "/?page=0&limit=500", nil)
	page, per := ParsePagination(req, 20, 100)
	require.Equal(t, 1, page)
	require.Equal(t, 100, per)
}
