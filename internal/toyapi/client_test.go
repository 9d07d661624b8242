package toyapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/toybox/internal/toy"
)

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        string
}

func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var reqs []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		reqs = append(reqs, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(data),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestClientList(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `[{"id":1,"name":"Bear","image":"u","likes":0}]`)
	c := New(srv.URL)

	toys, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, toys, 1)
	assert.Equal(t, toy.NumericID(1), toys[0].ID)
	assert.Equal(t, "Bear", toys[0].Name)
	assert.Equal(t, 0, toys[0].Likes)

	require.Len(t, *reqs, 1)
	assert.Equal(t, http.MethodGet, (*reqs)[0].Method)
	assert.Equal(t, "/toys", (*reqs)[0].Path)
}

func TestClientListEmptyArray(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `null`)
	toys, err := New(srv.URL).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, toys)
	assert.Empty(t, toys)
}

func TestClientCreate(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusCreated, `{"id":5,"name":"Robot","image":"http://x/y","likes":0}`)
	c := New(srv.URL + "/")

	created, err := c.Create(context.Background(), toy.NewDraft("Robot", "http://x/y"))
	require.NoError(t, err)
	assert.Equal(t, toy.NumericID(5), created.ID)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/toys", req.Path)
	assert.Equal(t, "application/json", req.ContentType)
	assert.JSONEq(t, `{"name":"Robot","image":"http://x/y","likes":0}`, req.Body)
}

func TestClientDeleteIgnoresBody(t *testing.T) {
	for _, body := range []string{"", "{}", "not json at all"} {
		srv, reqs := newTestServer(t, http.StatusOK, body)
		err := New(srv.URL).Delete(context.Background(), toy.NumericID(3))
		require.NoError(t, err, "body %q", body)
		assert.Equal(t, http.MethodDelete, (*reqs)[0].Method)
		assert.Equal(t, "/toys/3", (*reqs)[0].Path)
	}
}

func TestClientUpdateLikes(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{"id":2,"name":"Renamed","image":"z","likes":5}`)

	updated, err := New(srv.URL).UpdateLikes(context.Background(), toy.NumericID(2), 5)
	require.NoError(t, err)
	assert.Equal(t, toy.Toy{ID: toy.NumericID(2), Name: "Renamed", Image: "z", Likes: 5}, updated)

	req := (*reqs)[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "/toys/2", req.Path)
	assert.JSONEq(t, `{"likes":5}`, req.Body)
}

func TestClientEscapesStringIDs(t *testing.T) {
	srv, reqs := newTestServer(t, http.StatusOK, `{}`)
	require.NoError(t, New(srv.URL).Delete(context.Background(), toy.StringID("a b")))
	assert.Equal(t, "/toys/a b", (*reqs)[0].Path)
}

func TestClientErrors(t *testing.T) {
	t.Run("non-2xx", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusInternalServerError, `{"id":1}`)
		_, err := New(srv.URL).List(context.Background())
		require.Error(t, err)
		assert.True(t, IsStatus(err))
		assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	})

	t.Run("not found", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusNotFound, `{}`)
		err := New(srv.URL).Delete(context.Background(), toy.NumericID(9))
		assert.True(t, IsStatus(err))
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
	})

	t.Run("malformed json", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `[{"id":`)
		_, err := New(srv.URL).List(context.Background())
		require.Error(t, err)
		assert.True(t, IsDecode(err))
		assert.False(t, IsStatus(err))
	})

	t.Run("transport", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `[]`)
		srv.Close()
		_, err := New(srv.URL).List(context.Background())
		require.Error(t, err)
		assert.True(t, IsTransport(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv, _ := newTestServer(t, http.StatusOK, `[]`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(srv.URL).List(ctx)
		require.Error(t, err)
		assert.True(t, IsTransport(err))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithTimeout(50*time.Millisecond)).List(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Method: http.MethodPatch, Path: "/toys/1", StatusCode: 502}
	assert.Equal(t, "PATCH /toys/1: server returned status 502", err.Error())
	assert.Equal(t, 0, StatusCode(ErrDecode))
}
