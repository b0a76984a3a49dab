package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	client, err := NewClient(Options{BaseURL: srv.URL}, NewSession(NewMemoryCredentials(token)), logger)
	require.NoError(t, err)
	return client, srv
}

func TestCallUnwrapsEnvelope(t *testing.T) {
	var cookie string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie = r.Header.Get("Cookie")
		switch r.URL.Path {
		case "/2.2/account":
			io.WriteString(w, `{"meta":{"code":200},"data":{"name":"Home"}}`)
		case "/bare":
			io.WriteString(w, `[1,2,3]`)
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		}
	}), "tok")

	v, err := client.Call(context.Background(), http.MethodGet, "/2.2/account", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "Home", v.Get("name").String())
	assert.Equal(t, "s=tok", cookie)

	v, err = client.Call(context.Background(), http.MethodGet, "/bare", nil, false)
	require.NoError(t, err)
	assert.Len(t, v.Array(), 3)

	v, err = client.Call(context.Background(), http.MethodDelete, "/empty", nil, true)
	require.NoError(t, err)
	assert.False(t, v.Exists())
}

func TestCallAbsoluteURL(t *testing.T) {
	var hits int32
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		io.WriteString(w, `{"data":{"ok":true}}`)
	}))
	defer other.Close()

	client, _ := newTestClient(t, http.NotFoundHandler(), "tok")
	v, err := client.Call(context.Background(), http.MethodGet, other.URL+"/elsewhere", nil, false)
	require.NoError(t, err)
	assert.True(t, v.Get("ok").Bool())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCallWithoutTokenFailsFast(t *testing.T) {
	var hits int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}), "")

	_, err := client.Call(context.Background(), http.MethodGet, "/2.2/account", nil, true)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestCallServerErrorMessages(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/meta":
			w.WriteHeader(http.StatusForbidden)
			io.WriteString(w, `{"meta":{"code":403,"error":"error.network.forbidden"}}`)
		case "/message":
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"message":"bad input"}`)
		default:
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, `<html>oops</html>`)
		}
	}), "tok")

	tests := []struct {
		path    string
		code    int
		message string
	}{
		{path: "/meta", code: 403, message: "error.network.forbidden"},
		{path: "/message", code: 400, message: "bad input"},
		{path: "/other", code: 502, message: "request failed with status 502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := client.Call(context.Background(), http.MethodGet, tt.path, nil, true)
			var se *ServerError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestCallInvalidJSONBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":`)
	}), "tok")

	_, err := client.Call(context.Background(), http.MethodGet, "/x", nil, true)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCallRefreshesOnceAndRetries(t *testing.T) {
	var refreshes, attempts int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DefaultRefreshPath:
			atomic.AddInt32(&refreshes, 1)
			io.WriteString(w, `{"data":{"user_token":"fresh"}}`)
		default:
			atomic.AddInt32(&attempts, 1)
			if r.Header.Get("Cookie") != "s=fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"data":{"ok":true}}`)
		}
	}), "stale")

	v, err := client.Call(context.Background(), http.MethodGet, "/2.2/account", nil, true)
	require.NoError(t, err)
	assert.True(t, v.Get("ok").Bool())
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	token, ok := client.Session().Token()
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)
}

func TestCallAlways401IsBounded(t *testing.T) {
	var refreshes, attempts int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == DefaultRefreshPath {
			atomic.AddInt32(&refreshes, 1)
		} else {
			atomic.AddInt32(&attempts, 1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}), "stale")

	_, err := client.Call(context.Background(), http.MethodGet, "/2.2/account", nil, true)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestCallNoRetryWithoutAuth(t *testing.T) {
	var refreshes, attempts int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == DefaultRefreshPath {
			atomic.AddInt32(&refreshes, 1)
		} else {
			atomic.AddInt32(&attempts, 1)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}), "tok")

	_, err := client.Call(context.Background(), http.MethodPost, "/2.2/login", map[string]string{"login": "a@b.c"}, false)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Equal(t, int32(0), atomic.LoadInt32(&refreshes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestConcurrentRefreshesCoalesce(t *testing.T) {
	var refreshes int32
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == DefaultRefreshPath {
			atomic.AddInt32(&refreshes, 1)
			<-release
			io.WriteString(w, `{"data":{"user_token":"fresh"}}`)
			return
		}
		if r.Header.Get("Cookie") != "s=fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		io.WriteString(w, `{"data":{}}`)
	}), "stale")

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Call(context.Background(), http.MethodGet, "/2.2/networks/1", nil, true)
		}(i)
	}
	close(release)
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&refreshes), int32(4))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&refreshes), int32(1))
}

func TestCallContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}), "tok")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Call(ctx, http.MethodGet, "/2.2/account", nil, true)
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPerform(t *testing.T) {
	var method, body string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		io.WriteString(w, `{"data":{}}`)
	}), "tok")

	err := client.Perform(context.Background(), Action{
		Endpoint: "/2.2/networks/1/devices/abc",
		Method:   "put",
		Payload:  map[string]bool{"paused": true},
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.JSONEq(t, `{"paused":true}`, body)

	err = client.Perform(context.Background(), Action{Endpoint: "", Method: "POST"})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	err = client.Perform(context.Background(), Action{Endpoint: "/x", Method: "TRACE"})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "/relative"}, nil, nil)
	assert.Error(t, err)
}
