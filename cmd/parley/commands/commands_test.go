package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type request struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeOpenAI answers with "echo:<last message>", streamed when asked.
// It records the history length of the last request in seen.
func fakeOpenAI(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var seen atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if !assert.NoError(t, err) {
			return
		}
		var req request
		if !assert.NoError(t, json.Unmarshal(data, &req)) {
			return
		}
		seen.Store(int32(len(req.Messages)))
		reply := "echo:" + req.Messages[len(req.Messages)-1].Content
		if req.Stream {
			_, _ = fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\ndata: [DONE]\n\n", reply)
			return
		}
		_, _ = fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func setEnv(t *testing.T, endpoint string) {
	t.Helper()
	for _, kv := range os.Environ() {
		if k, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "PARLEY_") {
			t.Setenv(k, "")
			os.Unsetenv(k)
		}
	}
	t.Setenv("PARLEY_DEFAULT_PROVIDER", "openai")
	t.Setenv("PARLEY_CREDENTIALS__OPENAI", "sk-test")
	t.Setenv("PARLEY_ENDPOINTS__OPENAI", endpoint)
}

func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := New(strings.NewReader(input), &out)
	cmd.ErrWriter = io.Discard
	err := cmd.Run(context.Background(), append([]string{"parley"}, args...))
	return out.String(), err
}

func TestAsk(t *testing.T) {
	srv, _ := fakeOpenAI(t)
	setEnv(t, srv.URL)

	t.Run("plain", func(t *testing.T) {
		out, err := run(t, "", "ask", "hello", "there")
		require.NoError(t, err)
		assert.Contains(t, out, "echo:hello there")
	})

	t.Run("stream", func(t *testing.T) {
		out, err := run(t, "", "ask", "--stream", "hi")
		require.NoError(t, err)
		assert.Contains(t, out, "echo:hi")
	})

	t.Run("dump", func(t *testing.T) {
		out, err := run(t, "", "ask", "--dump", "--system", "Be terse.", "hi")
		require.NoError(t, err)
		assert.Contains(t, out, "Be terse.")
	})

	t.Run("no prompt", func(t *testing.T) {
		_, err := run(t, "", "ask")
		require.Error(t, err)
	})

	t.Run("missing credential", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := run(t, "", "ask", "--provider", "anthropic", "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing credential")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := run(t, "", "--log-level", "loud", "ask", "hi")
		require.Error(t, err)
	})
}

func TestBatch(t *testing.T) {
	srv, _ := fakeOpenAI(t)
	setEnv(t, srv.URL)

	out, err := run(t, "", "batch", "one", "two", "three")
	require.NoError(t, err)

	first := strings.Index(out, "echo:one")
	second := strings.Index(out, "echo:two")
	third := strings.Index(out, "echo:three")
	require.True(t, first >= 0 && second >= 0 && third >= 0, out)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	_, err = run(t, "", "batch")
	require.Error(t, err)
}

func TestChat(t *testing.T) {
	srv, seen := fakeOpenAI(t)
	setEnv(t, srv.URL)

	t.Run("turns until exit", func(t *testing.T) {
		out, err := run(t, "first\n\nsecond\nexit\nignored\n", "chat")
		require.NoError(t, err)
		assert.Contains(t, out, "echo:first")
		assert.Contains(t, out, "echo:second")
		assert.NotContains(t, out, "echo:ignored")
	})

	t.Run("session resumes across runs", func(t *testing.T) {
		t.Setenv("PARLEY_SIDE_STORE__ENABLED", "true")
		t.Setenv("PARLEY_SIDE_STORE__PATH", filepath.Join(t.TempDir(), "sessions.db"))

		_, err := run(t, "remember me\n", "chat", "--session", "work")
		require.NoError(t, err)

		_, err = run(t, "again\n", "chat", "--session", "work")
		require.NoError(t, err)
		// system, first user, first reply, second user
		assert.EqualValues(t, 4, seen.Load())
	})
}
