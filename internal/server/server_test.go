package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

type testFrame struct {
	Type    string               `json:"type"`
	Text    string               `json:"text"`
	History []engine.ChatMessage `json:"history"`
	Event   *engine.Event        `json:"event"`
}

// scriptedModel asks for Echo once, then answers with the observation.
func scriptedModel() engine.LanguageModel {
	return engine.ModelFunc(func(_ context.Context, msgs []engine.ChatMessage, _ []string) (string, error) {
		last := msgs[len(msgs)-1]
		if strings.HasPrefix(last.Content, "Observation:") {
			return "final: " + last.Content, nil
		}
		return "ACTION: Echo[" + last.Content + "]", nil
	})
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := engine.NewRegistry(engine.LastWriteWins, zerolog.Nop())
	require.NoError(t, reg.Register(engine.NewTool("Echo", "echoes input", func(_ context.Context, q string) (string, error) {
		return "echo " + q, nil
	})))

	factory := func(hooks ...engine.Hook) (*engine.Engine, error) {
		return engine.NewBuilder().
			WithLLM(scriptedModel()).
			WithRegistry(reg).
			WithHooks(hooks...).
			Build()
	}
	srv := httptest.NewServer(New(":0", factory, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) testFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f testFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

// readUntil collects frames up to and including the first of type want.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []testFrame {
	t.Helper()
	var frames []testFrame
	for {
		f := read(t, conn)
		frames = append(frames, f)
		if f.Type == want {
			return frames
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConversation(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)

	first := read(t, conn)
	assert.Equal(t, FrameHistory, first.Type)
	assert.Empty(t, first.History)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameMessage, Text: "hello"}))
	frames := readUntil(t, conn, FrameReply)

	reply := frames[len(frames)-1]
	assert.Equal(t, "final: Observation: echo hello", reply.Text)

	var kinds []string
	for _, f := range frames[:len(frames)-1] {
		require.Equal(t, FrameEvent, f.Type)
		kinds = append(kinds, f.Event.Kind)
	}
	assert.Contains(t, kinds, "action")
	assert.Contains(t, kinds, "observation")
}

func TestResetAndErrors(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv)
	read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	f := read(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Contains(t, f.Text, "malformed frame")

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "dance"}))
	f = read(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Contains(t, f.Text, "dance")

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameMessage}))
	f = read(t, conn)
	assert.Equal(t, FrameError, f.Type)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: FrameReset}))
	f = read(t, conn)
	assert.Equal(t, FrameHistory, f.Type)
	assert.Empty(t, f.History)
}

func TestEachConnectionOwnsItsHistory(t *testing.T) {
	srv := newTestServer(t)

	a := dial(t, srv)
	read(t, a)
	require.NoError(t, a.WriteJSON(ClientFrame{Type: FrameMessage, Text: "one"}))
	readUntil(t, a, FrameReply)

	b := dial(t, srv)
	f := read(t, b)
	assert.Equal(t, FrameHistory, f.Type)
	assert.Empty(t, f.History)
}
