// Package server exposes the chat engine over a websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame types.
const (
	FrameMessage = "message"
	FrameReset   = "reset"
	FrameHistory = "history"
	FrameEvent   = "event"
	FrameReply   = "reply"
	FrameError   = "error"
)

// ClientFrame is sent by the browser or any other client.
type ClientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerFrame is sent by the server.
type ServerFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	// History is a []engine.ChatMessage; an empty slice is still encoded.
	History any           `json:"history,omitempty"`
	Event   *engine.Event `json:"event,omitempty"`
}

// EngineFactory builds a fresh engine for one connection. The extra hooks
// must be installed so progress events reach the client.
type EngineFactory func(hooks ...engine.Hook) (*engine.Engine, error)

// Server serves /ws and /healthz.
type Server struct {
	factory EngineFactory
	logger  zerolog.Logger
	httpSrv *http.Server
	mux     *http.ServeMux
}

// New returns a server; call ListenAndServe or mount Handler.
func New(addr string, factory EngineFactory, logger zerolog.Logger) *Server {
	s := &Server{
		factory: factory,
		logger:  logger.With().Str("component", "server").Logger(),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.httpSrv.Addr).Msg("websocket server listening")
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// safeConn serialises writes; gorilla allows one concurrent writer.
type safeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *safeConn) writeFrame(f ServerFrame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn := &safeConn{Conn: rawConn}
	defer conn.Close()

	log := s.logger.With().Str("remote", r.RemoteAddr).Logger()

	events := make(chan engine.Event, 64)
	eng, err := s.factory(engine.EventHook{Ch: events})
	if err != nil {
		log.Error().Err(err).Msg("build engine")
		_ = conn.writeFrame(ServerFrame{Type: FrameError, Text: "engine unavailable: " + err.Error()})
		return
	}

	ctx := r.Context()

	if err := conn.writeFrame(ServerFrame{Type: FrameHistory, History: nonNil(eng.History())}); err != nil {
		log.Debug().Err(err).Msg("write history")
		return
	}
	log.Info().Msg("client connected")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("client disconnected")
			return
		}

		var in ClientFrame
		if err := json.Unmarshal(data, &in); err != nil {
			_ = conn.writeFrame(ServerFrame{Type: FrameError, Text: "malformed frame: " + err.Error()})
			continue
		}

		switch in.Type {
		case FrameMessage:
			if in.Text == "" {
				_ = conn.writeFrame(ServerFrame{Type: FrameError, Text: "message text is empty"})
				continue
			}
			reply := runTurn(ctx, eng, in.Text, events, conn)
			if err := conn.writeFrame(ServerFrame{Type: FrameReply, Text: reply}); err != nil {
				log.Debug().Err(err).Msg("write reply")
				return
			}
		case FrameReset:
			eng.Reset()
			if err := conn.writeFrame(ServerFrame{Type: FrameHistory, History: []engine.ChatMessage{}}); err != nil {
				return
			}
		default:
			_ = conn.writeFrame(ServerFrame{Type: FrameError, Text: "unknown frame type: " + in.Type})
		}
	}
}

// runTurn runs one Chat call and forwards its progress events while it is in
// flight. Events still buffered when the turn ends are flushed before
// returning, so they always precede the reply frame.
func runTurn(ctx context.Context, eng *engine.Engine, text string, events <-chan engine.Event, conn *safeConn) string {
	done := make(chan string, 1)
	go func() {
		done <- eng.Chat(ctx, text)
	}()
	for {
		select {
		case ev := <-events:
			_ = conn.writeFrame(ServerFrame{Type: FrameEvent, Event: &ev})
		case reply := <-done:
			drain(events, conn)
			return reply
		}
	}
}

func drain(events <-chan engine.Event, conn *safeConn) {
	for {
		select {
		case ev := <-events:
			_ = conn.writeFrame(ServerFrame{Type: FrameEvent, Event: &ev})
		default:
			return
		}
	}
}

func nonNil(h []engine.ChatMessage) []engine.ChatMessage {
	if h == nil {
		return []engine.ChatMessage{}
	}
	return h
}
