package gateway

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcr5fh/nova-voice/pkg/engine"
	"github.com/mcr5fh/nova-voice/pkg/retry"
	"github.com/mcr5fh/nova-voice/pkg/session"
	"github.com/mcr5fh/nova-voice/pkg/specdoc"
	"github.com/mcr5fh/nova-voice/pkg/speech"
)

// ServerOptions configures the websocket server.
type ServerOptions struct {
	Manager     *session.Manager
	Engine      engine.Engine
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer
	Specs       *specdoc.Writer
	Policy      retry.Policy

	// MaxUtteranceBytes caps one buffered utterance per connection.
	MaxUtteranceBytes int

	Logger *slog.Logger
}

// Server exposes the protocol over a websocket endpoint plus a
// liveness probe. One Conn is created per socket.
type Server struct {
	opts     ServerOptions
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewServer creates the server.
func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		opts: opts,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from a separately served
			// front end; origin policy is left to the deployment.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the http handler: GET /healthz liveness (OK while
// the process is alive, no readiness semantics) and /ws for the
// protocol.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer ws.Close()

	var writeMu sync.Mutex
	conn := NewConn(ConnOptions{
		Manager:           s.opts.Manager,
		Engine:            s.opts.Engine,
		Transcriber:       s.opts.Transcriber,
		Synthesizer:       s.opts.Synthesizer,
		Specs:             s.opts.Specs,
		Policy:            s.opts.Policy,
		MaxUtteranceBytes: s.opts.MaxUtteranceBytes,
		Logger:            s.log,
		Send: func(env *Envelope) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			return ws.WriteJSON(env)
		},
	})
	defer conn.Close()

	s.log.Info("connection opened", "conn", conn.ID(), "remote", r.RemoteAddr)

	// Messages dispatch serially off an inbox so one turn is in flight
	// at a time, while the read loop stays free to land stop_speaking
	// (a flag set) mid-turn.
	ctx := r.Context()
	inbox := make(chan *Envelope, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for env := range inbox {
			conn.Dispatch(ctx, env)
		}
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		env, perr := ParseEnvelope(raw)
		if perr != nil {
			conn.replyError(retry.New(retry.CodeInvalidMessage, "malformed message envelope"))
			continue
		}
		if env.Type == TypeStopSpeaking {
			conn.Stop()
			continue
		}
		inbox <- env
	}
	close(inbox)
	<-done

	s.log.Info("connection closed", "conn", conn.ID(), "session", conn.SessionID())
}
