// Package web serves the browser interface: a minimal page, a health check
// and a websocket feed that mirrors the orchestrator's events in real time.
package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/coordinator"
	"github.com/professai/aitril/internal/deploy"
	"github.com/professai/aitril/internal/orchestrator"
)

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>AiTril - Multi-Agent Orchestration</title>
</head>
<body>
<div id="app"></div>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (msg) => {
  const el = document.createElement("pre");
  el.textContent = msg.data;
  document.getElementById("app").appendChild(el);
};
</script>
</body>
</html>
`

// inbound is a client message: either a prompt to run or a deployment choice
// for the last build.
type inbound struct {
	Type     string `json:"type,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Provider string `json:"provider,omitempty"`
	Session  string `json:"session,omitempty"`
	Target   string `json:"target,omitempty"`
}

// Server is the web observer. Each inbound prompt runs against a fresh
// config snapshot so edits to the config file apply without a restart.
type Server struct {
	addr       string
	upgrader   websocket.Upgrader
	loadConfig func() (*config.Config, error)
}

// New creates a server listening on the configured address.
func New(cfg *config.Config) *Server {
	return &Server{
		addr: cfg.Server.Addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The observer is local tooling; cross-origin pages may attach.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		loadConfig: config.Load,
	}
}

// Run serves until the context is cancelled, then shuts down cleanly.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ws", s.handleWS)

	srv := &http.Server{Addr: s.addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[web] listening on %s", s.addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy","service":"aitril-web"}`))
}

// wsConn wraps a websocket with serialized writes and the connection's
// pending build state.
type wsConn struct {
	sock    *websocket.Conn
	mu      sync.Mutex
	pending *artifact.Registry
}

func (c *wsConn) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock.WriteJSON(v)
}

func (c *wsConn) sendEvent(ev orchestrator.Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if err := c.send(ev); err != nil {
		log.Printf("[web] send failed: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] upgrade failed: %v", err)
		return
	}
	conn := &wsConn{sock: sock}
	defer sock.Close()

	conn.sendEvent(orchestrator.Event{Type: orchestrator.EventConnected})

	for {
		var msg inbound
		if err := sock.ReadJSON(&msg); err != nil {
			return
		}

		if msg.Type == "deployment_selected" {
			s.handleDeployment(r.Context(), conn, msg.Target)
			continue
		}
		if msg.Prompt == "" {
			conn.sendEvent(orchestrator.Event{
				Type:  orchestrator.EventStatusMessage,
				Error: "empty prompt",
			})
			continue
		}
		s.handlePrompt(r.Context(), conn, msg)
	}
}

// handlePrompt runs one mode against a fresh config snapshot, forwarding the
// orchestrator's feed to the client as it happens.
func (s *Server) handlePrompt(ctx context.Context, conn *wsConn, msg inbound) {
	mode := msg.Mode
	if mode == "" {
		mode = "tri"
	}

	conn.sendEvent(orchestrator.Event{
		Type:    orchestrator.EventMessageReceived,
		Content: msg.Prompt,
		Mode:    mode,
	})

	cfg, err := s.loadConfig()
	if err != nil {
		conn.sendEvent(orchestrator.Event{
			Type:  orchestrator.EventStatusMessage,
			Error: "configuration error: " + err.Error(),
		})
		return
	}

	orch := orchestrator.New(cfg)
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for ev := range orch.Events() {
			conn.sendEvent(ev)
		}
	}()

	s.runMode(ctx, conn, orch, mode, msg)

	orch.Close()
	<-forwarded
}

func (s *Server) runMode(ctx context.Context, conn *wsConn, orch *orchestrator.Orchestrator, mode string, msg inbound) {
	coord := coordinator.New(orch)

	switch mode {
	case "ask":
		if msg.Provider == "" {
			orch.Emit(orchestrator.Event{
				Type:  orchestrator.EventStatusMessage,
				Error: "ask mode requires a provider",
			})
			return
		}
		orch.Run(ctx, msg.Provider, msg.Prompt)

	case "tri", "parallel":
		if _, err := coord.Run(ctx, coordinator.StrategyParallel, msg.Prompt); err != nil {
			s.reportError(orch, err)
		}

	case "sequential", "consensus", "debate", "specialist":
		strategy, err := coordinator.ParseStrategy(mode)
		if err != nil {
			s.reportError(orch, err)
			return
		}
		if _, err := coord.Run(ctx, strategy, msg.Prompt); err != nil {
			s.reportError(orch, err)
		}

	case "build":
		res, err := coord.Build(ctx, msg.Prompt)
		if err != nil {
			s.reportError(orch, err)
			return
		}
		conn.pending = res.Artifacts

	default:
		orch.Emit(orchestrator.Event{
			Type:  orchestrator.EventStatusMessage,
			Error: "unknown mode: " + mode,
		})
	}
}

func (s *Server) reportError(orch *orchestrator.Orchestrator, err error) {
	orch.Emit(orchestrator.Event{
		Type:  orchestrator.EventStatusMessage,
		Error: err.Error(),
	})
}

// handleDeployment resolves a deployment choice against the last build on
// this connection.
func (s *Server) handleDeployment(ctx context.Context, conn *wsConn, target string) {
	if conn.pending == nil {
		conn.sendEvent(orchestrator.Event{
			Type:  orchestrator.EventStatusMessage,
			Error: "no build awaiting deployment",
		})
		return
	}

	cfg, err := s.loadConfig()
	if err != nil {
		conn.sendEvent(orchestrator.Event{
			Type:  orchestrator.EventStatusMessage,
			Error: "configuration error: " + err.Error(),
		})
		return
	}

	selector := deploy.NewSelector(cfg, conn.sendEvent)
	if _, err := selector.Deploy(ctx, target, conn.pending.Current()); err != nil {
		conn.sendEvent(orchestrator.Event{
			Type:   orchestrator.EventStatusMessage,
			Target: target,
			Error:  err.Error(),
		})
		return
	}
	// A finished deployment (skip included) resolves the pending build.
	conn.pending = nil
}
