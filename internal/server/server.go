// Package server hosts duel instances over WebSocket. Each duel is an
// independent session; clients join a session, drive it with command
// messages and receive the engine's message stream in order.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/osirisengine/osiris-server-go/internal/config"
	"github.com/osirisengine/osiris-server-go/internal/duel"
	"github.com/osirisengine/osiris-server-go/internal/duel/msg"
	"github.com/osirisengine/osiris-server-go/internal/duel/replay"
	"github.com/osirisengine/osiris-server-go/internal/duel/script"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Command is an inbound client message.
type Command struct {
	Type   string          `json:"type"`
	DuelID string          `json:"duel_id,omitempty"`
	Token  string          `json:"token,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound server message.
type Event struct {
	Type   string `json:"type"`
	DuelID string `json:"duel_id,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// CreateRequest starts a new duel session.
type CreateRequest struct {
	Seed    uint32       `json:"seed"`
	StartLP int32        `json:"start_lp,omitempty"`
	Decks   [2][]uint32  `json:"decks"`
}

// ResumeRequest answers a pending decision.
type ResumeRequest struct {
	Response duel.Response `json:"response"`
}

// Server manages duel sessions and their WebSocket clients.
type Server struct {
	logger   *zap.Logger
	cfg      config.ServerConfig
	provider duel.CardProvider
	scripts  script.Source
	startLP  int32
	recorder *replay.Recorder

	mu       sync.RWMutex
	sessions map[string]*session
}

type session struct {
	duel  *duel.Duel
	seed  uint32
	decks [2][]uint32

	mu      sync.Mutex
	clients map[*client]bool
	// awaiting is the decision last handed out, kept so replay steps
	// can record who answered what kind of decision.
	awaiting *duel.Decision
}

func (sess *session) decision() *duel.Decision {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.awaiting
}

func (sess *session) setDecision(dec *duel.Decision) {
	sess.mu.Lock()
	sess.awaiting = dec
	sess.mu.Unlock()
}

// New creates a duel server. recorder may be nil to disable replay
// recording.
func New(cfg config.ServerConfig, startLP int32, provider duel.CardProvider, scripts script.Source, recorder *replay.Recorder, logger *zap.Logger) *Server {
	return &Server{
		logger:   logger,
		cfg:      cfg,
		provider: provider,
		scripts:  scripts,
		startLP:  startLP,
		recorder: recorder,
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{
		server: s,
		conn:   conn,
		send:   make(chan []byte, 256),
	}
	go c.writePump()
	go c.readPump()
}

func (s *Server) handleCommand(c *client, cmd Command) {
	switch cmd.Type {
	case "create_duel":
		s.createDuel(c, cmd)
	case "join_duel":
		s.joinDuel(c, cmd)
	case "start":
		s.startDuel(c, cmd)
	case "resume":
		s.resumeDuel(c, cmd)
	default:
		c.sendEvent(Event{Type: "error", Data: fmt.Sprintf("unknown command %q", cmd.Type)})
	}
}

func (s *Server) createDuel(c *client, cmd Command) {
	var req CreateRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		c.sendEvent(Event{Type: "error", Data: "bad create_duel payload"})
		return
	}
	startLP := req.StartLP
	if startLP <= 0 {
		startLP = s.startLP
	}

	d, err := duel.New(duel.Config{
		Seed:     req.Seed,
		StartLP:  startLP,
		Decks:    req.Decks,
		Provider: s.provider,
		Scripts:  s.scripts,
		Logger:   s.logger.Named("duel"),
	})
	if err != nil {
		c.sendEvent(Event{Type: "error", Data: err.Error()})
		return
	}

	sess := &session{
		duel:    d,
		seed:    req.Seed,
		decks:   req.Decks,
		clients: make(map[*client]bool),
	}
	sess.clients[c] = true
	c.duelID = d.ID()

	// Forward every engine message to all session clients, in order.
	d.SetSink(func(m msg.Message) {
		sess.broadcast(Event{
			Type:   "duel_message",
			DuelID: d.ID(),
			Kind:   m.MessageKind().String(),
			Data:   m,
		})
	})

	// Check and insert under one lock so concurrent creates cannot
	// exceed the limit.
	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxDuels {
		s.mu.Unlock()
		c.sendEvent(Event{Type: "error", Data: "duel limit reached"})
		return
	}
	s.sessions[d.ID()] = sess
	s.mu.Unlock()

	if s.recorder != nil {
		s.recorder.StartRecording(d.ID(), req.Seed, req.Decks)
	}

	s.logger.Info("duel created",
		zap.String("duel_id", d.ID()),
		zap.Uint32("seed", req.Seed),
	)
	c.sendEvent(Event{Type: "created", DuelID: d.ID()})
}

func (s *Server) joinDuel(c *client, cmd Command) {
	sess, ok := s.session(cmd.DuelID)
	if !ok {
		c.sendEvent(Event{Type: "error", Data: "no such duel"})
		return
	}
	sess.mu.Lock()
	sess.clients[c] = true
	sess.mu.Unlock()
	c.duelID = cmd.DuelID
	c.sendEvent(Event{Type: "joined", DuelID: cmd.DuelID})
}

func (s *Server) startDuel(c *client, cmd Command) {
	sess, ok := s.session(c.duelID)
	if !ok {
		c.sendEvent(Event{Type: "error", Data: "not in a duel"})
		return
	}
	result, err := sess.duel.Start()
	s.deliverResult(c, sess, result, err)
}

func (s *Server) resumeDuel(c *client, cmd Command) {
	sess, ok := s.session(c.duelID)
	if !ok {
		c.sendEvent(Event{Type: "error", Data: "not in a duel"})
		return
	}
	var req ResumeRequest
	if err := json.Unmarshal(cmd.Data, &req); err != nil {
		c.sendEvent(Event{Type: "error", Data: "bad resume payload"})
		return
	}
	asked := sess.decision()
	result, err := sess.duel.Resume(cmd.Token, req.Response)
	if s.recorder != nil && decisionConsumed(err) {
		step := replay.Step{Token: cmd.Token, Response: req.Response}
		if asked != nil {
			step.Player = asked.Player
			step.Kind = asked.Kind
		}
		s.recorder.Record(sess.duel.ID(), step)
	}
	s.deliverResult(c, sess, result, err)
}

// decisionConsumed reports whether a Resume outcome actually fed the
// response into the engine. Rejected responses still count: the engine
// re-asks with fresh messages, so playback must replay the rejection
// to reproduce the stream. Only a token mismatch, a finished duel or a
// poisoned instance leaves the engine untouched.
func decisionConsumed(err error) bool {
	if err == nil {
		return true
	}
	if ia, ok := duel.AsIllegal(err); ok {
		return ia.Code != duel.ReasonBadToken && ia.Code != duel.ReasonDuelOver
	}
	return false
}

func (s *Server) deliverResult(c *client, sess *session, result duel.Result, err error) {
	if err != nil {
		if ia, ok := duel.AsIllegal(err); ok {
			c.sendEvent(Event{Type: "rejected", DuelID: sess.duel.ID(), Data: ia})
		} else if errors.Is(err, duel.ErrPoisoned) {
			c.sendEvent(Event{Type: "error", DuelID: sess.duel.ID(), Data: "duel unavailable"})
			s.closeSession(sess)
			return
		} else {
			s.logger.Error("duel failed", zap.String("duel_id", sess.duel.ID()), zap.Error(err))
			c.sendEvent(Event{Type: "error", DuelID: sess.duel.ID(), Data: "internal error"})
			s.closeSession(sess)
			return
		}
	}

	switch result.Status {
	case duel.StatusAwaiting:
		if result.Decision != nil {
			sess.setDecision(result.Decision)
			sess.broadcast(Event{Type: "awaiting", DuelID: sess.duel.ID(), Data: result.Decision})
		}
	case duel.StatusOver:
		if over, winner := sess.duel.Over(); over {
			sess.broadcast(Event{Type: "over", DuelID: sess.duel.ID(), Data: winner})
			if s.recorder != nil {
				if err := s.recorder.Save(sess.duel.ID()); err != nil {
					s.logger.Warn("replay save failed", zap.Error(err))
				}
				s.recorder.Discard(sess.duel.ID())
			}
			s.closeSession(sess)
		}
	}
}

func (s *Server) session(duelID string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[duelID]
	return sess, ok
}

func (s *Server) closeSession(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess.duel.ID())
	s.mu.Unlock()
	sess.duel.Close()
}

func (s *Server) dropClient(c *client) {
	if c.duelID == "" {
		return
	}
	if sess, ok := s.session(c.duelID); ok {
		sess.mu.Lock()
		delete(sess.clients, c)
		sess.mu.Unlock()
	}
}

func (sess *session) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for c := range sess.clients {
		if !c.enqueue(data) {
			delete(sess.clients, c)
		}
	}
}
