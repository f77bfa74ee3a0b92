// Package service is the outward-facing facade: structured operations
// delegate to the workflow router, free-form chat goes to the persona,
// and conversation sessions are tracked in memory.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/emberfocus/ember/internal/graphs"
	"github.com/emberfocus/ember/internal/logging"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tools"
)

// Persona produces conversational replies. Implementations typically
// wrap a language model; tests use canned ones.
type Persona interface {
	Reply(ctx context.Context, req schema.ChatRequest, history []schema.AgentMessage) (schema.AgentMessage, error)
}

// Telemetry receives operation events. Nil-safe via the noop default.
type Telemetry interface {
	Event(name string, fields map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Event(string, map[string]any) {}

// degradedReply is sent when the persona is missing or failing. Chat
// must stay available even when the conversational layer is not.
const degradedReply = "I'm having trouble chatting right now, but your work is safe. Try a structured command, or ask me again in a moment."

// Session is one live conversation.
type Session struct {
	ID        string
	UserID    string
	History   []schema.AgentMessage
	StartedAt time.Time
	UpdatedAt time.Time
}

// Service wires the router, memory tools, and persona behind one API.
type Service struct {
	router    *graphs.Router
	mem       *tools.MemoryTools
	persona   Persona
	telemetry Telemetry
	logger    *logging.Logger
	clock     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option customizes the service instance.
type Option func(*Service)

// WithPersona attaches the conversational layer.
func WithPersona(p Persona) Option {
	return func(s *Service) { s.persona = p }
}

// WithTelemetry attaches an event sink.
func WithTelemetry(t Telemetry) Option {
	return func(s *Service) {
		if t != nil {
			s.telemetry = t
		}
	}
}

// WithLogger attaches a file logger. Nil loggers are safe.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New builds the service facade.
func New(router *graphs.Router, mem *tools.MemoryTools, opts ...Option) *Service {
	s := &Service{
		router:    router,
		mem:       mem,
		telemetry: noopTelemetry{},
		clock:     time.Now,
		sessions:  map[string]*Session{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlanMission runs the planner for the given caller context.
func (s *Service) PlanMission(ctx context.Context, c graphs.Context, req schema.PlanMissionRequest) (schema.PlanMissionResponse, error) {
	resp, err := s.router.PlanMission(ctx, c, req)
	s.telemetry.Event("plan_mission", map[string]any{"user_id": c.UserID, "ok": err == nil})
	return resp, err
}

// RunSession runs the coach for the given caller context.
func (s *Service) RunSession(ctx context.Context, c graphs.Context, req schema.RunSessionRequest) (schema.RunSessionResponse, error) {
	resp, err := s.router.RunSession(ctx, c, req)
	s.telemetry.Event("run_session", map[string]any{"user_id": c.UserID, "ok": err == nil})
	return resp, err
}

// ReflectPeriod runs the archivist for the given caller context.
func (s *Service) ReflectPeriod(ctx context.Context, c graphs.Context, req schema.ReflectPeriodRequest) (schema.ReflectPeriodResponse, error) {
	resp, err := s.router.ReflectPeriod(ctx, c, req)
	s.telemetry.Event("reflect_period", map[string]any{"user_id": c.UserID, "kind": string(req.Kind), "ok": err == nil})
	return resp, err
}

// Chat handles a free-form turn. Persona failures never fail the call;
// the reply degrades instead.
func (s *Service) Chat(ctx context.Context, c graphs.Context, req schema.ChatRequest) (schema.ChatResponse, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = c.SessionID
	}
	session := s.touchSession(sessionID, c.UserID)

	userMsg := schema.AgentMessage{Role: schema.RoleUser, Content: req.Message}
	s.appendHistory(session.ID, userMsg)

	reply := schema.AgentMessage{Role: schema.RoleAssistant, Content: degradedReply}
	degraded := true
	if s.persona != nil {
		history := s.history(session.ID)
		msg, err := s.persona.Reply(ctx, req, history)
		if err != nil {
			s.logger.Printf("service: persona reply failed: %v", err)
		} else {
			reply = msg
			degraded = false
		}
	}
	s.appendHistory(session.ID, reply)
	s.telemetry.Event("chat", map[string]any{"user_id": c.UserID, "degraded": degraded})

	return schema.ChatResponse{
		Message:        reply,
		ConversationID: req.ConversationID,
		SessionID:      session.ID,
		Degraded:       degraded,
	}, nil
}

// EndSession drops one conversation. Reports whether it existed.
func (s *Service) EndSession(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	return ok
}

// ClearSessions drops every live conversation.
func (s *Service) ClearSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = map[string]*Session{}
}

// SessionCount reports how many conversations are live.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) touchSession(sessionID, userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sessionID != "" {
		if existing, ok := s.sessions[sessionID]; ok {
			existing.UpdatedAt = s.clock().UTC()
			return existing
		}
	}
	if sessionID == "" {
		sessionID = schema.NewID()
	}
	now := s.clock().UTC()
	session := &Session{ID: sessionID, UserID: userID, StartedAt: now, UpdatedAt: now}
	s.sessions[sessionID] = session
	return session
}

func (s *Service) appendHistory(sessionID string, msg schema.AgentMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		session.History = append(session.History, msg)
		session.UpdatedAt = s.clock().UTC()
	}
}

func (s *Service) history(sessionID string) []schema.AgentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]schema.AgentMessage, len(session.History))
	copy(out, session.History)
	return out
}
