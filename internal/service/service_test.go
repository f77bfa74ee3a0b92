package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emberfocus/ember/internal/graphs"
	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/tools"
)

var svcNow = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func svcClock() time.Time { return svcNow }

type stubPersona struct {
	reply schema.AgentMessage
	err   error

	mu      sync.Mutex
	history []schema.AgentMessage
}

func (p *stubPersona) Reply(ctx context.Context, req schema.ChatRequest, history []schema.AgentMessage) (schema.AgentMessage, error) {
	p.mu.Lock()
	p.history = append([]schema.AgentMessage(nil), history...)
	p.mu.Unlock()
	if p.err != nil {
		return schema.AgentMessage{}, p.err
	}
	return p.reply, nil
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (t *recordingTelemetry) Event(name string, fields map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, name)
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	bundle := memory.NewInMemory(memory.WithClock(svcClock))
	missions := tools.NewMissionTools(bundle.Missions, bundle.Semantic, tools.WithClock(svcClock))
	timeline := tools.NewTimelineTools(bundle.Blocks, tools.WithClock(svcClock))
	mem := tools.NewMemoryTools(bundle.Episodes, bundle.Profiles, bundle.Semantic, tools.WithClock(svcClock))
	ui := tools.NewUITools()

	planner := graphs.NewPlanner(missions, timeline, graphs.WithClock(svcClock))
	coach := graphs.NewCoach(missions, timeline, ui, graphs.WithClock(svcClock))
	archivist := graphs.NewArchivist(mem, missions, timeline, graphs.WithClock(svcClock))
	router := graphs.NewRouter(planner, coach, archivist, graphs.WithClock(svcClock))

	opts = append([]Option{WithClock(svcClock)}, opts...)
	return New(router, mem, opts...)
}

func caller(userID string) graphs.Context {
	return graphs.Context{UserID: userID, Timezone: "UTC", Surface: schema.SurfaceOther}
}

func TestChatWithoutPersonaDegrades(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Chat(context.Background(), caller("u1"), schema.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if !resp.Degraded {
		t.Fatalf("expected degraded response")
	}
	if resp.Message.Role != schema.RoleAssistant || resp.Message.Content == "" {
		t.Fatalf("degraded message %+v", resp.Message)
	}
	if resp.SessionID == "" {
		t.Fatalf("session id not assigned")
	}
}

func TestChatPersonaFailureFallsBack(t *testing.T) {
	persona := &stubPersona{err: errors.New("boom")}
	svc := newTestService(t, WithPersona(persona))

	resp, err := svc.Chat(context.Background(), caller("u1"), schema.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("persona failure must not fail the call: %v", err)
	}
	if !resp.Degraded {
		t.Fatalf("expected degraded response")
	}
	if !strings.Contains(resp.Message.Content, "your work is safe") {
		t.Fatalf("degraded reply %q", resp.Message.Content)
	}
}

func TestChatKeepsHistoryAcrossTurns(t *testing.T) {
	persona := &stubPersona{reply: schema.AgentMessage{Role: schema.RoleAssistant, Content: "sure"}}
	svc := newTestService(t, WithPersona(persona))
	ctx := context.Background()

	first, err := svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: "turn one"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if first.Degraded {
		t.Fatalf("unexpected degraded turn")
	}

	_, err = svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: "turn two", SessionID: first.SessionID})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	// persona saw both prior turns plus the new user message
	persona.mu.Lock()
	defer persona.mu.Unlock()
	if len(persona.history) != 3 {
		t.Fatalf("history length %d, want 3", len(persona.history))
	}
	if persona.history[0].Content != "turn one" || persona.history[1].Content != "sure" || persona.history[2].Content != "turn two" {
		t.Fatalf("history order %+v", persona.history)
	}
	if svc.SessionCount() != 1 {
		t.Fatalf("session count %d", svc.SessionCount())
	}
}

func TestSessionLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if svc.SessionCount() != 1 {
		t.Fatalf("count %d", svc.SessionCount())
	}
	if !svc.EndSession(resp.SessionID) {
		t.Fatalf("end must report the session existed")
	}
	if svc.EndSession(resp.SessionID) {
		t.Fatalf("double end must report false")
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: "hi"}); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	svc.ClearSessions()
	if svc.SessionCount() != 0 {
		t.Fatalf("count after clear %d", svc.SessionCount())
	}
}

func TestConcurrentChatIsSafe(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: fmt.Sprintf("msg %d", n)})
			if err != nil {
				t.Errorf("chat %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()
	if svc.SessionCount() != 8 {
		t.Fatalf("session count %d, want 8", svc.SessionCount())
	}
}

func TestFacadeEmitsTelemetry(t *testing.T) {
	telemetry := &recordingTelemetry{}
	svc := newTestService(t, WithTelemetry(telemetry))
	ctx := context.Background()

	if _, err := svc.PlanMission(ctx, caller("u1"), schema.PlanMissionRequest{RawInput: "study"}); err != nil {
		t.Fatalf("plan: %v", err)
	}
	if _, err := svc.ReflectPeriod(ctx, caller("u1"), schema.ReflectPeriodRequest{Kind: schema.ReflectDay}); err != nil {
		t.Fatalf("reflect: %v", err)
	}
	if _, err := svc.Chat(ctx, caller("u1"), schema.ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("chat: %v", err)
	}

	telemetry.mu.Lock()
	defer telemetry.mu.Unlock()
	want := []string{"plan_mission", "reflect_period", "chat"}
	if len(telemetry.events) != len(want) {
		t.Fatalf("events %v", telemetry.events)
	}
	for i, name := range want {
		if telemetry.events[i] != name {
			t.Fatalf("event %d = %q, want %q", i, telemetry.events[i], name)
		}
	}
}
