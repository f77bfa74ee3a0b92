package graphs

import (
	"context"
	"time"

	"github.com/emberfocus/ember/internal/logging"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/serviceerr"
)

// Entrypoint names one routable operation.
type Entrypoint string

const (
	EntrypointPlanMission   Entrypoint = "plan_mission"
	EntrypointRunSession    Entrypoint = "run_session"
	EntrypointReflectPeriod Entrypoint = "reflect_period"
	EntrypointChat          Entrypoint = "chat"
)

// ModeFor maps an entrypoint onto the agent mode that serves it.
func ModeFor(ep Entrypoint) (Mode, bool) {
	switch ep {
	case EntrypointPlanMission:
		return ModePlanner, true
	case EntrypointRunSession:
		return ModeCoach, true
	case EntrypointReflectPeriod:
		return ModeArchivist, true
	case EntrypointChat:
		return ModeChat, true
	default:
		return "", false
	}
}

// Router validates typed requests at the boundary and dispatches them to
// the appropriate pipeline. Chat never reaches a pipeline; the service
// layer's persona handles it.
type Router struct {
	planner   *Planner
	coach     *Coach
	archivist *Archivist
	logger    *logging.Logger
	clock     func() time.Time
}

func NewRouter(planner *Planner, coach *Coach, archivist *Archivist, opts ...Option) *Router {
	s := newSettings(opts)
	return &Router{planner: planner, coach: coach, archivist: archivist, logger: s.logger, clock: s.clock}
}

// Call dispatches a request by entrypoint name, checking the request
// type first. It exists for callers that receive requests generically;
// typed callers should use the per-operation methods.
func (r *Router) Call(ctx context.Context, ep Entrypoint, c Context, req any) (any, error) {
	switch ep {
	case EntrypointPlanMission:
		typed, ok := req.(schema.PlanMissionRequest)
		if !ok {
			return nil, serviceerr.New(serviceerr.CodeValidation, "plan_mission: expected PlanMissionRequest, got %T", req)
		}
		return r.PlanMission(ctx, c, typed)
	case EntrypointRunSession:
		typed, ok := req.(schema.RunSessionRequest)
		if !ok {
			return nil, serviceerr.New(serviceerr.CodeValidation, "run_session: expected RunSessionRequest, got %T", req)
		}
		return r.RunSession(ctx, c, typed)
	case EntrypointReflectPeriod:
		typed, ok := req.(schema.ReflectPeriodRequest)
		if !ok {
			return nil, serviceerr.New(serviceerr.CodeValidation, "reflect_period: expected ReflectPeriodRequest, got %T", req)
		}
		return r.ReflectPeriod(ctx, c, typed)
	case EntrypointChat:
		return nil, serviceerr.New(serviceerr.CodeValidation, "chat is handled by the conversation service, not a workflow graph")
	default:
		return nil, serviceerr.New(serviceerr.CodeValidation, "unknown entrypoint %q", ep)
	}
}

// PlanMission validates and runs the planner pipeline.
func (r *Router) PlanMission(ctx context.Context, c Context, req schema.PlanMissionRequest) (schema.PlanMissionResponse, error) {
	if err := req.Validate(); err != nil {
		return schema.PlanMissionResponse{}, serviceerr.Wrap(serviceerr.CodeValidation, err, "plan_mission")
	}
	st := NewState(ModePlanner, c, WithStateClock(r.clock))
	r.logger.Printf("router: plan_mission user=%s", c.UserID)
	return r.planner.Run(ctx, st, req)
}

// RunSession validates and runs the coach pipeline.
func (r *Router) RunSession(ctx context.Context, c Context, req schema.RunSessionRequest) (schema.RunSessionResponse, error) {
	if err := req.Validate(); err != nil {
		return schema.RunSessionResponse{}, serviceerr.Wrap(serviceerr.CodeValidation, err, "run_session")
	}
	st := NewState(ModeCoach, c, WithStateClock(r.clock))
	r.logger.Printf("router: run_session user=%s", c.UserID)
	return r.coach.Run(ctx, st, req)
}

// ReflectPeriod validates and runs the archivist pipeline.
func (r *Router) ReflectPeriod(ctx context.Context, c Context, req schema.ReflectPeriodRequest) (schema.ReflectPeriodResponse, error) {
	if err := req.Validate(); err != nil {
		return schema.ReflectPeriodResponse{}, serviceerr.Wrap(serviceerr.CodeValidation, err, "reflect_period")
	}
	st := NewState(ModeArchivist, c, WithStateClock(r.clock))
	r.logger.Printf("router: reflect_period user=%s kind=%s", c.UserID, req.Kind)
	return r.archivist.Run(ctx, st, req)
}
