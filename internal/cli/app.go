package cli

import (
	"fmt"

	"github.com/emberfocus/ember/internal/config"
	"github.com/emberfocus/ember/internal/graphs"
	"github.com/emberfocus/ember/internal/logging"
	"github.com/emberfocus/ember/internal/memory"
	"github.com/emberfocus/ember/internal/memory/sqlitestore"
	"github.com/emberfocus/ember/internal/schema"
	"github.com/emberfocus/ember/internal/service"
	"github.com/emberfocus/ember/internal/tools"
)

// app bundles everything a command needs: config, logger, the tool
// layers, and the service facade.
type app struct {
	cfg    *config.Config
	logger *logging.Logger

	bundle   memory.Bundle
	missions *tools.MissionTools
	timeline *tools.TimelineTools
	mem      *tools.MemoryTools
	graph    *tools.GraphTools
	ui       *tools.UITools

	svc *service.Service

	cleanup []func() error
}

// newApp wires the full stack from the on-disk config.
func newApp() (*app, error) {
	baseDir, err := config.ResolveBaseDir()
	if err != nil {
		return nil, err
	}
	if err := config.InitEmberDir(baseDir); err != nil {
		return nil, fmt.Errorf("cli: init ember dir: %w", err)
	}
	cfg, err := config.NewConfig(baseDir)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	logger, err := logging.New(baseDir)
	if err != nil {
		return nil, err
	}
	a.logger = logger
	a.cleanup = append(a.cleanup, logger.Close)

	switch cfg.StoreBackend() {
	case config.StoreBackendMemory:
		a.bundle = memory.NewInMemory()
	case config.StoreBackendSQLite:
		db, err := sqlitestore.Open(cfg.DBPath())
		if err != nil {
			a.close()
			return nil, err
		}
		a.cleanup = append(a.cleanup, db.Close)
		bundle, err := sqlitestore.NewBundle(db, nil)
		if err != nil {
			a.close()
			return nil, err
		}
		a.bundle = bundle
	default:
		a.close()
		return nil, fmt.Errorf("cli: unknown store backend %q", cfg.StoreBackend())
	}

	a.missions = tools.NewMissionTools(a.bundle.Missions, a.bundle.Semantic)
	a.timeline = tools.NewTimelineTools(a.bundle.Blocks)
	a.mem = tools.NewMemoryTools(a.bundle.Episodes, a.bundle.Profiles, a.bundle.Semantic)
	a.graph = tools.NewGraphTools(a.bundle.Graph)
	a.ui = tools.NewUITools()

	planner := graphs.NewPlanner(a.missions, a.timeline, graphs.WithLogger(logger))
	coach := graphs.NewCoach(a.missions, a.timeline, a.ui, graphs.WithLogger(logger))
	archivist := graphs.NewArchivist(a.mem, a.missions, a.timeline, graphs.WithLogger(logger))
	router := graphs.NewRouter(planner, coach, archivist, graphs.WithLogger(logger))

	a.svc = service.New(router, a.mem, service.WithLogger(logger))
	return a, nil
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		_ = a.cleanup[i]()
	}
}

// callerContext builds the graph context for the acting user.
func (a *app) callerContext() graphs.Context {
	user := userFlag
	if user == "" {
		user = a.cfg.DefaultUser()
	}
	return graphs.Context{
		UserID:   user,
		Timezone: a.cfg.File.Defaults.Timezone,
		Surface:  schema.SurfaceOther,
	}
}
