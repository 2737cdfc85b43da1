package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Scenario is a user-defined program over a session. Init prepares the
// session; Run composes session operations and returns the final session.
// Suspension is expressed through action semantics, not scenario control
// flow.
type Scenario interface {
	Name() string
	Init(s *Session) (*Session, error)
	Run(s *Session) *Session
}

// initKey is the synthetic error key for a failed Init.
const initKey = "init"

var (
	scenarioMu sync.RWMutex
	scenarios  = make(map[string]Scenario)
)

// RegisterScenario makes a scenario resolvable by name, e.g. from
// configuration files and nested-scenario actions that cross worker
// boundaries.
func RegisterScenario(sc Scenario) {
	scenarioMu.Lock()
	defer scenarioMu.Unlock()
	scenarios[sc.Name()] = sc
}

// ScenarioByName resolves a registered scenario.
func ScenarioByName(name string) (Scenario, bool) {
	scenarioMu.RLock()
	defer scenarioMu.RUnlock()
	sc, ok := scenarios[name]
	return sc, ok
}

// Runtime bundles the collaborators a session needs to execute actions.
type Runtime struct {
	HTTP  HTTPAdapter
	WS    WSAdapter
	Log   *slog.Logger
	Clock Clock
}

// ExecuteScenario creates a fresh session for sc, runs Init and then Run,
// and returns the final session. An Init error is recorded on the session,
// which is still returned.
func ExecuteScenario(ctx context.Context, sc Scenario, cfg Config, rt Runtime) *Session {
	s := New(sc, cfg)
	s.HTTP = rt.HTTP
	s.WS = rt.WS
	s.Log = rt.Log
	s.Clock = rt.Clock
	s.ctx = ctx

	next, err := sc.Init(s)
	if err != nil {
		s.Errors[initKey] = err
		s.logger().Error("scenario init failed", "session", s.ID, "error", err)
	} else if next != nil {
		s = next
	}
	return sc.Run(s)
}

// RunScenarioAction executes another scenario inline on a child session
// whose config is the parent config overlaid with Config. The child's
// results and metrics are merged back into the parent on completion.
type RunScenarioAction struct {
	Scenario Scenario
	Config   Config
}

func (a RunScenarioAction) Key() string {
	return "scenario " + a.Scenario.Name()
}

func (a RunScenarioAction) Run(_ context.Context, s *Session) (*Session, error) {
	child := s.fork()
	child.Scenario = a.Scenario
	child.Config = s.Config.Merge(a.Config)
	child.ID = a.Scenario.Name() + " " + uuid.NewString()

	next, err := a.Scenario.Init(child)
	if err != nil {
		child.Errors[initKey] = err
		child.logger().Error("scenario init failed", "session", child.ID, "error", err)
	} else if next != nil {
		child = next
	}
	child = a.Scenario.Run(child)

	MergeResults(s, child.Results)
	MergeMetrics(s, child.Metrics)
	return s, nil
}

// RunScenario builds and runs a nested-scenario action.
func (s *Session) RunScenario(sc Scenario, overlay Config) *Session {
	return s.Exec(RunScenarioAction{Scenario: sc, Config: overlay})
}
