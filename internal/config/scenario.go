package config

import (
	"fmt"
	"math/rand"
	"time"

	"stampede/internal/ratelimit"
	"stampede/internal/template"
	"stampede/session"
)

// StepScenario is an HTTP scenario assembled from a config file: a named
// sequence of request steps with placeholder substitution, optional JSON
// extraction into assigns, and an optional requests-per-second cap.
type StepScenario struct {
	name    string
	steps   []StepConfig
	limiter *ratelimit.RateLimiter
}

// NewStepScenario builds a step scenario. rps <= 0 disables the cap.
func NewStepScenario(name string, steps []StepConfig, rps int) *StepScenario {
	if name == "" {
		name = "steps"
	}
	return &StepScenario{
		name:    name,
		steps:   steps,
		limiter: ratelimit.NewRateLimiter(rps),
	}
}

func (sc *StepScenario) Name() string {
	return sc.name
}

// Init applies the configured pre-delay and jitter before the run starts.
func (sc *StepScenario) Init(s *session.Session) (*session.Session, error) {
	if d, ok := s.Config.Duration(session.KeyDelay); ok {
		s = s.Delay(d)
	}
	if ceil, ok := s.Config.Duration(session.KeyRandomDelay); ok {
		s = s.Delay(time.Duration(rand.Int63n(int64(ceil))))
	}
	return s.OK()
}

// Run executes the steps in order. Substitution and extraction failures are
// recorded per step; the scenario keeps going, matching the engine's
// uniform failure policy.
func (sc *StepScenario) Run(s *session.Session) *session.Session {
	for _, step := range sc.steps {
		if err := sc.limiter.Wait(s.Context()); err != nil {
			return s
		}
		s = sc.runStep(s, step)
	}
	return s
}

func (sc *StepScenario) runStep(s *session.Session, step StepConfig) *session.Session {
	vars := sessionVars{s}
	path, err := template.Substitute(step.Path, vars)
	if err != nil {
		s.Errors[stepKey(step)] = err
		return s
	}
	body, err := template.Substitute(step.Body, vars)
	if err != nil {
		s.Errors[stepKey(step)] = err
		return s
	}
	headers, err := template.SubstituteMap(step.Headers, vars)
	if err != nil {
		s.Errors[stepKey(step)] = err
		return s
	}

	var payload []byte
	if body != "" {
		payload = []byte(body)
	}
	s = s.Request(step.Method, path, session.HTTPOptions{Headers: headers, Body: payload})

	if len(step.Extract) > 0 {
		key := step.Method + " " + path
		resp := s.Response(key)
		if resp == nil {
			return s
		}
		values, err := resp.Extract(step.Extract)
		if err != nil {
			s.Errors[stepKey(step)] = err
			return s
		}
		s = s.Assign(values)
	}
	return s
}

func stepKey(step StepConfig) string {
	name := step.Name
	if name == "" {
		name = step.Method + " " + step.Path
	}
	return fmt.Sprintf("step %s", name)
}

// sessionVars exposes assigns (with config fallback) to the template engine.
type sessionVars struct {
	s *session.Session
}

func (v sessionVars) Get(key string) (any, bool) {
	if val, ok := v.s.Assigns[key]; ok {
		return val, true
	}
	val, ok := v.s.Config[key]
	return val, ok
}
