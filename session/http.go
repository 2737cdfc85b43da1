package session

import (
	"context"
	"net/http"
	"time"

	"stampede/internal/template"
)

// HTTPOptions carries the optional parts of an HTTP action.
// Timeout falls back to the session timeout when zero.
type HTTPOptions struct {
	Headers map[string]string
	Body    []byte
	Query   map[string]string
	Timeout time.Duration
}

// HTTPResponse is the value recorded in Results for an HTTP action.
type HTTPResponse struct {
	Status  int
	Header  http.Header
	Body    []byte
	Elapsed time.Duration
}

// Extract pulls values out of a JSON response body using JSONPath rules
// (variable name -> path). See template.Extract.
func (r *HTTPResponse) Extract(rules map[string]string) (map[string]any, error) {
	return template.Extract(r.Body, rules)
}

// HTTPAdapter is the external HTTP transport the engine performs requests
// through. Implementations resolve path against their configured base URL.
type HTTPAdapter interface {
	Do(ctx context.Context, method, path string, opts HTTPOptions) (*HTTPResponse, error)
}

// HTTPAction performs a single request through the session's HTTP adapter.
// On success the response is recorded under the action key and a timing
// sample under "http <path>". Protocol-level status codes are results, not
// errors; only transport and timeout failures fail the action.
type HTTPAction struct {
	Method string
	Path   string
	Opts   HTTPOptions
}

func (a HTTPAction) Key() string {
	return a.Method + " " + a.Path
}

func (a HTTPAction) Run(ctx context.Context, s *Session) (*Session, error) {
	if s.HTTP == nil {
		return s, ErrNoHTTPAdapter
	}
	timeout := a.Opts.Timeout
	if timeout <= 0 {
		timeout = s.Timeout()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.HTTP.Do(ctx, a.Method, a.Path, a.Opts)
	if err != nil {
		return s, err
	}
	s.AddResult(a, resp)
	s.AddMetric("http "+a.Path, resp.Elapsed)
	return s, nil
}

// Request builds and runs an HTTP action.
func (s *Session) Request(method, path string, opts ...HTTPOptions) *Session {
	var o HTTPOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return s.Exec(HTTPAction{Method: method, Path: path, Opts: o})
}

// Get runs an HTTP GET against path.
func (s *Session) Get(path string, opts ...HTTPOptions) *Session {
	return s.Request(http.MethodGet, path, opts...)
}

// Post runs an HTTP POST against path.
func (s *Session) Post(path string, opts ...HTTPOptions) *Session {
	return s.Request(http.MethodPost, path, opts...)
}

// Put runs an HTTP PUT against path.
func (s *Session) Put(path string, opts ...HTTPOptions) *Session {
	return s.Request(http.MethodPut, path, opts...)
}

// Patch runs an HTTP PATCH against path.
func (s *Session) Patch(path string, opts ...HTTPOptions) *Session {
	return s.Request(http.MethodPatch, path, opts...)
}

// Delete runs an HTTP DELETE against path.
func (s *Session) Delete(path string, opts ...HTTPOptions) *Session {
	return s.Request(http.MethodDelete, path, opts...)
}
