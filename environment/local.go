package environment

import (
	"log/slog"

	"stampede/httpx"
	"stampede/session"
	"stampede/worker"
	"stampede/wsx"
)

// NewLocalSpawner wires a local goroutine spawner whose HTTP and WebSocket
// transports point at each worker config's base_url.
func NewLocalSpawner(log *slog.Logger) worker.Spawner {
	return &worker.Local{
		NewRuntime: func(cfg session.Config) session.Runtime {
			base := cfg.BaseURL()
			return session.Runtime{
				HTTP: httpx.NewClient(base, nil),
				WS:   wsx.NewDialer(base),
				Log:  log,
			}
		},
	}
}
