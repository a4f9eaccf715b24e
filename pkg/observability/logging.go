package observability

import (
	"log/slog"

	"github.com/aretw0/threadbare/pkg/domain"
)

// LogHooks returns hooks that write every lifecycle event to logger at Info.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(e *domain.NodeEvent) {
			logger.Info("node_enter", "node", e.Node, "depth", e.Depth)
		},
		OnNodeLeave: func(e *domain.NodeEvent) {
			logger.Info("node_leave", "node", e.Node, "depth", e.Depth)
		},
		OnStateChange: func(e *domain.StateEvent) {
			logger.Info("state_change", "state", e.State, "node", e.Node, "depth", e.Depth)
		},
	}
}
