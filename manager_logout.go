package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/internal/flows"
)

// Logout tears the session down. The in-memory reset is synchronous, so
// by the time Logout returns no caller can observe the old session;
// clearing the credential store follows on a context detached from the
// caller's cancellation. Logout cannot fail and is a no-op when there is
// no session.
//
// A refresh that is still in flight settles against the logged-out
// machine and is discarded; it never resurrects the session.
func (m *Manager) Logout(ctx context.Context) {
	if m.isClosed() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	res := flows.RunLogout(context.WithoutCancel(ctx), flows.LogoutDeps{
		Reset: m.state.Reset,
		Clear: m.clearStore,
	})

	m.metrics.Inc(MetricLogout)
	if res.ClearErr != nil {
		m.metrics.Inc(MetricStoreFailure)
	}
	m.emitAudit(ctx, "logout", "", true, res.ClearErr, nil)
}
