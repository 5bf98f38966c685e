package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Reset func()
	Clear func(context.Context) error
}

// LogoutResult reports best-effort cleanup problems. Logout itself cannot
// fail.
type LogoutResult struct {
	ClearErr error
}

// RunLogout tears the session down. The in-memory reset happens first and
// synchronously, so observers see the logged-out state before any storage
// I/O; clearing the credential store follows and its failure is reported
// but never surfaced to the logout caller.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	deps.Reset()
	return LogoutResult{ClearErr: deps.Clear(ctx)}
}
