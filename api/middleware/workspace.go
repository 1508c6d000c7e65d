package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/workspace"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const ctxWorkspace contextKey = "workspace"

// WorkspaceSource hands out per-session workspaces.
type WorkspaceSource interface {
	Get(ctx context.Context, sessionID string) (*workspace.Workspace, error)
}

// Workspace loads the browser session's cart workspace. It must run after
// SessionCookie.
func Workspace(src WorkspaceSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := SessionIDFromContext(r.Context())
			if sessionID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
				return
			}
			ws, err := src.Get(r.Context(), sessionID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart workspace"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithWorkspace(r.Context(), ws)))
		})
	}
}

// WorkspaceFromContext returns the workspace loaded by Workspace, or nil.
func WorkspaceFromContext(ctx context.Context) *workspace.Workspace {
	if ctx == nil {
		return nil
	}
	ws, _ := ctx.Value(ctxWorkspace).(*workspace.Workspace)
	return ws
}

// WithWorkspace injects a workspace into the context.
func WithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxWorkspace, ws)
}
