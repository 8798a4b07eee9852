// file: internal/middleware/recovery.go
package middleware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
)

// NewRecoveryMiddleware turns a panic in a handler into a JSON-RPC internal
// error response so the serve loop keeps running. Notifications get no response.
func NewRecoveryMiddleware(logger logging.Logger) mcptypes.MiddlewareFunc {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "recovery")

	return func(next mcptypes.MessageHandler) mcptypes.MessageHandler {
		return func(ctx context.Context, message []byte) (response []byte, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				env := identifyMessage(message)
				panicErr := errors.Newf("panic while handling %q: %v", env.Method, r)
				logger.Error("Recovered from handler panic.", "method", env.Method, "error", fmt.Sprintf("%+v", panicErr))

				if len(env.ID) == 0 {
					response, err = nil, nil
					return
				}
				response, err = json.Marshal(mcptypes.JSONRPCErrorContainer{
					JSONRPC: "2.0",
					ID:      env.ID,
					Error: mcptypes.JSONRPCErrorPayload{
						Code:    mcperror.CodeInternalError,
						Message: mcperror.UserFacingMessage(mcperror.CodeInternalError),
					},
				})
			}()
			return next(ctx, message)
		}
	}
}
