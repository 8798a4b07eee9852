// file: internal/middleware/logging.go
package middleware

import (
	"context"
	"time"

	"github.com/dkoosis/spotignition/internal/logging"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/metrics"
)

// NewLoggingMiddleware logs each message with its method, id and duration and
// records it in collector. collector may be nil.
func NewLoggingMiddleware(logger logging.Logger, collector *metrics.Collector) mcptypes.MiddlewareFunc {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "request_log")

	return func(next mcptypes.MessageHandler) mcptypes.MessageHandler {
		return func(ctx context.Context, message []byte) ([]byte, error) {
			env := identifyMessage(message)
			if len(env.ID) > 0 {
				ctx = logging.ContextWithRequestID(ctx, string(env.ID))
			}
			log := logger.WithContext(ctx)

			start := time.Now()
			response, err := next(ctx, message)
			elapsed := time.Since(start)

			success := err == nil && !isErrorResponse(response)
			collector.RecordRequest(env.Method, elapsed, success)

			switch {
			case err != nil:
				log.Warn("Message handling failed.", "method", env.Method, "duration_ms", elapsed.Milliseconds(), "error", err)
				collector.RecordError("request", err.Error())
			case !success:
				log.Info("Message answered with error response.", "method", env.Method, "duration_ms", elapsed.Milliseconds())
			default:
				log.Debug("Message handled.", "method", env.Method, "duration_ms", elapsed.Milliseconds())
			}
			return response, err
		}
	}
}
