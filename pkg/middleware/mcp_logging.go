package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxLoggedArgumentLength truncates long string arguments in MCP logs.
const maxLoggedArgumentLength = 200

// MCPRequestLogger returns middleware that logs one entry per MCP JSON-RPC
// exchange: the method, the tool name and arguments, and how it ended.
// Pass nil logger to disable logging.
func MCPRequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Error("Failed to read MCP request body", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			var call rpcCall
			_ = json.Unmarshal(body, &call)

			recorder := &bodyRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r)

			logger.Debug("MCP call",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", call.Method),
				zap.String("tool", call.Params.Name),
				zap.Any("arguments", truncateArguments(call.Params.Arguments)),
				zap.String("outcome", outcomeOf(recorder.body.Bytes())),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type rpcCall struct {
	Method string `json:"method"`
	Params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type rpcReply struct {
	Error  *struct{ Message string } `json:"error"`
	Result *struct {
		IsError bool `json:"isError"`
	} `json:"result"`
}

// outcomeOf classifies a JSON-RPC reply body. Streamed (SSE) replies are
// not parsed and report "streamed".
func outcomeOf(body []byte) string {
	var reply rpcReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return "streamed"
	}
	switch {
	case reply.Error != nil:
		return "rpc_error"
	case reply.Result != nil && reply.Result.IsError:
		return "tool_error"
	default:
		return "ok"
	}
}

func truncateArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if s, ok := v.(string); ok && len(s) > maxLoggedArgumentLength {
			v = s[:maxLoggedArgumentLength] + "..."
		}
		out[k] = v
	}
	return out
}

// bodyRecorder copies the response body while writing it through.
type bodyRecorder struct {
	http.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
