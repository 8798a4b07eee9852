// file: internal/transport/transport_test.go
package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr string
	}{
		{"request", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`, ""},
		{"string id", `{"jsonrpc":"2.0","id":"a","method":"ping","params":{}}`, ""},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, ""},
		{"result response", `{"jsonrpc":"2.0","id":1,"result":{}}`, ""},
		{"error response", `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"bad"}}`, ""},
		{"not json", `{"jsonrpc":`, "failed to parse JSON"},
		{"missing version", `{"id":1,"method":"ping"}`, "missing 'jsonrpc'"},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"ping"}`, "unsupported JSON-RPC version"},
		{"bool id", `{"jsonrpc":"2.0","id":true,"method":"ping"}`, "invalid request ID type"},
		{"empty method", `{"jsonrpc":"2.0","id":1,"method":""}`, "method cannot be empty"},
		{"reserved method", `{"jsonrpc":"2.0","id":1,"method":"rpc.x"}`, "reserved"},
		{"scalar params", `{"jsonrpc":"2.0","id":1,"method":"ping","params":3}`, "params must be an object or array"},
		{"request with result", `{"jsonrpc":"2.0","id":1,"method":"ping","result":{}}`, "request message cannot contain 'result'"},
		{"response without id", `{"jsonrpc":"2.0","result":{}}`, "must contain 'id'"},
		{"response with both", `{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":1,"message":"x"}}`, "cannot contain both"},
		{"error code string", `{"jsonrpc":"2.0","id":1,"error":{"code":"x","message":"x"}}`, "error code must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage([]byte(tt.message))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNDJSONTransport_ReadWrite(t *testing.T) {
	input := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n\n" +
			`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n")
	var output bytes.Buffer
	tr := NewNDJSONTransport(input, &output, nil, nil)
	ctx := context.Background()

	msg, err := tr.ReadMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, string(msg))

	msg, err = tr.ReadMessage(ctx)
	require.NoError(t, err, "blank lines are skipped")
	assert.Contains(t, string(msg), "notifications/initialized")

	_, err = tr.ReadMessage(ctx)
	require.Error(t, err)
	assert.True(t, IsClosedError(err), "EOF reports a closed transport")

	_, err = tr.ReadMessage(ctx)
	assert.True(t, IsClosedError(err), "reads after EOF stay closed")

	require.NoError(t, tr.WriteMessage(ctx, []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{}}`+"\n", output.String())
}

func TestNDJSONTransport_InvalidMessageKeepsBytes(t *testing.T) {
	tr := NewNDJSONTransport(strings.NewReader(`{"jsonrpc":"1.0","id":7,"method":"ping"}`+"\n"), io.Discard, nil, nil)

	msg, err := tr.ReadMessage(context.Background())
	require.Error(t, err)
	assert.Contains(t, string(msg), `"id":7`)

	code, _, _ := MapErrorToJSONRPC(err)
	assert.Equal(t, JSONRPCInvalidRequest, code)
}

func TestNDJSONTransport_ParseError(t *testing.T) {
	tr := NewNDJSONTransport(strings.NewReader("not json\n"), io.Discard, nil, nil)

	_, err := tr.ReadMessage(context.Background())
	require.Error(t, err)
	code, message, _ := MapErrorToJSONRPC(err)
	assert.Equal(t, JSONRPCParseError, code)
	assert.Equal(t, "Parse error", message)
}

func TestNDJSONTransport_OversizedMessage(t *testing.T) {
	big := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"x":"` + strings.Repeat("a", MaxMessageSize) + `"}}`
	next := `{"jsonrpc":"2.0","id":2,"method":"ping"}`
	tr := NewNDJSONTransport(strings.NewReader(big+"\n"+next+"\n"), io.Discard, nil, nil)
	ctx := context.Background()

	_, err := tr.ReadMessage(ctx)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrMessageTooLarge, terr.Code)

	msg, err := tr.ReadMessage(ctx)
	require.NoError(t, err, "the stream recovers after an oversized line")
	assert.Contains(t, string(msg), `"id":2`)
}

func TestNDJSONTransport_ReadHonoursContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	tr := NewNDJSONTransport(pr, io.Discard, pr, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := tr.ReadMessage(ctx)
	require.Error(t, err)
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, ErrorTypeTimeout, terr.Type)

	// The line written after the cancelled read is still delivered.
	go func() { _, _ = pw.Write([]byte(`{"jsonrpc":"2.0","id":3,"method":"ping"}` + "\n")) }()
	msg, err := tr.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"id":3`)
}

func TestNDJSONTransport_Close(t *testing.T) {
	tr := NewNDJSONTransport(strings.NewReader(""), io.Discard, nil, nil)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close(), "close is idempotent")

	_, err := tr.ReadMessage(context.Background())
	assert.True(t, IsClosedError(err))
	err = tr.WriteMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	assert.True(t, IsClosedError(err))
}

func TestWriteMessage_RejectsInvalid(t *testing.T) {
	tr := NewNDJSONTransport(strings.NewReader(""), io.Discard, nil, nil)
	err := tr.WriteMessage(context.Background(), []byte(`{"id":1}`))
	require.Error(t, err)
}
