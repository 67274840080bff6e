package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/campfirehq/campfire/internal/engine"
)

func newTestContext(t *testing.T, body string, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) JSONRPCResponse {
	t.Helper()
	var resp JSONRPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandleDispatch(t *testing.T) {
	handler := NewJSONRPCHandler()
	handler.RegisterMethod("test.echo", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		var req struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, err
		}
		return gin.H{"value": req.Value}, nil
	})

	c, rec := newTestContext(t, `{"jsonrpc":"2.0","id":1,"method":"test.echo","params":{"value":"hi"}}`, nil)
	handler.Handle(c)

	resp := decodeResponse(t, rec)
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok || result["value"] != "hi" {
		t.Errorf("result = %v, want echoed value", resp.Result)
	}
}

func TestHandleProtocolErrors(t *testing.T) {
	handler := NewJSONRPCHandler()

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"malformed json", `{"jsonrpc":`, ErrParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"x"}`, ErrInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"nope"}`, ErrMethodNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t, tt.body, nil)
			handler.Handle(c)
			resp := decodeResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("got error %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestHandleMapsEngineErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not found", engine.NotFoundError("gone"), ErrNotFound},
		{"forbidden", engine.ForbiddenError("no"), ErrForbidden},
		{"invalid state", engine.InvalidStateError("bad"), ErrInvalidState},
		{"conflict", engine.ConflictError("dup"), ErrConflict},
		{"validation", engine.ValidationError("empty"), ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewJSONRPCHandler()
			handler.RegisterMethod("test.fail", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
				return nil, tt.err
			})
			c, rec := newTestContext(t, `{"jsonrpc":"2.0","id":1,"method":"test.fail"}`, nil)
			handler.Handle(c)
			resp := decodeResponse(t, rec)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("got error %+v, want code %d", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestHandlePropagatesSpanContext(t *testing.T) {
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	defer otel.SetTracerProvider(prev)

	handler := NewJSONRPCHandler()
	var spanCtx trace.SpanContext
	handler.RegisterMethod("test.span", func(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
		spanCtx = trace.SpanContextFromContext(ctx.Request.Context())
		return gin.H{}, nil
	})

	c, rec := newTestContext(t, `{"jsonrpc":"2.0","id":1,"method":"test.span"}`, nil)
	handler.Handle(c)

	if resp := decodeResponse(t, rec); resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if !spanCtx.IsValid() {
		t.Error("method handler saw no span on the request context")
	}
}

func TestCallerID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int64
		ok     bool
	}{
		{"valid", "42", 42, true},
		{"missing", "", 0, false},
		{"not a number", "abc", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["X-User-ID"] = tt.header
			}
			c, _ := newTestContext(t, "{}", headers)
			id, err := callerID(c)
			if tt.ok {
				if err != nil || id != tt.want {
					t.Errorf("got id=%d err=%v, want %d", id, err, tt.want)
				}
			} else if !engine.IsForbidden(err) {
				t.Errorf("got %v, want forbidden", err)
			}
		})
	}
}

func TestLikeTargetID(t *testing.T) {
	if id, err := likeTargetID("post"); err != nil || id != 1 {
		t.Errorf("post: got %d, %v", id, err)
	}
	if id, err := likeTargetID(""); err != nil || id != 1 {
		t.Errorf("default: got %d, %v", id, err)
	}
	if id, err := likeTargetID("reply"); err != nil || id != 2 {
		t.Errorf("reply: got %d, %v", id, err)
	}
	if _, err := likeTargetID("comment"); engine.KindOf(err) != engine.KindValidation {
		t.Errorf("unknown: got %v, want validation", err)
	}
}
