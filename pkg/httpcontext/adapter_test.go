package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskboard/domain"
	appLogger "github.com/fastygo/taskboard/pkg/logger"
)

func TestAdapter_AttachCarriesIdentityAndRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "req-123")
	SetIdentity(&ctx, domain.Identity{UserID: "u1", Email: "a@x.com"})

	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if got := appLogger.RequestID(stdCtx); got != "req-123" {
		t.Errorf("request id = %q", got)
	}
	if got := string(ctx.Response.Header.Peek("X-Request-ID")); got != "req-123" {
		t.Errorf("response header = %q", got)
	}
	identity, ok := IdentityFrom(stdCtx)
	if !ok || identity.UserID != "u1" || identity.Email != "a@x.com" {
		t.Errorf("identity = %+v, %v", identity, ok)
	}
	if _, ok := stdCtx.Deadline(); !ok {
		t.Error("context has no deadline")
	}
}

func TestAdapter_GeneratesRequestIDOnce(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := RequestID(&ctx)
	second := RequestID(&ctx)
	if first == "" || first != second {
		t.Errorf("request ids differ: %q vs %q", first, second)
	}
}

func TestIdentityFrom_Missing(t *testing.T) {
	if _, ok := IdentityFrom(context.Background()); ok {
		t.Error("identity found in empty context")
	}
	var ctx fasthttp.RequestCtx
	if _, ok := IdentityFromRequest(&ctx); ok {
		t.Error("identity found on bare request")
	}
}
