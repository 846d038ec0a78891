package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/cityjson-codec/internal/core/config"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/middleware"
	"github.com/mohammed-shakir/cityjson-codec/internal/core/model"
)

type fakeHandler struct {
	lastDecode    model.DecodeRequest
	lastNormalize model.NormalizeRequest
}

func (f *fakeHandler) HandleDecode(_ context.Context, w http.ResponseWriter, _ *http.Request, q model.DecodeRequest) {
	f.lastDecode = q
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeHandler) HandleNormalize(_ context.Context, w http.ResponseWriter, _ *http.Request, q model.NormalizeRequest) {
	f.lastNormalize = q
	w.WriteHeader(http.StatusNoContent)
}

func TestHandleNormalize_SeamDispatch(t *testing.T) {
	cfg := config.FromEnv()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &fakeHandler{}
	hdl := HandleNormalize(logger, cfg, h)

	req := httptest.NewRequest(http.MethodPost, "/v1/normalize?session=s1&precision=2", strings.NewReader(`{"type":"CityJSON"}`))
	rr := httptest.NewRecorder()
	hdl(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from fake handler, got %d", rr.Code)
	}
	if h.lastNormalize.Session != "s1" || h.lastNormalize.Precision != 2 || string(h.lastNormalize.Body) != `{"type":"CityJSON"}` {
		t.Fatalf("handler did not receive parsed request correctly: %+v", h.lastNormalize)
	}
}

func TestHandleDecode_EmptyBody(t *testing.T) {
	h := &fakeHandler{}
	hdl := HandleDecode(slog.New(slog.NewTextHandler(io.Discard, nil)), config.FromEnv(), h)

	rr := httptest.NewRecorder()
	hdl(rr, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader("")))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rr.Code)
	}
	if h.lastDecode.Body != nil {
		t.Fatal("handler must not be called")
	}
}

func TestHandleDecode_BodyTooLarge(t *testing.T) {
	h := &fakeHandler{}
	hdl := middleware.MaxBody(8)(HandleDecode(slog.New(slog.NewTextHandler(io.Discard, nil)), config.FromEnv(), h))

	rr := httptest.NewRecorder()
	hdl.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/decode", strings.NewReader(`{"type":"CityJSON"}`)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d want 413", rr.Code)
	}
}
