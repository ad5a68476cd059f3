package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"payhook/internal/config"
	"payhook/internal/domain/payment"
	"payhook/internal/provider/chapa"
	"payhook/internal/services/data"
	"payhook/internal/services/notification"
	"payhook/internal/store/memory"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestRouter(t *testing.T) (http.Handler, *notification.Processor) {
	t.Helper()
	v, err := chapa.NewVerifier("whsec", chapa.AlgHMACSHA256)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	store := memory.NewRecordStore()
	metrics := notification.NewMetrics()
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	proc := notification.NewProcessor(store, notification.WithMetrics(metrics))

	cfg := config.Cfg{}
	cfg.Sec.AdminToken = "admin-secret"
	cfg.Chapa.SignatureHeader = chapa.SignatureHeader
	cfg.Chapa.MaxBodyBytes = 1 << 20

	return NewRouter(RouterDependencies{
		Config:      cfg,
		Verifier:    v,
		Processor:   proc,
		DataService: data.NewService(store),
		Gatherer:    reg,
	}), proc
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("X-Admin-Token", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestReadAPI(t *testing.T) {
	h, proc := newTestRouter(t)
	ctx := context.Background()
	proc.Process(ctx, payment.Notification{Reference: "tx-1", Status: payment.StatusSuccess, Amount: 100, Currency: payment.ETB})
	proc.Process(ctx, payment.Notification{Reference: "tx-2", Status: payment.StatusInitiated, Amount: 200, Currency: payment.ETB})

	if rec := do(h, http.MethodGet, "/api/v1/payments/tx-1", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: code %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/api/v1/payments/tx-1", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: code %d", rec.Code)
	}

	rec := do(h, http.MethodGet, "/api/v1/payments/tx-1", "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: code %d", rec.Code)
	}
	var got payment.Record
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Reference != "tx-1" || got.Status != payment.StatusSuccess {
		t.Fatalf("unexpected record %+v", got)
	}

	if rec := do(h, http.MethodGet, "/api/v1/payments/nope", "admin-secret"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown reference: code %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/api/v1/payments?status=initiated", "admin-secret")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code %d", rec.Code)
	}
	var page data.PaymentListResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(page.Payments) != 1 || page.Payments[0].Reference != "tx-2" {
		t.Fatalf("unexpected listing %+v", page)
	}

	if rec := do(h, http.MethodGet, "/api/v1/payments?status=bogus", "admin-secret"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: code %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, proc := newTestRouter(t)
	proc.Process(context.Background(), payment.Notification{Reference: "tx-1", Status: payment.StatusSuccess})

	if rec := do(h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: code %d", rec.Code)
	}
	rec := do(h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: code %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `payhook_processor_notifications_total{outcome="applied"} 1`) {
		t.Fatalf("metrics output missing outcome counter:\n%s", rec.Body.String())
	}
}

func TestReadAPIDisabledWithoutToken(t *testing.T) {
	v, _ := chapa.NewVerifier("whsec", chapa.AlgHMACSHA256)
	store := memory.NewRecordStore()
	h := NewRouter(RouterDependencies{
		Verifier:    v,
		Processor:   notification.NewProcessor(store),
		DataService: data.NewService(store),
	})
	if rec := do(h, http.MethodGet, "/api/v1/payments/tx-1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("disabled read api: code %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics without gatherer: code %d", rec.Code)
	}
}
