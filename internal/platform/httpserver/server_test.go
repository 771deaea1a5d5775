package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	financialengine "helios/contexts/proposal-core/financial-engine"
	"helios/contexts/proposal-core/financial-engine/domain/entities"
	enginehttp "helios/contexts/proposal-core/financial-engine/transport/http"

	"github.com/golang-jwt/jwt/v5"
)

func newTestServer(t *testing.T, jwtSecret string) (*Server, financialengine.Module) {
	t.Helper()
	module := financialengine.NewInMemoryModule(slog.New(slog.NewTextHandler(io.Discard, nil)))
	module.Store.SeedCaller(entities.CallerProfile{
		UserID:   "user-1",
		TenantID: "tenant-1",
		Role:     "consultant",
		Status:   entities.TenantStatusActive,
	})
	module.Store.SeedProposal("tenant-1", "prop-1")
	module.Store.SeedTariff(entities.TariffRecord{
		UtilityCode:  "CEMIG",
		Group:        entities.TariffGroupB,
		EnergyTariff: 0.85,
		FioBTariff:   0.30,
		Active:       true,
	})
	return New(module, jwtSecret, slog.New(slog.NewTextHandler(io.Discard, nil)), ":0"), module
}

func generateBody(t *testing.T) *bytes.Reader {
	t.Helper()
	payload, err := json.Marshal(enginehttp.GenerateRequest{
		LeadID:            "lead-1",
		InstalledPowerKWp: 5,
		ConsumptionPoints: []enginehttp.ConsumptionPointRequest{{
			Ref:                   "uc-1",
			UtilityCode:           "CEMIG",
			Jurisdiction:          "MG",
			SubGroup:              "B1",
			MonthlyConsumptionKWh: 520,
		}},
		KitItems: []enginehttp.KitItemRequest{{
			Description: "Painel 600W",
			Quantity:    10,
			UnitCost:    600,
		}},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(payload)
}

func TestGenerateEndpointRequiresSubject(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d without a subject, want 401", rec.Code)
	}
}

func TestGenerateEndpointTrustedGatewayMode(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var resp enginehttp.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.VersionNumber != 1 {
		t.Fatalf("response = %+v, want success with version 1", resp)
	}
}

func TestGenerateEndpointBearerToken(t *testing.T) {
	const secret = "test-secret"
	server, _ := newTestServer(t, secret)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).
		SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d with a valid token, want 200; body %s", rec.Code, rec.Body.String())
	}

	// The trusted-gateway header must be ignored once a secret is configured.
	spoofed := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	spoofed.Header.Set("X-User-Id", "user-1")
	spoofed.Header.Set("Idempotency-Key", "key-2")
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, spoofed)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d for a header-only subject, want 401", rec.Code)
	}
}

func TestGenerateEndpointBusinessRejectionMapping(t *testing.T) {
	server, _ := newTestServer(t, "")

	payload, _ := json.Marshal(enginehttp.GenerateRequest{
		LeadID:            "lead-1",
		InstalledPowerKWp: 5,
		ConsumptionPoints: []enginehttp.ConsumptionPointRequest{{
			Ref:                   "uc-1",
			UtilityCode:           "CEMIG",
			Jurisdiction:          "MG",
			SubGroup:              "Z9",
			MonthlyConsumptionKWh: 520,
		}},
		KitItems: []enginehttp.KitItemRequest{{Description: "Painel", Quantity: 10, UnitCost: 600}},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", bytes.NewReader(payload))
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d for an unresolvable sub-group, want 422", rec.Code)
	}

	var resp enginehttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "grupo_indefinido" {
		t.Fatalf("error code = %q, want grupo_indefinido", resp.Error)
	}
}

func TestGenerateEndpointMissingIdempotencyKey(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	req.Header.Set("X-User-Id", "user-1")
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d without an idempotency key, want 400", rec.Code)
	}

	var resp enginehttp.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "idempotency_key_required" {
		t.Fatalf("error code = %q, want idempotency_key_required", resp.Error)
	}
}

func TestVersionEndpoints(t *testing.T) {
	server, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/proposals/v1/proposals/prop-1/generate", generateBody(t))
	req.Header.Set("X-User-Id", "user-1")
	req.Header.Set("Idempotency-Key", "key-1")
	rec := httptest.NewRecorder()
	server.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate status = %d, want 200", rec.Code)
	}
	var generated enginehttp.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &generated); err != nil {
		t.Fatalf("decode generate response: %v", err)
	}

	list := httptest.NewRequest(http.MethodGet, "/api/proposals/v1/proposals/prop-1/versions", nil)
	list.Header.Set("X-User-Id", "user-1")
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, list)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var listResp enginehttp.ListVersionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listResp.Data) != 1 || listResp.Data[0].VersionID != generated.VersionID {
		t.Fatalf("list = %+v, want the generated version", listResp.Data)
	}

	get := httptest.NewRequest(http.MethodGet, "/api/proposals/v1/versions/"+generated.VersionID, nil)
	get.Header.Set("X-User-Id", "user-1")
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/proposals/v1/versions/nope", nil)
	missing.Header.Set("X-User-Id", "user-1")
	rec = httptest.NewRecorder()
	server.mux.ServeHTTP(rec, missing)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown version status = %d, want 404", rec.Code)
	}
}
