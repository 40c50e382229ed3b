package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pricepulse/auth"
	"pricepulse/forecast"
	"pricepulse/ml"
	"pricepulse/pipeline"
	"pricepulse/store"
)

func newTestAPI(t *testing.T) (*API, *http.ServeMux, string) {
	t.Helper()
	modelsDir := t.TempDir()
	st := store.NewMemoryStore()
	api := &API{
		Store:      st,
		Auth:       auth.NewLocalProvider(st, "test-secret", time.Hour, nil),
		Forecaster: forecast.NewService(modelsDir, nil),
	}
	mux := http.NewServeMux()
	api.Register(mux)
	return api, mux, modelsDir
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", rec.Code, body)
	}
}

func TestPredictRejectsBadJSON(t *testing.T) {
	_, mux, _ := newTestAPI(t)

	req := httptest.NewRequest("POST", "/api/predict", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "error" || body["message"] != "No JSON data provided" {
		t.Errorf("body = %v", body)
	}
}

func TestPredictRejectsMissingFields(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "POST", "/api/predict", map[string]string{"commodity": "Onion"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if body["message"] != "Missing 'commodity' or 'market'" {
		t.Errorf("message = %v", body["message"])
	}
}

func TestPredictFallback(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "POST", "/api/predict", map[string]interface{}{
		"commodity": "Onion",
		"market":    "Pune_APMC",
		"days":      5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback must still be 200, got %d", rec.Code)
	}
	if body["status"] != "fallback_missing_model" {
		t.Errorf("status = %v", body["status"])
	}

	rows, ok := body["data"].([]interface{})
	if !ok || len(rows) != 5 {
		t.Fatalf("data = %v, want 5 rows", body["data"])
	}
	row := rows[0].(map[string]interface{})
	if _, ok := row["yhat_lower"]; !ok {
		t.Error("fallback rows must carry bounds")
	}
	if _, ok := row["ds"]; !ok {
		t.Error("rows must carry a ds date")
	}
}

func TestPredictTrainedModel(t *testing.T) {
	_, mux, modelsDir := newTestAPI(t)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]pipeline.SeriesPoint, 60)
	for i := range points {
		points[i] = pipeline.SeriesPoint{
			Date:        start.AddDate(0, 0, i),
			Price:       40 + 0.1*float64(i),
			BufferStock: 5000,
		}
	}
	model := ml.NewSeasonalModel(3)
	model.AddRegressor(ml.BufferStockRegressor)
	if err := model.Fit(points); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if err := model.Save(ml.ArtifactPath(modelsDir, "Onion_Pune_APMC")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec, body := doJSON(t, mux, "POST", "/api/predict", map[string]interface{}{
		"commodity": "Onion",
		"market":    "Pune APMC",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if body["status"] != "success" {
		t.Fatalf("status = %v", body["status"])
	}
	if body["market"] != "Pune_APMC" {
		t.Errorf("market not sanitized: %v", body["market"])
	}

	rows := body["data"].([]interface{})
	if len(rows) != 7 {
		t.Fatalf("days should default to 7, got %d rows", len(rows))
	}
	row := rows[0].(map[string]interface{})
	if _, ok := row["yhat_lower"]; ok {
		t.Error("served forecasts must omit bounds")
	}
}

func TestCommoditiesCoercion(t *testing.T) {
	api, mux, _ := newTestAPI(t)

	ctx := context.Background()
	if _, err := api.Store.Add(ctx, "commodities", store.Document{
		"commodity":   "Onion",
		"min_price":   "38.5",
		"modal_price": 42.0,
		"max_price":   nil,
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	rec, body := doJSON(t, mux, "GET", "/api/commodities", nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("response = %d %v", rec.Code, body)
	}

	docs := body["data"].([]interface{})
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	doc := docs[0].(map[string]interface{})
	if doc["min_price"] != 38.5 {
		t.Errorf("min_price = %v, want coerced 38.5", doc["min_price"])
	}
	if doc["max_price"] != 0.0 {
		t.Errorf("max_price = %v, want defaulted 0", doc["max_price"])
	}
}

func TestSentimentEnvelope(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "GET", "/api/market_sentiment", nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("response = %d %v", rec.Code, body)
	}

	known := false
	for _, s := range sampleNews {
		if body["headline"] == s.Headline {
			known = true
			if body["sentiment"] != s.Sentiment || body["impact"] != s.Impact {
				t.Errorf("fields do not match sample: %v", body)
			}
		}
	}
	if !known {
		t.Errorf("unknown headline %v", body["headline"])
	}
}

func TestModelsWithoutIndex(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "GET", "/api/models", nil)
	if rec.Code != http.StatusOK || body["success"] != true {
		t.Fatalf("response = %d %v", rec.Code, body)
	}
	if models, ok := body["models"].([]interface{}); !ok || len(models) != 0 {
		t.Errorf("models = %v, want empty list", body["models"])
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	_, mux, _ := newTestAPI(t)

	rec, body := doJSON(t, mux, "POST", "/pricepulse/register", map[string]string{
		"name":     "Asha",
		"email":    "asha@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("register = %d %v", rec.Code, body)
	}

	// Duplicate email.
	rec, body = doJSON(t, mux, "POST", "/pricepulse/register", map[string]string{
		"name":     "Asha",
		"email":    "asha@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusBadRequest || body["status"] != "error" {
		t.Fatalf("duplicate register = %d %v", rec.Code, body)
	}

	// Wrong password.
	rec, _ = doJSON(t, mux, "POST", "/pricepulse/login", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("wrong password login = %d", rec.Code)
	}

	rec, body = doJSON(t, mux, "POST", "/pricepulse/login", map[string]string{
		"email":    "asha@example.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("login = %d %v", rec.Code, body)
	}
	if token, _ := body["idToken"].(string); token == "" {
		t.Error("login response missing idToken")
	}
	if uid, _ := body["uid"].(string); uid == "" {
		t.Error("login response missing uid")
	}
	user, ok := body["user"].(map[string]interface{})
	if !ok || user["name"] != "Asha" || user["role"] != "normal" {
		t.Errorf("profile = %v", body["user"])
	}
}

func TestLoginMissingFields(t *testing.T) {
	_, mux, _ := newTestAPI(t)
	rec, body := doJSON(t, mux, "POST", "/pricepulse/login", map[string]string{"email": "a@example.com"})
	if rec.Code != http.StatusBadRequest || body["message"] != "Missing fields" {
		t.Fatalf("login = %d %v", rec.Code, body)
	}
}
