package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"pricepulse/auth"
	"pricepulse/forecast"
	"pricepulse/store"
)

const commodityCollection = "commodities"

// API bundles the dependencies the handlers delegate to.
type API struct {
	Store      store.Store
	Auth       auth.Provider
	Forecaster *forecast.Service
	Models     *forecast.ModelIndex
	Logger     *zap.Logger
}

// Register mounts all routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/commodities", a.handleCommodities)
	mux.HandleFunc("GET /api/market_sentiment", a.handleSentiment)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/models", a.handleModels)
	mux.HandleFunc("GET /api/ws/sentiment", a.handleSentimentWS)
	mux.HandleFunc("POST /pricepulse/register", a.handleRegister)
	mux.HandleFunc("POST /pricepulse/login", a.handleLogin)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCommodities returns every document of the commodities collection
// with the three price fields coerced to numbers.
func (a *API) handleCommodities(w http.ResponseWriter, r *http.Request) {
	docs, err := a.Store.Query(r.Context(), commodityCollection)
	if err != nil {
		a.Logger.Error("commodities query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	for _, doc := range docs {
		for _, key := range []string{"min_price", "modal_price", "max_price"} {
			doc[key] = coerceFloat(doc[key])
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    docs,
	})
}

func (a *API) handleModels(w http.ResponseWriter, r *http.Request) {
	keys := []string{}
	if a.Models != nil {
		keys = a.Models.Keys()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"models":  keys,
	})
}

type predictRequest struct {
	Commodity string      `json:"commodity"`
	Market    string      `json:"market"`
	Days      json.Number `json:"days"`
}

type forecastRow struct {
	DS    string   `json:"ds"`
	Yhat  float64  `json:"yhat"`
	Lower *float64 `json:"yhat_lower,omitempty"`
	Upper *float64 `json:"yhat_upper,omitempty"`
}

// handlePredict delegates to the forecast service. Fallback data still
// returns 200; only request validation fails with 400.
func (a *API) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "No JSON data provided",
		})
		return
	}
	if req.Commodity == "" || req.Market == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Missing 'commodity' or 'market'",
		})
		return
	}

	days := 7
	if req.Days != "" {
		if d, err := strconv.Atoi(req.Days.String()); err == nil {
			days = d
		}
	}

	result := a.Forecaster.Forecast(req.Commodity, req.Market, days)

	rows := make([]forecastRow, 0, len(result.Points))
	for _, p := range result.Points {
		rows = append(rows, forecastRow{
			DS:    p.Date.Format("2006-01-02"),
			Yhat:  p.Yhat,
			Lower: p.Lower,
			Upper: p.Upper,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    result.Status,
		"commodity": result.Commodity,
		"market":    result.Market,
		"data":      rows,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// coerceFloat turns stored numbers or numeric strings into float64,
// defaulting to 0.
func coerceFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}
