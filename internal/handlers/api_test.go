package handlers

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swiggy-dashboard/internal/models"
	"swiggy-dashboard/internal/services"
)

func createTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	testData := []models.Order{
		{
			Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Empire",
			City:        "Bengaluru",
			State:       "Karnataka",
			Dish:        "Paneer Tikka",
			Category:    "Starters",
			FoodType:    models.FoodTypeVeg,
			Price:       250,
			Rating:      4.2,
			RatingCount: 120,
		},
		{
			Date:        time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Nagas",
			City:        "Chennai",
			State:       "Tamil Nadu",
			Dish:        "Chicken Biryani",
			Category:    "Mains",
			FoodType:    models.FoodTypeNonVeg,
			Price:       320,
			Rating:      4.5,
			RatingCount: 200,
		},
		{
			Date:        time.Date(2025, 4, 5, 0, 0, 0, 0, time.UTC),
			Restaurant:  "Karim's",
			City:        "New Delhi",
			State:       "Delhi",
			Dish:        "Dal Makhani",
			Category:    "Mains",
			FoodType:    models.FoodTypeVeg,
			Price:       280,
			Rating:      math.NaN(),
			RatingCount: 0,
		},
	}
	a.SetData(testData)
	return a
}

func TestNewAPIHandlers(t *testing.T) {
	analytics := createTestAnalytics()
	logger := slog.Default()
	handlers := NewAPIHandlers(analytics, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}

	if handlers.analytics != analytics {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	w := httptest.NewRecorder()

	handlers.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected content-type 'application/json', got %q", ct)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
		t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
	}

	var response struct {
		Success bool           `json:"success"`
		Data    models.Summary `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if !response.Success {
		t.Error("expected success=true in response")
	}
	if response.Data.TotalOrders != 3 {
		t.Errorf("expected 3 orders, got %d", response.Data.TotalOrders)
	}
	if response.Data.TotalSales != 850 {
		t.Errorf("expected total sales 850, got %f", response.Data.TotalSales)
	}
}

func TestAPIHandlers_HandleTopCities(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/top-cities", nil)
	w := httptest.NewRecorder()

	handlers.HandleTopCities(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response struct {
		Success bool               `json:"success"`
		Data    []models.CitySales `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if len(response.Data) != 3 {
		t.Fatalf("expected 3 cities, got %d", len(response.Data))
	}
	if response.Data[0].City != "Chennai" {
		t.Errorf("expected Chennai first by sales, got %q", response.Data[0].City)
	}
}

func TestAPIHandlers_HandleStateSales(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/state-sales", nil)
	w := httptest.NewRecorder()

	handlers.HandleStateSales(w, req)

	var response struct {
		Success bool                `json:"success"`
		Data    []models.StateSales `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	for _, s := range response.Data {
		if s.Lat == 0 || s.Lon == 0 {
			t.Errorf("state %q should carry coordinates", s.State)
		}
	}
}

func TestAPIHandlers_JSONEndpoints(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{"summary", handlers.HandleSummary, "/api/summary"},
		{"monthly-sales", handlers.HandleMonthlySales, "/api/monthly-sales"},
		{"daily-sales", handlers.HandleDailySales, "/api/daily-sales"},
		{"weekly-sales", handlers.HandleWeeklySales, "/api/weekly-sales"},
		{"food-type-trend", handlers.HandleFoodTypeTrend, "/api/food-type-trend"},
		{"state-sales", handlers.HandleStateSales, "/api/state-sales"},
		{"top-cities", handlers.HandleTopCities, "/api/top-cities"},
		{"quarterly", handlers.HandleQuarterly, "/api/quarterly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			tt.handler(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type 'application/json', got %q", ct)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "public, max-age=300" {
				t.Errorf("expected cache-control 'public, max-age=300', got %q", cc)
			}

			var response map[string]interface{}
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("response should be valid JSON: %v", err)
			}

			if success, ok := response["success"].(bool); !ok || !success {
				t.Error("expected success=true in response")
			}
			if _, ok := response["data"]; !ok {
				t.Error("expected data field in response")
			}
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	// Health endpoint should NOT be cached.
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not set cache-control, got %q", cc)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	data, ok := response["data"].(map[string]interface{})
	if !ok {
		t.Fatal("expected health data in response")
	}
	if status, ok := data["status"].(string); !ok || status != "healthy" {
		t.Errorf("expected status 'healthy', got %q", status)
	}
	if timestamp, ok := data["timestamp"].(string); !ok || timestamp == "" {
		t.Error("expected non-empty timestamp")
	} else if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("invalid timestamp format: %v", err)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	handlers := NewAPIHandlers(createTestAnalytics(), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()

	handlers.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var response struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}

	if got, ok := response.Data["record_count"].(float64); !ok || got != 3 {
		t.Errorf("expected record_count 3, got %v", response.Data["record_count"])
	}
}
