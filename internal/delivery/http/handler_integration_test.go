package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mealsense/backend/config"
	"github.com/mealsense/backend/internal/domain"
	"github.com/mealsense/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

func fptr(v float64) *float64 { return &v }

// stubCatalog is a fixed two-entry catalog for endpoint tests.
type stubCatalog struct{}

func (stubCatalog) SearchBest(ctx context.Context, query string) (*domain.FoodEntry, error) {
	if strings.Contains("nasi lemak", query) || strings.Contains(query, "nasi") {
		return nasiLemakEntry(), nil
	}
	return nil, domain.ErrFoodNotFound
}

func (stubCatalog) SearchSummaries(ctx context.Context, query string, limit int) ([]domain.FoodSummary, error) {
	if strings.Contains(query, "nasi") {
		return []domain.FoodSummary{{
			ID: "local-nasi-lemak", Name: "Nasi Lemak", Category: "rice", DisplayName: "Nasi Lemak",
		}}, nil
	}
	return nil, nil
}

func (stubCatalog) GetByID(ctx context.Context, id string) (*domain.FoodEntry, error) {
	if id == "local-nasi-lemak" {
		return nasiLemakEntry(), nil
	}
	return nil, domain.ErrFoodNotFound
}

func (stubCatalog) ReplaceAll(ctx context.Context, entries []domain.FoodEntry) error {
	return nil
}

func nasiLemakEntry() *domain.FoodEntry {
	return &domain.FoodEntry{
		ID:       "local-nasi-lemak",
		Name:     "Nasi Lemak",
		Category: "rice",
		Per100g: &domain.NutrientVector{
			EnergyKcal: fptr(200), CarbG: fptr(30), ProteinG: fptr(5), FatG: fptr(7),
		},
	}
}

// stubExtractor answers with a fixed single-food payload.
type stubExtractor struct {
	err error
}

func (e stubExtractor) Extract(ctx context.Context, input domain.ExtractionInput) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return `{"foods":[{"name":"nasi lemak","portion":"1 plate"}]}`, nil
}

// setupTestRouter creates a test router wired to the stub catalog and extractor.
func setupTestRouter(extractErr error) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}

	mealService := usecase.NewMealService(stubCatalog{}, stubExtractor{err: extractErr}, usecase.MealServiceConfig{})
	handler := NewHandler(mealService, stubCatalog{}, 20)

	return SetupRouter(cfg, handler)
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(nil)

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
		}

		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["status"] != "healthy" {
			t.Errorf("status field = %q, want healthy", body["status"])
		}
		if body["service"] != "mealsense-backend" {
			t.Errorf("service field = %q, want mealsense-backend", body["service"])
		}
	})

	t.Run("sets a request id header", func(t *testing.T) {
		router := setupTestRouter(nil)

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID header not set")
		}
	})
}

func TestAnalyzeMealEndpoint(t *testing.T) {
	router := setupTestRouter(nil)

	t.Run("analyzes a text meal", func(t *testing.T) {
		payload := `{"text":"nasi lemak for lunch"}`
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		var resp domain.AnalyzeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(resp.Canonical) != 1 {
			t.Fatalf("canonical items = %d, want 1", len(resp.Canonical))
		}
		if resp.Canonical[0].FoodID != "local-nasi-lemak" {
			t.Errorf("food id = %q, want local-nasi-lemak", resp.Canonical[0].FoodID)
		}
		if resp.Nutrients.Total.EnergyKcal <= 0 {
			t.Errorf("total energy = %v, want > 0", resp.Nutrients.Total.EnergyKcal)
		}
	})

	t.Run("analyzes a selected food id without extraction", func(t *testing.T) {
		payload := `{"selectedFoodId":"local-nasi-lemak"}`
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(`{"text":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects an empty request", func(t *testing.T) {
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown selected food id maps to 404", func(t *testing.T) {
		payload := `{"selectedFoodId":"local-missing"}`
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("extraction outage maps to 502", func(t *testing.T) {
		broken := setupTestRouter(domain.ErrExtractionUnavailable)

		payload := `{"text":"nasi lemak"}`
		req, _ := http.NewRequest("POST", "/api/v1/meals/analyze", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		broken.ServeHTTP(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
		}
	})
}

func TestSearchFoodsEndpoint(t *testing.T) {
	router := setupTestRouter(nil)

	t.Run("returns results for a query", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/foods/search?q=Nasi", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		var body struct {
			Results []domain.FoodSummary `json:"results"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Results) != 1 || body.Results[0].ID != "local-nasi-lemak" {
			t.Errorf("results = %+v, want the nasi lemak summary", body.Results)
		}
	})

	t.Run("missing query is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/foods/search", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("punctuation-only query is a 400", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/foods/search?q=%21%3F", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestGetFoodByIDEndpoint(t *testing.T) {
	router := setupTestRouter(nil)

	t.Run("returns the full entry", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/foods/local-nasi-lemak", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}

		var entry domain.FoodEntry
		if err := json.Unmarshal(w.Body.Bytes(), &entry); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if entry.ID != "local-nasi-lemak" || entry.Per100g == nil {
			t.Errorf("entry = %+v, want the full nasi lemak entry", entry)
		}
	})

	t.Run("unknown id is a 404", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/foods/local-missing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestCORSHeaders(t *testing.T) {
	router := setupTestRouter(nil)

	t.Run("allowed origin is echoed", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want the origin echoed", got)
		}
	})

	t.Run("preflight is answered", func(t *testing.T) {
		req, _ := http.NewRequest("OPTIONS", "/api/v1/meals/analyze", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", "POST")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
		}
	})
}
