package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/services"
	"golang.org/x/time/rate"
)

type downStore struct {
	*database.MemoryStore
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func newTestMux(t *testing.T, store database.Store) *http.ServeMux {
	t.Helper()
	imports, snapshots := services.NewServices(store, config.Default(), config.ColumnAliases{})
	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewImportHandler(imports, 1<<20),
		NewSnapshotHandler(snapshots),
		NewHealthHandler(store))
	return mux
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHandleImport_JSONBody(t *testing.T) {
	store := database.NewMemoryStore()
	mux := newTestMux(t, store)

	body := `{"rows":[{"ticker":"CWB","kind":"benchmark","date":"2025-07-31","ytd_return":5}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := do(t, mux, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	got := decode[models.ImportOutcome](t, rr)
	if got.Success != 1 || got.Failed != 0 || got.ImportID == "" {
		t.Errorf("outcome = %+v", got)
	}
	if store.Len(models.Benchmark) != 1 {
		t.Errorf("benchmark rows = %d, want 1", store.Len(models.Benchmark))
	}
}

func TestHandleImport_Multipart(t *testing.T) {
	store := database.NewMemoryStore()
	mux := newTestMux(t, store)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "july.csv")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("Ticker,Date,YTD Return\naaa ,2025-07-31,10%\nbbb,2025-07-31,N/A\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := do(t, mux, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decode[models.ImportOutcome](t, rr); got.Success != 2 {
		t.Errorf("outcome = %+v", got)
	}
}

func TestHandleImport_StatusCodes(t *testing.T) {
	failing := database.NewMemoryStore()
	failing.FailUpsert = func(models.Destination, []models.PerformanceRecord) error { return errors.New("quota") }

	tests := []struct {
		name  string
		store database.Store
		ct    string
		body  string
		want  int
	}{
		{"chunk failure", failing, "application/json", `[{"ticker":"AAA","date":"2025-07-31"}]`, http.StatusMultiStatus},
		{"bad json", database.NewMemoryStore(), "application/json", `{"rows":`, http.StatusBadRequest},
		{"missing column", database.NewMemoryStore(), "text/csv", "name\nx\n", http.StatusBadRequest},
		{"store down", downStore{database.NewMemoryStore()}, "application/json", `[]`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/imports", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.ct)
			rr := do(t, newTestMux(t, tt.store), req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestHandleImport_PartialKeepsCounts(t *testing.T) {
	store := database.NewMemoryStore()
	store.FailUpsert = func(dest models.Destination, _ []models.PerformanceRecord) error {
		if dest == models.Benchmark {
			return errors.New("quota")
		}
		return nil
	}
	body := `[{"ticker":"AAA","date":"2025-07-31","ytd_return":1},{"ticker":"SPX","kind":"benchmark","date":"2025-07-31"}]`
	req := httptest.NewRequest(http.MethodPost, "/api/imports?format=json", strings.NewReader(body))
	rr := do(t, newTestMux(t, store), req)

	if rr.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", rr.Code)
	}
	got := decode[struct {
		models.ImportOutcome
		Error string `json:"error"`
	}](t, rr)
	if got.Success != 1 || got.Failed != 1 || got.Error == "" || len(got.Errors) != 1 || got.Errors[0].Table != models.Benchmark {
		t.Errorf("response = %+v", got)
	}
}

func TestSnapshotRoutes(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	july15 := models.PerformanceRecord{Ticker: "AAA", Date: "2025-07-15"}
	july15.Metrics.YTDReturn = models.Float(1)
	store.Upsert(ctx, models.Fund, []models.PerformanceRecord{july15})
	store.Upsert(ctx, models.Benchmark, []models.PerformanceRecord{{Ticker: "SPX", Date: "2025-06-30"}})
	mux := newTestMux(t, store)

	rr := do(t, mux, httptest.NewRequest(http.MethodGet, "/api/snapshots", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	list := decode[[]models.SnapshotSummary](t, rr)
	if len(list) != 2 || list[0].Date != "2025-07-15" || list[0].Canonical {
		t.Errorf("list = %+v", list)
	}
	etag := rr.Header().Get("ETag")
	if etag == "" {
		t.Fatal("list response has no ETag")
	}
	req := httptest.NewRequest(http.MethodGet, "/api/snapshots", nil)
	req.Header.Set("If-None-Match", etag)
	if rr := do(t, mux, req); rr.Code != http.StatusNotModified {
		t.Errorf("conditional list status = %d, want 304", rr.Code)
	}

	rr = do(t, mux, httptest.NewRequest(http.MethodGet, "/api/snapshots/2025-06-30?kind=benchmark", nil))
	if recs := decode[[]models.PerformanceRecord](t, rr); rr.Code != http.StatusOK || len(recs) != 1 || recs[0].Ticker != "SPX" {
		t.Errorf("get = %d %+v", rr.Code, recs)
	}
	if rr := do(t, mux, httptest.NewRequest(http.MethodGet, "/api/snapshots/2025-06-30?kind=index", nil)); rr.Code != http.StatusBadRequest {
		t.Errorf("get with bad kind status = %d, want 400", rr.Code)
	}

	rr = do(t, mux, httptest.NewRequest(http.MethodPost, "/api/snapshots/2025-07-15/convert-eom", nil))
	res := decode[models.ConvertResult](t, rr)
	if rr.Code != http.StatusOK || res.TargetDate != "2025-07-31" || res.Moved != 1 || res.Merged {
		t.Errorf("convert = %d %+v", rr.Code, res)
	}
	if rr := do(t, mux, httptest.NewRequest(http.MethodPost, "/api/snapshots/garbage/convert-eom", nil)); rr.Code != http.StatusBadRequest {
		t.Errorf("convert garbage status = %d, want 400", rr.Code)
	}

	rr = do(t, mux, httptest.NewRequest(http.MethodPost, "/api/snapshots/reconcile", nil))
	if got := decode[reconcileResponse](t, rr); rr.Code != http.StatusOK || len(got.Results) != 0 {
		t.Errorf("reconcile = %d %+v", rr.Code, got)
	}

	rr = do(t, mux, httptest.NewRequest(http.MethodDelete, "/api/snapshots/2025-07-31", nil))
	if got := decode[map[string]int64](t, rr); rr.Code != http.StatusOK || got["deleted"] != 1 {
		t.Errorf("delete = %d %+v", rr.Code, got)
	}
}

func TestConvertPartialIs207(t *testing.T) {
	store := database.NewMemoryStore()
	store.Upsert(context.Background(), models.Fund, []models.PerformanceRecord{{Ticker: "AAA", Date: "2025-07-15"}})
	store.FailDelete = func(models.Destination, string) error { return errors.New("locked") }

	rr := do(t, newTestMux(t, store), httptest.NewRequest(http.MethodPost, "/api/snapshots/2025-07-15/convert-eom", nil))
	if rr.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", rr.Code)
	}
	if got := decode[models.ConvertResult](t, rr); got.Status != models.ConversionPartial {
		t.Errorf("status field = %q, want partial", got.Status)
	}
}

func TestHealth(t *testing.T) {
	if rr := do(t, newTestMux(t, database.NewMemoryStore()), httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rr.Code)
	}
	if rr := do(t, newTestMux(t, downStore{database.NewMemoryStore()}), httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz on a down store = %d, want 503", rr.Code)
	}
}

func TestMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	limited := RateLimitMiddleware(rate.NewLimiter(rate.Limit(0.001), 1))(ok)
	if rr := do(t, limited, httptest.NewRequest(http.MethodGet, "/", nil)); rr.Code != http.StatusOK {
		t.Errorf("first request = %d, want 200", rr.Code)
	}
	if rr := do(t, limited, httptest.NewRequest(http.MethodGet, "/", nil)); rr.Code != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", rr.Code)
	}

	withCORS := CORSMiddleware([]string{"http://localhost:3000"})(ok)
	req := httptest.NewRequest(http.MethodOptions, "/api/snapshots", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := do(t, withCORS, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/snapshots", nil)
	req.Header.Set("Origin", "http://evil.example")
	if got := do(t, withCORS, req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}
