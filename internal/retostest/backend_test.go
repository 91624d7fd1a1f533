package retostest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Makepad-fr/retos/internal/model"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBackendRoutes(t *testing.T) {
	b := New(Options{})
	h := b.Handler()

	cases := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantInBody string
	}{
		{"create", http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c1","dificultad":"Bajo"}`, http.StatusCreated, `"estado":"pendiente"`},
		{"create missing title", http.MethodPost, "/retos", `{"descripcion":"d","categoria":"c1","dificultad":"bajo"}`, http.StatusBadRequest, "Campo obligatorio: titulo"},
		{"create blank category", http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"  ","dificultad":"bajo"}`, http.StatusBadRequest, "Campo obligatorio: categoria"},
		{"create english difficulty", http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c1","dificultad":"easy"}`, http.StatusBadRequest, "dificultad debe ser: bajo, medio o alto"},
		{"create english status", http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c1","dificultad":"alto","estado":"completed"}`, http.StatusBadRequest, "estado inválido"},
		{"list", http.MethodGet, "/retos", "", http.StatusOK, `"dificultad":"bajo"`},
		{"filter", http.MethodGet, "/retos/filtrar?categoria=c1", "", http.StatusOK, `"categoria":"c1"`},
		{"get", http.MethodGet, "/retos/1", "", http.StatusOK, `"titulo":"A"`},
		{"get missing", http.MethodGet, "/retos/99", "", http.StatusNotFound, "message"},
		{"patch status", http.MethodPatch, "/retos/1", `{"estado":"En Proceso"}`, http.StatusOK, `"estado":"en proceso"`},
		{"patch english status", http.MethodPatch, "/retos/1", `{"estado":"in_progress"}`, http.StatusBadRequest, "estado inválido"},
		{"patch english difficulty", http.MethodPatch, "/retos/1", `{"dificultad":"hard"}`, http.StatusBadRequest, "dificultad inválida"},
		{"delete", http.MethodDelete, "/retos/1", "", http.StatusNoContent, ""},
		{"delete again", http.MethodDelete, "/retos/1", "", http.StatusNotFound, "no encontrado"},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.path, tc.body)
		if rec.Code != tc.wantStatus {
			t.Fatalf("%s: status = %d, want %d (body %s)", tc.name, rec.Code, tc.wantStatus, rec.Body.String())
		}
		if tc.wantInBody != "" && !strings.Contains(rec.Body.String(), tc.wantInBody) {
			t.Errorf("%s: body %s does not contain %s", tc.name, rec.Body.String(), tc.wantInBody)
		}
	}
	if got := b.Requests(http.MethodDelete); got != 2 {
		t.Errorf("DELETE count = %d, want 2", got)
	}
}

func TestBackendFilterAndFailures(t *testing.T) {
	b := New(Options{PartialUpdates: true})
	b.Seed(
		model.Challenge{Title: "A", Category: "c1", Difficulty: model.DifficultyEasy, Status: model.StatusPending},
		model.Challenge{Title: "B", Category: "c2", Difficulty: model.DifficultyHard, Status: model.StatusPending},
	)
	h := b.Handler()

	rec := do(t, h, http.MethodGet, "/retos/filtrar?dificultad=alto", "")
	var got []model.Challenge
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("filtered = %+v, want only B", got)
	}

	rec = do(t, h, http.MethodGet, "/retos/filtrar?dificultad=hard", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("english filter matched %s", body)
	}

	rec = do(t, h, http.MethodPatch, "/retos/1", `{"estado":"completado"}`)
	if body := rec.Body.String(); body != `{"estado":"completado","id":1}` {
		t.Errorf("partial update body = %s", body)
	}
	if got := b.Items()[0].Status; got != model.StatusCompleted {
		t.Errorf("canonical status = %q", got)
	}

	b.FailNext(http.MethodGet, http.StatusServiceUnavailable, "down")
	rec = do(t, h, http.MethodGet, "/retos", "")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "down") {
		t.Errorf("injected failure: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/retos", "")
	if rec.Code != http.StatusOK {
		t.Errorf("failure should apply once, got %d", rec.Code)
	}
}

func TestBackendRequestLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	b := New(Options{Logger: zap.New(core)})
	b.Seed(model.Challenge{Title: "A", Description: "a", Category: "go", Difficulty: model.DifficultyEasy, Status: model.StatusPending})
	h := b.Handler()

	do(t, h, http.MethodGet, "/retos/1", "")
	do(t, h, http.MethodDelete, "/retos/9", "")

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 2 {
		t.Fatalf("log entries = %d, want 2", len(entries))
	}
	first := entries[0].ContextMap()
	if first["path"] != "/retos/:id" || first["status"] != int64(http.StatusOK) {
		t.Fatalf("first entry = %v", first)
	}
	if got := entries[1].ContextMap()["status"]; got != int64(http.StatusNotFound) {
		t.Fatalf("second status = %v", got)
	}
}

func TestBackendWritesIsoformatTimestamps(t *testing.T) {
	b := New(Options{})
	b.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 123456000, time.UTC) }
	h := b.Handler()

	rec := do(t, h, http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c","dificultad":"medio"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if raw["created_at"] != "2025-01-02T03:04:05.123456" || raw["updated_at"] != raw["created_at"] {
		t.Fatalf("timestamps = %v / %v", raw["created_at"], raw["updated_at"])
	}
	if raw["dificultad"] != "medio" || raw["estado"] != "pendiente" {
		t.Fatalf("stored labels = %v / %v", raw["dificultad"], raw["estado"])
	}
}

func TestBackendEnglishLabels(t *testing.T) {
	b := New(Options{Labels: model.EnglishLabels})
	h := b.Handler()

	rec := do(t, h, http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c","dificultad":"bajo"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "easy, medium o hard") {
		t.Fatalf("spanish label on english backend: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodPost, "/retos", `{"titulo":"A","descripcion":"d","categoria":"c","dificultad":"easy"}`)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"estado":"pending"`) {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
}
