package listsync

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Makepad-fr/retos/internal/api"
	"github.com/Makepad-fr/retos/internal/gateway"
	"github.com/Makepad-fr/retos/internal/model"
	"github.com/Makepad-fr/retos/internal/retostest"
)

func newSync(t *testing.T, opts retostest.Options) (*Synchronizer, *retostest.Server) {
	t.Helper()
	srv := retostest.Start(t, opts)
	remote := api.New(gateway.New(0, nil), api.Endpoints{
		BaseURL:    srv.URL,
		ListPath:   "/retos",
		FilterPath: "/retos/filtrar",
	})
	return New(remote, nil), srv
}

func seedThree(srv *retostest.Server) {
	srv.Seed(
		model.Challenge{Title: "A", Description: "a", Category: "c1", Difficulty: model.DifficultyEasy, Status: model.StatusPending},
		model.Challenge{Title: "B", Description: "b", Category: "c2", Difficulty: model.DifficultyMedium, Status: model.StatusPending},
		model.Challenge{Title: "C", Description: "c", Category: "c1", Difficulty: model.DifficultyHard, Status: model.StatusInProgress},
	)
}

// recorder collects events in the order listeners saw them.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Op, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Op
	}
	return out
}

func ids(items []model.Challenge) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestLoadReplacesItemsInResponseOrder(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Items(); !reflect.DeepEqual(got, srv.Items()) {
		t.Errorf("Items = %+v\nwant %+v", got, srv.Items())
	}
}

func TestLoadFailureKeepsItems(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := s.Items()

	rec := &recorder{}
	s.Subscribe(rec.listen)
	srv.FailNext(http.MethodGet, http.StatusInternalServerError, "db down")

	err := s.Load(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if msg := UserMessage(err); msg != "db down" {
		t.Errorf("UserMessage = %q, want %q", msg, "db down")
	}
	if got := s.Items(); !reflect.DeepEqual(got, before) {
		t.Errorf("items changed after failed load: %+v", got)
	}
	if len(rec.events) != 1 || rec.events[0].Err == nil {
		t.Errorf("want one failure event, got %+v", rec.events)
	}
}

func TestCreateReloadsWithServerDefaults(t *testing.T) {
	s, _ := newSync(t, retostest.Options{})
	rec := &recorder{}
	s.Subscribe(rec.listen)

	created, err := s.Create(context.Background(), model.Draft{
		Title:       " New ",
		Description: "desc",
		Category:    "c1",
		Difficulty:  "medio",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created == nil || created.ID == 0 {
		t.Fatalf("created = %+v, want server-assigned id", created)
	}

	items := s.Items()
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	it := items[0]
	if it.ID != created.ID || it.Title != "New" || it.Status != model.StatusPending || it.Difficulty != model.DifficultyMedium {
		t.Errorf("item = %+v", it)
	}
	if got, want := rec.ops(), []Op{OpCreate, OpLoad}; !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCreateFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid draft sends nothing", func(t *testing.T) {
		s, srv := newSync(t, retostest.Options{})
		_, err := s.Create(ctx, model.Draft{Title: "x", Category: "c", Difficulty: "easy"})
		if !errors.Is(err, model.ErrInvalidDraft) {
			t.Fatalf("err = %v, want ErrInvalidDraft", err)
		}
		if n := srv.Requests(http.MethodPost); n != 0 {
			t.Errorf("POST count = %d, want 0", n)
		}
	})

	t.Run("server rejection keeps items", func(t *testing.T) {
		s, srv := newSync(t, retostest.Options{})
		seedThree(srv)
		if err := s.Load(ctx); err != nil {
			t.Fatal(err)
		}
		before := s.Items()
		srv.FailNext(http.MethodPost, http.StatusBadRequest, "titulo duplicado")

		_, err := s.Create(ctx, model.Draft{Title: "A", Description: "d", Category: "c", Difficulty: "easy"})
		if UserMessage(err) != "titulo duplicado" {
			t.Errorf("UserMessage = %q", UserMessage(err))
		}
		if got := s.Items(); !reflect.DeepEqual(got, before) {
			t.Errorf("items changed: %+v", got)
		}
	})
}

func TestUpdateStatusPatchesOnlyTarget(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	before := s.Items()
	gets := srv.Requests(http.MethodGet)

	got, err := s.UpdateStatus(ctx, 2, model.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("returned status = %q", got.Status)
	}

	after := s.Items()
	for i := range after {
		want := before[i]
		if want.ID == 2 {
			want.Status = model.StatusCompleted
		}
		if !reflect.DeepEqual(after[i], want) {
			t.Errorf("item %d = %+v, want %+v", after[i].ID, after[i], want)
		}
	}
	if srv.Requests(http.MethodGet) != gets {
		t.Error("status update must not reload the list")
	}
}

func TestUpdateStatusFailureKeepsStatus(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	srv.FailNext(http.MethodPatch, http.StatusConflict, "estado bloqueado")

	if _, err := s.UpdateStatus(ctx, 1, model.StatusCompleted); err == nil {
		t.Fatal("expected error")
	}
	c, _ := s.Find(1)
	if c.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", c.Status)
	}
}

func TestUpdateStatusPartialResponse(t *testing.T) {
	s, srv := newSync(t, retostest.Options{PartialUpdates: true})
	srv.Seed(model.Challenge{ID: 1, Title: "A", Category: "c1", Difficulty: model.DifficultyEasy, Status: model.StatusPending})
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpdateStatus(ctx, 1, model.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	c, ok := s.Find(1)
	if !ok {
		t.Fatal("item 1 missing")
	}
	if c.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", c.Status)
	}
	if c.Title != "A" || c.Category != "c1" {
		t.Errorf("partial response must not blank other fields: %+v", c)
	}
}

func TestUpdateFields(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	title := "A2"
	diff := model.Difficulty("alto")
	got, err := s.Update(ctx, 1, model.Patch{Title: &title, Difficulty: &diff})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// the server canonicalizes the difficulty and its echo wins
	if got.Title != "A2" || got.Difficulty != model.DifficultyHard {
		t.Errorf("got %+v", got)
	}

	if _, err := s.Update(ctx, 1, model.Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Errorf("empty patch err = %v", err)
	}
}

func TestRemoveRequiresConfirmation(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name    string
		confirm ConfirmFunc
	}{
		{"nil", nil},
		{"declined", func(model.Challenge) bool { return false }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := s.Remove(ctx, 1, tc.confirm); !errors.Is(err, ErrNotConfirmed) {
				t.Fatalf("err = %v, want ErrNotConfirmed", err)
			}
		})
	}
	if n := srv.Requests(http.MethodDelete); n != 0 {
		t.Errorf("DELETE count = %d, want 0", n)
	}
	if len(s.Items()) != 3 {
		t.Errorf("items = %d, want 3", len(s.Items()))
	}
}

func TestRemove(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	var asked model.Challenge
	err := s.Remove(ctx, 2, func(c model.Challenge) bool {
		asked = c
		return true
	})
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if asked.Title != "B" {
		t.Errorf("confirm saw %+v, want B", asked)
	}
	if got, want := ids(s.Items()), []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}

	srv.FailNext(http.MethodDelete, http.StatusInternalServerError, "Error al eliminar")
	err = s.Remove(ctx, 1, func(model.Challenge) bool { return true })
	if UserMessage(err) != "Error al eliminar" {
		t.Errorf("UserMessage = %q", UserMessage(err))
	}
	if _, ok := s.Find(1); !ok {
		t.Error("failed delete must leave the item present")
	}
}

func TestFilterRoundTrip(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	full := s.Items()

	if err := s.ApplyFilter(ctx, "c1", ""); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if got, want := ids(s.Items()), []int64{1, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("filtered ids = %v, want %v", got, want)
	}
	if f := s.Filter(); f.Category != "c1" || f.Difficulty != "" {
		t.Errorf("filter = %+v", f)
	}

	if err := s.ApplyFilter(ctx, "c1", "alto"); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if got, want := ids(s.Items()), []int64{3}; !reflect.DeepEqual(got, want) {
		t.Errorf("filtered ids = %v, want %v", got, want)
	}

	if err := s.ClearFilter(ctx); err != nil {
		t.Fatalf("ClearFilter: %v", err)
	}
	if !s.Filter().Empty() {
		t.Errorf("filter not cleared: %+v", s.Filter())
	}
	if got := s.Items(); !reflect.DeepEqual(got, full) {
		t.Errorf("cleared list = %+v\nwant %+v", got, full)
	}
}

func TestFailuresAreLogged(t *testing.T) {
	srv := retostest.Start(t, retostest.Options{})
	core, logs := observer.New(zapcore.DebugLevel)
	remote := api.New(gateway.New(0, nil), api.Endpoints{BaseURL: srv.URL, ListPath: "/retos"})
	s := New(remote, zap.New(core))

	srv.FailNext(http.MethodGet, http.StatusBadGateway, "upstream")
	_ = s.Load(context.Background())

	entries := logs.FilterMessage("action failed").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if op := entries[0].ContextMap()["op"]; op != "load" {
		t.Errorf("op = %v, want load", op)
	}
}

func TestRefresh(t *testing.T) {
	s, srv := newSync(t, retostest.Options{})
	seedThree(srv)
	ctx := context.Background()
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}

	c, err := s.Refresh(ctx, 3)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.Title != "C" {
		t.Errorf("got %+v", c)
	}

	_, err = s.Refresh(ctx, 42)
	var herr *gateway.HTTPError
	if !errors.As(err, &herr) || herr.Status != http.StatusNotFound {
		t.Errorf("err = %v, want HTTP 404", err)
	}
}

// flaskServer lists one record in the exact shape the Flask service
// serializes and answers PATCH with a bare JSON string.
func flaskServer(t *testing.T) (string, *[]string) {
	t.Helper()
	var patches []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `[{"id":1,"titulo":"Grafos","descripcion":"BFS","categoria":"algoritmos",`+
				`"dificultad":"medio","estado":"pendiente",`+
				`"created_at":"2025-01-02T03:04:05.123456","updated_at":"2025-01-02T03:04:05.123456"}]`)
		case http.MethodPatch:
			b, _ := io.ReadAll(r.Body)
			patches = append(patches, string(b))
			io.WriteString(w, `"ok"`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL, &patches
}

func TestLoadAndUpdateAgainstFlaskShapes(t *testing.T) {
	base, patches := flaskServer(t)
	remote := api.New(gateway.New(0, nil), api.Endpoints{BaseURL: base, ListPath: "/retos"})
	s := New(remote, nil)
	ctx := context.Background()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, ok := s.Find(1)
	if !ok || c.Status != model.StatusPending || c.Difficulty != model.DifficultyMedium || c.CreatedAt == nil {
		t.Fatalf("loaded = %+v", c)
	}

	got, err := s.UpdateStatus(ctx, 1, model.StatusCompleted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if len(*patches) != 1 || (*patches)[0] != `{"estado":"completado"}` {
		t.Errorf("patch bodies = %q", *patches)
	}
}
