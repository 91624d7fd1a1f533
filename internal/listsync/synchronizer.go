// Package listsync keeps a local list of challenges in step with the server.
//
// The Synchronizer owns the list. It changes only after the server accepts
// a request: reloads after create and delete, local patches after updates.
// A failed request leaves the list as it was. Renderers subscribe to
// events instead of reading shared state.
package listsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Makepad-fr/retos/internal/model"
)

// Remote is the server contract the Synchronizer needs.
type Remote interface {
	List(ctx context.Context, f model.Filter) ([]model.Challenge, error)
	Create(ctx context.Context, d model.Draft) (*model.Challenge, error)
	Update(ctx context.Context, id int64, p model.Patch) (model.Patch, error)
	Delete(ctx context.Context, id int64) error
}

// Getter is implemented by remotes that can fetch a single challenge.
type Getter interface {
	Get(ctx context.Context, id int64) (*model.Challenge, error)
}

var (
	// ErrNotFound is returned when a challenge is neither listed nor served.
	ErrNotFound = errors.New("challenge not found")
	// ErrNotConfirmed is returned by Remove when the user declined.
	ErrNotConfirmed = errors.New("not confirmed")
	// ErrEmptyPatch is returned by Update when nothing would change.
	ErrEmptyPatch = errors.New("nothing to update")
)

// ConfirmFunc asks the user whether c may be deleted.
type ConfirmFunc func(c model.Challenge) bool

type Op string

const (
	OpLoad   Op = "load"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// Event reports a finished operation. Items and Filter are snapshots taken
// after the operation applied (or did not apply) its result.
type Event struct {
	Op     Op
	ID     int64
	Items  []model.Challenge
	Filter model.Filter
	Err    error
	Notice string
}

type Listener func(Event)

type Synchronizer struct {
	remote Remote
	log    *zap.Logger

	mu        sync.Mutex
	items     []model.Challenge
	filter    model.Filter
	listeners []Listener
}

func New(remote Remote, log *zap.Logger) *Synchronizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		remote: remote,
		log:    log.Named("sync"),
		items:  []model.Challenge{},
	}
}

// Subscribe registers l for every future event. Listeners run on the
// goroutine that performed the operation.
func (s *Synchronizer) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Items returns a copy of the current list.
func (s *Synchronizer) Items() []model.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Find returns the listed challenge with id.
func (s *Synchronizer) Find(id int64) (model.Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i], true
	}
	return model.Challenge{}, false
}

// Refresh fetches id from the server and replaces the listed copy, if any.
// Remotes without single-item reads fall back to a full Load.
func (s *Synchronizer) Refresh(ctx context.Context, id int64) (model.Challenge, error) {
	g, ok := s.remote.(Getter)
	if !ok {
		if err := s.Load(ctx); err != nil {
			return model.Challenge{}, err
		}
		c, found := s.Find(id)
		if !found {
			return model.Challenge{}, fmt.Errorf("%w: #%d", ErrNotFound, id)
		}
		return c, nil
	}
	c, err := g.Get(ctx, id)
	if err != nil {
		s.fail(OpLoad, id, err)
		return model.Challenge{}, err
	}
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items[i] = *c
	}
	s.mu.Unlock()
	s.emit(Event{Op: OpLoad, ID: id})
	return *c, nil
}

// Load fetches the list for the current filter and replaces the local copy.
func (s *Synchronizer) Load(ctx context.Context) error {
	f := s.Filter()
	got, err := s.remote.List(ctx, f)
	if err != nil {
		s.fail(OpLoad, 0, err)
		return err
	}
	s.mu.Lock()
	s.items = got
	s.mu.Unlock()
	s.emit(Event{Op: OpLoad, Filter: f})
	return nil
}

// ApplyFilter sets the filter and reloads. Blank values mean "any".
func (s *Synchronizer) ApplyFilter(ctx context.Context, category string, difficulty model.Difficulty) error {
	if d, ok := model.ParseDifficulty(string(difficulty)); ok {
		difficulty = d
	}
	s.mu.Lock()
	s.filter = model.Filter{
		Category:   strings.TrimSpace(category),
		Difficulty: model.Difficulty(strings.TrimSpace(string(difficulty))),
	}
	s.mu.Unlock()
	return s.Load(ctx)
}

// ClearFilter drops the filter and reloads the full list.
func (s *Synchronizer) ClearFilter(ctx context.Context) error {
	return s.ApplyFilter(ctx, "", "")
}

// Create posts d and, on success, reloads so the server-assigned id and
// status show up. A failed reload is reported through its own event; the
// create itself still succeeded.
func (s *Synchronizer) Create(ctx context.Context, d model.Draft) (*model.Challenge, error) {
	if err := d.Validate(); err != nil {
		s.fail(OpCreate, 0, err)
		return nil, err
	}
	created, err := s.remote.Create(ctx, d.Normalize())
	if err != nil {
		s.fail(OpCreate, 0, err)
		return nil, err
	}
	ev := Event{Op: OpCreate, Notice: "challenge created"}
	if created != nil {
		ev.ID = created.ID
		ev.Notice = fmt.Sprintf("challenge #%d created", created.ID)
	}
	s.emit(ev)
	_ = s.Load(ctx)
	return created, nil
}

// UpdateStatus changes the status of id.
func (s *Synchronizer) UpdateStatus(ctx context.Context, id int64, st model.Status) (model.Challenge, error) {
	st = st.Canonical()
	return s.Update(ctx, id, model.Patch{Status: &st})
}

// Update sends p and patches only the matching local item. Fields the
// server echoes back win over the requested values.
func (s *Synchronizer) Update(ctx context.Context, id int64, p model.Patch) (model.Challenge, error) {
	if p.Empty() {
		s.fail(OpUpdate, id, ErrEmptyPatch)
		return model.Challenge{}, ErrEmptyPatch
	}
	echoed, err := s.remote.Update(ctx, id, p)
	if err != nil {
		s.fail(OpUpdate, id, err)
		return model.Challenge{}, err
	}
	applied := p.Merge(echoed)

	s.mu.Lock()
	out := model.Challenge{ID: id}
	if i := s.indexLocked(id); i >= 0 {
		applied.ApplyTo(&s.items[i])
		out = s.items[i]
	} else {
		applied.ApplyTo(&out)
	}
	s.mu.Unlock()

	notice := fmt.Sprintf("challenge #%d updated", id)
	if p.Status != nil && out.Status != "" {
		notice = fmt.Sprintf("challenge #%d is now %s", id, out.Status.Label())
	}
	s.emit(Event{Op: OpUpdate, ID: id, Notice: notice})
	return out, nil
}

// Remove deletes id after confirm approves it. Without approval no
// request is made. On success the item is dropped locally and the list
// reloaded.
func (s *Synchronizer) Remove(ctx context.Context, id int64, confirm ConfirmFunc) error {
	target, ok := s.Find(id)
	if !ok {
		target = model.Challenge{ID: id}
	}
	if confirm == nil || !confirm(target) {
		return ErrNotConfirmed
	}
	if err := s.remote.Delete(ctx, id); err != nil {
		s.fail(OpRemove, id, err)
		return err
	}
	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	s.mu.Unlock()
	s.emit(Event{Op: OpRemove, ID: id, Notice: fmt.Sprintf("challenge #%d deleted", id)})
	_ = s.Load(ctx)
	return nil
}

func (s *Synchronizer) indexLocked(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Synchronizer) snapshotLocked() []model.Challenge {
	out := make([]model.Challenge, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Synchronizer) fail(op Op, id int64, err error) {
	s.log.Warn("action failed",
		zap.String("op", string(op)),
		zap.Int64("id", id),
		zap.Error(err),
	)
	s.emit(Event{Op: op, ID: id, Err: err})
}

func (s *Synchronizer) emit(ev Event) {
	s.mu.Lock()
	ev.Items = s.snapshotLocked()
	if ev.Op != OpLoad {
		ev.Filter = s.filter
	}
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
