// Package retostest provides an in-memory retos backend for tests and for
// local development.
//
// It follows the production API's route shapes and validation rules closely
// enough to exercise the client. Statuses and difficulties are checked
// against the wire vocabulary exactly as the Flask service does, and
// timestamps are written in its naive isoformat shape.
package retostest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Makepad-fr/retos/internal/model"
)

// Options shape the routes and responses.
type Options struct {
	ListPath   string // default /retos
	FilterPath string // default /retos/filtrar
	// PartialUpdates makes PATCH/PUT echo only the id and changed fields.
	PartialUpdates bool
	// Logger, when set, gets one line per request.
	Logger *zap.Logger
	// Labels is the accepted vocabulary. The zero value means Spanish.
	Labels model.Labels
}

var modeOnce sync.Once

type failure struct {
	status  int
	message string
}

// Backend is the in-memory store plus its HTTP surface.
type Backend struct {
	opts Options

	mu       sync.Mutex
	items    []model.Challenge
	nextID   int64
	failNext map[string]failure
	requests map[string]int
	now      func() time.Time
}

func New(opts Options) *Backend {
	if opts.ListPath == "" {
		opts.ListPath = "/retos"
	}
	if opts.FilterPath == "" {
		opts.FilterPath = "/retos/filtrar"
	}
	if opts.Labels.Name == "" {
		opts.Labels = model.SpanishLabels
	}
	return &Backend{
		opts:     opts,
		nextID:   1,
		failNext: map[string]failure{},
		requests: map[string]int{},
		now:      time.Now,
	}
}

// Seed stores challenges with known statuses and difficulties turned into
// wire labels. Zero ids are assigned and an empty status means pending.
func (b *Backend) Seed(items ...model.Challenge) {
	b.mu.Lock()
	defer b.mu.Unlock()
	l := b.opts.Labels
	for _, it := range items {
		if it.Status == "" {
			it.Status = model.StatusPending
		}
		it.Status = l.Status(it.Status)
		it.Difficulty = l.Difficulty(it.Difficulty)
		if it.ID == 0 {
			it.ID = b.nextID
		}
		if it.ID >= b.nextID {
			b.nextID = it.ID + 1
		}
		b.items = append(b.items, it)
	}
}

// Items returns the stored challenges with canonical statuses and
// difficulties.
func (b *Backend) Items() []model.Challenge {
	out := b.Stored()
	for i := range out {
		out[i] = out[i].Canonical()
	}
	return out
}

// Stored returns a copy of the challenges as kept, in wire form.
func (b *Backend) Stored() []model.Challenge {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Challenge, len(b.items))
	copy(out, b.items)
	return out
}

// FailNext makes the next request with method answer status with message.
func (b *Backend) FailNext(method string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[method] = failure{status: status, message: message}
}

// Requests counts requests received per method.
func (b *Backend) Requests(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[method]
}

// Handler returns the gin engine serving the resource.
func (b *Backend) Handler() http.Handler {
	modeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })
	r := gin.New()
	r.Use(gin.Recovery())
	if b.opts.Logger != nil {
		r.Use(requestLogger(b.opts.Logger))
	}
	r.Use(b.countAndFail)

	r.GET(b.opts.ListPath, b.list)
	if b.opts.FilterPath != b.opts.ListPath {
		r.GET(b.opts.FilterPath, b.list)
	}
	r.POST(b.opts.ListPath, b.create)
	r.GET(b.opts.ListPath+"/:id", b.get)
	r.PATCH(b.opts.ListPath+"/:id", b.update)
	r.PUT(b.opts.ListPath+"/:id", b.update)
	r.DELETE(b.opts.ListPath+"/:id", b.remove)
	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		log.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (b *Backend) countAndFail(c *gin.Context) {
	b.mu.Lock()
	b.requests[c.Request.Method]++
	f, ok := b.failNext[c.Request.Method]
	if ok {
		delete(b.failNext, c.Request.Method)
	}
	b.mu.Unlock()

	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
		return
	}
	c.Next()
}

func errorJSON(c *gin.Context, status int, format string, args ...any) {
	c.JSON(status, gin.H{"message": fmt.Sprintf(format, args...)})
}

// list matches dificultad verbatim against the stored label, so a value
// outside the vocabulary just finds nothing.
func (b *Backend) list(c *gin.Context) {
	category := c.Query("categoria")
	difficulty := model.Difficulty(c.Query("dificultad"))

	b.mu.Lock()
	out := make([]model.Challenge, 0, len(b.items))
	for _, it := range b.items {
		if category != "" && it.Category != category {
			continue
		}
		if difficulty != "" && it.Difficulty != difficulty {
			continue
		}
		out = append(out, it)
	}
	b.mu.Unlock()
	c.JSON(http.StatusOK, out)
}

// choices turns "a, b, c" into "a, b o c".
func choices(list string) string {
	i := strings.LastIndex(list, ", ")
	if i < 0 {
		return list
	}
	return list[:i] + " o " + list[i+2:]
}

type createRequest struct {
	Title       string  `json:"titulo"`
	Description string  `json:"descripcion"`
	Category    string  `json:"categoria"`
	Difficulty  string  `json:"dificultad"`
	Status      *string `json:"estado"`
}

func (b *Backend) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	required := []struct{ field, value string }{
		{"titulo", req.Title},
		{"descripcion", req.Description},
		{"categoria", req.Category},
		{"dificultad", req.Difficulty},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errorJSON(c, http.StatusBadRequest, "Campo obligatorio: %s", r.field)
			return
		}
	}

	l := b.opts.Labels
	difficulty, ok := l.ParseDifficulty(req.Difficulty)
	if !ok {
		errorJSON(c, http.StatusBadRequest, "dificultad debe ser: %s", choices(l.DifficultyList()))
		return
	}
	status := model.StatusPending
	if req.Status != nil {
		if status, ok = l.ParseStatus(*req.Status); !ok {
			errorJSON(c, http.StatusBadRequest, "estado inválido")
			return
		}
	}

	b.mu.Lock()
	ts := &model.Timestamp{Time: b.now().UTC()}
	ch := model.Challenge{
		ID:          b.nextID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Difficulty:  l.Difficulty(difficulty),
		Status:      l.Status(status),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	b.nextID++
	b.items = append(b.items, ch)
	b.mu.Unlock()

	c.JSON(http.StatusCreated, ch)
}

// index returns the position of id, or -1. Callers hold mu.
func (b *Backend) index(id int64) int {
	for i := range b.items {
		if b.items[i].ID == id {
			return i
		}
	}
	return -1
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorJSON(c, http.StatusNotFound, "reto no encontrado: %s", c.Param("id"))
		return 0, false
	}
	return id, true
}

func (b *Backend) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	i := b.index(id)
	var ch model.Challenge
	if i >= 0 {
		ch = b.items[i]
	}
	b.mu.Unlock()
	if i < 0 {
		errorJSON(c, http.StatusNotFound, "reto %d no encontrado", id)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (b *Backend) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var p model.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		errorJSON(c, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	l := b.opts.Labels
	if p.Status != nil {
		st, ok := l.ParseStatus(string(*p.Status))
		if !ok {
			errorJSON(c, http.StatusBadRequest, "estado inválido")
			return
		}
		p.Status = &st
	}
	if p.Difficulty != nil {
		d, ok := l.ParseDifficulty(string(*p.Difficulty))
		if !ok {
			errorJSON(c, http.StatusBadRequest, "dificultad inválida")
			return
		}
		p.Difficulty = &d
	}
	p = l.Patch(p)

	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		errorJSON(c, http.StatusNotFound, "reto %d no encontrado", id)
		return
	}
	p.ApplyTo(&b.items[i])
	b.items[i].UpdatedAt = &model.Timestamp{Time: b.now().UTC()}
	ch := b.items[i]
	b.mu.Unlock()

	if b.opts.PartialUpdates {
		resp := gin.H{"id": ch.ID}
		if p.Title != nil {
			resp["titulo"] = ch.Title
		}
		if p.Description != nil {
			resp["descripcion"] = ch.Description
		}
		if p.Category != nil {
			resp["categoria"] = ch.Category
		}
		if p.Difficulty != nil {
			resp["dificultad"] = ch.Difficulty
		}
		if p.Status != nil {
			resp["estado"] = ch.Status
		}
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusOK, ch)
}

func (b *Backend) remove(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	b.mu.Lock()
	i := b.index(id)
	if i >= 0 {
		b.items = append(b.items[:i], b.items[i+1:]...)
	}
	b.mu.Unlock()
	if i < 0 {
		errorJSON(c, http.StatusNotFound, "reto %d no encontrado", id)
		return
	}
	c.Status(http.StatusNoContent)
}
