package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Challenge is the domain model for a reto as the backend serves it.
// ID, Status and the timestamps are owned by the server.
type Challenge struct {
	ID          int64      `json:"id"`
	Title       string     `json:"titulo"`
	Description string     `json:"descripcion"`
	Category    string     `json:"categoria"`
	Difficulty  Difficulty `json:"dificultad"`
	Status      Status     `json:"estado"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// Canonical maps known wire labels to their canonical values. Unknown
// values are kept as the server sent them.
func (c Challenge) Canonical() Challenge {
	c.Status = c.Status.Canonical()
	if d, ok := ParseDifficulty(string(c.Difficulty)); ok {
		c.Difficulty = d
	}
	return c
}

// ErrInvalidDraft is returned by Draft.Validate.
var ErrInvalidDraft = errors.New("invalid challenge")

// Draft holds the fields a client may supply on create.
type Draft struct {
	Title       string     `json:"titulo"`
	Description string     `json:"descripcion"`
	Category    string     `json:"categoria"`
	Difficulty  Difficulty `json:"dificultad"`
}

// Normalize trims every field and canonicalizes the difficulty.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	if diff, ok := ParseDifficulty(string(d.Difficulty)); ok {
		d.Difficulty = diff
	}
	return d
}

// Validate reports the first missing or malformed field.
func (d Draft) Validate() error {
	d = d.Normalize()
	switch {
	case d.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidDraft)
	case d.Description == "":
		return fmt.Errorf("%w: description is required", ErrInvalidDraft)
	case d.Category == "":
		return fmt.Errorf("%w: category is required", ErrInvalidDraft)
	case !d.Difficulty.Valid():
		return fmt.Errorf("%w: difficulty must be one of %s", ErrInvalidDraft, joinDifficulties())
	}
	return nil
}

// Patch is a partial update. Nil fields are left alone by the server.
type Patch struct {
	Title       *string     `json:"titulo,omitempty"`
	Description *string     `json:"descripcion,omitempty"`
	Category    *string     `json:"categoria,omitempty"`
	Difficulty  *Difficulty `json:"dificultad,omitempty"`
	Status      *Status     `json:"estado,omitempty"`
}

// Empty reports whether no field is set.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Difficulty == nil && p.Status == nil
}

// ApplyTo copies every set field of p onto c.
func (p Patch) ApplyTo(c *Challenge) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Difficulty != nil {
		c.Difficulty = *p.Difficulty
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

// Canonical maps set status and difficulty to their canonical values.
func (p Patch) Canonical() Patch {
	if p.Status != nil {
		st := p.Status.Canonical()
		p.Status = &st
	}
	if p.Difficulty != nil {
		d := *p.Difficulty
		if parsed, ok := ParseDifficulty(string(d)); ok {
			d = parsed
		}
		p.Difficulty = &d
	}
	return p
}

// Merge returns p with every field set in other taking precedence.
func (p Patch) Merge(other Patch) Patch {
	if other.Title != nil {
		p.Title = other.Title
	}
	if other.Description != nil {
		p.Description = other.Description
	}
	if other.Category != nil {
		p.Category = other.Category
	}
	if other.Difficulty != nil {
		p.Difficulty = other.Difficulty
	}
	if other.Status != nil {
		p.Status = other.Status
	}
	return p
}

// Filter narrows a list request. Zero values mean "any".
type Filter struct {
	Category   string
	Difficulty Difficulty
}

func (f Filter) Empty() bool {
	return strings.TrimSpace(f.Category) == "" && strings.TrimSpace(string(f.Difficulty)) == ""
}

// Query serializes the set fields using the backend's parameter names.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if c := strings.TrimSpace(f.Category); c != "" {
		q.Set("categoria", c)
	}
	if d := strings.TrimSpace(string(f.Difficulty)); d != "" {
		q.Set("dificultad", d)
	}
	return q
}

func (f Filter) String() string {
	if f.Empty() {
		return "all"
	}
	var parts []string
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	if f.Difficulty != "" {
		parts = append(parts, "difficulty="+string(f.Difficulty))
	}
	return strings.Join(parts, " ")
}
