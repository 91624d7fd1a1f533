package model

import "strings"

// Status is the progress state of a challenge.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the known states in cycle order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

var statusAliases = map[string]Status{
	"pending":     StatusPending,
	"pendiente":   StatusPending,
	"in_progress": StatusInProgress,
	"in progress": StatusInProgress,
	"en proceso":  StatusInProgress,
	"completed":   StatusCompleted,
	"completado":  StatusCompleted,
	"done":        StatusCompleted,
}

// ParseStatus maps an English or Spanish label onto a known status.
func ParseStatus(s string) (Status, bool) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s Status) Valid() bool {
	_, ok := ParseStatus(string(s))
	return ok
}

// Canonical returns the known status s stands for, or s unchanged.
func (s Status) Canonical() Status {
	if st, ok := ParseStatus(string(s)); ok {
		return st
	}
	return s
}

// Next returns the following status in cycle order.
// Unknown states restart at pending.
func (s Status) Next() Status {
	cur := s.Canonical()
	for i, st := range Statuses {
		if st == cur {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusPending
}

func (s Status) Label() string {
	switch s.Canonical() {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in progress"
	case StatusCompleted:
		return "completed"
	}
	return string(s)
}

// Difficulty is one of a small closed set of levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

var difficultyAliases = map[string]Difficulty{
	"easy":   DifficultyEasy,
	"bajo":   DifficultyEasy,
	"medium": DifficultyMedium,
	"medio":  DifficultyMedium,
	"hard":   DifficultyHard,
	"alto":   DifficultyHard,
}

func ParseDifficulty(s string) (Difficulty, bool) {
	d, ok := difficultyAliases[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

func (d Difficulty) Valid() bool {
	_, ok := ParseDifficulty(string(d))
	return ok
}

func joinDifficulties() string {
	out := make([]string, len(Difficulties))
	for i, d := range Difficulties {
		out[i] = string(d)
	}
	return strings.Join(out, ", ")
}

// Labels is the vocabulary a server uses for statuses and difficulties on
// the wire. Values are canonical inside the client and translated at the
// boundary.
type Labels struct {
	Name         string
	statuses     map[Status]string
	difficulties map[Difficulty]string
}

var (
	// SpanishLabels is what the retos backend accepts and stores.
	SpanishLabels = Labels{
		Name: "es",
		statuses: map[Status]string{
			StatusPending:    "pendiente",
			StatusInProgress: "en proceso",
			StatusCompleted:  "completado",
		},
		difficulties: map[Difficulty]string{
			DifficultyEasy:   "bajo",
			DifficultyMedium: "medio",
			DifficultyHard:   "alto",
		},
	}

	// EnglishLabels sends the canonical values unchanged.
	EnglishLabels = Labels{
		Name: "en",
		statuses: map[Status]string{
			StatusPending:    string(StatusPending),
			StatusInProgress: string(StatusInProgress),
			StatusCompleted:  string(StatusCompleted),
		},
		difficulties: map[Difficulty]string{
			DifficultyEasy:   string(DifficultyEasy),
			DifficultyMedium: string(DifficultyMedium),
			DifficultyHard:   string(DifficultyHard),
		},
	}
)

// LabelsByName returns "es" or "en". An empty name means "es".
func LabelsByName(name string) (Labels, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "es":
		return SpanishLabels, true
	case "en":
		return EnglishLabels, true
	}
	return Labels{}, false
}

// Status returns the wire label for s. Unknown values pass through.
func (l Labels) Status(s Status) Status {
	if w, ok := l.statuses[s.Canonical()]; ok {
		return Status(w)
	}
	return s
}

// Difficulty returns the wire label for d. Unknown values pass through.
func (l Labels) Difficulty(d Difficulty) Difficulty {
	if d == "" {
		return d
	}
	if c, ok := ParseDifficulty(string(d)); ok {
		if w, ok := l.difficulties[c]; ok {
			return Difficulty(w)
		}
	}
	return d
}

// ParseStatus accepts only this vocabulary's labels, case-insensitively,
// and returns the canonical status.
func (l Labels) ParseStatus(raw string) (Status, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for st, w := range l.statuses {
		if w == raw {
			return st, true
		}
	}
	return "", false
}

// ParseDifficulty accepts only this vocabulary's labels.
func (l Labels) ParseDifficulty(raw string) (Difficulty, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for d, w := range l.difficulties {
		if w == raw {
			return d, true
		}
	}
	return "", false
}

// DifficultyList is the comma separated wire set, in level order.
func (l Labels) DifficultyList() string {
	out := make([]string, 0, len(Difficulties))
	for _, d := range Difficulties {
		out = append(out, l.difficulties[d])
	}
	return strings.Join(out, ", ")
}

// Draft returns d with its difficulty in wire form.
func (l Labels) Draft(d Draft) Draft {
	d = d.Normalize()
	d.Difficulty = l.Difficulty(d.Difficulty)
	return d
}

// Patch returns p with status and difficulty in wire form.
func (l Labels) Patch(p Patch) Patch {
	if p.Status != nil {
		st := l.Status(*p.Status)
		p.Status = &st
	}
	if p.Difficulty != nil {
		d := l.Difficulty(*p.Difficulty)
		p.Difficulty = &d
	}
	return p
}

// Filter returns f with its difficulty in wire form.
func (l Labels) Filter(f Filter) Filter {
	f.Difficulty = l.Difficulty(Difficulty(strings.TrimSpace(string(f.Difficulty))))
	return f
}
