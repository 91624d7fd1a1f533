package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Makepad-fr/retos/internal/listsync"
	"github.com/Makepad-fr/retos/internal/model"
	"github.com/Makepad-fr/retos/internal/ui"
)

// Options tune output behavior from root flags and carry the wiring.
type Options struct {
	Group bool // list grouped by status

	Sync  *listsync.Synchronizer
	Stdin io.Reader // answers the delete prompt

	// Interactive starts the full-screen view. Nil disables `tui`.
	Interactive func(ctx context.Context, s *listsync.Synchronizer) error
}

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	if opt.Stdin == nil {
		opt.Stdin = os.Stdin
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0
	case "ls":
		return doList(ctx, a, opt)
	case "show":
		return doShow(ctx, a, opt)
	case "add":
		return doAdd(ctx, a, opt)
	case "status":
		return doStatus(ctx, a, opt)
	case "edit":
		return doEdit(ctx, a, opt)
	case "rm":
		return doRemove(ctx, a, opt)
	case "tui":
		if opt.Interactive == nil {
			ui.Fail("tui: interactive mode unavailable")
			return 1
		}
		if err := opt.Interactive(ctx, opt.Sync); err != nil {
			ui.Fail("tui: " + err.Error())
			return 1
		}
		return 0
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Fprintf(ui.Stdout(), `retos - manage challenges on a retos server

Usage:
  retos [global flags] <subcommand> [args]

Subcommands:
  ls [--category C] [--difficulty D]   List challenges
  show <id>                            Show one challenge
  add --title T --description D --category C --difficulty D
                                       Create a challenge
  status <id> <status>                 Set status (pending, in_progress, completed)
  edit <id> [--title ...] [--description ...] [--category ...]
            [--difficulty ...] [--status ...]
                                       Change any editable field
  rm <id> [--yes]                      Delete a challenge (asks first)
  tui                                  Interactive list

Examples:
  retos add --title "Reverse a list" --description "In place" --category go --difficulty easy
  retos ls --category go
  retos status 2 completed
  retos rm 3
`)
}

// -------------- subcommand impls ----------------

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseFlags reports a usage error itself; ok=false means return 2.
func parseFlags(fs *pflag.FlagSet, args []string, usage string) bool {
	if err := fs.Parse(args); err != nil {
		ui.Fail(err.Error())
		ui.Fail("usage: " + usage)
		return false
	}
	return true
}

func parseID(cmd, s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		ui.Fail(cmd + ": not a valid id: " + s)
		return 0, false
	}
	return id, true
}

// fail prints the user-facing message for err and returns the exit code.
func fail(op string, err error) int {
	ui.Fail(op + ": " + listsync.UserMessage(err))
	if errors.Is(err, model.ErrInvalidDraft) {
		return 2
	}
	return 1
}

func doList(ctx context.Context, args []string, opt Options) int {
	const usage = "retos ls [--category C] [--difficulty D] [--group]"
	fs := newFlags("ls")
	category := fs.String("category", "", "only this category")
	difficulty := fs.String("difficulty", "", "only this difficulty")
	group := fs.Bool("group", opt.Group, "group by status")
	if !parseFlags(fs, args, usage) {
		return 2
	}
	if *difficulty != "" {
		if _, ok := model.ParseDifficulty(*difficulty); !ok {
			ui.Fail("ls: unknown difficulty: " + *difficulty)
			return 2
		}
	}

	if err := opt.Sync.ApplyFilter(ctx, *category, model.Difficulty(*difficulty)); err != nil {
		return fail("load", err)
	}
	items := opt.Sync.Items()
	t := ui.Current()

	var lines []string
	lines = append(lines, ui.Header(items, opt.Sync.Filter()))
	lines = append(lines, ui.StatusBar(items, 28))
	lines = append(lines, "")

	if *group {
		lines = append(lines, groupLines(items)...)
	} else {
		lines = append(lines, flatLines(items)...)
	}
	lines = append(lines, "")
	lines = append(lines, ui.C(t.Muted, "Tip: add with `retos add --title ...`"))
	ui.Panel(lines)
	return 0
}

func doShow(ctx context.Context, args []string, opt Options) int {
	if len(args) != 1 {
		ui.Fail("usage: retos show <id>")
		return 2
	}
	id, ok := parseID("show", args[0])
	if !ok {
		return 2
	}
	c, err := opt.Sync.Refresh(ctx, id)
	if err != nil {
		return fail("show", err)
	}
	ui.Panel(ui.ChallengeDetail(c))
	return 0
}

func doAdd(ctx context.Context, args []string, opt Options) int {
	const usage = "retos add --title T --description D --category C --difficulty D"
	fs := newFlags("add")
	var d model.Draft
	fs.StringVar(&d.Title, "title", "", "challenge title")
	fs.StringVar(&d.Description, "description", "", "what to do")
	fs.StringVar(&d.Category, "category", "", "category")
	difficulty := fs.String("difficulty", "", "easy, medium or hard")
	if !parseFlags(fs, args, usage) {
		return 2
	}
	// remaining words form the title, like `todo add Buy milk`
	if d.Title == "" && fs.NArg() > 0 {
		d.Title = strings.Join(fs.Args(), " ")
	}
	d.Difficulty = model.Difficulty(*difficulty)

	created, err := opt.Sync.Create(ctx, d)
	if err != nil {
		return fail("add", err)
	}
	if created != nil {
		ui.OK(fmt.Sprintf("added #%d", created.ID))
	} else {
		ui.OK("added")
	}
	return 0
}

func doStatus(ctx context.Context, args []string, opt Options) int {
	if len(args) != 2 {
		ui.Fail("usage: retos status <id> <pending|in_progress|completed>")
		return 2
	}
	id, ok := parseID("status", args[0])
	if !ok {
		return 2
	}
	st, ok := model.ParseStatus(args[1])
	if !ok {
		ui.Fail("status: unknown status: " + args[1])
		return 2
	}
	c, err := opt.Sync.UpdateStatus(ctx, id, st)
	if err != nil {
		return fail("status", err)
	}
	ui.OK(fmt.Sprintf("#%d is now %s", id, c.Status.Label()))
	return 0
}

func doEdit(ctx context.Context, args []string, opt Options) int {
	const usage = "retos edit <id> [--title T] [--description D] [--category C] [--difficulty D] [--status S]"
	fs := newFlags("edit")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	category := fs.String("category", "", "new category")
	difficulty := fs.String("difficulty", "", "new difficulty")
	status := fs.String("status", "", "new status")
	if !parseFlags(fs, args, usage) {
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail("usage: " + usage)
		return 2
	}
	id, ok := parseID("edit", fs.Arg(0))
	if !ok {
		return 2
	}

	var p model.Patch
	if fs.Changed("title") {
		v := strings.TrimSpace(*title)
		p.Title = &v
	}
	if fs.Changed("description") {
		v := strings.TrimSpace(*description)
		p.Description = &v
	}
	if fs.Changed("category") {
		v := strings.TrimSpace(*category)
		p.Category = &v
	}
	if fs.Changed("difficulty") {
		d, ok := model.ParseDifficulty(*difficulty)
		if !ok {
			ui.Fail("edit: unknown difficulty: " + *difficulty)
			return 2
		}
		p.Difficulty = &d
	}
	if fs.Changed("status") {
		st, ok := model.ParseStatus(*status)
		if !ok {
			ui.Fail("edit: unknown status: " + *status)
			return 2
		}
		p.Status = &st
	}
	if p.Empty() {
		ui.Fail("edit: nothing to change")
		ui.Fail("usage: " + usage)
		return 2
	}

	if _, err := opt.Sync.Update(ctx, id, p); err != nil {
		return fail("edit", err)
	}
	ui.OK(fmt.Sprintf("updated #%d", id))
	return 0
}

func doRemove(ctx context.Context, args []string, opt Options) int {
	const usage = "retos rm <id> [--yes]"
	fs := newFlags("rm")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if !parseFlags(fs, args, usage) {
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail("usage: " + usage)
		return 2
	}
	id, ok := parseID("rm", fs.Arg(0))
	if !ok {
		return 2
	}

	// The prompt shows a title; a failed lookup still lets the user decide.
	target, found := opt.Sync.Find(id)
	if !found {
		if c, err := opt.Sync.Refresh(ctx, id); err == nil {
			target = c
		}
	}

	confirm := promptConfirm(opt.Stdin, target)
	if *yes {
		confirm = func(model.Challenge) bool { return true }
	}
	err := opt.Sync.Remove(ctx, id, confirm)
	if errors.Is(err, listsync.ErrNotConfirmed) {
		ui.Info(ui.C(ui.Current().Muted, "not deleted"))
		return 0
	}
	if err != nil {
		return fail("rm", err)
	}
	ui.OK(fmt.Sprintf("removed #%d", id))
	return 0
}

// promptConfirm asks on stdout and reads the answer from in.
// Anything but y/yes, including EOF, means no. known supplies the title
// when the challenge is not in the local list.
func promptConfirm(in io.Reader, known model.Challenge) listsync.ConfirmFunc {
	return func(c model.Challenge) bool {
		if c.Title == "" && known.ID == c.ID {
			c = known
		}
		label := fmt.Sprintf("#%d", c.ID)
		if c.Title != "" {
			label += fmt.Sprintf(" %q", c.Title)
		}
		fmt.Fprintf(ui.Stdout(), "Delete %s? [y/N] ", label)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(ui.Stdout())
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// -------------- rendering helpers --------------

func flatLines(items []model.Challenge) []string {
	if len(items) == 0 {
		return []string{ui.C(ui.Current().Muted, "no challenges")}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, ui.ChallengeLine(it, 100))
	}
	return out
}

func groupLines(items []model.Challenge) []string {
	byStatus := map[model.Status][]model.Challenge{}
	var other []model.Challenge
	for _, it := range items {
		st := it.Status.Canonical()
		if !st.Valid() {
			other = append(other, it)
			continue
		}
		byStatus[st] = append(byStatus[st], it)
	}
	var lines []string
	section := func(title string, group []model.Challenge) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, ui.C(ui.Current().Accent, title))
		if len(group) == 0 {
			lines = append(lines, ui.C(ui.Current().Muted, "(none)"))
		} else {
			lines = append(lines, flatLines(group)...)
		}
	}
	for _, st := range model.Statuses {
		section(strings.ToUpper(st.Label()[:1])+st.Label()[1:], byStatus[st])
	}
	// statuses the client does not know only get a section when present
	if len(other) > 0 {
		section("Other", other)
	}
	return lines
}
