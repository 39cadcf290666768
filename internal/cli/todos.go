package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/state"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (r *runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tada "+name, flag.ContinueOnError)
	fs.SetOutput(r.errw)
	return fs
}

// parseCode maps a flag parse error to an exit code.
func parseCode(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	return 2
}

// failCode is 2 for input the use cases rejected, 1 otherwise.
func failCode(err error) int {
	if errors.Is(err, model.ErrValidation) {
		return 2
	}
	return 1
}

func (r *runner) doList(ctx context.Context, c *state.Coordinator, args []string) int {
	fs := r.flags("ls")
	completed := fs.Bool("completed", false, "only completed todos")
	active := fs.Bool("active", false, "only pending todos")
	search := fs.String("search", "", "case-insensitive match on title or description")
	if err := fs.Parse(args); err != nil {
		return parseCode(err)
	}
	if *completed && *active {
		ui.Fail(r.errw, "ls: -completed and -active are exclusive")
		return 2
	}

	// Indexes always refer to the unfiltered list so they stay valid for refs.
	if err := c.Fetch(ctx); err != nil {
		ui.Fail(r.errw, "ls: "+err.Error())
		return 1
	}
	all := c.Snapshot().Todos
	index := make(map[string]int, len(all))
	for i, t := range all {
		index[t.ID] = i + 1
	}

	f := model.TodoFilter{SearchTerm: *search}
	if *completed {
		f.Completed = model.Bool(true)
	} else if *active {
		f.Completed = model.Bool(false)
	}
	shown := all
	if !f.IsEmpty() {
		if err := c.SetFilter(ctx, f); err != nil {
			ui.Fail(r.errw, "ls: "+err.Error())
			return 1
		}
		shown = c.Snapshot().Todos
	}

	fmt.Fprintln(r.out, listPanel(shown, index, r.group, c.Snapshot().Backend))
	return 0
}

func (r *runner) doAdd(ctx context.Context, c *state.Coordinator, args []string) int {
	fs := r.flags("add")
	desc := fs.String("d", "", "description")
	if err := fs.Parse(args); err != nil {
		return parseCode(err)
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		ui.Fail(r.errw, "usage: tada add [-d desc] <title...>")
		return 2
	}
	t, err := c.Create(ctx, model.NewTodo{Title: title, Description: *desc})
	if err != nil {
		ui.Fail(r.errw, "add: "+err.Error())
		return failCode(err)
	}
	ui.OK(r.out, "added "+t.Title)
	return 0
}

func (r *runner) doShow(ctx context.Context, c *state.Coordinator, args []string) int {
	if len(args) != 1 {
		ui.Fail(r.errw, "usage: tada show <ref>")
		return 2
	}
	ref, code := r.resolve(ctx, c, args[0])
	if code != 0 {
		return code
	}
	t := c.GetByID(ctx, ref.ID)
	if t == nil {
		if msg := c.Snapshot().Err; msg != "" {
			ui.Fail(r.errw, "show: "+msg)
		} else {
			ui.Fail(r.errw, "show: no todo with id "+ref.ID)
		}
		return 1
	}
	fmt.Fprintln(r.out, detailPanel(*t))
	return 0
}

func (r *runner) doEdit(ctx context.Context, c *state.Coordinator, args []string) int {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		ui.Fail(r.errw, "usage: tada edit <ref> [-title t] [-d desc]")
		return 2
	}
	fs := r.flags("edit")
	title := fs.String("title", "", "new title")
	desc := fs.String("d", "", "new description")
	if err := fs.Parse(args[1:]); err != nil {
		return parseCode(err)
	}
	var p model.TodoPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			p.Title = model.String(*title)
		case "d":
			p.Description = model.String(*desc)
		}
	})
	if p.Title == nil && p.Description == nil {
		ui.Fail(r.errw, "edit: nothing to change (use -title or -d)")
		return 2
	}

	ref, code := r.resolve(ctx, c, args[0])
	if code != 0 {
		return code
	}
	if _, err := c.Update(ctx, ref.ID, p); err != nil {
		ui.Fail(r.errw, "edit: "+err.Error())
		return failCode(err)
	}
	ui.OK(r.out, "updated")
	return 0
}

func (r *runner) doToggle(ctx context.Context, c *state.Coordinator, args []string) int {
	if len(args) != 1 {
		ui.Fail(r.errw, "usage: tada done <ref>")
		return 2
	}
	ref, code := r.resolve(ctx, c, args[0])
	if code != 0 {
		return code
	}
	t, err := c.Toggle(ctx, ref.ID)
	if err != nil {
		ui.Fail(r.errw, "done: "+err.Error())
		return 1
	}
	if t.Completed {
		ui.OK(r.out, "completed")
	} else {
		ui.OK(r.out, "reopened")
	}
	return 0
}

func (r *runner) doRemove(ctx context.Context, c *state.Coordinator, args []string) int {
	if len(args) != 1 {
		ui.Fail(r.errw, "usage: tada rm <ref>")
		return 2
	}
	ref, code := r.resolve(ctx, c, args[0])
	if code != 0 {
		return code
	}
	if !c.Delete(ctx, ref.ID) {
		ui.Fail(r.errw, "rm: backend did not remove "+ref.ID)
		return 1
	}
	ui.OK(r.out, "removed")
	return 0
}

// resolve turns a 1-based index or an id into a todo from the full list.
func (r *runner) resolve(ctx context.Context, c *state.Coordinator, ref string) (model.Todo, int) {
	if err := c.Fetch(ctx); err != nil {
		ui.Fail(r.errw, "load: "+err.Error())
		return model.Todo{}, 1
	}
	todos := c.Snapshot().Todos
	n, numErr := strconv.Atoi(ref)
	if numErr == nil && n >= 1 && n <= len(todos) {
		return todos[n-1], 0
	}
	for _, t := range todos {
		if t.ID == ref {
			return t, 0
		}
	}
	if numErr == nil {
		ui.Fail(r.errw, fmt.Sprintf("index out of range: have %d, got %d", len(todos), n))
		ui.Hint(r.errw, "run `tada ls` to see valid indexes")
		return model.Todo{}, 2
	}
	ui.Fail(r.errw, "no todo with id "+ref)
	return model.Todo{}, 1
}

// -------------- rendering helpers --------------

func stats(todos []model.Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

func listPanel(todos []model.Todo, index map[string]int, group bool, backend state.Backend) string {
	th := ui.Current()
	d, p := stats(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d  %s",
		th.Title.Render("Todos"),
		th.Success.Render(th.SymDone), d,
		th.Pending.Render(th.SymPending), p,
		th.Accent.Render("Total"), len(todos),
		th.Muted.Render("("+string(backend)+")"),
	)

	lines := []string{header, th.Muted.Render(ui.ProgressBar(d, d+p, 28)), ""}
	if group {
		lines = append(lines, groupLines(todos, index)...)
	} else {
		lines = append(lines, flatLines(todos, index)...)
	}
	lines = append(lines, "", th.Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
	return ui.Panel(lines)
}

func flatLines(todos []model.Todo, index map[string]int) []string {
	th := ui.Current()
	if len(todos) == 0 {
		return []string{th.Muted.Render("no todos")}
	}
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		idx := th.Muted.Render(fmt.Sprintf("%2d.", index[t.ID]))
		box := th.Muted.Render(th.BoxUnchecked)
		title := truncate(t.Title, 80)
		if t.Completed {
			box = th.Success.Render(th.BoxChecked)
			title = th.Done.Render(title)
		}
		out = append(out, fmt.Sprintf("%s %s %s", idx, box, title))
	}
	return out
}

func groupLines(todos []model.Todo, index map[string]int) []string {
	th := ui.Current()
	var pend, done []model.Todo
	for _, t := range todos {
		if t.Completed {
			done = append(done, t)
		} else {
			pend = append(pend, t)
		}
	}
	section := func(name string, ts []model.Todo) []string {
		lines := []string{th.Accent.Render(name)}
		if len(ts) == 0 {
			return append(lines, th.Muted.Render("(none)"))
		}
		return append(lines, flatLines(ts, index)...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}

func detailPanel(t model.Todo) string {
	th := ui.Current()
	status := th.Pending.Render("pending")
	if t.Completed {
		status = th.Success.Render("done")
	}
	lines := []string{
		th.Title.Render(t.Title),
		"",
		th.Muted.Render("id       ") + t.ID,
		th.Muted.Render("status   ") + status,
		th.Muted.Render("created  ") + t.CreatedAt.Local().Format(time.DateTime),
	}
	if t.UpdatedAt != nil {
		lines = append(lines, th.Muted.Render("updated  ")+t.UpdatedAt.Local().Format(time.DateTime))
	}
	if t.Description != "" {
		lines = append(lines, "", t.Description)
	}
	return ui.Panel(lines)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (r *runner) doUI(ctx context.Context, c *state.Coordinator, args []string) int {
	if len(args) != 0 {
		ui.Fail(r.errw, "usage: tada ui")
		return 2
	}
	if err := tui.Run(ctx, c); err != nil {
		ui.Fail(r.errw, "tui: "+err.Error())
		return 1
	}
	return 0
}
