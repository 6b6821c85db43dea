package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/stemsi/student-dashboard/internal/client"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/query"
)

var errAborted = errors.New("aborted")

// errViewer is returned for admin-only commands when the saved role is viewer.
// The server does not enforce roles; this only mirrors what the dashboard hides.
var errViewer = errors.New("this command is hidden in viewer mode (run: studentctl role admin)")

type app struct {
	api   *client.Client
	prefs *client.PreferenceStore
	in    io.Reader
	out   io.Writer
	isTTY bool
}

const usage = `Usage: studentctl <command> [flags]

Commands:
  list         show one page of the filtered, sorted list with summary
  add          create a student
  edit ID      replace a student (unset flags keep current values)
  delete ID    delete a student
  bulk-delete ID...
               delete several students one after another
  export       download the filtered, sorted list as CSV
  reset        delete every student
  role [admin|viewer]
  theme [dark|light|toggle]

Run "studentctl <command> -h" for flags.
`

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return a.list(ctx, rest)
	case "add":
		return a.add(ctx, rest)
	case "edit":
		return a.edit(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "bulk-delete":
		return a.bulkDelete(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "reset":
		return a.reset(ctx, rest)
	case "role":
		return a.role(rest)
	case "theme":
		return a.theme(rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

// ─── View ──────────────────────────────────────────────────────────────

type viewFlags struct {
	filter string
	sort   string
	dir    string
	page   int
	size   int
	year   string
}

func (v *viewFlags) register(fs *flag.FlagSet, paging bool) {
	fs.StringVar(&v.filter, "filter", "", "Search name, registration number, blood group or department")
	fs.StringVar(&v.sort, "sort", query.DefaultSortKey, "Sort key: "+strings.Join(query.SortKeys, ", "))
	fs.StringVar(&v.dir, "dir", string(query.Asc), "Sort direction: asc or desc")
	if paging {
		fs.IntVar(&v.page, "page", 1, "Page number")
		fs.IntVar(&v.size, "size", query.DefaultPageSize, "Rows per page")
		fs.StringVar(&v.year, "year", "all", "Year for the average-by-department chart, or all")
	}
}

func (v *viewFlags) state() (query.ViewState, error) {
	valid := false
	for _, k := range query.SortKeys {
		if k == v.sort {
			valid = true
			break
		}
	}
	if !valid {
		return query.ViewState{}, fmt.Errorf("unknown sort key %q", v.sort)
	}

	state := query.DefaultViewState().
		WithFilter(v.filter).
		WithSortDir(v.sort, query.ParseSortDir(v.dir))
	if v.page > 0 {
		state = state.WithPage(v.page)
	}
	if v.size > 0 {
		state.PageSize = v.size
	}
	if v.year != "" && v.year != "all" {
		y, err := strconv.Atoi(v.year)
		if err != nil {
			return query.ViewState{}, fmt.Errorf("invalid year %q", v.year)
		}
		state = state.WithReportYear(&y)
	}
	return state, nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var vf viewFlags
	vf.register(fs, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	state, err := vf.state()
	if err != nil {
		return err
	}

	res := a.api.List(ctx)
	if !res.OK() {
		return apiError(res.Err)
	}
	result := query.Run(res.Value, state)
	a.printResult(result)
	return nil
}

func (a *app) printResult(r query.Result) {
	fmt.Fprintf(a.out, "Students: %d   Average: %s   Departments: %d\n\n",
		r.Summary.Total, query.FormatMarks(r.Summary.AverageMarks), r.Summary.Departments)

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREG\tDEPARTMENT\tBLOOD\tYEAR\tMARKS")
	for _, row := range query.DisplayAll(r.Rows) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.ID, row.Name, row.RegistrationNumber, row.Department, row.BloodGroup, row.Year, row.AverageMarks)
	}
	tw.Flush()

	p := r.Pagination
	fmt.Fprintf(a.out, "\nPage %d of %d (%d matching)\n", p.Page, p.TotalPages, p.TotalItems)

	if len(r.TopPerformers) > 0 {
		fmt.Fprintln(a.out, "\nTop performers:")
		for i, s := range r.TopPerformers {
			d := query.Display(s)
			fmt.Fprintf(a.out, "  %d. %s (%s) %s\n", i+1, d.Name, d.Department, d.AverageMarks)
		}
	}

	if len(r.Charts.AverageByDepartment) > 0 {
		fmt.Fprintln(a.out, "\nAverage marks by department:")
		for _, b := range r.Charts.AverageByDepartment {
			fmt.Fprintf(a.out, "  %-18s %s\n", b.Label, query.FormatMarks(b.Mean))
		}
	}
}

// ─── Writes ────────────────────────────────────────────────────────────

type recordFlags struct {
	name, reg, dept, blood string
	year                   int
	marks                  float64
}

func (r *recordFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.name, "name", "", "Full name")
	fs.StringVar(&r.reg, "reg", "", "Registration number (unique)")
	fs.StringVar(&r.dept, "dept", "", "Department")
	fs.StringVar(&r.blood, "blood", "", "Blood group")
	fs.IntVar(&r.year, "year", 1, "Year of study")
	fs.Float64Var(&r.marks, "marks", 0, "Average marks")
}

// overlay copies the flags that were set on the command line onto req.
func (r *recordFlags) overlay(fs *flag.FlagSet, req *model.StudentRequest) {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			req.Name = r.name
		case "reg":
			req.RegistrationNumber = r.reg
		case "dept":
			req.Department = r.dept
		case "blood":
			req.BloodGroup = r.blood
		case "year":
			req.Year = r.year
		case "marks":
			req.AverageMarks = r.marks
		}
	})
}

func (a *app) requireAdmin() error {
	prefs, err := a.prefs.Load()
	if err != nil {
		return err
	}
	if !prefs.IsAdmin() {
		return errViewer
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var rf recordFlags
	rf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := model.StudentRequest{
		Name: rf.name, RegistrationNumber: rf.reg, Department: rf.dept,
		BloodGroup: rf.blood, Year: rf.year, AverageMarks: rf.marks,
	}
	res := a.api.Create(ctx, req)
	if !res.OK() {
		return apiError(res.Err)
	}
	fmt.Fprintln(a.out, res.Value)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return errors.New("usage: studentctl edit ID [flags]")
	}
	id := args[0]

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var rf recordFlags
	rf.register(fs)
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	list := a.api.List(ctx)
	if !list.OK() {
		return apiError(list.Err)
	}
	var current *model.Student
	for i := range list.Value {
		if list.Value[i].ID == id {
			current = &list.Value[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("no student with id %q", id)
	}

	req := model.StudentRequest{
		Name: current.Name, RegistrationNumber: current.RegistrationNumber, Department: current.Department,
		BloodGroup: current.BloodGroup, Year: current.Year, AverageMarks: current.AverageMarks,
	}
	rf.overlay(fs, &req)

	res := a.api.Replace(ctx, id, req)
	if !res.OK() {
		return apiError(res.Err)
	}
	fmt.Fprintln(a.out, res.Value)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: studentctl delete [-yes] ID")
	}
	id := fs.Arg(0)

	if err := a.confirm(*yes, fmt.Sprintf("Delete student %s?", id)); err != nil {
		return err
	}
	res := a.api.Delete(ctx, id)
	if !res.OK() {
		return apiError(res.Err)
	}
	fmt.Fprintln(a.out, res.Value)
	return nil
}

func (a *app) bulkDelete(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("bulk-delete", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ids := fs.Args()
	if len(ids) == 0 {
		return errors.New("usage: studentctl bulk-delete [-yes] ID...")
	}

	if err := a.confirm(*yes, fmt.Sprintf("Delete %d students?", len(ids))); err != nil {
		return err
	}

	report := a.api.BulkDelete(ctx, ids)
	fmt.Fprintf(a.out, "Deleted %d of %d.\n", len(report.Succeeded), len(ids))
	if report.Complete() {
		return nil
	}
	for _, id := range ids {
		if e, failed := report.Failed[id]; failed {
			fmt.Fprintf(a.out, "  %s: %s\n", id, client.Describe(e))
		}
	}
	return fmt.Errorf("%d deletes failed; run list to see the current state", len(report.Failed))
}

func (a *app) reset(ctx context.Context, args []string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(a.out)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.confirm(*yes, "Reset DB? Every student will be deleted."); err != nil {
		return err
	}
	res := a.api.Reset(ctx)
	if !res.OK() {
		return apiError(res.Err)
	}
	fmt.Fprintln(a.out, res.Value)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var vf viewFlags
	vf.register(fs, false)
	output := fs.String("o", "students.csv", "Output file, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	state, err := vf.state()
	if err != nil {
		return err
	}

	res := a.api.ExportCSV(ctx, state)
	if !res.OK() {
		return apiError(res.Err)
	}
	if *output == "-" {
		_, err := a.out.Write(res.Value)
		return err
	}
	if err := os.WriteFile(*output, res.Value, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s\n", *output)
	return nil
}

// ─── Preferences ───────────────────────────────────────────────────────

func (a *app) role(args []string) error {
	prefs, err := a.prefs.Load()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintln(a.out, prefs.Role)
		return nil
	}
	switch r := model.Role(args[0]); r {
	case model.RoleAdmin, model.RoleViewer:
		prefs.Role = r
	default:
		return fmt.Errorf("role must be %s or %s", model.RoleAdmin, model.RoleViewer)
	}
	if err := a.prefs.Save(prefs); err != nil {
		return err
	}
	fmt.Fprintln(a.out, prefs.Role)
	return nil
}

func (a *app) theme(args []string) error {
	prefs, err := a.prefs.Load()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		fmt.Fprintln(a.out, prefs.Theme)
		return nil
	}
	switch args[0] {
	case "toggle":
		prefs = prefs.ToggleTheme()
	case string(model.ThemeDark), string(model.ThemeLight):
		prefs.Theme = model.Theme(args[0])
	default:
		return fmt.Errorf("theme must be %s, %s or toggle", model.ThemeDark, model.ThemeLight)
	}
	if err := a.prefs.Save(prefs); err != nil {
		return err
	}
	fmt.Fprintln(a.out, prefs.Theme)
	return nil
}

// ─── Helpers ───────────────────────────────────────────────────────────

// confirm asks on a terminal. Without a terminal, destructive commands need -yes.
func (a *app) confirm(yes bool, question string) error {
	if yes {
		return nil
	}
	if !a.isTTY {
		return errors.New("refusing to run without confirmation; pass -yes")
	}
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

func apiError(e *client.Error) error {
	return fmt.Errorf("%s: %s", e.Kind, client.Describe(e))
}
