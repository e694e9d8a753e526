package sh

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yaklabco/mdmake/internal/dryrun"
	"github.com/yaklabco/mdmake/target"
	"github.com/yaklabco/mdmake/ui"
)

func newRunner(cfg *target.Config, out *bytes.Buffer) *Runner {
	return &Runner{
		Config: cfg,
		Styles: ui.New(ui.ModeNever),
		Out:    out,
		ErrOut: out,
	}
}

func TestProcessRunsCommandsInOrder(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("all", nil, []target.Recipe{
		{Commands: []string{"echo one", "echo two"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	if err := r.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "one\ntwo\n" {
		t.Errorf("expected ordered output, got %q", got)
	}
}

func TestProcessNarratesHeadingAndFence(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("all", nil, []target.Recipe{
		{Commands: []string{"echo hi"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	if err := newRunner(cfg, &out).Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"# all\n", "```text\n", "$ echo hi\n", "hi\n", "```\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestProcessMissingFileDependency(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	cfg := target.NewConfig()
	tgt := target.NewFile("absent.txt", nil, nil)
	cfg.Set(tgt)

	err := newRunner(cfg, &bytes.Buffer{}).Process(context.Background(), tgt)
	var missing *MissingFileError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFileError, got %v", err)
	}
	if missing.Path != "absent.txt" {
		t.Errorf("expected path absent.txt, got %q", missing.Path)
	}
}

func TestProcessExistingFileDependencyIsSilent(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	mustWrite(t, "present.txt", time.Now())
	cfg := target.NewConfig()
	tgt := target.NewFile("present.txt", nil, nil)
	cfg.Set(tgt)

	var out bytes.Buffer
	if err := newRunner(cfg, &out).Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestProcessSkipsFreshFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	base := time.Now().Add(-time.Hour)
	mustWrite(t, "in", base)
	mustWrite(t, "out", base.Add(time.Minute))

	cfg := target.NewConfig()
	tgt := target.NewFile("out", []string{"in"}, []target.Recipe{
		{Commands: []string{"cp in out"}},
	})
	cfg.Set(tgt)
	cfg.Set(target.NewFile("in", nil, nil))

	var buf bytes.Buffer
	if err := newRunner(cfg, &buf).Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected a silent skip, got %q", buf.String())
	}

	buf.Reset()
	verbose := newRunner(cfg, &buf)
	verbose.Verbose = true
	if err := verbose.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, "# `out`") || !strings.Contains(got, "*Up to date*") {
		t.Errorf("expected verbose up-to-date narration, got %q", got)
	}
}

func TestProcessRunsStaleFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	base := time.Now().Add(-time.Hour)
	mustWrite(t, "out", base)
	mustWrite(t, "in", base.Add(time.Minute))

	cfg := target.NewConfig()
	tgt := target.NewFile("out", []string{"in"}, []target.Recipe{
		{Commands: []string{"echo rebuilt"}},
	})
	cfg.Set(tgt)
	cfg.Set(target.NewFile("in", nil, nil))

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	if err := r.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "rebuilt\n" {
		t.Errorf("expected rebuild, got %q", got)
	}
}

func TestProcessForceRunsFreshFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	mustWrite(t, "out", time.Now())

	cfg := target.NewConfig()
	tgt := target.NewFile("out", nil, []target.Recipe{
		{Commands: []string{"echo forced"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	r.Force = true
	if err := r.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "forced\n" {
		t.Errorf("expected forced run, got %q", got)
	}
}

func TestProcessRecipeFailureStatus(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("broken", nil, []target.Recipe{
		{Commands: []string{"exit 3", "echo unreachable"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	err := r.Process(context.Background(), tgt)
	var rerr *RecipeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RecipeError, got %v", err)
	}
	if rerr.Status != 3 || rerr.Target != "broken" {
		t.Errorf("expected status 3 for broken, got %+v", rerr)
	}
	if strings.Contains(out.String(), "unreachable") {
		t.Error("expected the run to stop at the first failed command")
	}
}

func TestProcessAllowedStatusIsNotFailure(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("grep-miss", nil, []target.Recipe{
		{Allowed: []int{1}, Commands: []string{"exit 1", "echo kept-going"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	if err := r.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "kept-going\n" {
		t.Errorf("expected the allowed status to be tolerated, got %q", got)
	}
}

func TestProcessScriptModeSharesOneShell(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("script", nil, []target.Recipe{
		{Commands: []string{"x=5", "echo $x"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	r.Script = true
	if err := r.Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "5\n" {
		t.Errorf("expected the variable to survive between lines, got %q", got)
	}
}

func TestProcessScriptModeStopsOnError(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("script", nil, []target.Recipe{
		{Commands: []string{"false", "echo unreachable"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	r := newRunner(cfg, &out)
	r.Quiet = true
	r.Script = true
	err := r.Process(context.Background(), tgt)
	var rerr *RecipeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected RecipeError, got %v", err)
	}
	if strings.Contains(out.String(), "unreachable") {
		t.Error("expected errexit to stop the script")
	}
}

func TestProcessShellRecipePipesToInterpreter(t *testing.T) {
	cfg := target.NewConfig()
	tgt := target.NewPhony("py-ish", nil, []target.Recipe{
		{Shell: "sh", Commands: []string{"echo from-stdin\n"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	if err := newRunner(cfg, &out).Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "sh <<< echo from-stdin") {
		t.Errorf("expected interpreter narration, got %q", got)
	}
	if !strings.Contains(got, "\nfrom-stdin\n") {
		t.Errorf("expected the interpreter to run the block, got %q", got)
	}
}

func TestProcessDryRunNarratesWithoutRunning(t *testing.T) {
	dryrun.Set(true)
	t.Cleanup(func() { dryrun.Set(false) })

	cfg := target.NewConfig()
	tgt := target.NewPhony("all", nil, []target.Recipe{
		{Commands: []string{"echo ran"}},
	})
	cfg.Set(tgt)

	var out bytes.Buffer
	if err := newRunner(cfg, &out).Process(context.Background(), tgt); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	if !strings.Contains(got, "$ echo ran") {
		t.Errorf("expected the command to be narrated, got %q", got)
	}
	if strings.Contains(got, "\nran\n") {
		t.Errorf("expected the command not to run, got %q", got)
	}
}

func mustWrite(t *testing.T, name string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(name, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}
