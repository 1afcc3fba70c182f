package output

import (
	"bytes"
	"strings"
	"testing"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("analyzing %s", "app.py")
	if !strings.Contains(out.String(), "analyzing app.py") {
		t.Errorf("missing message in %q", out.String())
	}
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("applied %d fixes", 2)
	if !strings.Contains(out.String(), "applied 2 fixes") {
		t.Errorf("missing message in %q", out.String())
	}
}

func TestWarningAndErrorGoToErrOut(t *testing.T) {
	u, out, errOut := newTestUI()
	u.Warning("careful %s", "now")
	u.Error("failed %s", "badly")
	if out.Len() != 0 {
		t.Errorf("expected nothing on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "careful now") {
		t.Errorf("missing warning in %q", errOut.String())
	}
	if !strings.Contains(errOut.String(), "failed badly") {
		t.Errorf("missing error in %q", errOut.String())
	}
}

func TestVerboseLog(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("detail %d", 1)
	if out.Len() != 0 {
		t.Errorf("expected silence when not verbose, got %q", out.String())
	}
	u.Verbose = true
	u.VerboseLog("detail %d", 2)
	if !strings.Contains(out.String(), "detail 2") {
		t.Errorf("missing verbose message in %q", out.String())
	}
}

func TestDryRunMsg(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRunMsg("would fix %s", "app.py")
	if errOut.Len() != 0 {
		t.Errorf("expected silence when not dry-run, got %q", errOut.String())
	}
	u.DryRun = true
	u.DryRunMsg("would fix %s", "app.py")
	if !strings.Contains(errOut.String(), "[DRY-RUN]") || !strings.Contains(errOut.String(), "would fix app.py") {
		t.Errorf("missing dry-run message in %q", errOut.String())
	}
}

func TestSeverityColor(t *testing.T) {
	for _, sev := range []string{"critical", "high", "medium", "low"} {
		if got := SeverityColor(sev); !strings.Contains(got, sev) {
			t.Errorf("SeverityColor(%q) = %q, should contain the severity", sev, got)
		}
	}
	if got := SeverityColor("info"); got != "info" {
		t.Errorf("expected info to pass through uncolored, got %q", got)
	}
}

func TestScoreColor(t *testing.T) {
	for _, score := range []int{95, 70, 30} {
		if got := ScoreColor(score); got == "" {
			t.Errorf("ScoreColor(%d) returned empty string", score)
		}
	}
	if !strings.Contains(ScoreColor(42), "42") {
		t.Error("ScoreColor should contain the numeric score")
	}
}

func TestTable(t *testing.T) {
	u, out, _ := newTestUI()
	table := u.Table([]string{"ID", "Language", "Score"})
	table.Append([]string{"01ABC", "python", "95"})
	table.Append([]string{"01DEF", "go", "80"})
	if err := table.Render(); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"01ABC", "python", "01DEF"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("table output missing %q:\n%s", want, out.String())
		}
	}
}
