package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sofmeright/workman/src/report"
)

func TestReportGroupsByProject(t *testing.T) {
	rep := report.New("build")
	rep.Add(report.Outcome{Project: "app", Image: "myorg/app", Op: "build", Ref: "myorg/app:20240101-1", Status: report.Success})
	rep.Add(report.Outcome{Project: "app", Image: "myorg/app", Op: "tag", Ref: "myorg/app:latest", Status: report.Warning, Err: errors.New("denied")})
	rep.Add(report.Outcome{Project: "lib", Image: "myorg/lib", Op: "build", Ref: "myorg/lib:20240101-1", Status: report.Failed, Err: errors.New("exit status 1")})

	var buf bytes.Buffer
	Report(&buf, rep, 1500*time.Millisecond, false)
	out := buf.String()

	for _, want := range []string{
		"── app ",
		"── lib ",
		"✓ build   myorg/app:20240101-1",
		"! tag     myorg/app:latest denied",
		"✗ build   myorg/lib:20240101-1 exit status 1",
		"── Summary ",
		"1.5s ──",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("color escapes in plain output:\n%s", out)
	}
}

func TestReportGitLabSections(t *testing.T) {
	t.Setenv("GITLAB_CI", "true")

	rep := report.New("prune (dry run)")
	rep.Add(report.Outcome{Project: "web-app", Image: "myorg/web", Op: "keep", Ref: "myorg/web:20240101-1", Status: report.Success})

	var buf bytes.Buffer
	Report(&buf, rep, 0, false)
	out := buf.String()

	for _, id := range []string{"workman_prune__dry_run__web_app", "workman_prune__dry_run__summary"} {
		if !strings.Contains(out, ":"+id+"\r") {
			t.Errorf("missing section_start for %s:\n%q", id, out)
		}
		if strings.Count(out, id) != 2 {
			t.Errorf("section %s not opened and closed once:\n%q", id, out)
		}
	}
}

func TestReportNoSectionsOutsideGitLab(t *testing.T) {
	t.Setenv("GITLAB_CI", "")

	rep := report.New("build")
	rep.Add(report.Outcome{Project: "app", Image: "myorg/app", Op: "build", Status: report.Success})

	var buf bytes.Buffer
	Report(&buf, rep, 0, false)
	if strings.Contains(buf.String(), "section_start") {
		t.Errorf("GitLab markers outside GitLab CI:\n%s", buf.String())
	}
}

func TestReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, report.New("prune"), 0, false)
	if !strings.Contains(buf.String(), "nothing to do") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "<1ms"},
		{250 * time.Millisecond, "250ms"},
		{2500 * time.Millisecond, "2.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestUseColorRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if UseColor() {
		t.Error("UseColor with NO_COLOR set")
	}
}
