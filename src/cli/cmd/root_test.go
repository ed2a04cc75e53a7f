package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sofmeright/workman/src/report"
)

func TestFinishFailedOutcomeIsError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	rep := report.New("build")
	rep.Add(report.Outcome{Project: "web", Image: "myorg/web", Op: "build", Status: report.Success})
	rep.Add(report.Outcome{Project: "api", Image: "myorg/api", Op: "build", Status: report.Failed, Err: errors.New("exit status 1")})

	err := finish(rep, time.Now(), nil)
	if err == nil {
		t.Fatal("expected error for a failed outcome")
	}
	if !strings.Contains(err.Error(), "1 failed") {
		t.Errorf("error = %q, want failure count", err)
	}
}

func TestFinishWarningsAndSkipsSucceed(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	rep := report.New("push")
	rep.Add(report.Outcome{Project: "web", Image: "myorg/web", Op: "push", Status: report.Warning, Err: errors.New("latest alias not pushed")})
	rep.Add(report.Outcome{Project: "api", Image: "myorg/api", Op: "push", Status: report.Skipped, Detail: "no local tags"})

	if err := finish(rep, time.Now(), nil); err != nil {
		t.Fatalf("finish = %v, want nil", err)
	}
}

func TestFinishFatalWins(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	fatal := errors.New("docker unreachable")
	if err := finish(report.New("prune"), time.Now(), fatal); !errors.Is(err, fatal) {
		t.Fatalf("finish = %v, want %v", err, fatal)
	}
	if err := finish(nil, time.Now(), nil); err != nil {
		t.Fatalf("finish(nil) = %v", err)
	}
}
