package push

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sort"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine/enginetest"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/tag"
)

func target(project, name string) config.Target {
	return config.Target{
		Image:     config.ImageRef{Project: project, Name: name},
		LatestTag: "latest",
	}
}

func newPusher(fake *enginetest.Fake, jobs int, recent bool) *Pusher {
	return &Pusher{
		Engine: fake,
		Local:  registry.NewLocal(fake),
		Jobs:   jobs,
		Recent: recent,
		Log:    log.New(io.Discard),
	}
}

func TestSelect(t *testing.T) {
	tags := tag.ParseAll([]string{"20240101-1", "latest", "20240102-1", "edge"})

	tests := []struct {
		name   string
		alias  string
		recent bool
		want   []string
	}{
		{"all", "latest", false, []string{"20240101-1", "latest", "20240102-1", "edge"}},
		{"recent", "latest", true, []string{"20240102-1", "latest"}},
		{"recent custom alias", "edge", true, []string{"20240102-1", "edge"}},
		{"recent alias missing", "stable", true, []string{"20240102-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tags, tt.alias, tt.recent)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPushAllLocalTags(t *testing.T) {
	fake := enginetest.New().Seed("registry.example.com/app", "20240101-1", "latest")

	rep, err := newPusher(fake, 1, false).Run(context.Background(), []config.Target{
		target("app", "registry.example.com/app"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"registry.example.com/app:20240101-1", "registry.example.com/app:latest"}
	if !reflect.DeepEqual(fake.Pushed, want) {
		t.Errorf("pushed = %v, want %v", fake.Pushed, want)
	}
	if rep.Count(report.Success) != 2 {
		t.Errorf("success = %d, want 2", rep.Count(report.Success))
	}
}

func TestPushSkipsNonHosted(t *testing.T) {
	fake := enginetest.New().Seed("myorg/app", "20240101-1")

	rep, err := newPusher(fake, 1, false).Run(context.Background(), []config.Target{target("app", "myorg/app")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.Pushed) != 0 || len(fake.Lists) != 0 {
		t.Errorf("non-hosted image touched: pushed=%v lists=%v", fake.Pushed, fake.Lists)
	}
	out := rep.Outcomes()
	if len(out) != 1 || out[0].Status != report.Skipped || out[0].Detail != NotHosted {
		t.Errorf("outcomes = %+v, want one skipped notice", out)
	}
	if rep.Err() != nil {
		t.Errorf("skip must not fail: %v", rep.Err())
	}
}

func TestPushFailureIsolatedPerImage(t *testing.T) {
	fake := enginetest.New().
		Seed("registry.example.com/a", "20240101-1", "latest").
		Seed("registry.example.com/b", "20240101-1")
	fake.FailPush["registry.example.com/a:20240101-1"] = errors.New("unauthorized")

	rep, err := newPusher(fake, 1, false).Run(context.Background(), []config.Target{
		target("a", "registry.example.com/a"),
		target("b", "registry.example.com/b"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(fake.Pushed, []string{"registry.example.com/b:20240101-1"}) {
		t.Errorf("pushed = %v", fake.Pushed)
	}
	if rep.Failed() != 1 || rep.Err() == nil {
		t.Errorf("failed = %d, want 1", rep.Failed())
	}
}

func TestPushConcurrentKeepsTargetOrder(t *testing.T) {
	fake := enginetest.New()
	var targets []config.Target
	names := []string{"registry.example.com/a", "registry.example.com/b", "registry.example.com/c", "registry.example.com/d"}
	for _, n := range names {
		fake.Seed(n, "20240101-1")
		targets = append(targets, target(n, n))
	}

	rep, err := newPusher(fake, 3, false).Run(context.Background(), targets)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for _, o := range rep.Outcomes() {
		got = append(got, o.Image)
	}
	if !reflect.DeepEqual(got, names) {
		t.Errorf("outcome order = %v, want %v", got, names)
	}

	pushed := append([]string(nil), fake.Pushed...)
	sort.Strings(pushed)
	if len(pushed) != 4 {
		t.Errorf("pushed = %v, want 4 refs", pushed)
	}
}

func TestPushNoLocalTags(t *testing.T) {
	fake := enginetest.New()
	rep, err := newPusher(fake, 1, true).Run(context.Background(), []config.Target{target("a", "registry.example.com/a")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Count(report.Skipped) != 1 {
		t.Errorf("outcomes = %+v, want one skipped", rep.Outcomes())
	}
}

func TestPushCanceled(t *testing.T) {
	fake := enginetest.New().Seed("registry.example.com/a", "20240101-1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPusher(fake, 1, false).Run(ctx, []config.Target{target("a", "registry.example.com/a")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(fake.Pushed) != 0 {
		t.Errorf("pushed %v after cancel", fake.Pushed)
	}
}
