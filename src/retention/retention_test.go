package retention

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/sofmeright/workman/src/config"
	"github.com/sofmeright/workman/src/engine/enginetest"
	"github.com/sofmeright/workman/src/registry"
	"github.com/sofmeright/workman/src/report"
	"github.com/sofmeright/workman/src/tag"
)

// memStore is an in-memory Store.
type memStore struct {
	tags    []string
	fail    map[string]error
	listErr error
	removed []string
}

func (m *memStore) List(context.Context) ([]tag.Tag, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return tag.ParseAll(m.tags), nil
}

func (m *memStore) Remove(_ context.Context, t tag.Tag) error {
	if err := m.fail[t.String()]; err != nil {
		return err
	}
	m.removed = append(m.removed, t.String())
	return nil
}

func strs(tags []tag.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

func TestPlanForKeepsNewestAndOpaque(t *testing.T) {
	tags := tag.ParseAll([]string{"20240101-1", "latest", "20240102-1", "20240102-2"})
	plan := PlanFor(tags)

	if got, want := strs(plan.Keep), []string{"20240102-2", "latest"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keep = %v, want %v", got, want)
	}
	if got, want := strs(plan.Remove), []string{"20240102-1", "20240101-1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("remove = %v, want %v", got, want)
	}
}

func TestPlanForOrdersBySequenceNotText(t *testing.T) {
	plan := PlanFor(tag.ParseAll([]string{"20240105-10", "20240105-9", "20240105-2"}))

	if got := strs(plan.Keep); !reflect.DeepEqual(got, []string{"20240105-10"}) {
		t.Errorf("keep = %v, want [20240105-10]", got)
	}
}

func TestPlanForRemovesNonCanonicalDated(t *testing.T) {
	plan := PlanFor(tag.ParseAll([]string{"20240101-01", "20240101-0", "20241399-1", "20240102-1", "latest"}))

	if got, want := strs(plan.Keep), []string{"20241399-1", "latest"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keep = %v, want %v", got, want)
	}
	if got, want := strs(plan.Remove), []string{"20240102-1", "20240101-01", "20240101-0"}; !reflect.DeepEqual(got, want) {
		t.Errorf("remove = %v, want %v", got, want)
	}
}

func TestPlanForOnlyOpaque(t *testing.T) {
	plan := PlanFor(tag.ParseAll([]string{"latest", "stable", "2024-01-01"}))

	if len(plan.Remove) != 0 {
		t.Errorf("remove = %v, want none", strs(plan.Remove))
	}
	if len(plan.Keep) != 3 {
		t.Errorf("keep = %v, want all three", strs(plan.Keep))
	}
}

func TestPlanForSingleDated(t *testing.T) {
	plan := PlanFor(tag.ParseAll([]string{"20240101-1"}))
	if len(plan.Remove) != 0 || len(plan.Keep) != 1 {
		t.Errorf("plan = keep %v remove %v", strs(plan.Keep), strs(plan.Remove))
	}
}

func TestApplyEmptyIsNoop(t *testing.T) {
	store := &memStore{}
	result, err := Apply(context.Background(), store, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(result.Plan.Keep)+len(result.Plan.Remove)+len(store.removed) != 0 {
		t.Errorf("expected no-op, got %+v removed=%v", result.Plan, store.removed)
	}
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	store := &memStore{
		tags: []string{"20240101-1", "20240101-2", "20240101-3", "20240101-4"},
		fail: map[string]error{"20240101-2": errors.New("image is in use")},
	}

	result, err := Apply(context.Background(), store, false)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, want := store.removed, []string{"20240101-3", "20240101-1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("removed = %v, want %v", got, want)
	}
	if len(result.Failed) != 1 || result.Failed[0].Tag.String() != "20240101-2" {
		t.Errorf("failed = %+v, want one failure for 20240101-2", result.Failed)
	}
}

func TestApplyDryRun(t *testing.T) {
	store := &memStore{tags: []string{"20240101-1", "20240102-1"}}

	result, err := Apply(context.Background(), store, true)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(store.removed) != 0 {
		t.Errorf("dry run removed %v", store.removed)
	}
	if got := strs(result.Plan.Remove); !reflect.DeepEqual(got, []string{"20240101-1"}) {
		t.Errorf("plan remove = %v", got)
	}
}

func TestApplyListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Apply(context.Background(), &memStore{listErr: boom}, false)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapping boom", err)
	}
}

func TestApplyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &memStore{tags: []string{"20240101-1", "20240102-1"}}
	_, err := Apply(ctx, store, false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(store.removed) != 0 {
		t.Errorf("removed %v after cancel", store.removed)
	}
}

// ── Pruner ──────────────────────────────────────────────────────────────

func target(project, name string) config.Target {
	return config.Target{
		Image:     config.ImageRef{Project: project, Name: name},
		LatestTag: "latest",
	}
}

func newPruner(fake *enginetest.Fake, dryRun bool) *Pruner {
	return &Pruner{
		Engine: fake,
		Local:  registry.NewLocal(fake),
		DryRun: dryRun,
		Log:    log.New(io.Discard),
	}
}

func TestPrunerRemovesSuperseded(t *testing.T) {
	fake := enginetest.New().
		Seed("app", "20240101-1", "20240102-1", "20240102-2", "latest").
		Seed("worker")

	rep, err := newPruner(fake, false).Run(context.Background(), []config.Target{
		target("app", "app"),
		target("worker", "worker"),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := fake.Tags("app"), []string{"20240102-2", "latest"}; !reflect.DeepEqual(got, want) {
		t.Errorf("remaining = %v, want %v", got, want)
	}
	if rep.Err() != nil {
		t.Errorf("report error = %v", rep.Err())
	}
	if n := rep.Count(report.Skipped); n != 1 {
		t.Errorf("skipped = %d, want 1 (empty worker)", n)
	}
}

func TestPrunerPartialFailure(t *testing.T) {
	fake := enginetest.New().Seed("app", "20240101-1", "20240101-2", "20240101-3")
	fake.FailRemove["app:20240101-2"] = errors.New("conflict: image is being used")

	rep, err := newPruner(fake, false).Run(context.Background(), []config.Target{target("app", "app")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := fake.Removed, []string{"app:20240101-1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("removed = %v, want %v", got, want)
	}
	if rep.Failed() != 1 || rep.Err() == nil {
		t.Errorf("failed = %d err = %v, want one failure", rep.Failed(), rep.Err())
	}
}

func TestPrunerDryRun(t *testing.T) {
	fake := enginetest.New().Seed("app", "20240101-1", "20240102-1")

	rep, err := newPruner(fake, true).Run(context.Background(), []config.Target{target("app", "app")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.Removed) != 0 {
		t.Errorf("dry run removed %v", fake.Removed)
	}
	var planned []string
	for _, o := range rep.Outcomes() {
		if o.Op == "remove" && o.Status == report.Skipped {
			planned = append(planned, o.Ref)
		}
	}
	if !reflect.DeepEqual(planned, []string{"app:20240101-1"}) {
		t.Errorf("planned = %v", planned)
	}
}

func TestPrunerListFailureIsFatal(t *testing.T) {
	fake := enginetest.New()
	fake.FailList = errors.New("daemon gone")

	_, err := newPruner(fake, false).Run(context.Background(), []config.Target{target("app", "app")})
	if err == nil {
		t.Fatal("expected error")
	}
}
