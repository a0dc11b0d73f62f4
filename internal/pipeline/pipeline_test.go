package pipeline

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/tybalex/otto8-log-tool/internal/mask"
	"github.com/tybalex/otto8-log-tool/internal/model"
	"github.com/tybalex/otto8-log-tool/internal/templates"
)

// exactStore clusters by exact masked line. It is intentionally degenerate:
// alignment has to work for any store honoring the contract.
type exactStore struct {
	ids    map[string]int64
	sizes  map[int64]int
	nextID int64
}

func newExactStore() templates.Store {
	return &exactStore{ids: map[string]int64{}, sizes: map[int64]int{}, nextID: 1}
}

func (s *exactStore) Ingest(masked string) error {
	id, ok := s.ids[masked]
	if !ok {
		id = s.nextID
		s.nextID++
		s.ids[masked] = id
	}
	s.sizes[id]++
	return nil
}

func (s *exactStore) Match(masked string) (string, int64, bool) {
	id, ok := s.ids[masked]
	if !ok {
		return "", 0, false
	}
	return masked, id, true
}

func (s *exactStore) ListTemplates() []model.ClusterInfo {
	out := make([]model.ClusterInfo, 0, len(s.ids))
	for tmpl, id := range s.ids {
		out = append(out, model.ClusterInfo{ID: id, Size: s.sizes[id], Template: tmpl})
	}
	// Size descending, id ascending on ties, as the contract requires.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Size > out[i].Size || (out[j].Size == out[i].Size && out[j].ID < out[i].ID) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// fixedStore always matches the same cluster and template.
type fixedStore struct {
	template string
	id       int64
	ok       bool
}

func (s *fixedStore) Ingest(string) error { return nil }
func (s *fixedStore) Match(string) (string, int64, bool) {
	return s.template, s.id, s.ok
}
func (s *fixedStore) ListTemplates() []model.ClusterInfo { return nil }

func newController(newStore func() templates.Store) *Controller {
	return New(mask.New(), newStore)
}

func TestDiscover_EmptyInput(t *testing.T) {
	t.Parallel()
	c := newController(newExactStore)

	if _, err := c.Discover(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("err = %v, want ErrEmptyInput", err)
	}
}

func TestDiscover_TemplatesAndLines(t *testing.T) {
	t.Parallel()
	c := newController(newExactStore)

	lines := []string{
		"retried 3 times",
		"retried 7 times",
		"listener ready",
	}
	snap, err := c.Discover(context.Background(), lines)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !reflect.DeepEqual(snap.LogLines, lines) {
		t.Errorf("LogLines = %v, want input preserved", snap.LogLines)
	}
	if len(snap.Clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(snap.Clusters))
	}
	if snap.Clusters[0].Size != 2 || snap.Clusters[1].Size != 1 {
		t.Errorf("cluster sizes = %d, %d, want 2, 1", snap.Clusters[0].Size, snap.Clusters[1].Size)
	}
	if snap.Clusters[0].Template != "retried <DIGITS> times" {
		t.Errorf("top template = %q", snap.Clusters[0].Template)
	}
}

func TestReconstruct_RecoversParameters(t *testing.T) {
	t.Parallel()
	c := newController(newExactStore)

	lines := []string{"retried 3 times", "retried 7 times", "listener ready"}
	snap, err := c.Discover(context.Background(), lines)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	result, err := c.Reconstruct(context.Background(), snap, snap.Clusters[0].ID)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	want := []model.LineParameters{
		{Line: "retried 3 times", Parameters: []model.ParameterOccurrence{{Token: "<DIGITS>", Value: "3"}}},
		{Line: "retried 7 times", Parameters: []model.ParameterOccurrence{{Token: "<DIGITS>", Value: "7"}}},
	}
	if !reflect.DeepEqual(result.Parameters, want) {
		t.Errorf("Parameters = %v, want %v", result.Parameters, want)
	}
	if result.Template != "retried <DIGITS> times" {
		t.Errorf("Template = %q", result.Template)
	}
}

func TestReconstruct_UnknownCluster(t *testing.T) {
	t.Parallel()
	c := newController(newExactStore)

	snap := &model.Snapshot{
		Clusters: []model.ClusterInfo{{ID: 1, Size: 1, Template: "x"}},
		LogLines: []string{"x"},
	}
	if _, err := c.Reconstruct(context.Background(), snap, 99); !errors.Is(err, ErrClusterNotFound) {
		t.Errorf("err = %v, want ErrClusterNotFound", err)
	}
}

func TestReconstruct_SkipsStructuralMismatch(t *testing.T) {
	t.Parallel()
	// Every line matches cluster 1, but the reported template has a single
	// token; alignment must skip the lines instead of failing the batch.
	c := newController(func() templates.Store {
		return &fixedStore{template: "<*>", id: 1, ok: true}
	})

	snap := &model.Snapshot{
		Clusters: []model.ClusterInfo{{ID: 1, Size: 2, Template: "<*>"}},
		LogLines: []string{"three token line", "another three tokens"},
	}
	result, err := c.Reconstruct(context.Background(), snap, 1)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(result.Parameters) != 0 {
		t.Errorf("got %d line results, want 0 (all skipped)", len(result.Parameters))
	}
}

func TestReconstruct_SkipsUnmatchedLines(t *testing.T) {
	t.Parallel()
	c := newController(func() templates.Store {
		return &fixedStore{ok: false}
	})

	snap := &model.Snapshot{
		Clusters: []model.ClusterInfo{{ID: 1, Size: 1, Template: "x"}},
		LogLines: []string{"x"},
	}
	result, err := c.Reconstruct(context.Background(), snap, 1)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(result.Parameters) != 0 {
		t.Errorf("got %d line results, want 0", len(result.Parameters))
	}
}

func TestDiscoverReconstruct_Idempotent(t *testing.T) {
	t.Parallel()
	lines := []string{
		"copied /a/b.txt in 10 ms",
		"copied /c/d.txt in 20 ms",
		"server started",
	}

	run := func() *model.ReconstructResult {
		c := newController(newExactStore)
		snap, err := c.Discover(context.Background(), lines)
		if err != nil {
			t.Fatalf("Discover: %v", err)
		}
		result, err := c.Reconstruct(context.Background(), snap, snap.Clusters[0].ID)
		if err != nil {
			t.Fatalf("Reconstruct: %v", err)
		}
		return result
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reconstruct output differs across identical runs:\n%v\n%v", first, second)
	}
}

func TestReconstruct_Cancelled(t *testing.T) {
	t.Parallel()
	c := newController(newExactStore)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap := &model.Snapshot{
		Clusters: []model.ClusterInfo{{ID: 1, Size: 1, Template: "x"}},
		LogLines: []string{"x"},
	}
	if _, err := c.Reconstruct(ctx, snap, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
