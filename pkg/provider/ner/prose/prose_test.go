package prose_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner"
	"github.com/BalashanmugamK/AI-Powered-Scribe/pkg/provider/ner/prose"
)

func TestRecognize_EmptyText(t *testing.T) {
	t.Parallel()

	got, err := prose.New().Recognize(context.Background(), "")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestRecognize_DeterministicAcrossCalls(t *testing.T) {
	t.Parallel()

	r := prose.New()
	text := "The capital of France is Berlin, I think. Yeah, Berlin."
	first, err := r.Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	second, err := r.Recognize(context.Background(), text)
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("results differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("entity %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestRecognize_LabelFilter(t *testing.T) {
	t.Parallel()

	r := prose.New(prose.WithLabels("NO_SUCH_LABEL"))
	got, err := r.Recognize(context.Background(), "Abraham Lincoln visited Washington.")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want nothing past the label filter", got)
	}
}

func TestMissingModelDir_IsModelUnavailable(t *testing.T) {
	t.Parallel()

	r := prose.New(prose.WithModelDir(filepath.Join(t.TempDir(), "absent")))

	if err := r.Load(context.Background()); !errors.Is(err, ner.ErrModelUnavailable) {
		t.Fatalf("Load = %v, want ErrModelUnavailable", err)
	}
	// The failure is remembered and never turns into "no entities".
	got, err := r.Recognize(context.Background(), "Lincoln")
	if !errors.Is(err, ner.ErrModelUnavailable) {
		t.Fatalf("Recognize err = %v, want ErrModelUnavailable", err)
	}
	if got != nil {
		t.Errorf("entities = %v, want nil on failure", got)
	}
}

func TestLoad_ConcurrentCallers(t *testing.T) {
	t.Parallel()

	r := prose.New()
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.Load(context.Background())
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
}

func TestLoad_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := prose.New().Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load = %v, want context.Canceled", err)
	}
}
