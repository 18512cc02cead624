package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cookbatch/internal/source"
)

func makeRefs(n int) []source.Ref {
	refs := make([]source.Ref, 0, n)
	for i := 0; i < n; i++ {
		refs = append(refs, source.Ref{URL: fmt.Sprintf("https://example.com/r/%d.git", i)})
	}
	return refs
}

func TestPool_NewPool_RejectsNonPositiveConcurrency(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewPool(n); err == nil {
			t.Errorf("NewPool(%d): expected error, got nil", n)
		}
	}
}

func TestPool_ExactlyOneOutcomePerRepo(t *testing.T) {
	pool, err := NewPool(4)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	refs := makeRefs(25)
	seen := make(map[string]int)
	for res := range pool.Run(context.Background(), refs, func(_ context.Context, ref source.Ref) Outcome {
		return Outcome{Repo: ref.URL, Status: StatusDone}
	}) {
		seen[res.Repo]++
	}

	if len(seen) != len(refs) {
		t.Fatalf("outcomes for %d repos, want %d", len(seen), len(refs))
	}
	for repo, n := range seen {
		if n != 1 {
			t.Errorf("repo %s yielded %d outcomes, want exactly 1", repo, n)
		}
	}
}

func TestPool_ConcurrencyBoundNeverExceeded(t *testing.T) {
	const bound = 3
	pool, err := NewPool(bound)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	var active, peak int64
	process := func(_ context.Context, ref source.Ref) Outcome {
		cur := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if cur <= old || atomic.CompareAndSwapInt64(&peak, old, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return Outcome{Repo: ref.URL, Status: StatusDone}
	}

	count := 0
	for range pool.Run(context.Background(), makeRefs(20), process) {
		count++
	}

	if count != 20 {
		t.Fatalf("outcomes = %d, want 20", count)
	}
	if got := atomic.LoadInt64(&peak); got > bound {
		t.Fatalf("peak concurrency = %d, exceeds bound %d", got, bound)
	}
}

func TestPool_SlowWorkerDoesNotBlockFinishedOnes(t *testing.T) {
	pool, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	slow := "https://example.com/slow.git"
	refs := []source.Ref{{URL: slow}, {URL: "https://example.com/fast1.git"}, {URL: "https://example.com/fast2.git"}}

	process := func(_ context.Context, ref source.Ref) Outcome {
		if ref.URL == slow {
			time.Sleep(500 * time.Millisecond)
		}
		return Outcome{Repo: ref.URL, Status: StatusDone}
	}

	var order []string
	for res := range pool.Run(context.Background(), refs, process) {
		order = append(order, res.Repo)
	}

	if len(order) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(order))
	}
	if order[0] == slow {
		t.Fatal("slow repo reported first; completion order should let fast repos through")
	}
	if order[len(order)-1] != slow {
		t.Fatalf("slow repo not reported last: %v", order)
	}
}

func TestPool_WorkerFailureIsIsolated(t *testing.T) {
	pool, err := NewPool(2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	refs := makeRefs(6)
	failing := refs[2].URL

	var mu sync.Mutex
	statuses := make(map[string]string)
	process := func(_ context.Context, ref source.Ref) Outcome {
		if ref.URL == failing {
			return Outcome{Repo: ref.URL, Status: StatusFatalError, Error: "injected"}
		}
		return Outcome{Repo: ref.URL, Status: StatusDone}
	}
	for res := range pool.Run(context.Background(), refs, process) {
		mu.Lock()
		statuses[res.Repo] = res.Status
		mu.Unlock()
	}

	if len(statuses) != len(refs) {
		t.Fatalf("outcomes = %d, want %d", len(statuses), len(refs))
	}
	for repo, status := range statuses {
		want := StatusDone
		if repo == failing {
			want = StatusFatalError
		}
		if status != want {
			t.Errorf("repo %s status = %q, want %q", repo, status, want)
		}
	}
}

func TestPool_ContextCancellationStopsSubmission(t *testing.T) {
	pool, err := NewPool(1)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var processed int64
	process := func(_ context.Context, ref source.Ref) Outcome {
		atomic.AddInt64(&processed, 1)
		cancel()
		return Outcome{Repo: ref.URL, Status: StatusDone}
	}

	count := 0
	for range pool.Run(ctx, makeRefs(50), process) {
		count++
	}

	if got := atomic.LoadInt64(&processed); got >= 50 {
		t.Fatalf("cancellation did not stop submission; processed %d", got)
	}
	if count > int(atomic.LoadInt64(&processed)) {
		t.Fatalf("received %d outcomes for %d processed repos", count, processed)
	}
}
