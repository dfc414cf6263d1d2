package analysis

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"ergols/internal/bridge"
	"ergols/internal/diag"
)

const okPayload = `echo '{"success": true, "errors": []}'`

func TestAnalyzeWellBehavedAnalyzer(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, okPayload))
	out := c.Analyze(context.Background(), NewRequest("", "val x = 1\nsigmaProp(x > 0)", 5*time.Second))
	if !out.Success || out.Errors == nil || len(out.Errors) != 0 {
		t.Fatalf("expected {Success: true, Errors: []}, got %+v", out)
	}
	if out.Status != diag.StatusAuthoritative {
		t.Fatalf("expected authoritative, got %s", out.Status)
	}
}

func TestAnalyzerSupersedesHeuristic(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, okPayload))
	out := c.Analyze(context.Background(), NewRequest("", "{", time.Second*5))
	if !out.Success {
		t.Fatalf("external result must win over the heuristic, got %+v", out)
	}
}

func TestAnalyzeStderrFailure(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, `echo "3:5: unexpected token" 1>&2; exit 1`))
	out := c.Analyze(context.Background(), NewRequest("", "val", 5*time.Second))
	if out.Success || len(out.Errors) != 1 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	d := out.Errors[0]
	if *d.Line != 2 || *d.Column != 4 || d.Origin != diag.OriginAnalyzer {
		t.Fatalf("unexpected descriptor %+v", d)
	}
}

func TestHeuristicOnlyWithoutAnalyzer(t *testing.T) {
	c := newCoordinator(nil)
	out := c.Analyze(context.Background(), NewRequest("", "(a, b]", 0))
	if out.Status != diag.StatusHeuristicOnly || len(out.Errors) != 2 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if c.HasAnalyzer() {
		t.Fatalf("no launcher configured")
	}
}

func TestSpawnFailureFallsBackToHeuristic(t *testing.T) {
	missing := &bridge.Launcher{Path: filepath.Join(t.TempDir(), "missing-java")}
	c := newCoordinator(missing)

	out := c.Analyze(context.Background(), NewRequest("", "{", time.Second))
	if out.Status != diag.StatusDegraded || !strings.Contains(out.Note, "unavailable") {
		t.Fatalf("expected degraded outcome with reason, got %+v", out)
	}
	if len(out.Errors) != 1 || out.Errors[0].Origin != diag.OriginHeuristic {
		t.Fatalf("heuristic findings expected, got %+v", out.Errors)
	}

	clean := c.Analyze(context.Background(), NewRequest("", "val x = 1", time.Second))
	if clean.Success || len(clean.Errors) != 1 || clean.Errors[0].Origin != diag.OriginBridge {
		t.Fatalf("degraded outcome must describe the failure, got %+v", clean)
	}
}

func TestTimeoutKeepsHeuristicAndReportsTimeout(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, `sleep 10`))
	start := time.Now()
	res := c.AnalyzeDetailed(context.Background(), NewRequest("", "{", 200*time.Millisecond))
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout not enforced")
	}
	out := res.Outcome
	if out.Success || out.Status != diag.StatusDegraded {
		t.Fatalf("timeout must not be success: %+v", out)
	}
	if len(out.Errors) != 2 || out.Errors[0].Origin != diag.OriginHeuristic || out.Errors[1].Origin != diag.OriginBridge {
		t.Fatalf("expected heuristic then timeout descriptor, got %+v", out.Errors)
	}
	if _, ok := res.Timings.Phase("invoke"); !ok {
		t.Fatalf("invoke phase not timed")
	}
}

func TestStrictModeMalformedOutput(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, `echo parsed`))
	out := c.Analyze(context.Background(), NewRequest("", "val x = 1", time.Second*5))
	if !out.Success || out.Status != diag.StatusCaveat {
		t.Fatalf("permissive default expected caveat success, got %+v", out)
	}
	c.SetStrict(true)
	out = c.Analyze(context.Background(), NewRequest("", "val x = 1", time.Second*5))
	if out.Success || out.Status != diag.StatusDegraded {
		t.Fatalf("strict mode expected degraded, got %+v", out)
	}
}

func TestCanceledRequest(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, `sleep 10`))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	out := c.Analyze(ctx, NewRequest("doc", "val x = 1", 10*time.Second))
	if out.Status != diag.StatusCanceled {
		t.Fatalf("expected canceled, got %+v", out)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	c := newCoordinator(fakeAnalyzer(t, `echo "1:1: first" 1>&2; echo "2:3: second" 1>&2; exit 1`))
	src := "val a = {\n=> b"
	first := c.Analyze(context.Background(), NewRequest("", src, 5*time.Second))
	second := c.Analyze(context.Background(), NewRequest("", src, 5*time.Second))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("outcomes differ:\n%+v\n%+v", first, second)
	}
}

func TestEarlyHeuristicCallback(t *testing.T) {
	var early []diag.Outcome
	c := NewCoordinator(Options{
		Launcher: fakeAnalyzer(t, okPayload),
		Early:    func(_ Request, out diag.Outcome) { early = append(early, out) },
	})
	c.Analyze(context.Background(), NewRequest("", "val ok = 1", 5*time.Second))
	if len(early) != 0 {
		t.Fatalf("clean heuristic must not call Early")
	}
	c.Analyze(context.Background(), NewRequest("", "(", 5*time.Second))
	if len(early) != 1 || early[0].Success {
		t.Fatalf("expected one early failure, got %+v", early)
	}
}

func TestBreakerOpenSkipsSpawn(t *testing.T) {
	missing := &bridge.Launcher{Path: filepath.Join(t.TempDir(), "missing-java")}
	c := NewCoordinator(Options{
		Launcher: missing,
		Breaker:  bridge.NewBreaker(bridge.BreakerOptions{MaxFailures: 1, OpenTimeout: time.Minute}),
	})
	c.Analyze(context.Background(), NewRequest("", "", time.Second))
	out := c.Analyze(context.Background(), NewRequest("", "", time.Second))
	if out.Status != diag.StatusDegraded || !strings.Contains(out.Note, "repeated failures") {
		t.Fatalf("expected breaker fallback, got %+v", out)
	}
}
