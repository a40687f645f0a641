package govern_test

import (
	"testing"
	"time"

	"github.com/ecorun/ecolang/pkg/diag"
	"github.com/ecorun/ecolang/pkg/govern"
)

func limits() govern.Limits {
	l := govern.DefaultLimits()
	l.MaxSteps = 3
	l.MaxOutputChars = 10
	l.MaxCallDepth = 2
	l.MaxLoop = 5
	return l
}

func TestCheckStepLimit(t *testing.T) {
	g := govern.New(limits())
	for i := 0; i < 3; i++ {
		if d := g.CheckStep(); d != nil {
			t.Fatalf("step %d unexpectedly failed: %+v", i, d)
		}
	}
	d := g.CheckStep()
	if d == nil || d.Code != diag.StepLimit {
		t.Errorf("got %+v, want STEP_LIMIT", d)
	}
}

func TestCheckTimeBudget(t *testing.T) {
	l := limits()
	l.MaxTime = time.Nanosecond
	g := govern.New(l)
	time.Sleep(time.Millisecond)
	d := g.CheckTime()
	if d == nil || d.Code != diag.Timeout {
		t.Errorf("got %+v, want TIMEOUT", d)
	}
}

func TestAddOutputLimit(t *testing.T) {
	g := govern.New(limits())
	if d := g.AddOutput(6); d != nil {
		t.Fatalf("unexpected: %+v", d)
	}
	if d := g.AddOutput(4); d != nil {
		t.Fatalf("exact fit rejected: %+v", d)
	}
	d := g.AddOutput(1)
	if d == nil || d.Code != diag.OutputLimit {
		t.Errorf("got %+v, want OUTPUT_LIMIT", d)
	}
}

func TestCallDepth(t *testing.T) {
	g := govern.New(limits())
	if d := g.EnterCall(); d != nil {
		t.Fatalf("unexpected: %+v", d)
	}
	if d := g.EnterCall(); d != nil {
		t.Fatalf("unexpected: %+v", d)
	}
	d := g.EnterCall()
	if d == nil || d.Code != diag.RuntimeErr {
		t.Errorf("got %+v, want RUNTIME_ERROR for depth", d)
	}
	g.ExitCall()
	if d := g.EnterCall(); d != nil {
		t.Errorf("after ExitCall a new frame should fit: %+v", d)
	}
}

func TestLoopAllowed(t *testing.T) {
	g := govern.New(limits())
	if !g.LoopAllowed(4) {
		t.Error("iteration below cap rejected")
	}
	if g.LoopAllowed(5) {
		t.Error("iteration at cap allowed")
	}
}
