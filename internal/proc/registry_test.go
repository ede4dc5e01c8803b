package proc

import (
	"os/exec"
	"sync"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// fakeSweep wires a registry to an in-memory signal recorder so sweep
// behavior can be asserted without real processes.
type fakeSweep struct {
	mu    sync.Mutex
	sent  []sentSignal
	alive map[int]bool
}

type sentSignal struct {
	pid int
	sig unix.Signal
}

func newFakeSweep(r *Registry) *fakeSweep {
	f := &fakeSweep{alive: make(map[int]bool)}
	r.interval = time.Millisecond
	r.signal = func(pid int, sig unix.Signal) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.sent = append(f.sent, sentSignal{pid, sig})
		// SIGTERM is honored unless the pid was marked stubborn.
		target := pid
		if target < 0 {
			target = -target
		}
		if sig == unix.SIGTERM && !f.alive[target] {
			return nil
		}
		if sig == unix.SIGKILL {
			f.alive[target] = false
		}
		return nil
	}
	r.alive = func(pid int) bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.alive[pid]
	}
	return f
}

func (f *fakeSweep) signals(sig unix.Signal) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pids []int
	for _, s := range f.sent {
		if s.sig == sig {
			pids = append(pids, s.pid)
		}
	}
	return pids
}

func TestRegisterSetSemantics(t *testing.T) {
	r := NewRegistry()
	r.Register(100)
	r.Register(100)
	r.Register(200)
	if got := r.Count(); got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}
	r.Unregister(100)
	r.Unregister(100) // unknown pid is a no-op
	if got := r.Count(); got != 1 {
		t.Fatalf("count after unregister = %d, want 1", got)
	}
}

func TestTerminateAllSignalsGroupAndClears(t *testing.T) {
	r := NewRegistry()
	f := newFakeSweep(r)
	r.Register(41)
	r.Register(42)
	r.TerminateAll(time.Second)
	terms := f.signals(unix.SIGTERM)
	if len(terms) != 2 {
		t.Fatalf("SIGTERM count = %d, want 2", len(terms))
	}
	for _, pid := range terms {
		if pid >= 0 {
			t.Fatalf("SIGTERM went to %d, want negative group pid", pid)
		}
	}
	if kills := f.signals(unix.SIGKILL); len(kills) != 0 {
		t.Fatalf("unexpected SIGKILLs: %v", kills)
	}
	if got := r.Count(); got != 0 {
		t.Fatalf("count after sweep = %d, want 0", got)
	}
}

func TestTerminateAllRunsOnce(t *testing.T) {
	r := NewRegistry()
	f := newFakeSweep(r)
	r.Register(7)
	r.TerminateAll(time.Second)
	n := len(f.signals(unix.SIGTERM))
	r.Register(8)
	r.TerminateAll(time.Second)
	if got := len(f.signals(unix.SIGTERM)); got != n {
		t.Fatalf("second sweep sent signals: %d -> %d", n, got)
	}
}

func TestTerminateAllEscalatesWithinGrace(t *testing.T) {
	r := NewRegistry()
	f := newFakeSweep(r)
	f.alive[9] = true // ignores SIGTERM
	r.Register(9)

	start := time.Now()
	r.TerminateAll(20 * time.Millisecond)
	elapsed := time.Since(start)

	kills := f.signals(unix.SIGKILL)
	if len(kills) != 1 || kills[0] != -9 {
		t.Fatalf("SIGKILLs = %v, want [-9]", kills)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("sweep took %v, grace not bounded", elapsed)
	}
	if r.Count() != 0 {
		t.Fatalf("count after escalation = %d, want 0", r.Count())
	}
}

func TestTerminateAllEmptyRegistry(t *testing.T) {
	r := NewRegistry()
	newFakeSweep(r)
	r.TerminateAll(time.Second) // must not block or panic
}

func TestGuardReleaseSweeps(t *testing.T) {
	r := NewRegistry()
	f := newFakeSweep(r)
	g := &Guard{reg: r}
	g.Register(55)
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
	g.Release()
	g.Release() // idempotent
	if got := len(f.signals(unix.SIGTERM)); got != 1 {
		t.Fatalf("SIGTERM count = %d, want 1", got)
	}
	if r.Count() != 0 {
		t.Fatalf("count after release = %d, want 0", r.Count())
	}
}

func startGroupLeader(t *testing.T, name string, args ...string) int {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("start %s: %v", name, err)
	}
	return cmd.Process.Pid
}

func waitGone(t *testing.T, pid int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !pidAlive(pid) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("pid %d still alive after %v", pid, timeout)
}

func TestTerminateAllRealProcesses(t *testing.T) {
	r := NewRegistry()
	p1 := startGroupLeader(t, "sleep", "30")
	p2 := startGroupLeader(t, "sleep", "30")
	r.Register(p1)
	r.Register(p2)

	start := time.Now()
	r.TerminateAll(5 * time.Second)
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("sweep of cooperative children took %v", elapsed)
	}
	waitGone(t, p1, 2*time.Second)
	waitGone(t, p2, 2*time.Second)
	if r.Count() != 0 {
		t.Fatalf("count = %d, want 0", r.Count())
	}
}

func TestTerminateAllEscalatesStubbornProcess(t *testing.T) {
	r := NewRegistry()
	pid := startGroupLeader(t, "sh", "-c", `trap "" TERM; sleep 30`)
	r.Register(pid)
	// Give the shell a moment to install its trap.
	time.Sleep(200 * time.Millisecond)

	r.TerminateAll(500 * time.Millisecond)
	waitGone(t, pid, 2*time.Second)
}
