package proc

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"sysdeck/internal/system"
)

// Registry tracks the PIDs of every child the program has spawned so they
// can all be torn down before the program exits. Children are started in
// their own process group (Setsid), so the sweep signals the whole group.
type Registry struct {
	mu      sync.Mutex
	pids    map[int]struct{}
	cleaned bool

	// signal and alive are swappable so tests can observe the sweep
	// without spawning real processes.
	signal   func(pid int, sig unix.Signal) error
	alive    func(pid int) bool
	interval time.Duration
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first use.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// NewRegistry returns an empty registry with real signal delivery.
func NewRegistry() *Registry {
	return &Registry{
		pids:     make(map[int]struct{}),
		signal:   unix.Kill,
		alive:    pidAlive,
		interval: 100 * time.Millisecond,
	}
}

// Register records pid as a live child. Registering the same pid twice is
// harmless.
func (r *Registry) Register(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pids[pid] = struct{}{}
}

// Unregister forgets pid, typically after the child has been reaped.
func (r *Registry) Unregister(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pids, pid)
}

// Count reports how many children are currently tracked.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pids)
}

// TerminateAll sends SIGTERM to every tracked child, waits up to grace for
// them to exit, and SIGKILLs the survivors. It runs at most once per
// registry; later calls return immediately. The lock is never held while
// sleeping, so children can still unregister themselves during the sweep.
func (r *Registry) TerminateAll(grace time.Duration) {
	r.mu.Lock()
	if r.cleaned {
		r.mu.Unlock()
		return
	}
	r.cleaned = true
	targets := make([]int, 0, len(r.pids))
	for pid := range r.pids {
		targets = append(targets, pid)
	}
	r.mu.Unlock()

	if len(targets) == 0 {
		return
	}
	system.Logger.Info("terminating child processes", "count", len(targets))

	for _, pid := range targets {
		r.signalGroup(pid, unix.SIGTERM)
	}

	deadline := time.Now().Add(grace)
	remaining := targets
	for time.Now().Before(deadline) {
		remaining = r.survivors(remaining)
		if len(remaining) == 0 {
			break
		}
		time.Sleep(r.interval)
	}

	remaining = r.survivors(remaining)
	for _, pid := range remaining {
		system.Logger.Warn("child ignored SIGTERM, killing", "pid", pid)
		r.signalGroup(pid, unix.SIGKILL)
	}

	r.mu.Lock()
	r.pids = make(map[int]struct{})
	r.mu.Unlock()
}

// signalGroup delivers sig to pid's process group, falling back to the
// single process when the group signal fails (e.g. before exec completes).
func (r *Registry) signalGroup(pid int, sig unix.Signal) {
	if err := r.signal(-pid, sig); err == nil {
		return
	}
	if err := r.signal(pid, sig); err != nil && err != unix.ESRCH {
		system.Logger.Warn("failed to signal child", "pid", pid, "sig", sig, "err", err)
	}
}

func (r *Registry) survivors(pids []int) []int {
	out := pids[:0]
	for _, pid := range pids {
		if r.alive(pid) {
			out = append(out, pid)
		}
	}
	return out
}

// pidAlive reports whether pid still exists. Children of this process are
// reaped with a non-blocking wait first so zombies do not count as alive.
func pidAlive(pid int) bool {
	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	if err == nil && wpid == pid {
		return false
	}
	err = unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
