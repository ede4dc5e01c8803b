package proc

import "time"

// guardGrace is how long Release waits for children to exit before
// escalating to SIGKILL.
const guardGrace = 5 * time.Second

// Guard ties child cleanup to a scope. Acquire one near the top of main and
// defer Release so the sweep also runs while a panic unwinds.
type Guard struct {
	reg *Registry
}

// NewGuard returns a guard over the global registry.
func NewGuard() *Guard {
	return &Guard{reg: Global()}
}

// Register records pid with the underlying registry.
func (g *Guard) Register(pid int) { g.reg.Register(pid) }

// Unregister forgets pid.
func (g *Guard) Unregister(pid int) { g.reg.Unregister(pid) }

// Release terminates every tracked child with a 5 second grace period.
// Safe to call more than once; the sweep itself runs at most once.
func (g *Guard) Release() {
	g.reg.TerminateAll(guardGrace)
}
