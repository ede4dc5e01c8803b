package proc

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"sysdeck/internal/system"
)

// hookGrace is the shorter grace used when the operator is actively
// interrupting the program.
const hookGrace = 3 * time.Second

var hookOnce sync.Once

// InstallInterruptHook arranges for SIGINT and SIGTERM to sweep all tracked
// children before the process exits with the conventional 128+signal code.
// Installing it more than once is a no-op.
func InstallInterruptHook() {
	hookOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-ch
			system.Logger.Info("interrupted, cleaning up children", "sig", sig)
			Global().TerminateAll(hookGrace)
			code := 128
			if s, ok := sig.(syscall.Signal); ok {
				code += int(s)
			}
			os.Exit(code)
		}()
	})
}
