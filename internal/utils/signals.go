package utils

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// RelaySignals forwards termination signals received by dock to a child
// process for as long as the child runs. When stdin is a terminal, SIGINT and
// SIGQUIT already reach the child through its process group, so they are only
// swallowed to keep dock alive until the child exits. The returned function
// stops relaying.
func RelaySignals(proc *os.Process) func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	fromTerminal := IsTerminal(os.Stdin)

	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigChan:
				if fromTerminal && (sig == syscall.SIGINT || sig == syscall.SIGQUIT) {
					continue
				}
				if err := proc.Signal(sig); err != nil {
					// The child might have already exited.
					logrus.Debugf("Failed to forward signal %s: %v", sig, err)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
