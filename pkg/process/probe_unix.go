//go:build unix && !linux

package process

// probe falls back to kill(pid, 0). An exited but unreaped child still
// answers it, so a zombie reads as running until Wait reaps it.
func (posixBackend) probe(p sysProc) (RunState, error) {
	return ProbePID(p.pid)
}
