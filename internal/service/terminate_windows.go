package service

import "os"

// windows has no SIGTERM, the process is killed right away
func terminate(p *os.Process) error {
	if p == nil {
		return nil
	}
	return p.Kill()
}
