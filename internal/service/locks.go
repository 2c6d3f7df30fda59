package service

import "sync"

// One mutex per tournament id. Mutexes are created on first use
// and kept for the lifetime of the process.
type tournamentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTournamentLocks() *tournamentLocks {
	return &tournamentLocks{locks: make(map[string]*sync.Mutex)}
}

// Locks the tournament and returns the unlock function
func (l *tournamentLocks) lock(tournamentId string) func() {
	l.mu.Lock()
	m, ok := l.locks[tournamentId]
	if !ok {
		m = &sync.Mutex{}
		l.locks[tournamentId] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
