package coredb

// LockManager implements per-page shared/exclusive locking with reentrant
// acquisition, in-place upgrade, and wait-for-graph deadlock detection.
// The lock table and the wait-for graph are protected by a single mutex
// so that acquire/release observe both atomically; waiters block on a
// per-entry condition variable rather than busy-waiting with sleeps.

import (
	"sync"

	"go.uber.org/zap"
)

// LockMode is the granted mode for a page's lock entry.
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

type lockEntry struct {
	owners map[TransactionID]struct{}
	mode   LockMode
	cond   *sync.Cond
}

// LockManager owns the lock table and the wait-for graph for a buffer pool.
type LockManager struct {
	mu      sync.Mutex
	entries map[PageID]*lockEntry
	waitFor map[TransactionID]map[TransactionID]struct{}
	log     *zap.Logger
}

// NewLockManager constructs an empty lock manager.
func NewLockManager(log *zap.Logger) *LockManager {
	if log == nil {
		log = zap.NewNop()
	}
	return &LockManager{
		entries: make(map[PageID]*lockEntry),
		waitFor: make(map[TransactionID]map[TransactionID]struct{}),
		log:     log,
	}
}

func (lm *LockManager) entryFor(pid PageID) *lockEntry {
	e, ok := lm.entries[pid]
	if !ok {
		e = &lockEntry{owners: make(map[TransactionID]struct{})}
		e.cond = sync.NewCond(&lm.mu)
		lm.entries[pid] = e
	}
	return e
}

// Acquire blocks the calling goroutine until tid holds mode on pid, or
// returns a TransactionAborted error if granting the request would create a
// cycle in the wait-for graph.
func (lm *LockManager) Acquire(pid PageID, tid TransactionID, mode LockMode) error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	for {
		e := lm.entryFor(pid)

		if _, owns := e.owners[tid]; owns {
			if e.mode == Exclusive || mode == Shared {
				return nil // reentrant: same-or-weaker request is a no-op
			}
			// Requesting X while holding S.
			if len(e.owners) == 1 {
				e.mode = Exclusive
				return nil
			}
			// Other owners present: wait on them like any other requester.
		} else if len(e.owners) == 0 {
			e.owners[tid] = struct{}{}
			e.mode = mode
			return nil
		} else if mode == Shared && e.mode == Shared {
			e.owners[tid] = struct{}{}
			return nil
		}

		// Contended: register wait-for edges to every current owner and
		// check for a cycle before blocking.
		blockers := make([]TransactionID, 0, len(e.owners))
		for owner := range e.owners {
			if owner == tid {
				continue
			}
			blockers = append(blockers, owner)
		}

		added := lm.addWaitEdges(tid, blockers)
		if lm.hasCycleFrom(tid) {
			lm.removeWaitEdges(tid, added)
			lm.log.Warn("deadlock detected, aborting transaction", zap.String("tid", tid.String()))
			return TransactionAbortedClass.New("deadlock detected acquiring %v for %v", mode, tid)
		}

		e.cond.Wait()
		lm.removeWaitEdges(tid, added)
		// loop around: re-evaluate now that state changed
	}
}

func (lm *LockManager) addWaitEdges(tid TransactionID, blockers []TransactionID) []TransactionID {
	if lm.waitFor[tid] == nil {
		lm.waitFor[tid] = make(map[TransactionID]struct{})
	}
	added := make([]TransactionID, 0, len(blockers))
	for _, b := range blockers {
		if _, exists := lm.waitFor[tid][b]; !exists {
			lm.waitFor[tid][b] = struct{}{}
			added = append(added, b)
		}
	}
	return added
}

func (lm *LockManager) removeWaitEdges(tid TransactionID, edges []TransactionID) {
	for _, b := range edges {
		delete(lm.waitFor[tid], b)
	}
	if len(lm.waitFor[tid]) == 0 {
		delete(lm.waitFor, tid)
	}
}

// hasCycleFrom reports whether tid is reachable from itself in the
// wait-for graph, excluding the trivial self-loop of reentrancy.
func (lm *LockManager) hasCycleFrom(tid TransactionID) bool {
	visited := make(map[TransactionID]bool)
	var dfs func(cur TransactionID, depth int) bool
	dfs = func(cur TransactionID, depth int) bool {
		for next := range lm.waitFor[cur] {
			if next == tid && depth > 0 {
				return true
			}
			if !visited[next] {
				visited[next] = true
				if dfs(next, depth+1) {
					return true
				}
			}
		}
		return false
	}
	return dfs(tid, 0)
}

// Release removes tid from pid's owner set and wakes waiters to re-race.
func (lm *LockManager) Release(pid PageID, tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	e, ok := lm.entries[pid]
	if !ok {
		return
	}
	delete(e.owners, tid)
	e.cond.Broadcast()
}

// HoldsLock reports whether tid is in pid's owner set.
func (lm *LockManager) HoldsLock(tid TransactionID, pid PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	e, ok := lm.entries[pid]
	if !ok {
		return false
	}
	_, owns := e.owners[tid]
	return owns
}

// LockedPages enumerates pages tid owns, split by mode, for use by
// buffer-pool commit/abort.
func (lm *LockManager) LockedPages(tid TransactionID) (writePages, readPages []PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid, e := range lm.entries {
		if _, owns := e.owners[tid]; !owns {
			continue
		}
		if e.mode == Exclusive {
			writePages = append(writePages, pid)
		} else {
			readPages = append(readPages, pid)
		}
	}
	return writePages, readPages
}

// ReleaseAll drops every lock tid holds, exclusive entries first, waking
// waiters as each entry is cleared.
func (lm *LockManager) ReleaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var exclusive, shared []*lockEntry
	for _, e := range lm.entries {
		if _, owns := e.owners[tid]; !owns {
			continue
		}
		if e.mode == Exclusive {
			exclusive = append(exclusive, e)
		} else {
			shared = append(shared, e)
		}
	}
	for _, e := range exclusive {
		delete(e.owners, tid)
		e.cond.Broadcast()
	}
	for _, e := range shared {
		delete(e.owners, tid)
		e.cond.Broadcast()
	}
	delete(lm.waitFor, tid)
	for _, edges := range lm.waitFor {
		delete(edges, tid)
	}
}
