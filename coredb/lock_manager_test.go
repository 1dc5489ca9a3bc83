package coredb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestLockEscalation checks that a sole shared owner upgrades to exclusive
// in place without blocking.
func TestLockEscalation(t *testing.T) {
	lm := NewLockManager(nil)
	pid := PageID{TableID: 1, PageNo: 0}
	t1 := NewTID()

	require.NoError(t, lm.Acquire(pid, t1, Shared))
	require.NoError(t, lm.Acquire(pid, t1, Exclusive))
	require.True(t, lm.HoldsLock(t1, pid))

	t2 := NewTID()
	blocked := make(chan error, 1)
	go func() {
		blocked <- lm.Acquire(pid, t2, Shared)
	}()

	select {
	case <-blocked:
		t.Fatal("t2 should have blocked behind t1's exclusive lock")
	case <-time.After(50 * time.Millisecond):
	}

	lm.Release(pid, t1)
	require.NoError(t, <-blocked)
}

// TestDeadlockDetection checks that when T1 holds X on P1 and wants X on
// P2, while T2 holds X on P2 and wants X on P1, exactly one aborts.
func TestDeadlockDetection(t *testing.T) {
	lm := NewLockManager(nil)
	p1 := PageID{TableID: 1, PageNo: 0}
	p2 := PageID{TableID: 1, PageNo: 1}
	t1 := NewTID()
	t2 := NewTID()

	require.NoError(t, lm.Acquire(p1, t1, Exclusive))
	require.NoError(t, lm.Acquire(p2, t2, Exclusive))

	type outcome struct {
		tid TransactionID
		err error
	}
	results := make(chan outcome, 2)
	go func() { results <- outcome{t1, lm.Acquire(p2, t1, Exclusive)} }()
	go func() { results <- outcome{t2, lm.Acquire(p1, t2, Exclusive)} }()

	first := <-results
	aborted := 0
	if TransactionAbortedClass.Has(first.err) {
		aborted++
	}

	// The aborted transaction must release its locks so the other can
	// complete.
	if aborted == 1 {
		lm.ReleaseAll(first.tid)
	}

	select {
	case second := <-results:
		if TransactionAbortedClass.Has(second.err) {
			aborted++
		} else {
			lm.ReleaseAll(t1)
			lm.ReleaseAll(t2)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second acquire never returned; deadlock not broken")
	}

	require.Equal(t, 1, aborted, "exactly one transaction should be aborted")
}

func TestReentrantAcquireNoOp(t *testing.T) {
	lm := NewLockManager(nil)
	pid := PageID{TableID: 1, PageNo: 0}
	tid := NewTID()

	require.NoError(t, lm.Acquire(pid, tid, Shared))
	require.NoError(t, lm.Acquire(pid, tid, Shared))
	require.True(t, lm.HoldsLock(tid, pid))
}

func TestReleaseAllDropsSharedAndExclusive(t *testing.T) {
	lm := NewLockManager(nil)
	pWrite := PageID{TableID: 1, PageNo: 0}
	pRead := PageID{TableID: 1, PageNo: 1}
	tid := NewTID()

	require.NoError(t, lm.Acquire(pWrite, tid, Exclusive))
	require.NoError(t, lm.Acquire(pRead, tid, Shared))

	lm.ReleaseAll(tid)
	require.False(t, lm.HoldsLock(tid, pWrite))
	require.False(t, lm.HoldsLock(tid, pRead))
}
