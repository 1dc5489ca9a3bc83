package coredb

// BufferPool mediates all disk I/O. It caches pages that have been read
// from disk, coordinates per-page locks across transactions through a
// LockManager, evicts clean pages under NO-STEAL when full, and implements
// commit/abort semantics.

import (
	"sync"

	"go.uber.org/zap"
)

// Intent is the declared access mode an operator requests when fetching a
// page: ReadIntent acquires a shared lock, WriteIntent an exclusive lock.
type Intent int

const (
	ReadIntent Intent = iota
	WriteIntent
)

// BufferPool is the page cache + locking facade + eviction + commit/abort.
type BufferPool struct {
	capacity int
	mu       sync.Mutex
	pages    map[PageID]Page
	files    map[int64]*HeapFile
	locks    *LockManager
	log      Log
	logger   *zap.Logger
}

// NewBufferPool constructs a BufferPool with the given page capacity. log
// and logger may be nil, in which case a fresh in-memory MemLog and a no-op
// zap logger are used respectively.
func NewBufferPool(capacity int, log Log, logger *zap.Logger) *BufferPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if log == nil {
		log = NewMemLog()
	}
	return &BufferPool{
		capacity: capacity,
		pages:    make(map[PageID]Page),
		files:    make(map[int64]*HeapFile),
		locks:    NewLockManager(logger),
		log:      log,
		logger:   logger,
	}
}

func (bp *BufferPool) registerFile(file *HeapFile) {
	bp.mu.Lock()
	bp.files[file.TableID()] = file
	bp.mu.Unlock()
}

// GetPage acquires the lock matching intent, then returns the cached page,
// fetching it from file on a miss. Blocking happens only while acquiring
// the lock or awaiting the read; everything else here is non-blocking.
func (bp *BufferPool) GetPage(tid TransactionID, file *HeapFile, pid PageID, intent Intent) (Page, error) {
	bp.registerFile(file)
	mode := Shared
	if intent == WriteIntent {
		mode = Exclusive
	}
	if err := bp.locks.Acquire(pid, tid, mode); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	if p, ok := bp.pages[pid]; ok {
		bp.mu.Unlock()
		return p, nil
	}
	bp.mu.Unlock()

	// Fetch outside the pool lock: I/O should not block other page lookups.
	p, err := file.readPage(pid.PageNo)
	if err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if existing, ok := bp.pages[pid]; ok {
		// A concurrent installer won the race; discard our copy.
		return existing, nil
	}
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}
	bp.pages[pid] = p
	bp.logger.Debug("cached page", zap.Int64("table", pid.TableID), zap.Int("page", pid.PageNo))
	return p, nil
}

// evictLocked removes one clean page from the cache. Must be called with
// bp.mu held. NO-STEAL: a dirty page is never evicted.
func (bp *BufferPool) evictLocked() error {
	for pid, p := range bp.pages {
		if dirty, _ := dirtyFlag(p); !dirty {
			delete(bp.pages, pid)
			return nil
		}
	}
	return DbErrorClass.New("buffer pool full of dirty pages, cannot evict")
}

func dirtyFlag(p Page) (bool, TransactionID) {
	tid, dirty := p.IsDirty()
	return dirty, tid
}

// insertTuple delegates to the file, then marks the resulting dirtied page
// dirty and installs it in the cache.
func (bp *BufferPool) insertTuple(tid TransactionID, file *HeapFile, t *Tuple) error {
	bp.registerFile(file)
	page, err := file.insertTuple(bp, t, tid)
	if err != nil {
		return err
	}
	bp.adoptDirtyPage(tid, page)
	return nil
}

// deleteTuple delegates to the file, then marks the resulting dirtied page
// dirty and installs it in the cache.
func (bp *BufferPool) deleteTuple(tid TransactionID, file *HeapFile, t *Tuple) error {
	bp.registerFile(file)
	page, err := file.deleteTuple(bp, t, tid)
	if err != nil {
		return err
	}
	bp.adoptDirtyPage(tid, page)
	return nil
}

func (bp *BufferPool) adoptDirtyPage(tid TransactionID, page Page) {
	page.MarkDirty(true, tid)
	bp.mu.Lock()
	bp.pages[page.ID()] = page
	bp.mu.Unlock()
}

// flushPage writes a cached dirty page back to its heap file, emitting a
// write-ahead log record first. No-op if the page is not cached or not
// dirty.
func (bp *BufferPool) flushPage(pid PageID) error {
	bp.mu.Lock()
	p, ok := bp.pages[pid]
	file := bp.files[pid.TableID]
	bp.mu.Unlock()
	if !ok {
		return nil
	}
	if file == nil {
		return DbErrorClass.New("no file registered for table %d", pid.TableID)
	}
	tid, dirty := p.IsDirty()
	if !dirty {
		return nil
	}

	after, err := p.getPageData()
	if err != nil {
		return err
	}
	before := p.getBeforeImage()
	if err := bp.log.LogWrite(tid, before, after); err != nil {
		return IoErrorClass.Wrap(err)
	}
	if err := bp.log.Force(); err != nil {
		return IoErrorClass.Wrap(err)
	}

	if err := file.writePage(pid.PageNo, after); err != nil {
		bp.logger.Warn("flush failed; commit proceeds best-effort, recovery relies on the log",
			zap.Int64("table", pid.TableID), zap.Int("page", pid.PageNo), zap.Error(err))
		return err
	}
	p.MarkDirty(false, tid)
	return nil
}

// TransactionComplete commits or aborts tid: on commit, every page tid
// holds exclusively is flushed and its before-image re-snapshotted; on
// abort, every such page is discarded from the cache so the next access
// re-reads committed bytes from disk, and a page still held only in the
// file's overflow map is reverted there (HeapFile.revertPage). Locks are
// always released
// afterward, exclusive first then shared.
func (bp *BufferPool) TransactionComplete(tid TransactionID, commit bool) error {
	writePages, _ := bp.locks.LockedPages(tid)

	var firstErr error
	for _, pid := range writePages {
		if commit {
			if err := bp.flushPage(pid); err != nil && firstErr == nil {
				firstErr = err
			}
			bp.mu.Lock()
			if p, ok := bp.pages[pid]; ok {
				p.setBeforeImage(bp.logger)
			}
			bp.mu.Unlock()
		} else {
			bp.mu.Lock()
			p, cached := bp.pages[pid]
			file := bp.files[pid.TableID]
			delete(bp.pages, pid)
			bp.mu.Unlock()
			if cached && file != nil {
				if err := file.revertPage(pid.PageNo, p.getBeforeImage()); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
	}

	bp.locks.ReleaseAll(tid)
	return firstErr
}
