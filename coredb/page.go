package coredb

// HeapPage implements the Page interface for pages of a HeapFile.
//
// All tuples on a page are fixed length, so given a TupleDesc and the page
// size S we can compute how many tuple "slots" fit on a page up front. Each
// page is laid out as a slot-occupancy bitmap header, one bit per slot
// (MSB-first within each byte, 1 = occupied), followed by the tuple bodies
// themselves, followed by zero padding out to S bytes.
//
//	numHeaderBytes = ceil(slots / 8)
//	slots          = floor((S*8) / (tupleSize*8 + 1))

import (
	"bytes"
	"math"

	"go.uber.org/zap"
)

// PageID identifies a page within a heap file by table id and page number.
// It is value-equal and hashable, usable directly as a map key.
type PageID struct {
	TableID int64
	PageNo  int
}

// Page is the minimal interface the buffer pool needs from a cached page.
type Page interface {
	ID() PageID
	IsDirty() (TransactionID, bool)
	MarkDirty(dirty bool, tid TransactionID)
	getBeforeImage() []byte
	setBeforeImage(logger *zap.Logger)
	getPageData() ([]byte, error)
}

// HeapPage is the in-memory representation of one slotted page.
type HeapPage struct {
	pid       PageID
	desc      *TupleDesc
	pageSize  int
	numSlots  int
	header    []byte // occupancy bitmap, ceil(numSlots/8) bytes
	tuples    []*Tuple
	dirty     bool
	dirtyBy   TransactionID
	beforeImg []byte
}

// numSlotsForPage computes floor((S*8) / (tupleSize*8 + 1)): the largest
// slot count whose bitmap header plus tuple bodies still fit in S bytes.
func numSlotsForPage(pageSize int, tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	return (pageSize * 8) / (tupleSize*8 + 1)
}

func headerBytes(numSlots int) int {
	return int(math.Ceil(float64(numSlots) / 8.0))
}

// NewHeapPage constructs an empty page: zero header, zero body.
func NewHeapPage(pid PageID, desc *TupleDesc, pageSize int) *HeapPage {
	numSlots := numSlotsForPage(pageSize, desc.tupleSize())
	return &HeapPage{
		pid:      pid,
		desc:     desc,
		pageSize: pageSize,
		numSlots: numSlots,
		header:   make([]byte, headerBytes(numSlots)),
		tuples:   make([]*Tuple, numSlots),
	}
}

// NewHeapPageFromBytes parses an existing page image. It rejects buffers
// whose length does not equal the configured page size.
func NewHeapPageFromBytes(pid PageID, desc *TupleDesc, pageSize int, data []byte) (*HeapPage, error) {
	if len(data) != pageSize {
		return nil, DbErrorClass.New("heap page %v: expected %d bytes, got %d", pid, pageSize, len(data))
	}
	tupleSize := desc.tupleSize()
	numSlots := numSlotsForPage(pageSize, tupleSize)
	hp := &HeapPage{
		pid:      pid,
		desc:     desc,
		pageSize: pageSize,
		numSlots: numSlots,
		header:   make([]byte, headerBytes(numSlots)),
		tuples:   make([]*Tuple, numSlots),
	}
	copy(hp.header, data[:len(hp.header)])
	body := bytes.NewBuffer(data[len(hp.header):])
	for slot := 0; slot < numSlots; slot++ {
		recordBytes := make([]byte, tupleSize)
		if _, err := body.Read(recordBytes); err != nil {
			return nil, IoErrorClass.Wrap(err)
		}
		if !hp.isSlotUsed(slot) {
			continue
		}
		t, err := readTupleFrom(bytes.NewBuffer(recordBytes), desc)
		if err != nil {
			return nil, err
		}
		t.Rid = &RecordID{PageID: pid, Slot: slot}
		hp.tuples[slot] = t
	}
	return hp, nil
}

func (h *HeapPage) ID() PageID { return h.pid }

// getNumEmptySlots returns the number of unoccupied slots.
func (h *HeapPage) getNumEmptySlots() int {
	empty := 0
	for i := 0; i < h.numSlots; i++ {
		if !h.isSlotUsed(i) {
			empty++
		}
	}
	return empty
}

// isSlotUsed reports the occupancy bit for slot i, MSB-first within its byte.
func (h *HeapPage) isSlotUsed(i int) bool {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	return h.header[byteIdx]&(1<<uint(bitIdx)) != 0
}

// markSlotUsed sets or clears the occupancy bit for slot i.
func (h *HeapPage) markSlotUsed(i int, used bool) {
	byteIdx := i / 8
	bitIdx := uint(7 - (i % 8))
	if used {
		h.header[byteIdx] |= 1 << bitIdx
	} else {
		h.header[byteIdx] &^= 1 << bitIdx
	}
}

// insertTuple places t in the lowest-indexed free slot.
func (h *HeapPage) insertTuple(t *Tuple) error {
	if !t.Desc.equals(h.desc) {
		return DbErrorClass.New("tuple descriptor does not match page descriptor")
	}
	if t.Rid != nil {
		return DbErrorClass.New("tuple already has a record id on page %v slot %d", t.Rid.PageID, t.Rid.Slot)
	}
	for slot := 0; slot < h.numSlots; slot++ {
		if h.isSlotUsed(slot) {
			continue
		}
		stored := &Tuple{Desc: *h.desc, Fields: t.Fields}
		rid := &RecordID{PageID: h.pid, Slot: slot}
		stored.Rid = rid
		h.tuples[slot] = stored
		h.markSlotUsed(slot, true)
		t.Rid = rid
		return nil
	}
	return DbErrorClass.New("page %v is full", h.pid)
}

// deleteTuple clears the slot referenced by t.Rid.
func (h *HeapPage) deleteTuple(t *Tuple) error {
	if t.Rid == nil || t.Rid.PageID != h.pid {
		return DbErrorClass.New("tuple does not reference page %v", h.pid)
	}
	slot := t.Rid.Slot
	if slot < 0 || slot >= h.numSlots || !h.isSlotUsed(slot) {
		return DbErrorClass.New("slot %d on page %v is not occupied", slot, h.pid)
	}
	h.tuples[slot] = nil
	h.markSlotUsed(slot, false)
	t.Rid = nil
	return nil
}

// iterator yields occupied slots in ascending slot order.
func (h *HeapPage) iterator() func() (*Tuple, error) {
	slot := 0
	return func() (*Tuple, error) {
		for slot < h.numSlots {
			cur := slot
			slot++
			if h.tuples[cur] != nil {
				return h.tuples[cur], nil
			}
		}
		return nil, nil
	}
}

// getPageData serializes the header and body back to exactly pageSize bytes.
func (h *HeapPage) getPageData() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(h.header)
	tupleSize := h.desc.tupleSize()
	for slot := 0; slot < h.numSlots; slot++ {
		if h.tuples[slot] != nil {
			if err := h.tuples[slot].writeTo(buf); err != nil {
				return nil, err
			}
			continue
		}
		buf.Write(make([]byte, tupleSize))
	}
	if buf.Len() < h.pageSize {
		buf.Write(make([]byte, h.pageSize-buf.Len()))
	}
	return buf.Bytes(), nil
}

func (h *HeapPage) IsDirty() (TransactionID, bool) {
	return h.dirtyBy, h.dirty
}

func (h *HeapPage) MarkDirty(dirty bool, tid TransactionID) {
	h.dirty = dirty
	if dirty {
		h.dirtyBy = tid
	}
}

// getBeforeImage returns the byte image captured at the last setBeforeImage
// call.
func (h *HeapPage) getBeforeImage() []byte {
	return h.beforeImg
}

// setBeforeImage snapshots the page's current on-disk image for later
// rollback. logger may be nil, in which case a no-op logger is used.
func (h *HeapPage) setBeforeImage(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, err := h.getPageData()
	if err != nil {
		logger.Warn("failed to snapshot before-image", zap.Int64("table", h.pid.TableID), zap.Int("page", h.pid.PageNo), zap.Error(err))
		return
	}
	h.beforeImg = data
}
