package coredb

// SeqScan wraps a heap file iterator for (tableID, alias), prefixing every
// output field name with "alias.".

type SeqScan struct {
	file  *HeapFile
	bp    *BufferPool
	alias string
	desc  *TupleDesc
	iter  *HeapFileIterator
}

// NewSeqScan constructs a sequential scan over file, aliased as alias.
func NewSeqScan(file *HeapFile, bp *BufferPool, alias string) *SeqScan {
	return &SeqScan{
		file:  file,
		bp:    bp,
		alias: alias,
		desc:  file.Descriptor().setTableAlias(alias),
	}
}

func (s *SeqScan) Descriptor() *TupleDesc { return s.desc }

func (s *SeqScan) Open(tid TransactionID) error {
	s.iter = s.file.Iterator(tid, s.bp)
	return s.iter.Open()
}

func (s *SeqScan) HasNext() (bool, error) {
	if s.iter == nil {
		return false, DbErrorClass.New("scan used before open")
	}
	return s.iter.HasNext()
}

func (s *SeqScan) Next() (*Tuple, error) {
	if s.iter == nil {
		return nil, DbErrorClass.New("scan used before open")
	}
	t, err := s.iter.Next()
	if err != nil {
		return nil, err
	}
	rid := t.Rid
	aliased := &Tuple{Desc: *s.desc, Fields: t.Fields, Rid: rid}
	return aliased, nil
}

func (s *SeqScan) Rewind() error {
	if s.iter == nil {
		return DbErrorClass.New("scan used before open")
	}
	return s.iter.Rewind()
}

func (s *SeqScan) Close() error {
	if s.iter != nil {
		s.iter.Close()
	}
	return nil
}
