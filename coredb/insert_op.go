package coredb

// InsertOp reads all tuples from its child and inserts each into the named
// table via the buffer pool, then returns a single count tuple. Subsequent
// pulls return no more tuples.
type InsertOp struct {
	file  *HeapFile
	bp    *BufferPool
	child Operator
	desc  *TupleDesc

	done   bool
	result *Tuple
}

// NewInsertOp constructs an insert operator targeting file.
func NewInsertOp(file *HeapFile, bp *BufferPool, child Operator) *InsertOp {
	return &InsertOp{
		file:  file,
		bp:    bp,
		child: child,
		desc:  &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

func (i *InsertOp) Descriptor() *TupleDesc { return i.desc }

func (i *InsertOp) Open(tid TransactionID) error {
	i.done = false
	i.result = nil
	if err := i.child.Open(tid); err != nil {
		return err
	}
	return i.run(tid)
}

func (i *InsertOp) run(tid TransactionID) error {
	count := int32(0)
	for {
		has, err := i.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := i.child.Next()
		if err != nil {
			return err
		}
		if err := i.bp.insertTuple(tid, i.file, t); err != nil {
			return err
		}
		count++
	}
	i.result = &Tuple{Desc: *i.desc, Fields: []DBValue{IntField{Value: count}}}
	return nil
}

func (i *InsertOp) HasNext() (bool, error) {
	return !i.done, nil
}

func (i *InsertOp) Next() (*Tuple, error) {
	if i.done {
		return nil, DbErrorClass.New("next called with no tuples remaining")
	}
	i.done = true
	return i.result, nil
}

func (i *InsertOp) Rewind() error {
	return DbErrorClass.New("insert operator cannot be rewound")
}

func (i *InsertOp) Close() error {
	return i.child.Close()
}
