package coredb

// DeleteOp is symmetric to InsertOp: reads all tuples from its child and
// deletes each by record id, then returns a single count tuple.
type DeleteOp struct {
	file  *HeapFile
	bp    *BufferPool
	child Operator
	desc  *TupleDesc

	done   bool
	result *Tuple
}

// NewDeleteOp constructs a delete operator targeting file.
func NewDeleteOp(file *HeapFile, bp *BufferPool, child Operator) *DeleteOp {
	return &DeleteOp{
		file:  file,
		bp:    bp,
		child: child,
		desc:  &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

func (d *DeleteOp) Descriptor() *TupleDesc { return d.desc }

func (d *DeleteOp) Open(tid TransactionID) error {
	d.done = false
	d.result = nil
	if err := d.child.Open(tid); err != nil {
		return err
	}
	return d.run(tid)
}

func (d *DeleteOp) run(tid TransactionID) error {
	count := int32(0)
	for {
		has, err := d.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := d.child.Next()
		if err != nil {
			return err
		}
		if err := d.bp.deleteTuple(tid, d.file, t); err != nil {
			return err
		}
		count++
	}
	d.result = &Tuple{Desc: *d.desc, Fields: []DBValue{IntField{Value: count}}}
	return nil
}

func (d *DeleteOp) HasNext() (bool, error) {
	return !d.done, nil
}

func (d *DeleteOp) Next() (*Tuple, error) {
	if d.done {
		return nil, DbErrorClass.New("next called with no tuples remaining")
	}
	d.done = true
	return d.result, nil
}

func (d *DeleteOp) Rewind() error {
	return DbErrorClass.New("delete operator cannot be rewound")
}

func (d *DeleteOp) Close() error {
	return d.child.Close()
}
