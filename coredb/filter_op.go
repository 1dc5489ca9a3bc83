package coredb

// Filter has a single child and outputs tuples for which its predicate
// returns true.
type Filter struct {
	pred  *Predicate
	child Operator
	next  *Tuple
}

// NewFilter constructs a filter operator over child using pred.
func NewFilter(pred *Predicate, child Operator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Descriptor() *TupleDesc { return f.child.Descriptor() }

func (f *Filter) Open(tid TransactionID) error {
	f.next = nil
	return f.child.Open(tid)
}

func (f *Filter) fill() error {
	if f.next != nil {
		return nil
	}
	for {
		has, err := f.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
		t, err := f.child.Next()
		if err != nil {
			return err
		}
		ok, err := f.pred.Filter(t)
		if err != nil {
			return err
		}
		if ok {
			f.next = t
			return nil
		}
	}
}

func (f *Filter) HasNext() (bool, error) {
	if err := f.fill(); err != nil {
		return false, err
	}
	return f.next != nil, nil
}

func (f *Filter) Next() (*Tuple, error) {
	if err := f.fill(); err != nil {
		return nil, err
	}
	if f.next == nil {
		return nil, DbErrorClass.New("next called with no tuples remaining")
	}
	t := f.next
	f.next = nil
	return t, nil
}

func (f *Filter) Rewind() error {
	f.next = nil
	return f.child.Rewind()
}

func (f *Filter) Close() error {
	f.next = nil
	return f.child.Close()
}
