package coredb

// Join is a nested-loop join over two children: for each outer tuple it
// rewinds and scans the inner child, emitting the concatenation of outer
// and inner whenever the join predicate holds. Output descriptor is
// outer descriptor + inner descriptor.
type Join struct {
	pred         *JoinPredicate
	outer, inner Operator
	desc         *TupleDesc

	curOuter *Tuple
	next     *Tuple
}

// NewJoin constructs a nested-loop join of outer and inner using pred.
func NewJoin(outer Operator, pred *JoinPredicate, inner Operator) *Join {
	return &Join{
		pred:  pred,
		outer: outer,
		inner: inner,
		desc:  outer.Descriptor().merge(inner.Descriptor()),
	}
}

func (j *Join) Descriptor() *TupleDesc { return j.desc }

func (j *Join) Open(tid TransactionID) error {
	if err := j.outer.Open(tid); err != nil {
		return err
	}
	if err := j.inner.Open(tid); err != nil {
		return err
	}
	j.curOuter = nil
	j.next = nil
	return nil
}

func (j *Join) advanceOuter() (bool, error) {
	has, err := j.outer.HasNext()
	if err != nil || !has {
		return false, err
	}
	t, err := j.outer.Next()
	if err != nil {
		return false, err
	}
	j.curOuter = t
	return true, j.inner.Rewind()
}

func (j *Join) fill() error {
	if j.next != nil {
		return nil
	}
	for {
		if j.curOuter == nil {
			ok, err := j.advanceOuter()
			if err != nil {
				return err
			}
			if !ok {
				return nil // outer exhausted: join is done
			}
		}

		has, err := j.inner.HasNext()
		if err != nil {
			return err
		}
		if !has {
			j.curOuter = nil // inner exhausted for this outer tuple
			continue
		}
		innerTuple, err := j.inner.Next()
		if err != nil {
			return err
		}
		matched, err := j.pred.Filter(j.curOuter, innerTuple)
		if err != nil {
			return err
		}
		if matched {
			j.next = joinTuples(j.curOuter, innerTuple)
			return nil
		}
	}
}

func (j *Join) HasNext() (bool, error) {
	if err := j.fill(); err != nil {
		return false, err
	}
	return j.next != nil, nil
}

func (j *Join) Next() (*Tuple, error) {
	if err := j.fill(); err != nil {
		return nil, err
	}
	if j.next == nil {
		return nil, DbErrorClass.New("next called with no tuples remaining")
	}
	t := j.next
	j.next = nil
	return t, nil
}

func (j *Join) Rewind() error {
	j.curOuter = nil
	j.next = nil
	return j.outer.Rewind()
}

func (j *Join) Close() error {
	j.curOuter = nil
	j.next = nil
	if err := j.outer.Close(); err != nil {
		return err
	}
	return j.inner.Close()
}
