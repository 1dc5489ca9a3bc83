package coredb

// Aggregate groups input tuples by an optional group-by column and folds
// an aggregate column with the configured AggOp, emitting one tuple per
// group. A nil group key, not a sentinel value, marks the no-grouping case.

import "sort"

type Aggregate struct {
	child      Operator
	aggField   int
	groupField int // -1 when ungrouped
	op         AggOp
	desc       *TupleDesc

	groups   map[any]*aggState
	order    []any
	results  []*Tuple
	resultAt int
	opened   bool
}

// NewAggregate builds an aggregation over child. groupField is -1 when
// there is no GROUP BY column.
func NewAggregate(child Operator, aggField, groupField int, op AggOp) (*Aggregate, error) {
	childDesc := child.Descriptor()
	if aggField < 0 || aggField >= len(childDesc.Fields) {
		return nil, DbErrorClass.New("aggregate field index %d out of range", aggField)
	}
	aggFieldType := childDesc.Fields[aggField]
	isInt := aggFieldType.Ftype == IntType
	if !isInt && op != AggCount {
		return nil, UnsupportedOperationClass.New("aggregate %v is not supported on string column %s", op, aggFieldType.Fname)
	}

	fields := []FieldType{}
	if groupField >= 0 {
		fields = append(fields, childDesc.Fields[groupField])
	}
	aggName := op.String() + "(" + aggFieldType.Fname + ")"
	resultType := IntType
	if op != AggCount && !isInt {
		resultType = aggFieldType.Ftype
	}
	fields = append(fields, FieldType{Fname: aggName, Ftype: resultType, StringWidth: aggFieldType.StringWidth})

	return &Aggregate{
		child:      child,
		aggField:   aggField,
		groupField: groupField,
		op:         op,
		desc:       &TupleDesc{Fields: fields},
	}, nil
}

func (a *Aggregate) Descriptor() *TupleDesc { return a.desc }

func (a *Aggregate) Open(tid TransactionID) error {
	if err := a.child.Open(tid); err != nil {
		return err
	}
	a.groups = make(map[any]*aggState)
	a.order = nil
	a.results = nil
	a.resultAt = 0
	a.opened = true
	return a.compute()
}

func (a *Aggregate) groupKey(t *Tuple) (any, error) {
	if a.groupField < 0 {
		return nil, nil
	}
	switch v := t.Fields[a.groupField].(type) {
	case IntField:
		return v.Value, nil
	case StringField:
		return v.Value, nil
	}
	return nil, DbErrorClass.New("unsupported group key type")
}

func (a *Aggregate) compute() error {
	childDesc := a.child.Descriptor()
	isInt := childDesc.Fields[a.aggField].Ftype == IntType

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		key, err := a.groupKey(t)
		if err != nil {
			return err
		}
		state, ok := a.groups[key]
		if !ok {
			state, err = newAggState(a.op, isInt)
			if err != nil {
				return err
			}
			a.groups[key] = state
			a.order = append(a.order, key)
		}
		if err := state.addTuple(t.Fields[a.aggField]); err != nil {
			return err
		}
	}

	// Sort for deterministic output when grouping; preserve first-seen
	// order otherwise.
	keys := append([]any(nil), a.order...)
	if a.groupField >= 0 {
		sort.Slice(keys, func(i, j int) bool { return groupKeyLess(keys[i], keys[j]) })
	}

	for _, key := range keys {
		val, err := a.groups[key].finalize()
		if err != nil {
			return err
		}
		var fields []DBValue
		if a.groupField >= 0 {
			fields = append(fields, groupValueField(key))
		}
		fields = append(fields, val)
		a.results = append(a.results, &Tuple{Desc: *a.desc, Fields: fields})
	}
	return nil
}

func groupKeyLess(a, b any) bool {
	switch av := a.(type) {
	case int32:
		bv := b.(int32)
		return av < bv
	case string:
		bv := b.(string)
		return av < bv
	}
	return false
}

func groupValueField(key any) DBValue {
	switch v := key.(type) {
	case int32:
		return IntField{Value: v}
	case string:
		return StringField{Value: v}
	}
	return nil
}

func (a *Aggregate) HasNext() (bool, error) {
	if !a.opened {
		return false, DbErrorClass.New("aggregate used before open")
	}
	return a.resultAt < len(a.results), nil
}

func (a *Aggregate) Next() (*Tuple, error) {
	if !a.opened {
		return nil, DbErrorClass.New("aggregate used before open")
	}
	if a.resultAt >= len(a.results) {
		return nil, DbErrorClass.New("next called with no tuples remaining")
	}
	t := a.results[a.resultAt]
	a.resultAt++
	return t, nil
}

func (a *Aggregate) Rewind() error {
	a.resultAt = 0
	return nil
}

func (a *Aggregate) Close() error {
	a.opened = false
	return a.child.Close()
}
