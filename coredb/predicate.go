package coredb

// BoolOp is a comparison operator over field values, used by both Predicate
// and JoinPredicate and by the integer histogram.
type BoolOp int

const (
	OpEquals BoolOp = iota
	OpNotEquals
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLike
)

func (op BoolOp) String() string {
	switch op {
	case OpEquals:
		return "="
	case OpNotEquals:
		return "!="
	case OpLessThan:
		return "<"
	case OpLessThanOrEqual:
		return "<="
	case OpGreaterThan:
		return ">"
	case OpGreaterThanOrEqual:
		return ">="
	case OpLike:
		return "LIKE"
	}
	return "?"
}

// Predicate tests one field of a tuple against a literal value.
type Predicate struct {
	FieldIndex int
	Op         BoolOp
	Literal    DBValue
}

// NewPredicate constructs a Predicate, rejecting LIKE against a non-string
// literal up front since LIKE is only defined on strings.
func NewPredicate(fieldIndex int, op BoolOp, literal DBValue) (*Predicate, error) {
	if op == OpLike {
		if _, ok := literal.(StringField); !ok {
			return nil, UnsupportedOperationClass.New("LIKE requires a string literal")
		}
	}
	return &Predicate{FieldIndex: fieldIndex, Op: op, Literal: literal}, nil
}

// Filter evaluates the predicate against t.
func (p *Predicate) Filter(t *Tuple) (bool, error) {
	if p.FieldIndex < 0 || p.FieldIndex >= len(t.Fields) {
		return false, DbErrorClass.New("predicate field index %d out of range", p.FieldIndex)
	}
	return t.Fields[p.FieldIndex].compare(p.Op, p.Literal)
}

// JoinPredicate compares a field of the left-child tuple against a field of
// the right-child tuple.
type JoinPredicate struct {
	LeftField  int
	Op         BoolOp
	RightField int
}

// NewJoinPredicate constructs a JoinPredicate.
func NewJoinPredicate(leftField int, op BoolOp, rightField int) *JoinPredicate {
	return &JoinPredicate{LeftField: leftField, Op: op, RightField: rightField}
}

// Filter evaluates the join predicate against a pair of (left, right)
// tuples, before they are concatenated.
func (jp *JoinPredicate) Filter(left, right *Tuple) (bool, error) {
	if jp.LeftField < 0 || jp.LeftField >= len(left.Fields) {
		return false, DbErrorClass.New("join predicate left field index %d out of range", jp.LeftField)
	}
	if jp.RightField < 0 || jp.RightField >= len(right.Fields) {
		return false, DbErrorClass.New("join predicate right field index %d out of range", jp.RightField)
	}
	return left.Fields[jp.LeftField].compare(jp.Op, right.Fields[jp.RightField])
}
