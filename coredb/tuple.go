package coredb

// This file defines the schema and value types: DBType, FieldType,
// TupleDesc, DBValue (IntField/StringField), and Tuple, plus their
// serialization to the fixed-width wire format used by heap pages.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// DBType is the type of a tuple field.
type DBType int

const (
	IntType DBType = iota
	StringType
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	}
	return "unknown"
}

// IntFieldWidth is the on-disk width of an integer field: a 4-byte
// big-endian signed integer.
const IntFieldWidth = 4

// FieldType names one column of a TupleDesc: its type, optional name, and
// (for string columns) declared width in bytes.
type FieldType struct {
	Fname          string
	TableQualifier string
	Ftype          DBType
	// StringWidth is the declared byte width for StringType fields,
	// ignored for IntType.
	StringWidth int
}

// width returns the serialized byte width of a field of this type.
func (f FieldType) width() int {
	if f.Ftype == StringType {
		return f.StringWidth
	}
	return IntFieldWidth
}

// TupleDesc is the schema of a tuple: an ordered list of fields.
type TupleDesc struct {
	Fields []FieldType
}

// equals reports whether two descriptors have the same type sequence.
// Field names are not considered.
func (d1 *TupleDesc) equals(d2 *TupleDesc) bool {
	if len(d1.Fields) != len(d2.Fields) {
		return false
	}
	for i := range d1.Fields {
		if d1.Fields[i].Ftype != d2.Fields[i].Ftype {
			return false
		}
		if d1.Fields[i].Ftype == StringType && d1.Fields[i].StringWidth != d2.Fields[i].StringWidth {
			return false
		}
	}
	return true
}

// copy returns a deep copy of the descriptor's field slice.
func (td *TupleDesc) copy() *TupleDesc {
	fields := make([]FieldType, len(td.Fields))
	copy(fields, td.Fields)
	return &TupleDesc{Fields: fields}
}

// setTableAlias rewrites the TableQualifier and prefixes every field name
// with "alias.", matching the output naming a sequential scan produces.
func (td *TupleDesc) setTableAlias(alias string) *TupleDesc {
	out := td.copy()
	for i := range out.Fields {
		out.Fields[i].TableQualifier = alias
		out.Fields[i].Fname = alias + "." + baseName(out.Fields[i].Fname)
	}
	return out
}

func baseName(fname string) string {
	if idx := strings.LastIndex(fname, "."); idx >= 0 {
		return fname[idx+1:]
	}
	return fname
}

// merge concatenates desc's fields with desc2's fields into a new TupleDesc.
func (desc *TupleDesc) merge(desc2 *TupleDesc) *TupleDesc {
	fields := make([]FieldType, 0, len(desc.Fields)+len(desc2.Fields))
	fields = append(fields, desc.Fields...)
	fields = append(fields, desc2.Fields...)
	return &TupleDesc{Fields: fields}
}

// tupleSize returns the total serialized width in bytes.
func (td *TupleDesc) tupleSize() int {
	size := 0
	for _, f := range td.Fields {
		size += f.width()
	}
	return size
}

func (td *TupleDesc) fieldIndex(name string) (int, error) {
	for i, f := range td.Fields {
		if f.Fname == name || baseName(f.Fname) == baseName(name) {
			return i, nil
		}
	}
	return -1, DbErrorClass.New("field %s not found", name)
}

// ================== Field values ======================

// DBValue is a tagged tuple field value: IntField or StringField.
type DBValue interface {
	// compare evaluates this value OP other and returns the boolean
	// result. Comparing mismatched types is an UnsupportedOperation.
	compare(op BoolOp, other DBValue) (bool, error)
}

// IntField is a 4-byte signed integer value.
type IntField struct {
	Value int32
}

// StringField is a fixed-width string value.
type StringField struct {
	Value string
}

func (f IntField) compare(op BoolOp, other DBValue) (bool, error) {
	o, ok := other.(IntField)
	if !ok {
		return false, UnsupportedOperationClass.New("cannot compare int field to %T", other)
	}
	switch op {
	case OpEquals:
		return f.Value == o.Value, nil
	case OpNotEquals:
		return f.Value != o.Value, nil
	case OpLessThan:
		return f.Value < o.Value, nil
	case OpLessThanOrEqual:
		return f.Value <= o.Value, nil
	case OpGreaterThan:
		return f.Value > o.Value, nil
	case OpGreaterThanOrEqual:
		return f.Value >= o.Value, nil
	case OpLike:
		return false, UnsupportedOperationClass.New("LIKE is not defined on int fields")
	}
	return false, UnsupportedOperationClass.New("unknown operator %v", op)
}

func (f StringField) compare(op BoolOp, other DBValue) (bool, error) {
	o, ok := other.(StringField)
	if !ok {
		return false, UnsupportedOperationClass.New("cannot compare string field to %T", other)
	}
	switch op {
	case OpEquals:
		return f.Value == o.Value, nil
	case OpNotEquals:
		return f.Value != o.Value, nil
	case OpLessThan:
		return f.Value < o.Value, nil
	case OpLessThanOrEqual:
		return f.Value <= o.Value, nil
	case OpGreaterThan:
		return f.Value > o.Value, nil
	case OpGreaterThanOrEqual:
		return f.Value >= o.Value, nil
	case OpLike:
		return strings.Contains(f.Value, o.Value), nil
	}
	return false, UnsupportedOperationClass.New("unknown operator %v", op)
}

// ================== Tuple ======================

// RecordID identifies a tuple's slot on a page, once placed there.
type RecordID struct {
	PageID PageID
	Slot   int
}

// Tuple is a schema plus field values, optionally carrying the RecordID it
// was read from or last inserted at.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordID
}

// writeTo serializes the tuple's fields in field order. Ints are 4-byte
// big-endian; strings are a 4-byte big-endian length L followed by L
// characters and (width-4-L) zero-padding bytes.
func (t *Tuple) writeTo(buf *bytes.Buffer) error {
	for i, field := range t.Fields {
		ft := t.Desc.Fields[i]
		switch v := field.(type) {
		case IntField:
			if err := binary.Write(buf, binary.BigEndian, v.Value); err != nil {
				return IoErrorClass.Wrap(err)
			}
		case StringField:
			if err := writeStringField(buf, v, ft.StringWidth); err != nil {
				return err
			}
		default:
			return DbErrorClass.New("unsupported field type %T", field)
		}
	}
	return nil
}

func writeStringField(buf *bytes.Buffer, f StringField, width int) error {
	s := f.Value
	if len(s) > width-4 {
		s = s[:width-4]
	}
	if err := binary.Write(buf, binary.BigEndian, int32(len(s))); err != nil {
		return IoErrorClass.Wrap(err)
	}
	buf.WriteString(s)
	pad := width - 4 - len(s)
	if pad > 0 {
		buf.Write(make([]byte, pad))
	}
	return nil
}

func readIntField(buf *bytes.Buffer) (IntField, error) {
	var v int32
	if err := binary.Read(buf, binary.BigEndian, &v); err != nil {
		return IntField{}, IoErrorClass.Wrap(err)
	}
	return IntField{Value: v}, nil
}

func readStringField(buf *bytes.Buffer, width int) (StringField, error) {
	var length int32
	if err := binary.Read(buf, binary.BigEndian, &length); err != nil {
		return StringField{}, IoErrorClass.Wrap(err)
	}
	rest := make([]byte, width-4)
	if _, err := buf.Read(rest); err != nil {
		return StringField{}, IoErrorClass.Wrap(err)
	}
	if length < 0 || int(length) > len(rest) {
		return StringField{}, DbErrorClass.New("corrupt string field: length %d exceeds width %d", length, width-4)
	}
	return StringField{Value: string(rest[:length])}, nil
}

// readTupleFrom deserializes one tuple of the given descriptor from buf.
func readTupleFrom(buf *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	t := &Tuple{Desc: *desc, Fields: make([]DBValue, len(desc.Fields))}
	for i, ft := range desc.Fields {
		switch ft.Ftype {
		case StringType:
			f, err := readStringField(buf, ft.StringWidth)
			if err != nil {
				return nil, err
			}
			t.Fields[i] = f
		default:
			f, err := readIntField(buf)
			if err != nil {
				return nil, err
			}
			t.Fields[i] = f
		}
	}
	return t, nil
}

// equals compares two tuples by descriptor and field value equality.
func (t1 *Tuple) equals(t2 *Tuple) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}
	if !t1.Desc.equals(&t2.Desc) || len(t1.Fields) != len(t2.Fields) {
		return false
	}
	for i := range t1.Fields {
		if t1.Fields[i] != t2.Fields[i] {
			return false
		}
	}
	return true
}

// joinTuples concatenates t1's fields with t2's, producing a tuple whose
// descriptor is t1.Desc merged with t2.Desc.
func joinTuples(t1, t2 *Tuple) *Tuple {
	desc := t1.Desc.merge(&t2.Desc)
	fields := make([]DBValue, 0, len(t1.Fields)+len(t2.Fields))
	fields = append(fields, t1.Fields...)
	fields = append(fields, t2.Fields...)
	return &Tuple{Desc: *desc, Fields: fields}
}

func (t *Tuple) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			parts[i] = fmt.Sprintf("%d", v.Value)
		case StringField:
			parts[i] = v.Value
		}
	}
	return strings.Join(parts, ",")
}
