package coredb

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func intStringDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "id", Ftype: IntType},
		{Fname: "name", Ftype: StringType, StringWidth: 16},
	}}
}

func TestTupleDescEquals(t *testing.T) {
	a := intStringDesc()
	b := intStringDesc()
	require.True(t, a.equals(b))

	c := &TupleDesc{Fields: []FieldType{{Fname: "x", Ftype: IntType}}}
	require.False(t, a.equals(c))
}

func TestTupleDescMerge(t *testing.T) {
	left := &TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}}}
	right := &TupleDesc{Fields: []FieldType{{Fname: "b", Ftype: IntType}}}
	merged := left.merge(right)
	require.Len(t, merged.Fields, 2)
	require.Equal(t, "a", merged.Fields[0].Fname)
	require.Equal(t, "b", merged.Fields[1].Fname)
}

func TestTupleWriteReadRoundTrip(t *testing.T) {
	desc := intStringDesc()
	tup := &Tuple{Desc: *desc, Fields: []DBValue{
		IntField{Value: 42},
		StringField{Value: "josie"},
	}}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))
	require.Equal(t, desc.tupleSize(), buf.Len())

	back, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.True(t, tup.equals(back))
}

func TestStringFieldTruncatesAndPads(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "s", Ftype: StringType, StringWidth: 8}}}
	tup := &Tuple{Desc: *desc, Fields: []DBValue{StringField{Value: "this is way too long"}}}

	var buf bytes.Buffer
	require.NoError(t, tup.writeTo(&buf))
	require.Equal(t, 8, buf.Len())

	back, err := readTupleFrom(&buf, desc)
	require.NoError(t, err)
	require.Equal(t, "this", back.Fields[0].(StringField).Value)
}

func TestIntFieldCompare(t *testing.T) {
	a := IntField{Value: 3}
	b := IntField{Value: 5}

	ok, err := a.compare(OpLessThan, b)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.compare(OpEquals, b)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = a.compare(OpLike, b)
	require.Error(t, err)
}

func TestStringFieldLike(t *testing.T) {
	a := StringField{Value: "database systems"}
	needle := StringField{Value: "system"}
	ok, err := a.compare(OpLike, needle)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestJoinTuples(t *testing.T) {
	left := &Tuple{
		Desc:   TupleDesc{Fields: []FieldType{{Fname: "a", Ftype: IntType}}},
		Fields: []DBValue{IntField{Value: 1}},
	}
	right := &Tuple{
		Desc:   TupleDesc{Fields: []FieldType{{Fname: "b", Ftype: IntType}}},
		Fields: []DBValue{IntField{Value: 2}},
	}
	joined := joinTuples(left, right)
	require.Len(t, joined.Fields, 2)
	require.Equal(t, int32(1), joined.Fields[0].(IntField).Value)
	require.Equal(t, int32(2), joined.Fields[1].(IntField).Value)
}
