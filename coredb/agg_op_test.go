package coredb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func xOnlyDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{{Fname: "x", Ftype: IntType}}}
}

func groupXDesc() *TupleDesc {
	return &TupleDesc{Fields: []FieldType{
		{Fname: "g", Ftype: StringType, StringWidth: 8},
		{Fname: "x", Ftype: IntType},
	}}
}

// TestAggregateUngroupedSum checks SUM with no GROUP BY column folds every
// input tuple into a single output row.
func TestAggregateUngroupedSum(t *testing.T) {
	desc := xOnlyDesc()
	source := newTupleSource(desc, []*Tuple{
		{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 2}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 3}}},
	})

	agg, err := NewAggregate(source, 0, -1, AggSum)
	require.NoError(t, err)
	require.Equal(t, "SUM(x)", agg.Descriptor().Fields[0].Fname)

	require.NoError(t, agg.Open(NewTID()))
	rows := drain(t, agg)
	require.Len(t, rows, 1)
	require.Equal(t, int32(6), rows[0].Fields[0].(IntField).Value)
	require.NoError(t, agg.Close())
}

// TestAggregateGroupedAverage checks AVG with a GROUP BY column emits one
// row per distinct group key, each averaging only that group's values.
func TestAggregateGroupedAverage(t *testing.T) {
	desc := groupXDesc()
	source := newTupleSource(desc, []*Tuple{
		{Desc: *desc, Fields: []DBValue{StringField{Value: "a"}, IntField{Value: 2}}},
		{Desc: *desc, Fields: []DBValue{StringField{Value: "a"}, IntField{Value: 4}}},
		{Desc: *desc, Fields: []DBValue{StringField{Value: "b"}, IntField{Value: 7}}},
	})

	agg, err := NewAggregate(source, 1, 0, AggAvg)
	require.NoError(t, err)

	require.NoError(t, agg.Open(NewTID()))
	rows := drain(t, agg)
	require.Len(t, rows, 2)

	byGroup := map[string]int32{}
	for _, r := range rows {
		byGroup[r.Fields[0].(StringField).Value] = r.Fields[1].(IntField).Value
	}
	require.Equal(t, int32(3), byGroup["a"])
	require.Equal(t, int32(7), byGroup["b"])
	require.NoError(t, agg.Close())
}

func TestAggregateCountOnStrings(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "name", Ftype: StringType, StringWidth: 8}}}
	source := newTupleSource(desc, []*Tuple{
		{Desc: *desc, Fields: []DBValue{StringField{Value: "a"}}},
		{Desc: *desc, Fields: []DBValue{StringField{Value: "b"}}},
	})

	agg, err := NewAggregate(source, 0, -1, AggCount)
	require.NoError(t, err)
	require.NoError(t, agg.Open(NewTID()))
	rows := drain(t, agg)
	require.Len(t, rows, 1)
	require.Equal(t, int32(2), rows[0].Fields[0].(IntField).Value)
	require.NoError(t, agg.Close())
}

func TestAggregateRejectsSumOnStrings(t *testing.T) {
	desc := &TupleDesc{Fields: []FieldType{{Fname: "name", Ftype: StringType, StringWidth: 8}}}
	source := newTupleSource(desc, nil)
	_, err := NewAggregate(source, 0, -1, AggSum)
	require.Error(t, err)
}

func TestAggregateMinMax(t *testing.T) {
	desc := xOnlyDesc()
	source := newTupleSource(desc, []*Tuple{
		{Desc: *desc, Fields: []DBValue{IntField{Value: 5}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 9}}},
	})

	minAgg, err := NewAggregate(source, 0, -1, AggMin)
	require.NoError(t, err)
	require.NoError(t, minAgg.Open(NewTID()))
	minRows := drain(t, minAgg)
	require.Equal(t, int32(1), minRows[0].Fields[0].(IntField).Value)
	require.NoError(t, minAgg.Close())

	source2 := newTupleSource(desc, []*Tuple{
		{Desc: *desc, Fields: []DBValue{IntField{Value: 5}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}},
		{Desc: *desc, Fields: []DBValue{IntField{Value: 9}}},
	})
	maxAgg, err := NewAggregate(source2, 0, -1, AggMax)
	require.NoError(t, err)
	require.NoError(t, maxAgg.Open(NewTID()))
	maxRows := drain(t, maxAgg)
	require.Equal(t, int32(9), maxRows[0].Fields[0].(IntField).Value)
	require.NoError(t, maxAgg.Close())
}
