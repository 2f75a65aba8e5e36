package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, name string, columns []string, rows ...Row) *Table {
	t.Helper()
	tbl := New(name, columns)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func TestAppendRowRejectsWrongWidth(t *testing.T) {
	tbl := New("t", []string{"a", "b"})
	err := tbl.AppendRow(Row{1})
	require.Error(t, err)
	assert.Equal(t, 0, tbl.Len())
}

func TestWithTextColumnDoesNotMutateInput(t *testing.T) {
	parcel := mustTable(t, "Parcel", []string{"parcel_dno"},
		Row{int64(100)},
		Row{float64(7)},
		Row{nil},
		Row{"A12"},
	)

	derived, err := parcel.WithTextColumn("parcel_dno_str", "parcel_dno")
	require.NoError(t, err)

	assert.Equal(t, []string{"parcel_dno"}, parcel.Columns)
	assert.Len(t, parcel.Rows[0], 1)

	values, err := derived.Column("parcel_dno_str")
	require.NoError(t, err)
	assert.Equal(t, []any{"100", "7", nil, "A12"}, values)
}

func TestWithTextColumnMissingSource(t *testing.T) {
	tbl := New("t", []string{"a"})
	_, err := tbl.WithTextColumn("b_str", "b")
	require.Error(t, err)
}

func TestWithColumnOverwritesExisting(t *testing.T) {
	tbl := mustTable(t, "t", []string{"a", "b"}, Row{int64(1), "x"})
	out := tbl.WithColumn("b", func(row Row) any { return "y" })

	assert.Equal(t, []string{"a", "b"}, out.Columns)
	assert.Equal(t, Row{int64(1), "y"}, out.Rows[0])
	assert.Equal(t, Row{int64(1), "x"}, tbl.Rows[0])
}

func TestHead(t *testing.T) {
	tbl := mustTable(t, "t", []string{"a"}, Row{1}, Row{2}, Row{3})

	assert.Equal(t, 2, tbl.Head(2).Len())
	assert.Equal(t, 3, tbl.Head(50).Len())
	assert.Equal(t, 3, tbl.Head(0).Len())
}

func TestTextRendering(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{int64(100), "100"},
		{int32(5), "5"},
		{float64(100), "100"},
		{float64(12.5), "12.5"},
		{true, "true"},
		{[]byte("raw"), "raw"},
		{time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), "2021-03-04"},
		{time.Date(2021, 3, 4, 10, 30, 0, 0, time.UTC), "2021-03-04T10:30:00Z"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Text(tc.in), "Text(%#v)", tc.in)
	}
}

func TestKeyOfComparesNumbersAcrossWidths(t *testing.T) {
	a, ok := KeyOf(int64(7))
	require.True(t, ok)
	b, ok := KeyOf(float64(7))
	require.True(t, ok)
	c, ok := KeyOf("7")
	require.True(t, ok)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, ok = KeyOf(nil)
	assert.False(t, ok)
}

func TestKeyOfKeepsLargeIntegersExact(t *testing.T) {
	a, ok := KeyOf(int64(9007199254740992))
	require.True(t, ok)
	b, ok := KeyOf(int64(9007199254740993))
	require.True(t, ok)
	assert.NotEqual(t, a, b)

	whole, ok := KeyOf(float64(9007199254740992))
	require.True(t, ok)
	assert.Equal(t, a, whole)

	frac, ok := KeyOf(7.5)
	require.True(t, ok)
	seven, ok := KeyOf(int64(7))
	require.True(t, ok)
	assert.NotEqual(t, seven, frac)
}

func TestSetKeepsLoadOrder(t *testing.T) {
	set := NewSet()
	set.Add(New("b", nil))
	set.Add(New("a", nil))
	set.Add(New("b", []string{"x"}))

	assert.Equal(t, []string{"b", "a"}, set.Names())
	got, ok := set.Get("b")
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, got.Columns)

	_, ok = set.Get("missing")
	assert.False(t, ok)
}
