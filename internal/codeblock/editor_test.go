package codeblock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
		from, to int
		text     string
		ok       bool
	}{
		{"equal", "abc", "abc", 0, 0, "", false},
		{"insert", "abc", "abXc", 2, 2, "X", true},
		{"delete", "abc", "ac", 1, 2, "", true},
		{"replace", "hello world", "hello there", 6, 11, "there", true},
		{"repeated", "aaa", "aaaa", 3, 3, "a", true},
		{"from empty", "", "x", 0, 0, "x", true},
		{"multibyte", "héllo", "hëllo", 1, 2, "ë", true},
		{"emoji", "a😀b", "a😀😀b", 2, 2, "😀", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, text, ok := Diff(tt.old, tt.new)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestSetText(t *testing.T) {
	e := New("fmt.Println(1)", "go")
	var got []Change
	stop := e.OnChange(func(c Change) { got = append(got, c) })

	require.NoError(t, e.SetText(12, 13, "42"))
	assert.Equal(t, "fmt.Println(42)", e.Text())
	assert.Equal(t, 15, e.Len())
	require.Len(t, got, 1)
	assert.Equal(t, Change{Kind: ChangeText, From: 12, To: 13, Text: "42", OldText: "1", Revision: 1}, got[0])

	require.NoError(t, e.SetText(0, 0, ""))
	assert.Len(t, got, 1, "no-op edits are not reported")

	stop()
	require.NoError(t, e.SetText(0, 0, "// "))
	assert.Len(t, got, 1)
	assert.Equal(t, uint64(2), e.Revision())
}

func TestSetTextErrors(t *testing.T) {
	e := New("héllo", "")
	assert.True(t, errors.Is(e.SetText(3, 2, ""), ErrRangeInvalid))
	assert.True(t, errors.Is(e.SetText(0, 6, ""), ErrOffsetOutOfRange))
	assert.True(t, errors.Is(e.SetText(-1, 0, ""), ErrOffsetOutOfRange))

	require.NoError(t, e.SetText(1, 2, "e"))
	assert.Equal(t, "hello", e.Text())

	e.Close()
	assert.True(t, e.Closed())
	assert.ErrorIs(t, e.SetText(0, 0, "x"), ErrClosed)
	assert.ErrorIs(t, e.SetSyntax("go"), ErrClosed)
}

func TestReplace(t *testing.T) {
	e := New("a := 1\nb := 2", "")
	var got Change
	e.OnChange(func(c Change) { got = c })

	require.NoError(t, e.Replace("a := 1\nb := 3"))
	assert.Equal(t, 12, got.From)
	assert.Equal(t, 13, got.To)
	assert.Equal(t, "3", got.Text)
}

func TestSetSyntax(t *testing.T) {
	e := New("", "")
	var got []Change
	e.OnChange(func(c Change) { got = append(got, c) })

	require.NoError(t, e.SetSyntax("rust"))
	require.NoError(t, e.SetSyntax("rust"))
	assert.Equal(t, "rust", e.Syntax())
	require.Len(t, got, 1)
	assert.Equal(t, ChangeSyntax, got[0].Kind)
	assert.Equal(t, `Syntax("rust")`, got[0].String())
}

func TestSyncDoesNotNotify(t *testing.T) {
	e := New("old", "")
	calls := 0
	e.OnChange(func(Change) { calls++ })

	assert.True(t, e.Sync("new", "go"))
	assert.False(t, e.Sync("new", "go"))
	assert.Equal(t, "new", e.Text())
	assert.Equal(t, "go", e.Syntax())
	assert.Zero(t, calls)
}

func TestListenerReentry(t *testing.T) {
	e := New("x", "")
	var seen string
	e.OnChange(func(Change) { seen = e.Text() })
	require.NoError(t, e.SetText(1, 1, "y"))
	assert.Equal(t, "xy", seen)
}

func TestListenerPanic(t *testing.T) {
	e := New("", "")
	after := false
	e.OnChange(func(Change) { panic("boom") })
	e.OnChange(func(Change) { after = true })
	require.NoError(t, e.SetText(0, 0, "a"))
	assert.True(t, after)
}

func TestAtBoundary(t *testing.T) {
	e := New("one\ntwo", "")
	tests := []struct {
		pos, dir int
		unit     Unit
		want     bool
	}{
		{0, -1, UnitChar, true},
		{1, -1, UnitChar, false},
		{7, 1, UnitChar, true},
		{6, 1, UnitChar, false},
		{2, -1, UnitLine, true},
		{5, -1, UnitLine, false},
		{5, 1, UnitLine, true},
		{2, 1, UnitLine, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.AtBoundary(tt.pos, tt.dir, tt.unit), "pos %d dir %d unit %d", tt.pos, tt.dir, tt.unit)
	}
}

func TestChangeString(t *testing.T) {
	assert.Equal(t, `Insert(2, "x")`, Change{From: 2, To: 2, Text: "x"}.String())
	assert.Equal(t, "Delete[1:3]", Change{From: 1, To: 3}.String())
	assert.Equal(t, `Replace[1:3] with "y"`, Change{From: 1, To: 3, Text: "y"}.String())
	assert.Equal(t, "syntax", ChangeSyntax.String())
}
