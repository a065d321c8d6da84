package symbols

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableDeclareAndLookup(t *testing.T) {
	tab := NewTable()

	require.True(t, tab.Declare("x", Int))
	require.False(t, tab.Declare("x", Bool), "redeclaring the same name must be rejected")

	typ, ok := tab.Lookup("x")
	require.True(t, ok)
	require.Equal(t, Int, typ)

	_, ok = tab.Lookup("y")
	require.False(t, ok)

	require.True(t, tab.Declare("y", Bool))
	require.Equal(t, []string{"x", "y"}, tab.Names())
	require.Equal(t, 2, tab.Len())
}

func TestDefaultOpTypes(t *testing.T) {
	ops := Default()

	require.Equal(t, OpType{LHS: Int, RHS: Int, RequireEqual: true, Result: Int}, ops["+"])
	require.Equal(t, OpType{LHS: Bool, RHS: Bool, RequireEqual: true, Result: Bool}, ops["and"])
	require.Equal(t, Bool, ops["not"].Result)
	require.Equal(t, Int, ops["un"].Result)
}
