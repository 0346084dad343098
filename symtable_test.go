package armc

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestNewSymbolTable(t *testing.T) {
	st := NewSymbolTable()
	be.Equal(t, st.Depth(), 1)
	be.True(t, st.Lookup("x") == nil)
}

func TestDeclareAndLookup(t *testing.T) {
	st := NewSymbolTable()

	err := st.Declare(&Symbol{Name: "x", Kind: SymVariable, Type: Int})
	be.Err(t, err, nil)

	sym := st.Lookup("x")
	be.True(t, sym != nil)
	be.Equal(t, sym.Name, "x")
	be.Equal(t, sym.Type, Int)
	be.Equal(t, sym.Hash, hashName("x"))
	be.Equal(t, sym.Storage, StorageGlobal)
}

func TestDeclareDuplicate(t *testing.T) {
	st := NewSymbolTable()
	be.Err(t, st.Declare(&Symbol{Name: "x", Line: 1}), nil)

	err := st.Declare(&Symbol{Name: "x", Line: 4})
	be.Err(t, err, `line 4: redefinition of "x"`)
}

func TestShadowing(t *testing.T) {
	st := NewSymbolTable()
	outer := &Symbol{Name: "x", Type: Int}
	inner := &Symbol{Name: "x", Type: Float, Storage: StorageLocal}
	be.Err(t, st.Declare(outer), nil)

	st.Push()
	be.Equal(t, st.Depth(), 2)
	be.Err(t, st.Declare(inner), nil)
	be.True(t, st.Lookup("x") == inner)
	be.True(t, st.Global("x") == outer)

	st.Pop()
	be.True(t, st.Lookup("x") == outer)
}

func TestLookupSearchesOutwards(t *testing.T) {
	st := NewSymbolTable()
	g := &Symbol{Name: "g"}
	be.Err(t, st.Declare(g), nil)
	st.Push()
	st.Push()
	be.True(t, st.Lookup("g") == g)
	be.True(t, st.Global("missing") == nil)
}

func TestDeclareGlobalFromNestedScope(t *testing.T) {
	st := NewSymbolTable()
	st.Push()
	k := &Symbol{Name: "k", Kind: SymConstant, Storage: StorageConst}
	be.Err(t, st.DeclareGlobal(k), nil)
	st.Pop()

	be.True(t, st.Lookup("k") == k)
	be.Equal(t, k.Storage, StorageConst)
	be.Err(t, st.DeclareGlobal(&Symbol{Name: "k"}), `redefinition of "k"`)
}

func TestHashCollisionsCompareNames(t *testing.T) {
	st := NewSymbolTable()
	a := &Symbol{Name: "a", Hash: 7}
	b := &Symbol{Name: "b", Hash: 7}
	be.Err(t, st.Declare(a), nil)
	be.Err(t, st.Declare(b), nil)
	be.True(t, st.lookup("a", 7) == a)
	be.True(t, st.lookup("b", 7) == b)
	be.True(t, st.lookup("c", 7) == nil)
}

func TestPopGlobalScopePanics(t *testing.T) {
	st := NewSymbolTable()
	defer func() {
		be.True(t, recover() != nil)
	}()
	st.Pop()
}

func TestSymbolKindString(t *testing.T) {
	be.Equal(t, SymVariable.String(), "variable")
	be.Equal(t, SymConstant.String(), "constant")
	be.Equal(t, SymFunction.String(), "function")
}
