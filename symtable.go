package armc

type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymConstant
	SymFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymVariable:
		return "variable"
	case SymConstant:
		return "constant"
	case SymFunction:
		return "function"
	}
	return "?"
}

// Storage is the region a symbol's value lives in at run time.
type Storage int

const (
	StorageNone Storage = iota
	StorageGlobal
	StorageLocal
	StorageConst
)

// Symbol is one declared name. Offset is -1 until the assembler places
// the symbol in its storage region.
type Symbol struct {
	Name    string
	Hash    uint32
	Kind    SymbolKind
	Type    Type
	Const   bool
	Storage Storage
	Offset  int
	Line    int

	// Functions only.
	Params []Type
	Return Type
}

// scope buckets symbols by name hash; names within a bucket are compared
// to resolve collisions.
type scope map[uint32][]*Symbol

func (s scope) find(name string, hash uint32) *Symbol {
	for _, sym := range s[hash] {
		if sym.Name == name {
			return sym
		}
	}
	return nil
}

// SymbolTable is a stack of lexical scopes. Scope 0 is the global scope
// and is never popped.
type SymbolTable struct {
	scopes []scope
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{scopes: []scope{{}}}
}

// Push enters a new innermost scope.
func (st *SymbolTable) Push() {
	st.scopes = append(st.scopes, scope{})
}

// Pop exits the innermost scope.
func (st *SymbolTable) Pop() {
	if len(st.scopes) == 1 {
		panic("symbol table: cannot pop the global scope")
	}
	st.scopes = st.scopes[:len(st.scopes)-1]
}

// Depth returns the number of open scopes, the global scope included.
func (st *SymbolTable) Depth() int {
	return len(st.scopes)
}

// Declare adds sym to the innermost scope.
func (st *SymbolTable) Declare(sym *Symbol) error {
	return st.declareIn(len(st.scopes)-1, sym)
}

// DeclareGlobal adds sym to the global scope regardless of nesting.
func (st *SymbolTable) DeclareGlobal(sym *Symbol) error {
	return st.declareIn(0, sym)
}

func (st *SymbolTable) declareIn(depth int, sym *Symbol) error {
	if sym.Hash == 0 {
		sym.Hash = hashName(sym.Name)
	}
	s := st.scopes[depth]
	if s.find(sym.Name, sym.Hash) != nil {
		return &RedefinitionError{Line: sym.Line, Name: sym.Name}
	}
	if depth == 0 && sym.Storage == StorageNone && sym.Kind == SymVariable {
		sym.Storage = StorageGlobal
	}
	s[sym.Hash] = append(s[sym.Hash], sym)
	return nil
}

// Lookup resolves name from the innermost scope outwards.
func (st *SymbolTable) Lookup(name string) *Symbol {
	return st.lookup(name, hashName(name))
}

func (st *SymbolTable) lookup(name string, hash uint32) *Symbol {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym := st.scopes[i].find(name, hash); sym != nil {
			return sym
		}
	}
	return nil
}

// Global resolves name in the global scope only.
func (st *SymbolTable) Global(name string) *Symbol {
	return st.scopes[0].find(name, hashName(name))
}
