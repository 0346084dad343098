package armc

import (
	"encoding/json"
	"fmt"
)

// DebugInfo maps source names to their storage for external tooling. It
// is serialised as debug_info.json.
type DebugInfo struct {
	Constants map[string]ConstInfo `json:"constants"`
	Globals   map[string]VarInfo   `json:"globals"`
	Functions map[string]*FuncInfo `json:"functions"`
}

type ConstInfo struct {
	Type   Type        `json:"type"`
	Value  json.Number `json:"value"`
	Offset int         `json:"offset"`
}

type VarInfo struct {
	Type   Type `json:"type"`
	Offset int  `json:"offset"`
}

type LocalInfo struct {
	Name   string `json:"name"`
	Type   Type   `json:"type"`
	Offset int    `json:"offset"`
}

// FuncInfo describes one function. Offset is the code-relative address of
// its entry and is filled in by the code generator.
type FuncInfo struct {
	Return     Type        `json:"return"`
	Params     int         `json:"params"`
	LocalCount int         `json:"local_count"`
	Locals     []LocalInfo `json:"locals"`
	Offset     int         `json:"offset"`
}

func newDebugInfo() *DebugInfo {
	return &DebugInfo{
		Constants: make(map[string]ConstInfo),
		Globals:   make(map[string]VarInfo),
		Functions: make(map[string]*FuncInfo),
	}
}

// MarshalText makes types appear by name in debug info.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	switch string(b) {
	case "auto":
		*t = Auto
	case "void":
		*t = Void
	case "int":
		*t = Int
	case "float":
		*t = Float
	default:
		return fmt.Errorf("unknown type %q", b)
	}
	return nil
}

// JSON renders the debug info as indented JSON.
func (d *DebugInfo) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
