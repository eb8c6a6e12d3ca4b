package graph

import "fmt"

// CallsMeta carries the optional call-site range and operand name an EdgeCalls
// edge records, per §3.
type CallsMeta struct {
	CallStart int
	CallEnd   int
	Operand   string
}

// Edge is a directed relation between two nodes, referenced by identity key
// rather than by pointer so that arenas of nodes plus an edge table remain
// valid even across cyclic class/trait/call graphs (§9).
type Edge struct {
	Kind       EdgeKind
	SourceKind NodeKind
	SourceKey  string
	TargetKind NodeKind
	TargetKey  string
	Calls      *CallsMeta
}

// NewEdge validates the (source-kind, target-kind) pair and returns the edge.
// It panics on an illegal pair: a formatter that tries to create one has a
// bug, not a recoverable runtime condition (§7 taxonomy: this is a
// programmer error, analogous to a malformed query).
func NewEdge(kind EdgeKind, srcKind NodeKind, srcData NodeData, dstKind NodeKind, dstData NodeData, calls *CallsMeta) Edge {
	if !IsLegalPair(kind, srcKind, dstKind) {
		panic(fmt.Sprintf("graph: illegal edge pair %s: %s -> %s", kind, srcKind, dstKind))
	}
	return Edge{
		Kind:       kind,
		SourceKind: srcKind,
		SourceKey:  srcData.Key(srcKind),
		TargetKind: dstKind,
		TargetKey:  dstData.Key(dstKind),
		Calls:      calls,
	}
}

// Identity returns the edge's identity key: (source, target, kind, call-site
// range if present). Duplicate edges must collapse to the same identity.
func (e Edge) Identity() string {
	if e.Calls != nil {
		return fmt.Sprintf("%s\x1f%s\x1f%s\x1f%d-%d", e.SourceKey, e.TargetKey, e.Kind, e.Calls.CallStart, e.Calls.CallEnd)
	}
	return fmt.Sprintf("%s\x1f%s\x1f%s", e.SourceKey, e.TargetKey, e.Kind)
}

// Contains builds a CONTAINS edge from parent to child.
func Contains(parentKind NodeKind, parent NodeData, childKind NodeKind, child NodeData) Edge {
	return NewEdge(EdgeContains, parentKind, parent, childKind, child, nil)
}

// Calls builds a CALLS edge, optionally carrying a call-site range.
func Calls(srcKind NodeKind, src NodeData, dstKind NodeKind, dst NodeData, callStart, callEnd int, operand string) Edge {
	return NewEdge(EdgeCalls, srcKind, src, dstKind, dst, &CallsMeta{CallStart: callStart, CallEnd: callEnd, Operand: operand})
}

// Uses builds a USES edge (a Calls edge into an external-library function).
func Uses(srcKind NodeKind, src NodeData, dstKind NodeKind, dst NodeData) Edge {
	return NewEdge(EdgeUses, srcKind, src, dstKind, dst, nil)
}

// OperandEdge builds an OPERAND edge (Class->Function receiver, or Trait->Class
// implements).
func OperandEdge(srcKind NodeKind, src NodeData, dstKind NodeKind, dst NodeData) Edge {
	return NewEdge(EdgeOperand, srcKind, src, dstKind, dst, nil)
}

// Imports builds an IMPORTS edge (File->symbol, or Class->included module).
func Imports(srcKind NodeKind, src NodeData, dstKind NodeKind, dst NodeData) Edge {
	return NewEdge(EdgeImports, srcKind, src, dstKind, dst, nil)
}

// Of builds an OF edge (Instance->Class).
func Of(inst NodeData, class NodeData) Edge {
	return NewEdge(EdgeOf, KindInstance, inst, KindClass, class, nil)
}

// Handler builds a HANDLER edge (Endpoint->Function).
func Handler(endpoint NodeData, fn NodeData) Edge {
	return NewEdge(EdgeHandler, KindEndpoint, endpoint, KindFunction, fn, nil)
}

// Renders builds a RENDERS edge (Page->Function|Class|Page).
func Renders(page NodeData, targetKind NodeKind, target NodeData) Edge {
	return NewEdge(EdgeRenders, KindPage, page, targetKind, target, nil)
}

// ParentOf builds a PARENT_OF edge (Class->Class, base->derived).
func ParentOf(parent NodeData, child NodeData) Edge {
	return NewEdge(EdgeParentOf, KindClass, parent, KindClass, child, nil)
}
