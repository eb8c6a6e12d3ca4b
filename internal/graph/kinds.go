// Package graph defines the language-agnostic node/edge data model shared by
// every collector, backend implementation, and linking pass.
package graph

// NodeKind is the finite tagged set of structural entities the graph can hold.
type NodeKind string

const (
	KindRepository NodeKind = "Repository"
	KindLanguage   NodeKind = "Language"
	KindDirectory  NodeKind = "Directory"
	KindFile       NodeKind = "File"
	KindImport     NodeKind = "Import"
	KindLibrary    NodeKind = "Library"
	KindClass      NodeKind = "Class"
	KindTrait      NodeKind = "Trait"
	KindInstance   NodeKind = "Instance"
	KindFunction   NodeKind = "Function"
	KindTest       NodeKind = "Test"
	KindE2eTest    NodeKind = "E2eTest"
	KindEndpoint   NodeKind = "Endpoint"
	KindRequest    NodeKind = "Request"
	KindDataModel  NodeKind = "DataModel"
	KindPage       NodeKind = "Page"
	KindVar        NodeKind = "Var"
	KindFeature    NodeKind = "Feature"
)

// EdgeKind is the finite tagged set of semantic relations between nodes.
type EdgeKind string

const (
	EdgeContains EdgeKind = "CONTAINS"
	EdgeCalls    EdgeKind = "CALLS"
	EdgeUses     EdgeKind = "USES"
	EdgeOperand  EdgeKind = "OPERAND"
	EdgeArgOf    EdgeKind = "ARG_OF"
	EdgeImports  EdgeKind = "IMPORTS"
	EdgeOf       EdgeKind = "OF"
	EdgeHandler  EdgeKind = "HANDLER"
	EdgeIncludes EdgeKind = "INCLUDES"
	EdgeRenders  EdgeKind = "RENDERS"
	EdgeParentOf EdgeKind = "PARENT_OF"
)

// legalPairs enumerates the (source-kind, target-kind) pairs §3/§8 permit for
// each edge kind. Collectors that would violate this are programmer errors,
// not graceful degradation, so constructors panic rather than silently emit
// an edge the testable-property suite would reject.
var legalPairs = map[EdgeKind][][2]NodeKind{
	EdgeContains: {
		{KindRepository, KindLanguage}, {KindRepository, KindDirectory}, {KindRepository, KindFile},
		{KindDirectory, KindDirectory}, {KindDirectory, KindFile},
		{KindFile, KindImport}, {KindFile, KindLibrary}, {KindFile, KindClass}, {KindFile, KindTrait},
		{KindFile, KindInstance}, {KindFile, KindFunction}, {KindFile, KindTest}, {KindFile, KindE2eTest},
		{KindFile, KindDataModel}, {KindFile, KindPage}, {KindFile, KindVar}, {KindFile, KindEndpoint},
		{KindFile, KindRequest},
		{KindClass, KindDataModel},
		{KindFunction, KindDataModel},
	},
	EdgeCalls: {
		{KindFunction, KindFunction}, {KindFunction, KindRequest}, {KindFunction, KindClass},
		{KindClass, KindClass},
		{KindRequest, KindEndpoint}, {KindTest, KindEndpoint}, {KindE2eTest, KindEndpoint},
		{KindE2eTest, KindFunction}, {KindE2eTest, KindPage}, {KindTest, KindPage},
		{KindTest, KindFunction}, {KindTest, KindClass},
	},
	EdgeUses:     {{KindFunction, KindFunction}, {KindFunction, KindLibrary}, {KindTest, KindLibrary}},
	EdgeOperand:  {{KindClass, KindFunction}, {KindTrait, KindClass}, {KindClass, KindClass}},
	EdgeArgOf:    {{KindFunction, KindVar}},
	EdgeImports:  {{KindFile, KindFunction}, {KindFile, KindClass}, {KindFile, KindDataModel}, {KindFile, KindVar}, {KindClass, KindClass}, {KindImport, KindLibrary}},
	EdgeOf:       {{KindInstance, KindClass}},
	EdgeHandler:  {{KindEndpoint, KindFunction}},
	EdgeIncludes: {{KindFeature, KindFunction}, {KindFeature, KindClass}, {KindFeature, KindEndpoint}, {KindFeature, KindRequest}, {KindFeature, KindDataModel}, {KindFeature, KindTest}},
	EdgeRenders:  {{KindPage, KindFunction}, {KindPage, KindClass}, {KindPage, KindPage}},
	EdgeParentOf: {{KindClass, KindClass}},
}

// IsLegalPair reports whether src->dst is a permitted (source-kind,
// target-kind) pair for the given edge kind.
func IsLegalPair(kind EdgeKind, src, dst NodeKind) bool {
	for _, pair := range legalPairs[kind] {
		if pair[0] == src && pair[1] == dst {
			return true
		}
	}
	return false
}
