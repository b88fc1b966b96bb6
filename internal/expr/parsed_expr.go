// Package expr models the tagged-variant expression tree the RPC
// dispatcher converts protocol parse trees into (spec §6.3, §9).
package expr

import "github.com/shopspring/decimal"

// Kind tags which variant a ParsedExpr node is.
type Kind int

const (
	KindColumn Kind = iota
	KindConstant
	KindFunction
	KindKnn
	KindMatch
	KindFusion
)

// ConstantKind tags a Constant node's payload type (spec §7
// InvalidConstantType).
type ConstantKind int

const (
	ConstBoolean ConstantKind = iota
	ConstInteger
	ConstDouble
	ConstDecimal
	ConstString
	ConstEmbedding
)

// ParsedExpr is a tagged variant over
// {Column, Constant, Function(args), Knn, Match, Fusion}
// (spec §6.3). Recursive arguments are owned inline — no manual
// cleanup is needed on a partial tree; scoped destruction handles it
// (spec §9).
type ParsedExpr struct {
	Kind Kind

	// Column
	ColumnName string

	// Constant
	ConstKind   ConstantKind
	BoolValue   bool
	IntValue    int64
	DoubleValue float64
	DecValue    decimal.Decimal
	StrValue    string
	EmbValue    []float32

	// Function
	FuncName string
	Args     []*ParsedExpr

	// Knn
	KnnColumn   string
	KnnQuery    []float32
	KnnDistance string
	KnnTopN     int64

	// Match
	MatchColumns []string
	MatchQuery   string
	MatchOptions string

	// Fusion
	FusionMethod string
	FusionArgs   map[string]string
}

// Column builds a Column node.
func Column(name string) *ParsedExpr { return &ParsedExpr{Kind: KindColumn, ColumnName: name} }

// ConstantInt builds an integer Constant node.
func ConstantInt(v int64) *ParsedExpr { return &ParsedExpr{Kind: KindConstant, ConstKind: ConstInteger, IntValue: v} }

// ConstantDouble builds a double Constant node.
func ConstantDouble(v float64) *ParsedExpr {
	return &ParsedExpr{Kind: KindConstant, ConstKind: ConstDouble, DoubleValue: v}
}

// ConstantDecimal builds a decimal Constant node (spec §3.5 domain
// stack wiring: shopspring/decimal backs this variant).
func ConstantDecimal(v decimal.Decimal) *ParsedExpr {
	return &ParsedExpr{Kind: KindConstant, ConstKind: ConstDecimal, DecValue: v}
}

// Function builds a Function node with inline-owned args.
func Function(name string, args ...*ParsedExpr) *ParsedExpr {
	return &ParsedExpr{Kind: KindFunction, FuncName: name, Args: args}
}

// Knn builds a Knn predicate node.
func Knn(column string, query []float32, distance string, topN int64) *ParsedExpr {
	return &ParsedExpr{Kind: KindKnn, KnnColumn: column, KnnQuery: query, KnnDistance: distance, KnnTopN: topN}
}

// Match builds a Match predicate node.
func Match(columns []string, query, options string) *ParsedExpr {
	return &ParsedExpr{Kind: KindMatch, MatchColumns: columns, MatchQuery: query, MatchOptions: options}
}

// Fusion builds a Fusion node, the score-merge node combining prior
// Knn/Match results (glossary).
func Fusion(method string, args map[string]string) *ParsedExpr {
	return &ParsedExpr{Kind: KindFusion, FusionMethod: method, FusionArgs: args}
}

// SearchExpr aggregates the Knn/Match/Fusion predicates a query's
// search_expr clause carries. It mirrors the original's
// SearchExpr::SetExprs accumulation: knn predicates first, then match
// predicates, then an optional trailing fusion node merging their
// scores (spec §6.3).
type SearchExpr struct {
	Exprs []*ParsedExpr
}

// SetExprs installs the flattened knn/match/fusion list built by the
// dispatcher's wire conversion.
func (s *SearchExpr) SetExprs(exprs []*ParsedExpr) { s.Exprs = exprs }
