package protocol

import "fmt"

// ExprKind tags which variant a wire expression node carries (spec
// §6.3). Kept as its own enum rather than importing package expr, so
// the wire layer stays decodable without pulling in expr-tree types.
type ExprKind int32

const (
	ExprColumn ExprKind = iota
	ExprConstant
	ExprFunction
	ExprKnn
	ExprMatch
	ExprFusion
)

// ConstKind tags a Constant node's payload type.
type ConstKind int32

const (
	ConstBoolean ConstKind = iota
	ConstInteger
	ConstDouble
	ConstString
	ConstEmbedding
)

// WireExpr is the self-delimiting wire form of a parsed expression
// tree: select_list entries, a where_expr filter, and the knn/match/
// fusion nodes inside a search_expr clause all share this shape
// (grounded on the original's ParsedExpr protocol struct in
// thrift_server.cpp's Select/Explain handlers).
type WireExpr struct {
	Kind ExprKind

	ColumnName string

	ConstKind   ConstKind
	BoolValue   bool
	IntValue    int64
	DoubleValue float64
	StrValue    string
	EmbValue    []float32

	FuncName string
	Args     []WireExpr

	KnnColumn   string
	KnnQuery    []float32
	KnnDistance int32
	KnnTopN     int64

	MatchColumns []string
	MatchQuery   string
	MatchOptions string

	FusionMethod string
	FusionArgs   map[string]string
}

// WireSearchExpr is a search_expr clause: zero or more KNN predicates,
// zero or more full-text match predicates, and an optional fusion
// node merging their scores — the three-part shape the original's
// SearchExpr::SetExprs flattens knn_exprs/match_exprs/fusion_expr
// into before handing it to Search.
type WireSearchExpr struct {
	KnnExprs   []WireExpr
	MatchExprs []WireExpr
	FusionExpr *WireExpr
}

// EncodeExpr serializes one expression tree node, recursing into
// Function args.
func EncodeExpr(e WireExpr) []byte {
	out := putU32(nil, uint32(e.Kind))
	switch e.Kind {
	case ExprColumn:
		out = putString(out, e.ColumnName)
	case ExprConstant:
		out = putU32(out, uint32(e.ConstKind))
		switch e.ConstKind {
		case ConstBoolean:
			if e.BoolValue {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		case ConstInteger:
			out = putU64(out, uint64(e.IntValue))
		case ConstDouble:
			out = append(out, EncodeValue(e.DoubleValue)...)
		case ConstString:
			out = putString(out, e.StrValue)
		case ConstEmbedding:
			out = append(out, EncodeValue(e.EmbValue)...)
		}
	case ExprFunction:
		out = putString(out, e.FuncName)
		out = putU32(out, uint32(len(e.Args)))
		for _, arg := range e.Args {
			out = append(out, EncodeExpr(arg)...)
		}
	case ExprKnn:
		out = putString(out, e.KnnColumn)
		out = append(out, EncodeValue(e.KnnQuery)...)
		out = putU32(out, uint32(e.KnnDistance))
		out = putU64(out, uint64(e.KnnTopN))
	case ExprMatch:
		out = putU32(out, uint32(len(e.MatchColumns)))
		for _, col := range e.MatchColumns {
			out = putString(out, col)
		}
		out = putString(out, e.MatchQuery)
		out = putString(out, e.MatchOptions)
	case ExprFusion:
		out = putString(out, e.FusionMethod)
		out = putU32(out, uint32(len(e.FusionArgs)))
		for k, v := range e.FusionArgs {
			out = putString(out, k)
			out = putString(out, v)
		}
	}
	return out
}

func decodeExpr(c *cursor) (WireExpr, error) {
	kindVal, err := c.i32()
	if err != nil {
		return WireExpr{}, err
	}
	e := WireExpr{Kind: ExprKind(kindVal)}
	switch e.Kind {
	case ExprColumn:
		name, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.ColumnName = name

	case ExprConstant:
		ck, err := c.i32()
		if err != nil {
			return WireExpr{}, err
		}
		e.ConstKind = ConstKind(ck)
		switch e.ConstKind {
		case ConstBoolean:
			b, err := c.byteVal()
			if err != nil {
				return WireExpr{}, err
			}
			e.BoolValue = b == 1
		case ConstInteger:
			v, err := c.i64()
			if err != nil {
				return WireExpr{}, err
			}
			e.IntValue = v
		case ConstDouble:
			v, err := c.value()
			if err != nil {
				return WireExpr{}, err
			}
			f, ok := v.(float64)
			if !ok {
				return WireExpr{}, fmt.Errorf("constant double: unexpected value type %T", v)
			}
			e.DoubleValue = f
		case ConstString:
			s, err := c.string()
			if err != nil {
				return WireExpr{}, err
			}
			e.StrValue = s
		case ConstEmbedding:
			v, err := c.value()
			if err != nil {
				return WireExpr{}, err
			}
			emb, ok := v.([]float32)
			if !ok {
				return WireExpr{}, fmt.Errorf("constant embedding: unexpected value type %T", v)
			}
			e.EmbValue = emb
		default:
			return WireExpr{}, fmt.Errorf("unknown constant kind %d", ck)
		}

	case ExprFunction:
		name, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.FuncName = name
		count, err := c.u32()
		if err != nil {
			return WireExpr{}, err
		}
		args := make([]WireExpr, 0, count)
		for i := uint32(0); i < count; i++ {
			arg, err := decodeExpr(c)
			if err != nil {
				return WireExpr{}, err
			}
			args = append(args, arg)
		}
		e.Args = args

	case ExprKnn:
		col, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.KnnColumn = col
		v, err := c.value()
		if err != nil {
			return WireExpr{}, err
		}
		query, ok := v.([]float32)
		if !ok {
			return WireExpr{}, fmt.Errorf("knn query: unexpected value type %T", v)
		}
		if len(query) > 0 {
			e.KnnQuery = query
		}
		dist, err := c.i32()
		if err != nil {
			return WireExpr{}, err
		}
		e.KnnDistance = dist
		topN, err := c.i64()
		if err != nil {
			return WireExpr{}, err
		}
		e.KnnTopN = topN

	case ExprMatch:
		count, err := c.u32()
		if err != nil {
			return WireExpr{}, err
		}
		cols := make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			col, err := c.string()
			if err != nil {
				return WireExpr{}, err
			}
			cols = append(cols, col)
		}
		e.MatchColumns = cols
		query, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.MatchQuery = query
		options, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.MatchOptions = options

	case ExprFusion:
		method, err := c.string()
		if err != nil {
			return WireExpr{}, err
		}
		e.FusionMethod = method
		count, err := c.u32()
		if err != nil {
			return WireExpr{}, err
		}
		args := make(map[string]string, count)
		for i := uint32(0); i < count; i++ {
			k, err := c.string()
			if err != nil {
				return WireExpr{}, err
			}
			v, err := c.string()
			if err != nil {
				return WireExpr{}, err
			}
			args[k] = v
		}
		if count > 0 {
			e.FusionArgs = args
		}

	default:
		return WireExpr{}, fmt.Errorf("unknown expr kind %d", kindVal)
	}
	return e, nil
}

// DecodeExpr deserializes one expression tree node written by
// EncodeExpr.
func DecodeExpr(buf []byte) (WireExpr, error) {
	c := &cursor{buf: buf}
	return decodeExpr(c)
}

// EncodeSearchExpr serializes a search_expr clause.
func EncodeSearchExpr(s WireSearchExpr) []byte {
	out := putU32(nil, uint32(len(s.KnnExprs)))
	for _, e := range s.KnnExprs {
		out = append(out, EncodeExpr(e)...)
	}
	out = putU32(out, uint32(len(s.MatchExprs)))
	for _, e := range s.MatchExprs {
		out = append(out, EncodeExpr(e)...)
	}
	if s.FusionExpr != nil {
		out = append(out, 1)
		out = append(out, EncodeExpr(*s.FusionExpr)...)
	} else {
		out = append(out, 0)
	}
	return out
}

// DecodeSearchExpr deserializes a search_expr clause written by
// EncodeSearchExpr.
func DecodeSearchExpr(buf []byte) (WireSearchExpr, error) {
	c := &cursor{buf: buf}

	knnCount, err := c.u32()
	if err != nil {
		return WireSearchExpr{}, err
	}
	knnExprs := make([]WireExpr, 0, knnCount)
	for i := uint32(0); i < knnCount; i++ {
		e, err := decodeExpr(c)
		if err != nil {
			return WireSearchExpr{}, err
		}
		knnExprs = append(knnExprs, e)
	}

	matchCount, err := c.u32()
	if err != nil {
		return WireSearchExpr{}, err
	}
	matchExprs := make([]WireExpr, 0, matchCount)
	for i := uint32(0); i < matchCount; i++ {
		e, err := decodeExpr(c)
		if err != nil {
			return WireSearchExpr{}, err
		}
		matchExprs = append(matchExprs, e)
	}

	hasFusion, err := c.byteVal()
	if err != nil {
		return WireSearchExpr{}, err
	}
	var fusion *WireExpr
	if hasFusion == 1 {
		e, err := decodeExpr(c)
		if err != nil {
			return WireSearchExpr{}, err
		}
		fusion = &e
	}

	return WireSearchExpr{KnnExprs: knnExprs, MatchExprs: matchExprs, FusionExpr: fusion}, nil
}
