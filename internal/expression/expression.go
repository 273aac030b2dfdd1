// Package expression provides the minimal expression tree the executors need
// to filter, join, and project rows: column references, comparisons, boolean
// logic, and constants. It exists to drive the executors named by the
// storage-engine core, not as a general SQL expression compiler.
package expression

import "fewduckdb/internal/types"

// Expression evaluates against either a single tuple (scans, filters,
// projections) or a pair of tuples from the two sides of a join.
type Expression interface {
	Evaluate(tuple *types.Tuple, schema *types.Schema) types.Value
	EvaluateJoin(left *types.Tuple, leftSchema *types.Schema, right *types.Tuple, rightSchema *types.Schema) types.Value
}

// ColumnValueExpression reads one column out of one side of a join (or the
// single input, when TupleIdx is 0 and only one side exists).
type ColumnValueExpression struct {
	TupleIdx int
	ColIdx   int
	ReturnAs types.TypeID
}

func NewColumnValue(tupleIdx, colIdx int, returnAs types.TypeID) *ColumnValueExpression {
	return &ColumnValueExpression{TupleIdx: tupleIdx, ColIdx: colIdx, ReturnAs: returnAs}
}

func (e *ColumnValueExpression) Evaluate(tuple *types.Tuple, schema *types.Schema) types.Value {
	return tuple.GetValue(schema, e.ColIdx)
}

func (e *ColumnValueExpression) EvaluateJoin(left *types.Tuple, leftSchema *types.Schema, right *types.Tuple, rightSchema *types.Schema) types.Value {
	if e.TupleIdx == 0 {
		return left.GetValue(leftSchema, e.ColIdx)
	}
	return right.GetValue(rightSchema, e.ColIdx)
}

// ComparisonType enumerates the comparison operators ComparisonExpression
// supports.
type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	LessThan
	GreaterThan
)

// ComparisonExpression compares the values of two child expressions,
// returning an INTEGER 0/1 Value carrying the tri-state result via IsNull for
// unknown, matching how the reference expression evaluator represents
// boolean results (there is no dedicated boolean type).
type ComparisonExpression struct {
	Left, Right Expression
	Op          ComparisonType
}

func NewComparison(left, right Expression, op ComparisonType) *ComparisonExpression {
	return &ComparisonExpression{Left: left, Right: right, Op: op}
}

func (e *ComparisonExpression) compare(l, r types.Value) types.Value {
	var result types.CmpBool
	switch e.Op {
	case Equal:
		result = l.CompareEqual(r)
	case NotEqual:
		result = l.CompareNotEqual(r)
	case LessThan:
		result = l.CompareLessThan(r)
	case GreaterThan:
		result = l.CompareGreaterThan(r)
	}
	return cmpBoolToValue(result)
}

func (e *ComparisonExpression) Evaluate(tuple *types.Tuple, schema *types.Schema) types.Value {
	l := e.Left.Evaluate(tuple, schema)
	r := e.Right.Evaluate(tuple, schema)
	return e.compare(l, r)
}

func (e *ComparisonExpression) EvaluateJoin(left *types.Tuple, leftSchema *types.Schema, right *types.Tuple, rightSchema *types.Schema) types.Value {
	l := e.Left.EvaluateJoin(left, leftSchema, right, rightSchema)
	r := e.Right.EvaluateJoin(left, leftSchema, right, rightSchema)
	return e.compare(l, r)
}

func cmpBoolToValue(c types.CmpBool) types.Value {
	if c == types.CmpNull {
		return types.NewNull(types.Integer)
	}
	if c == types.CmpTrue {
		return types.NewInteger(1)
	}
	return types.NewInteger(0)
}

// LogicType enumerates the boolean connectives LogicExpression supports.
type LogicType int

const (
	And LogicType = iota
	Or
)

// LogicExpression combines two boolean-valued (Evaluate returning an
// INTEGER 0/1 or NULL) child expressions with AND/OR, using standard SQL
// three-valued logic short-circuiting.
type LogicExpression struct {
	Left, Right Expression
	Op          LogicType
}

func NewLogic(left, right Expression, op LogicType) *LogicExpression {
	return &LogicExpression{Left: left, Right: right, Op: op}
}

func truthOf(v types.Value) types.CmpBool {
	if v.IsNull() {
		return types.CmpNull
	}
	if v.AsInteger() != 0 {
		return types.CmpTrue
	}
	return types.CmpFalse
}

func (e *LogicExpression) combine(l, r types.Value) types.Value {
	lt, rt := truthOf(l), truthOf(r)
	switch e.Op {
	case And:
		if lt == types.CmpFalse || rt == types.CmpFalse {
			return cmpBoolToValue(types.CmpFalse)
		}
		if lt == types.CmpNull || rt == types.CmpNull {
			return cmpBoolToValue(types.CmpNull)
		}
		return cmpBoolToValue(types.CmpTrue)
	default: // Or
		if lt == types.CmpTrue || rt == types.CmpTrue {
			return cmpBoolToValue(types.CmpTrue)
		}
		if lt == types.CmpNull || rt == types.CmpNull {
			return cmpBoolToValue(types.CmpNull)
		}
		return cmpBoolToValue(types.CmpFalse)
	}
}

func (e *LogicExpression) Evaluate(tuple *types.Tuple, schema *types.Schema) types.Value {
	return e.combine(e.Left.Evaluate(tuple, schema), e.Right.Evaluate(tuple, schema))
}

func (e *LogicExpression) EvaluateJoin(left *types.Tuple, leftSchema *types.Schema, right *types.Tuple, rightSchema *types.Schema) types.Value {
	return e.combine(
		e.Left.EvaluateJoin(left, leftSchema, right, rightSchema),
		e.Right.EvaluateJoin(left, leftSchema, right, rightSchema),
	)
}

// ConstantValueExpression always evaluates to the same fixed Value,
// regardless of tuple.
type ConstantValueExpression struct {
	Value types.Value
}

func NewConstant(v types.Value) *ConstantValueExpression { return &ConstantValueExpression{Value: v} }

func (e *ConstantValueExpression) Evaluate(*types.Tuple, *types.Schema) types.Value { return e.Value }

func (e *ConstantValueExpression) EvaluateJoin(*types.Tuple, *types.Schema, *types.Tuple, *types.Schema) types.Value {
	return e.Value
}
