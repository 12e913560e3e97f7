package ir

import (
	"go/constant"
	"go/token"
	"math"
)

var binaryTokens = map[Op]token.Token{
	OpAdd: token.ADD,
	OpSub: token.SUB,
	OpMul: token.MUL,
	OpRem: token.REM,
	OpAnd: token.AND,
	OpOr:  token.OR,
	OpXor: token.XOR,
	OpEq:  token.EQL,
	OpNe:  token.NEQ,
	OpLt:  token.LSS,
	OpLe:  token.LEQ,
	OpGt:  token.GTR,
	OpGe:  token.GEQ,
}

// EvalBinary folds x op y. It reports false when the operation cannot be
// folded: mismatched or unsupported operand types, division by zero, or an
// int result outside the 64-bit range.
func EvalBinary(op Op, x, y *Const) (*Const, bool) {
	if !op.IsBinary() || !Identical(x.Type, y.Type) {
		return nil, false
	}
	typ := x.Type
	switch typ.Kind {
	case TypeInt, TypeBool, TypeFloat:
	default:
		return nil, false
	}

	if op.IsComparison() {
		if typ.Kind == TypeBool && op != OpEq && op != OpNe {
			return nil, false
		}
		return NewBool(constant.Compare(x.Value, binaryTokens[op], y.Value)), true
	}

	var v constant.Value
	switch typ.Kind {
	case TypeBool:
		switch op {
		case OpAnd:
			v = constant.BinaryOp(x.Value, token.LAND, y.Value)
		case OpOr:
			v = constant.BinaryOp(x.Value, token.LOR, y.Value)
		case OpXor:
			v = constant.MakeBool(constant.BoolVal(x.Value) != constant.BoolVal(y.Value))
		default:
			return nil, false
		}

	case TypeInt:
		switch op {
		case OpDiv, OpRem:
			if constant.Sign(y.Value) == 0 {
				return nil, false
			}
			tok := token.QUO_ASSIGN // integer division
			if op == OpRem {
				tok = token.REM
			}
			v = constant.BinaryOp(x.Value, tok, y.Value)
		case OpShl, OpShr:
			s, ok := constant.Uint64Val(y.Value)
			if !ok || s >= 64 {
				return nil, false
			}
			tok := token.SHL
			if op == OpShr {
				tok = token.SHR
			}
			v = constant.Shift(x.Value, tok, uint(s))
		default:
			v = constant.BinaryOp(x.Value, binaryTokens[op], y.Value)
		}
		if _, exact := constant.Int64Val(v); !exact {
			return nil, false
		}

	case TypeFloat:
		switch op {
		case OpAdd, OpSub, OpMul:
			v = constant.BinaryOp(x.Value, binaryTokens[op], y.Value)
		case OpDiv:
			if constant.Sign(y.Value) == 0 {
				return nil, false
			}
			v = constant.BinaryOp(x.Value, token.QUO, y.Value)
		default:
			return nil, false
		}
		f, _ := constant.Float64Val(v)
		if math.IsInf(f, 0) {
			return nil, false
		}
		v = constant.MakeFloat64(f)
	}

	return &Const{Value: v, Type: typ}, true
}

// EvalUnary folds op x.
func EvalUnary(op Op, x *Const) (*Const, bool) {
	switch {
	case op == OpNot && x.Type.Kind == TypeBool:
		return NewBool(!constant.BoolVal(x.Value)), true
	case op == OpNot && x.Type.Kind == TypeInt:
		return &Const{Value: constant.UnaryOp(token.XOR, x.Value, 0), Type: x.Type}, true
	case op == OpNeg && (x.Type.Kind == TypeInt || x.Type.Kind == TypeFloat):
		v := constant.UnaryOp(token.SUB, x.Value, 0)
		if x.Type.Kind == TypeInt {
			if _, exact := constant.Int64Val(v); !exact {
				return nil, false
			}
		}
		return &Const{Value: v, Type: x.Type}, true
	}
	return nil, false
}

// IsTrue reports whether c is the bool constant true.
func (c *Const) IsTrue() bool {
	return c.Value.Kind() == constant.Bool && constant.BoolVal(c.Value)
}

// IsZero reports whether c is the integer constant 0.
func (c *Const) IsZero() bool {
	return c.Value.Kind() == constant.Int && constant.Sign(c.Value) == 0
}

// Same reports whether c and d are the same typed constant.
func (c *Const) Same(d *Const) bool {
	return Identical(c.Type, d.Type) && c.Value.Kind() == d.Value.Kind() &&
		constant.Compare(c.Value, token.EQL, d.Value)
}
