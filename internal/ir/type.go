// Package ir defines the flat instruction IR consumed and produced by the
// SSA lifter.
package ir

import "fmt"

// TypeKind classifies a Type.
type TypeKind int

const (
	TypeInvalid TypeKind = iota
	TypeVoid
	TypeBool
	TypeInt
	TypeFloat
	TypePointer
	TypeArray
)

// Type is an IR type. Basic types are shared singletons; composite types
// are built with NewPointer and NewArray and compared with Identical.
type Type struct {
	Kind TypeKind
	Elem *Type // pointee or element type
	Len  int64 // array length
}

// Predeclared basic types.
var (
	Void  = &Type{Kind: TypeVoid}
	Bool  = &Type{Kind: TypeBool}
	Int   = &Type{Kind: TypeInt}
	Float = &Type{Kind: TypeFloat}
)

// NewPointer returns the type *elem.
func NewPointer(elem *Type) *Type {
	return &Type{Kind: TypePointer, Elem: elem}
}

// NewArray returns the type [n]elem.
func NewArray(elem *Type, n int64) *Type {
	return &Type{Kind: TypeArray, Elem: elem, Len: n}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypePointer:
		return "*" + t.Elem.String()
	case TypeArray:
		return fmt.Sprintf("[%d]%s", t.Len, t.Elem)
	}
	return "invalid"
}

// Identical reports whether x and y are structurally the same type.
func Identical(x, y *Type) bool {
	for {
		if x == y {
			return true
		}
		if x == nil || y == nil || x.Kind != y.Kind {
			return false
		}
		switch x.Kind {
		case TypePointer:
		case TypeArray:
			if x.Len != y.Len {
				return false
			}
		default:
			return true
		}
		x, y = x.Elem, y.Elem
	}
}

// IsIndexable reports whether values of t can be indexed.
func (t *Type) IsIndexable() bool {
	return t != nil && (t.Kind == TypeArray || t.Kind == TypePointer)
}

// Deref returns the pointee of a pointer type, or t itself.
func (t *Type) Deref() *Type {
	if t != nil && t.Kind == TypePointer {
		return t.Elem
	}
	return t
}
