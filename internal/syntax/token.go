// Package syntax implements the scanner and parser for the textual form of
// the instruction IR.
package syntax

import "fmt"

// Token represents the type of a lexical token.
type Token uint

const (
	// Special tokens
	_EOF Token = iota // end of file

	// Names and literals
	_Name       // identifier or mnemonic: store, entry, int
	_LocalName  // %x
	_GlobalName // @g
	_Literal    // number literal (used with LitKind)

	// Delimiters
	_Assign // =
	_Star   // *
	_Lparen // (
	_Rparen // )
	_Lbrack // [
	_Rbrack // ]
	_Lbrace // {
	_Rbrace // }
	_Comma  // ,
	_Semi   // ; or newline
	_Colon  // :

	// Keywords
	_Func
	_Global

	tokenCount
)

// tokenNames maps tokens to their string representation.
var tokenNames = [...]string{
	_EOF: "EOF",

	_Name:       "NAME",
	_LocalName:  "LOCAL",
	_GlobalName: "GLOBAL",
	_Literal:    "LITERAL",

	_Assign: "=",
	_Star:   "*",
	_Lparen: "(",
	_Rparen: ")",
	_Lbrack: "[",
	_Rbrack: "]",
	_Lbrace: "{",
	_Rbrace: "}",
	_Comma:  ",",
	_Semi:   ";",
	_Colon:  ":",

	_Func:   "func",
	_Global: "global",
}

// String returns the string representation of the token.
func (tok Token) String() string {
	if int(tok) < len(tokenNames) {
		return tokenNames[tok]
	}
	return fmt.Sprintf("token(%d)", tok)
}

// keywords maps keyword strings to their tokens.
var keywords = map[string]Token{
	"func":   _Func,
	"global": _Global,
}

// LookupKeyword returns the keyword token for name, or _Name.
func LookupKeyword(name string) Token {
	if tok, ok := keywords[name]; ok {
		return tok
	}
	return _Name
}

// LitKind describes the kind of a number literal.
type LitKind uint8

const (
	IntLit LitKind = iota
	FloatLit
)
