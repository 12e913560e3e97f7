package syntax

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// Scanner tokenizes textual IR. A newline or the end of input after a
// name, literal or closing bracket reads as a semicolon.
type Scanner struct {
	source

	tok    Token
	lit    string  // name without sigil, or number text
	kind   LitKind // valid when tok == _Literal
	tokPos ir.Pos

	nlsemi bool // a newline here ends the statement
	text   strings.Builder
}

// NewScanner returns a Scanner reading src. errh receives each lexical
// error and may be nil.
func NewScanner(filename string, src io.Reader, errh ErrorHandler) *Scanner {
	s := new(Scanner)
	s.init(filename, src, errh)
	return s
}

// Next advances to the next token.
func (s *Scanner) Next() {
	nlsemi := s.nlsemi
	s.nlsemi = false
	for {
		for isWhitespace(s.ch) {
			s.nextch()
		}
		s.tokPos = s.pos()

		switch {
		case s.ch == '\n' || s.ch < 0:
			if nlsemi {
				s.tok, s.lit = _Semi, "newline"
				if s.ch < 0 {
					s.lit = "EOF"
				} else {
					s.nextch()
				}
				return
			}
			if s.ch < 0 {
				s.tok, s.lit = _EOF, ""
				return
			}
			s.nextch()
			continue

		case s.ch == '/':
			s.nextch()
			if s.ch != '/' {
				s.error("unexpected character '/'")
				continue
			}
			for s.ch != '\n' && s.ch >= 0 {
				s.nextch()
			}
			continue
		}

		if s.token() {
			s.nlsemi = s.endsStatement()
			return
		}
	}
}

func (s *Scanner) Token() Token { return s.tok }

func (s *Scanner) Literal() string { return s.lit }

// LitKind is meaningful only when Token returns a literal.
func (s *Scanner) LitKind() LitKind { return s.kind }

// Pos returns where the current token starts.
func (s *Scanner) Pos() ir.Pos { return s.tokPos }

var delims = map[rune]Token{
	'=': _Assign,
	'*': _Star,
	'(': _Lparen,
	')': _Rparen,
	'[': _Lbrack,
	']': _Rbrack,
	'{': _Lbrace,
	'}': _Rbrace,
	',': _Comma,
	';': _Semi,
	':': _Colon,
}

// token scans the token starting at s.ch. It reports false, after
// skipping the character, when no token starts there.
func (s *Scanner) token() bool {
	switch c := s.ch; {
	case isLetter(c):
		s.name()
		s.tok = LookupKeyword(s.lit)
	case c == '%':
		s.nextch()
		s.sigil(_LocalName)
	case c == '@':
		s.nextch()
		s.sigil(_GlobalName)
	case isDigit(c), c == '-':
		s.number()
	default:
		tok, ok := delims[c]
		if !ok {
			s.error(fmt.Sprintf("unexpected character %q", c))
			s.nextch()
			return false
		}
		s.tok, s.lit = tok, string(c)
		s.nextch()
	}
	return true
}

func (s *Scanner) endsStatement() bool {
	switch s.tok {
	case _Name, _LocalName, _GlobalName, _Literal, _Rparen, _Rbrack, _Rbrace:
		return true
	}
	return false
}

func (s *Scanner) take() {
	s.text.WriteRune(s.ch)
	s.nextch()
}

func (s *Scanner) name() {
	s.text.Reset()
	for isNameChar(s.ch) {
		s.take()
	}
	s.lit = s.text.String()
}

// sigil scans the name after % or @.
func (s *Scanner) sigil(tok Token) {
	s.tok = tok
	if !isNameChar(s.ch) {
		s.error("expected name after sigil")
		s.lit = "_"
		return
	}
	s.name()
}

// number scans an optionally negative decimal integer or float.
func (s *Scanner) number() {
	s.text.Reset()
	s.tok, s.kind = _Literal, IntLit
	defer func() { s.lit = s.text.String() }()

	if s.ch == '-' {
		s.take()
		if !isDigit(s.ch) {
			s.error("expected digit after '-'")
			return
		}
	}
	s.digits()
	if s.ch == '.' {
		s.kind = FloatLit
		s.take()
		s.digits()
	}
	if s.ch == 'e' || s.ch == 'E' {
		s.kind = FloatLit
		s.take()
		if s.ch == '+' || s.ch == '-' {
			s.take()
		}
		if !isDigit(s.ch) {
			s.error("exponent has no digits")
		}
		s.digits()
	}
}

func (s *Scanner) digits() {
	for isDigit(s.ch) {
		s.take()
	}
}
