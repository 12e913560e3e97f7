package syntax

import (
	"io"
	"unicode/utf8"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// source reads an IR file one rune at a time and tracks the position of
// the current rune.
type source struct {
	buf  []byte
	offs int // offset of the byte after ch

	filename  string
	line, col uint32

	ch   rune // current rune; -1 at EOF
	errh ErrorHandler
}

// init loads the whole of src and positions s at its first rune.
func (s *source) init(filename string, src io.Reader, errh ErrorHandler) {
	*s = source{filename: filename, line: 1, ch: -1, errh: errh}
	buf, err := io.ReadAll(src)
	if err != nil {
		s.col = 1
		s.error("read: " + err.Error())
		return
	}
	s.buf = buf
	s.nextch()
}

// nextch advances to the next rune. Position (line, col) always names
// the current rune; columns count bytes from 1.
func (s *source) nextch() {
	if s.ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	if s.offs >= len(s.buf) {
		s.ch = -1
		return
	}

	r, w := rune(s.buf[s.offs]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.buf[s.offs:])
		if r == utf8.RuneError && w == 1 {
			s.error("invalid UTF-8 encoding")
		}
	}
	s.ch = r
	s.offs += w
}

func (s *source) pos() ir.Pos {
	return ir.NewPos(s.filename, s.line, s.col)
}

// error reports a lexical error at the current rune.
func (s *source) error(msg string) {
	if s.errh != nil {
		s.errh(s.pos(), msg)
	}
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// isWhitespace excludes '\n', which may end a statement.
func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

// isNameChar reports whether r may continue a name. Names may contain
// dots so block labels like loop.body scan as one token.
func isNameChar(r rune) bool {
	return isLetter(r) || isDigit(r) || r == '.'
}
