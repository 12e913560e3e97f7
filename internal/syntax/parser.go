package syntax

import (
	"go/constant"
	"go/token"
	"io"
	"os"
	"strconv"

	"github.com/you-not-fish/ssalift/internal/ir"
)

// Maximum number of errors before aborting parse.
const maxErrors = 10

// SyntaxError represents a syntax error.
type SyntaxError struct {
	Pos ir.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// ErrorHandler is called for each error found while parsing.
type ErrorHandler func(pos ir.Pos, msg string)

// Parser performs syntax analysis on textual IR.
type Parser struct {
	scanner *Scanner

	// Current token info (cached from scanner)
	tok Token
	lit string
	pos ir.Pos

	// Error handling
	errh   ErrorHandler
	errcnt int
	first  error // first error encountered
	abort  bool  // set to true when error limit reached

	file *ir.File
	fn   *funcState
}

// funcState holds the names of the function being parsed.
type funcState struct {
	fn     *ir.Func
	values map[string]*ir.Instr
	labels map[string]*ir.Instr
	placed map[string]bool
	fixups []fixup
	refs   []labelRef
}

// fixup is a reference to a value defined later in the function.
type fixup struct {
	inst *ir.Instr
	arg  int
	name string
	pos  ir.Pos
}

type labelRef struct {
	name string
	pos  ir.Pos
}

// NewParser creates a new Parser for the given source.
func NewParser(filename string, src io.Reader, errh ErrorHandler) *Parser {
	p := &Parser{
		errh: errh,
		file: &ir.File{Name: filename},
	}
	p.scanner = NewScanner(filename, src, p.lexError)
	p.next() // prime the parser with first token
	return p
}

// lexError counts lexical errors like syntax errors.
func (p *Parser) lexError(pos ir.Pos, msg string) {
	p.syntaxErrorAt(pos, msg)
}

// Parse reads a complete IR file from src.
func Parse(filename string, src io.Reader, errh ErrorHandler) (*ir.File, error) {
	p := NewParser(filename, src, errh)
	f := p.Parse()
	return f, p.FirstError()
}

// ParseFile opens and parses the named file.
func ParseFile(filename string, errh ErrorHandler) (*ir.File, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fd.Close()
	return Parse(filename, fd, errh)
}

// ----------------------------------------------------------------------------
// Token navigation

func (p *Parser) next() {
	p.scanner.Next()
	p.tok = p.scanner.Token()
	p.lit = p.scanner.Literal()
	p.pos = p.scanner.Pos()
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, reports an error.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError("expected " + tok.String() + ", found " + p.describe())
		p.advance()
	}
}

func (p *Parser) describe() string {
	switch p.tok {
	case _Name, _Literal:
		return strconv.Quote(p.lit)
	case _LocalName:
		return "%" + p.lit
	case _GlobalName:
		return "@" + p.lit
	case _Semi:
		return p.lit
	}
	return p.tok.String()
}

// ----------------------------------------------------------------------------
// Error handling

func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos, msg)
}

func (p *Parser) syntaxErrorAt(pos ir.Pos, msg string) {
	if p.abort {
		return
	}
	if p.errcnt == 0 {
		p.first = &SyntaxError{Pos: pos, Msg: msg}
	}
	p.errcnt++

	if p.errh != nil {
		p.errh(pos, msg)
	}

	if p.errcnt >= maxErrors {
		p.abort = true
		if p.errh != nil {
			p.errh(pos, "too many errors; aborting parse")
		}
		p.tok = _EOF
	}
}

// advance skips to the end of the current statement.
func (p *Parser) advance() {
	for p.tok != _EOF && p.tok != _Semi && p.tok != _Rbrace {
		p.next()
	}
	if p.tok == _Semi {
		p.next()
	}
}

// FirstError returns the first error encountered, or nil if none.
func (p *Parser) FirstError() error {
	return p.first
}

// ----------------------------------------------------------------------------
// Declarations

// Parse parses a complete source file.
func (p *Parser) Parse() *ir.File {
	for !p.abort && p.tok != _EOF {
		switch p.tok {
		case _Semi:
			p.next()
		case _Global:
			p.globalDecl()
		case _Func:
			if fn := p.funcDecl(); fn != nil {
				p.file.Funcs = append(p.file.Funcs, fn)
			}
		default:
			p.syntaxError("expected func or global, found " + p.describe())
			p.advance()
		}
	}
	return p.file
}

// globalDecl parses: global @name type
func (p *Parser) globalDecl() {
	p.want(_Global)
	if p.tok != _GlobalName {
		p.syntaxError("expected global name")
		p.advance()
		return
	}
	g := &ir.Global{Name: p.lit}
	p.next()
	g.Type = p.typ()
	p.file.Globals = append(p.file.Globals, g)
	p.want(_Semi)
}

// funcDecl parses: func name(%p T, ...) [%r T] { body }
func (p *Parser) funcDecl() *ir.Func {
	pos := p.pos
	p.want(_Func)
	if p.tok != _Name {
		p.syntaxError("expected function name")
		p.advance()
		return nil
	}
	fn := &ir.Func{Name: p.lit, Pos: pos}
	p.next()

	p.fn = &funcState{
		fn:     fn,
		values: make(map[string]*ir.Instr),
		labels: make(map[string]*ir.Instr),
		placed: make(map[string]bool),
	}
	defer func() { p.fn = nil }()

	p.want(_Lparen)
	for p.tok != _Rparen && p.tok != _EOF {
		if prm := p.slot(); prm != nil {
			fn.Params = append(fn.Params, prm)
		}
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)

	if p.tok == _LocalName {
		fn.Result = p.slot()
	}

	p.want(_Lbrace)
	for !p.abort && p.tok != _Rbrace && p.tok != _EOF {
		p.stmt()
	}
	p.want(_Rbrace)

	p.resolve()
	return fn
}

// slot parses a parameter or result slot: %name type
func (p *Parser) slot() *ir.Instr {
	if p.tok != _LocalName {
		p.syntaxError("expected %name")
		return nil
	}
	inst := &ir.Instr{Kind: ir.KindAlloc, Name: p.lit, Pos: p.pos}
	p.next()
	inst.Type = ir.NewPointer(p.typ())
	p.define(inst)
	return inst
}

// typ parses: int | bool | float | void | *T | [N]T
func (p *Parser) typ() *ir.Type {
	switch p.tok {
	case _Star:
		p.next()
		return ir.NewPointer(p.typ())
	case _Lbrack:
		p.next()
		var n int64
		if p.tok == _Literal && p.scanner.LitKind() == IntLit {
			n, _ = strconv.ParseInt(p.lit, 10, 64)
			p.next()
		} else {
			p.syntaxError("expected array length")
		}
		p.want(_Rbrack)
		return ir.NewArray(p.typ(), n)
	case _Name:
		var t *ir.Type
		switch p.lit {
		case "int":
			t = ir.Int
		case "bool":
			t = ir.Bool
		case "float":
			t = ir.Float
		case "void":
			t = ir.Void
		default:
			p.syntaxError("unknown type " + strconv.Quote(p.lit))
			t = ir.Int
		}
		p.next()
		return t
	}
	p.syntaxError("expected type, found " + p.describe())
	return ir.Int
}

// ----------------------------------------------------------------------------
// Statements

func (p *Parser) stmt() {
	switch p.tok {
	case _Semi:
		p.next()
	case _LocalName:
		p.valueStmt()
	case _Name:
		name, pos := p.lit, p.pos
		p.next()
		if p.got(_Colon) {
			p.placeLabel(name, pos)
			return
		}
		p.voidStmt(name, pos)
	default:
		p.syntaxError("expected instruction, found " + p.describe())
		p.advance()
	}
}

func (p *Parser) placeLabel(name string, pos ir.Pos) {
	if p.fn.placed[name] {
		p.syntaxErrorAt(pos, "label "+name+" redefined")
		return
	}
	p.fn.placed[name] = true
	l := p.label(name, pos)
	l.Pos = pos
	p.emit(l)
}

// label returns the label called name, creating it on first reference.
func (p *Parser) label(name string, pos ir.Pos) *ir.Instr {
	l, ok := p.fn.labels[name]
	if !ok {
		l = ir.NewLabel(name)
		p.fn.labels[name] = l
		p.fn.refs = append(p.fn.refs, labelRef{name, pos})
	}
	return l
}

func (p *Parser) labelOperand() *ir.Instr {
	if p.tok != _Name {
		p.syntaxError("expected label, found " + p.describe())
		return ir.NewLabel("_")
	}
	l := p.label(p.lit, p.pos)
	p.next()
	return l
}

func (p *Parser) emit(inst *ir.Instr) {
	p.fn.fn.Instrs = append(p.fn.fn.Instrs, inst)
}

func (p *Parser) define(inst *ir.Instr) {
	if _, dup := p.fn.values[inst.Name]; dup {
		p.syntaxErrorAt(inst.Pos, "%"+inst.Name+" redefined")
		return
	}
	p.fn.values[inst.Name] = inst
}

// valueStmt parses: %name = mnemonic operands
func (p *Parser) valueStmt() {
	inst := &ir.Instr{Name: p.lit, Pos: p.pos}
	p.next()
	p.want(_Assign)
	if p.tok != _Name {
		p.syntaxError("expected instruction, found " + p.describe())
		p.advance()
		return
	}
	mnemonic := p.lit
	p.next()

	switch mnemonic {
	case "alloc":
		inst.Kind = ir.KindAlloc
		inst.Type = ir.NewPointer(p.typ())
	case "load":
		inst.Kind = ir.KindLoad
		p.operands(inst, 1)
	case "index":
		inst.Kind = ir.KindIndex
		p.operands(inst, 2)
	case "member":
		inst.Kind = ir.KindMember
		p.operands(inst, 1)
		p.want(_Comma)
		if p.tok == _Name {
			inst.Field = p.lit
			p.next()
		} else {
			p.syntaxError("expected field name")
		}
		p.want(_Comma)
		inst.Type = ir.NewPointer(p.typ())
	case "cast":
		inst.Kind = ir.KindCast
		p.operands(inst, 1)
		if p.tok == _Name && p.lit == "to" {
			p.next()
		} else {
			p.syntaxError("expected to")
		}
		inst.Type = p.typ()
	case "select":
		inst.Kind = ir.KindSelect
		p.operands(inst, 3)
	case "call":
		inst.Kind = ir.KindCall
		inst.Type = p.typ()
		p.call(inst)
	default:
		op := ir.LookupOp(mnemonic)
		switch {
		case op.IsBinary():
			inst.Kind = ir.KindBinOp
			inst.Op = op
			p.operands(inst, 2)
		case op.IsUnary():
			inst.Kind = ir.KindUnOp
			inst.Op = op
			p.operands(inst, 1)
		default:
			p.syntaxError("unknown instruction " + strconv.Quote(mnemonic))
			p.advance()
			return
		}
	}

	p.define(inst)
	p.emit(inst)
	p.want(_Semi)
}

// voidStmt parses the instructions that define no value.
func (p *Parser) voidStmt(mnemonic string, pos ir.Pos) {
	inst := &ir.Instr{Pos: pos}
	switch mnemonic {
	case "store":
		inst.Kind = ir.KindStore
		p.operands(inst, 2)
	case "br":
		inst.Kind = ir.KindBr
		inst.Targets = []*ir.Instr{p.labelOperand()}
	case "condbr":
		inst.Kind = ir.KindCondBr
		p.operands(inst, 1)
		p.want(_Comma)
		then := p.labelOperand()
		p.want(_Comma)
		inst.Targets = []*ir.Instr{then, p.labelOperand()}
	case "ret":
		inst.Kind = ir.KindRet
		if p.tok != _Semi && p.tok != _Rbrace {
			p.operands(inst, 1)
		}
	case "call":
		inst.Kind = ir.KindCall
		inst.Type = ir.Void
		p.call(inst)
	case "unreachable":
		inst.Kind = ir.KindUnreachable
	default:
		p.syntaxErrorAt(pos, "unknown instruction "+strconv.Quote(mnemonic))
		p.advance()
		return
	}
	p.emit(inst)
	p.want(_Semi)
}

// call parses: callee(args)
func (p *Parser) call(inst *ir.Instr) {
	switch p.tok {
	case _GlobalName:
		inst.Args = append(inst.Args, &ir.FuncRef{Name: p.lit})
		p.next()
	case _LocalName:
		p.operand(inst)
	default:
		p.syntaxError("expected callee, found " + p.describe())
		inst.Args = append(inst.Args, &ir.FuncRef{Name: "_"})
	}
	p.want(_Lparen)
	for p.tok != _Rparen && p.tok != _EOF && p.tok != _Semi {
		p.operand(inst)
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)
}

// operands parses n comma-separated operands into inst.Args.
func (p *Parser) operands(inst *ir.Instr, n int) {
	for i := 0; i < n; i++ {
		if i > 0 {
			p.want(_Comma)
		}
		p.operand(inst)
	}
}

// operand parses one operand and appends it to inst.Args.
func (p *Parser) operand(inst *ir.Instr) {
	var op ir.Operand
	switch p.tok {
	case _LocalName:
		if v, ok := p.fn.values[p.lit]; ok {
			op = v
		} else {
			// patched by resolve
			p.fn.fixups = append(p.fn.fixups, fixup{inst, len(inst.Args), p.lit, p.pos})
		}
	case _GlobalName:
		op = p.global(p.lit)
	case _Literal:
		op = p.literal()
	case _Name:
		switch p.lit {
		case "true":
			op = ir.NewBool(true)
		case "false":
			op = ir.NewBool(false)
		case "undef":
			op = &ir.Undef{}
		default:
			p.syntaxError("expected operand, found " + p.describe())
			op = &ir.Undef{}
		}
	default:
		p.syntaxError("expected operand, found " + p.describe())
		inst.Args = append(inst.Args, &ir.Undef{})
		return
	}
	inst.Args = append(inst.Args, op)
	p.next()
}

func (p *Parser) global(name string) ir.Operand {
	for _, g := range p.file.Globals {
		if g.Name == name {
			return g
		}
	}
	p.syntaxError("undefined global @" + name)
	return &ir.Undef{}
}

func (p *Parser) literal() *ir.Const {
	if p.scanner.LitKind() == FloatLit {
		v := constant.MakeFromLiteral(p.lit, token.FLOAT, 0)
		if v.Kind() == constant.Unknown {
			p.syntaxError("malformed float literal " + p.lit)
		}
		f, _ := constant.Float64Val(v)
		return ir.NewFloat(f)
	}
	n, err := strconv.ParseInt(p.lit, 10, 64)
	if err != nil {
		p.syntaxError("malformed integer literal " + p.lit)
	}
	return ir.NewInt(n)
}

// ----------------------------------------------------------------------------
// Name resolution

// resolve patches forward value references, checks labels and infers
// result types.
func (p *Parser) resolve() {
	fs := p.fn
	for _, fx := range fs.fixups {
		v, ok := fs.values[fx.name]
		if !ok {
			p.syntaxErrorAt(fx.pos, "undefined value %"+fx.name)
			fx.inst.Args[fx.arg] = &ir.Undef{}
			continue
		}
		fx.inst.Args[fx.arg] = v
	}
	for _, ref := range fs.refs {
		if !fs.placed[ref.name] {
			p.syntaxErrorAt(ref.pos, "undefined label "+ref.name)
		}
	}
	for _, inst := range fs.fn.Instrs {
		inferType(inst)
	}
}

func inferType(inst *ir.Instr) {
	if inst.Type != nil {
		return
	}
	argType := func(i int) *ir.Type {
		if i < len(inst.Args) && inst.Args[i].OperandType() != nil {
			return inst.Args[i].OperandType()
		}
		return ir.Int
	}
	switch inst.Kind {
	case ir.KindLoad:
		inst.Type = argType(0).Deref()
	case ir.KindBinOp:
		if inst.Op.IsComparison() {
			inst.Type = ir.Bool
		} else {
			inst.Type = argType(0)
		}
	case ir.KindUnOp:
		inst.Type = argType(0)
	case ir.KindSelect:
		inst.Type = argType(1)
	case ir.KindIndex:
		elem := argType(0).Deref()
		if elem.Kind == ir.TypeArray {
			elem = elem.Elem
		}
		inst.Type = ir.NewPointer(elem)
	}
}
