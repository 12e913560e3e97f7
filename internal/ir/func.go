package ir

// Func is a function body as a flat instruction list.
type Func struct {
	Name string

	// Params are alloc instructions holding the incoming arguments.
	Params []*Instr

	// Result is the alloc instruction of the result slot, or nil.
	Result *Instr

	Instrs []*Instr
	Pos    Pos
}

// ResultType returns the declared result type, Void when there is no
// result slot.
func (f *Func) ResultType() *Type {
	if f.Result == nil {
		return Void
	}
	return f.Result.Type.Deref()
}

// Labels returns the label instructions of f by name.
func (f *Func) Labels() map[string]*Instr {
	m := make(map[string]*Instr)
	for _, inst := range f.Instrs {
		if inst.Kind == KindLabel {
			m[inst.Name] = inst
		}
	}
	return m
}

// File is a parsed IR source file.
type File struct {
	Name    string
	Globals []*Global
	Funcs   []*Func
}

// Func returns the function called name, or nil.
func (f *File) Func(name string) *Func {
	for _, fn := range f.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
