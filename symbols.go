package infix

import (
	"strconv"
	"strings"
)

// Symbol identifies the kind of a tree node.
type Symbol int8

const (
	symNone Symbol = iota

	// Root and Start are the sentinels wrapping every parsed expression.
	Root
	Start

	// Terminals.
	Number
	Variable
	LaggedVariable
	FactorVariable
	BinaryFactorVariable

	// SubFunction is a named wrapper around a single body subtree.
	SubFunction

	// Operators.
	Addition
	Subtraction
	Multiplication
	Division
	Power
	And
	Or
	Xor
	Not

	// Functions.
	Sine
	Cosine
	Tangent
	HyperbolicTangent
	Exponential
	Logarithm
	SquareRoot
	Square
	Cube
	CubeRoot
	Absolute
	AnalyticQuotient
	RootOf
	IfThenElse
	Mean

	symCount
)

// maxArgs is the arity limit of n-ary symbols.
const maxArgs = 255

type symbolInfo struct {
	name     string
	min, max int
	op       bool
}

var symbols = [symCount]symbolInfo{
	symNone:              {"None", 0, 0, false},
	Root:                 {"Root", 1, 1, false},
	Start:                {"Start", 1, 1, false},
	Number:               {"Number", 0, 0, false},
	Variable:             {"Variable", 0, 0, false},
	LaggedVariable:       {"LaggedVariable", 0, 0, false},
	FactorVariable:       {"FactorVariable", 0, 0, false},
	BinaryFactorVariable: {"BinaryFactorVariable", 0, 0, false},
	SubFunction:          {"SubFunction", 0, 1, false},
	Addition:             {"Addition", 1, maxArgs, true},
	Subtraction:          {"Subtraction", 1, maxArgs, true},
	Multiplication:       {"Multiplication", 1, maxArgs, true},
	Division:             {"Division", 1, maxArgs, true},
	Power:                {"Power", 2, 2, true},
	And:                  {"And", 1, maxArgs, true},
	Or:                   {"Or", 1, maxArgs, true},
	Xor:                  {"Xor", 1, maxArgs, true},
	Not:                  {"Not", 1, 1, true},
	Sine:                 {"Sine", 1, 1, false},
	Cosine:               {"Cosine", 1, 1, false},
	Tangent:              {"Tangent", 1, 1, false},
	HyperbolicTangent:    {"HyperbolicTangent", 1, 1, false},
	Exponential:          {"Exponential", 1, 1, false},
	Logarithm:            {"Logarithm", 1, 1, false},
	SquareRoot:           {"SquareRoot", 1, 1, false},
	Square:               {"Square", 1, 1, false},
	Cube:                 {"Cube", 1, 1, false},
	CubeRoot:             {"CubeRoot", 1, 1, false},
	Absolute:             {"Absolute", 1, 1, false},
	AnalyticQuotient:     {"AnalyticQuotient", 2, 2, false},
	RootOf:               {"RootOf", 2, 2, false},
	IfThenElse:           {"IfThenElse", 3, 3, false},
	Mean:                 {"Mean", 1, maxArgs, false},
}

func (s Symbol) valid() bool {
	return s > symNone && s < symCount
}

func (s Symbol) String() string {
	if s < 0 || s >= symCount {
		return "Symbol(" + strconv.Itoa(int(s)) + ")"
	}
	return symbols[s].name
}

// Arity returns the inclusive bounds on the number of children a node of the
// symbol may have.
func (s Symbol) Arity() (min, max int) {
	if !s.valid() {
		return 0, 0
	}
	return symbols[s].min, symbols[s].max
}

// IsOperator returns whether the symbol prints as an infix or prefix
// operator rather than as a function call.
func (s Symbol) IsOperator() bool {
	return s.valid() && symbols[s].op
}

// IsTerminal returns whether the symbol is a leaf symbol.
func (s Symbol) IsTerminal() bool {
	switch s {
	case Number, Variable, LaggedVariable, FactorVariable, BinaryFactorVariable:
		return true
	default:
		return false
	}
}

// isVariable returns whether the symbol is a leaf that carries a weight.
func (s Symbol) isVariable() bool {
	switch s {
	case Variable, LaggedVariable, BinaryFactorVariable:
		return true
	default:
		return false
	}
}

// Registry maps display tokens to symbols and back.
type Registry struct {
	bytoken map[string]Symbol
	tokens  map[Symbol]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bytoken: make(map[string]Symbol),
		tokens:  make(map[Symbol]string),
	}
}

// Register adds a token for a symbol. Lookups of the token ignore case. The
// first token registered for a symbol is the one used to display it.
func (r *Registry) Register(token string, sym Symbol) {
	r.bytoken[strings.ToUpper(token)] = sym
	if _, ok := r.tokens[sym]; !ok {
		r.tokens[sym] = token
	}
}

// Lookup finds the symbol for a token, ignoring case.
func (r *Registry) Lookup(token string) (Symbol, bool) {
	s, ok := r.bytoken[strings.ToUpper(token)]
	return s, ok
}

// Token returns the display token of a symbol.
func (r *Registry) Token(sym Symbol) (string, bool) {
	t, ok := r.tokens[sym]
	return t, ok
}

// Clone copies the registry.
func (r *Registry) Clone() *Registry {
	n := &Registry{
		bytoken: make(map[string]Symbol, len(r.bytoken)),
		tokens:  make(map[Symbol]string, len(r.tokens)),
	}
	for k, v := range r.bytoken {
		n.bytoken[k] = v
	}
	for k, v := range r.tokens {
		n.tokens[k] = v
	}
	return n
}

var defaulttokens = []struct {
	token string
	sym   Symbol
}{
	{"+", Addition},
	{"-", Subtraction},
	{"*", Multiplication},
	{"/", Division},
	{"^", Power},
	{"POW", Power},
	{"AND", And},
	{"OR", Or},
	{"XOR", Xor},
	{"NOT", Not},
	{"SIN", Sine},
	{"COS", Cosine},
	{"TAN", Tangent},
	{"TANH", HyperbolicTangent},
	{"EXP", Exponential},
	{"LOG", Logarithm},
	{"SQRT", SquareRoot},
	{"SQR", Square},
	{"CUBE", Cube},
	{"CUBEROOT", CubeRoot},
	{"ABS", Absolute},
	{"AQ", AnalyticQuotient},
	{"ROOT", RootOf},
	{"IF", IfThenElse},
	{"MEAN", Mean},
}

// DefaultSymbols creates a registry holding the standard tokens.
func DefaultSymbols() *Registry {
	r := NewRegistry()
	for _, t := range defaulttokens {
		r.Register(t.token, t.sym)
	}
	return r
}

// globalsyms is the registry used when no other is given. It is never
// modified.
var globalsyms = DefaultSymbols()
