package infix

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Param is a number replaced by a generated name in parameterized output.
type Param struct {
	Name  string
	Value float64
}

// Printer formats canonical trees as infix text.
type Printer struct {
	// Symbols provides display tokens. If nil, the default tokens are used.
	Symbols *Registry
}

// Format formats a canonical tree with the default tokens.
func Format(t *Tree) (string, error) {
	var p Printer
	return p.Format(t)
}

// FormatParams formats a canonical tree with the default tokens, replacing
// each number with a generated name c_0, c_1, and so on.
func FormatParams(t *Tree) (string, []Param, error) {
	var p Printer
	return p.FormatParams(t)
}

// String canonicalizes a copy of t and formats it with the default tokens.
func String(t *Tree) (string, error) {
	t = t.Clone()
	Canonicalize(t)
	return Format(t)
}

// Format formats a canonical tree. The result has only the parentheses needed
// to parse back to a tree with the same value. Boolean operators print infix,
// as in 'a' AND 'b', which the parser does not read back.
func (p *Printer) Format(t *Tree) (string, error) {
	s, _, err := p.format(t, false)
	return s, err
}

// FormatParams formats a canonical tree, replacing each number with a
// generated name. The returned params list the names with their values in the
// order they appear in the text.
func (p *Printer) FormatParams(t *Tree) (string, []Param, error) {
	return p.format(t, true)
}

type fmtctx struct {
	b      strings.Builder
	syms   *Registry
	params []Param
	// param indicates that numbers are replaced by names.
	param bool
}

func (p *Printer) format(t *Tree, param bool) (string, []Param, error) {
	f := fmtctx{syms: p.Symbols, param: param}
	if f.syms == nil {
		f.syms = globalsyms
	}
	n := t.Expr()
	if n == nil {
		return "", nil, &FormatError{Symbol: Start, Reason: "no expression"}
	}
	if err := f.node(n, nil, 0); err != nil {
		return "", nil, err
	}
	return f.b.String(), f.params, nil
}

// node formats n as operand slot of parent, adding parentheses if needed.
func (f *fmtctx) node(n, parent *Node, slot int) error {
	if n.Symbol == SubFunction && len(n.Children) == 1 {
		return f.node(n.Children[0], parent, slot)
	}
	paren := RequiresParenthesis(parent, n, slot)
	if paren {
		f.b.WriteByte('(')
	}
	if err := f.write(n); err != nil {
		return err
	}
	if paren {
		f.b.WriteByte(')')
	}
	return nil
}

func (f *fmtctx) write(n *Node) error {
	op := n.Symbol.IsOperator()
	switch len(n.Children) {
	case 0:
		return f.leaf(n)
	case 1:
		if !op {
			return f.call(n)
		}
		tok, err := f.token(n)
		if err != nil {
			return err
		}
		switch n.Symbol {
		case Subtraction, Not:
			f.b.WriteString(tok)
			if c := tok[len(tok)-1]; 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' {
				f.b.WriteByte(' ')
			}
			return f.node(n.Children[0], n, 0)
		default:
			return &FormatError{Symbol: n.Symbol, Children: 1, Reason: "operator has a single operand"}
		}
	case 2:
		if !op {
			return f.call(n)
		}
		tok, err := f.token(n)
		if err != nil {
			return err
		}
		if err := f.node(n.Children[0], n, 0); err != nil {
			return err
		}
		f.b.WriteByte(' ')
		f.b.WriteString(tok)
		f.b.WriteByte(' ')
		return f.node(n.Children[1], n, 1)
	default:
		if op {
			return &FormatError{Symbol: n.Symbol, Children: len(n.Children), Reason: "operator has more than two operands"}
		}
		return f.call(n)
	}
}

func (f *fmtctx) token(n *Node) (string, error) {
	tok, ok := f.syms.Token(n.Symbol)
	if !ok || tok == "" {
		return "", &FormatError{Symbol: n.Symbol, Children: len(n.Children), Reason: "no display token"}
	}
	return tok, nil
}

// call formats a function application.
func (f *fmtctx) call(n *Node) error {
	if n.Symbol == Root || n.Symbol == Start {
		return &FormatError{Symbol: n.Symbol, Children: len(n.Children), Reason: "sentinel inside expression"}
	}
	tok, err := f.token(n)
	if err != nil {
		return err
	}
	f.b.WriteString(tok)
	f.b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			f.b.WriteString(", ")
		}
		if err := f.node(c, n, i); err != nil {
			return err
		}
	}
	f.b.WriteByte(')')
	return nil
}

func (f *fmtctx) leaf(n *Node) error {
	switch n.Symbol {
	case Number:
		if f.param {
			name := "c_" + strconv.Itoa(len(f.params))
			f.params = append(f.params, Param{Name: name, Value: n.Value})
			f.b.WriteString(name)
			return nil
		}
		f.b.WriteString(formatNum(n.Value))
	case Variable:
		if n.Weight != 1 {
			return &FormatError{Symbol: n.Symbol, Reason: "variable " + strconv.Quote(n.Name) + " has weight " + formatNum(n.Weight)}
		}
		f.b.WriteString(quote(n.Name))
	case LaggedVariable:
		if n.Weight != 1 {
			return &FormatError{Symbol: n.Symbol, Reason: "variable " + strconv.Quote(n.Name) + " has weight " + formatNum(n.Weight)}
		}
		f.b.WriteString("LAG(")
		f.b.WriteString(quote(n.Name))
		f.b.WriteString(", ")
		f.b.WriteString(strconv.Itoa(n.Lag))
		f.b.WriteByte(')')
	case FactorVariable:
		f.b.WriteString(quote(n.Name))
		f.b.WriteByte('[')
		for i, w := range n.Weights {
			if i > 0 {
				f.b.WriteString(", ")
			}
			f.b.WriteString(formatNum(w))
		}
		f.b.WriteByte(']')
	case BinaryFactorVariable:
		if n.Weight != 1 {
			return &FormatError{Symbol: n.Symbol, Reason: "variable " + strconv.Quote(n.Name) + " has weight " + formatNum(n.Weight)}
		}
		f.b.WriteString(quote(n.Name))
		f.b.WriteString(" = ")
		f.b.WriteString(quote(n.Level))
	case SubFunction:
		// A sub-function without a body prints as a call of its arguments.
		f.b.WriteString(funcname(n.Name))
		f.b.WriteByte('(')
		for i, a := range n.Args {
			if i > 0 {
				f.b.WriteString(", ")
			}
			f.b.WriteString(quote(a))
		}
		f.b.WriteByte(')')
	default:
		return &FormatError{Symbol: n.Symbol, Reason: "no operands"}
	}
	return nil
}

// RequiresParenthesis reports whether child, the operand in position slot of
// parent, must be parenthesized. parent may be nil.
func RequiresParenthesis(parent, child *Node, slot int) bool {
	if parent == nil || parent.Symbol == Root || parent.Symbol == Start {
		return false
	}
	if !parent.Symbol.IsOperator() {
		// Function arguments are already delimited.
		return false
	}
	if parent.Symbol == Subtraction && len(parent.Children) == 1 {
		return true
	}
	if len(child.Children) == 0 || !child.Symbol.IsOperator() {
		return false
	}
	pp, cp := priority(parent.Symbol), priority(child.Symbol)
	switch {
	case pp > cp:
		return true
	case pp < cp:
		return false
	}
	switch {
	case rightassoc(parent.Symbol):
		return slot != 1
	case leftassoc(parent.Symbol), associative(parent.Symbol):
		return slot != 0
	default:
		return true
	}
}

// priority is the binding strength of an operator. Higher binds tighter.
func priority(s Symbol) int {
	switch s {
	case Addition, Subtraction, Or, Xor:
		return 1
	case Division, Multiplication, And:
		return 2
	case Power, Not:
		return 3
	default:
		return 0
	}
}

func rightassoc(s Symbol) bool {
	return s == Power || s == Not
}

// quote quotes a name with single quotes, or double quotes if the name
// contains a single quote.
func quote(name string) string {
	if strings.ContainsRune(name, '\'') {
		return `"` + name + `"`
	}
	return "'" + name + "'"
}

// funcname quotes a sub-function name unless it scans as a bare identifier.
func funcname(name string) string {
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
			continue
		}
		return quote(name)
	}
	if name == "" {
		return quote(name)
	}
	return name
}

// formatNum formats a number so that it reads back exactly. Infinities are
// written as literals that overflow.
func formatNum(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "1e999"
	case math.IsInf(v, -1):
		return "-1e999"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteParams writes a table of parameters, one per line, with names padded
// to a common width and values right-aligned.
func WriteParams(w io.Writer, params []Param) error {
	nw, vw := 0, 0
	vals := make([]string, len(params))
	for i, p := range params {
		if len(p.Name) > nw {
			nw = len(p.Name)
		}
		vals[i] = strconv.FormatFloat(p.Value, 'f', 12, 64)
		if len(vals[i]) > vw {
			vw = len(vals[i])
		}
	}
	for i, p := range params {
		if _, err := fmt.Fprintf(w, "%*s = %*s\n", nw, p.Name, vw, vals[i]); err != nil {
			return err
		}
	}
	return nil
}
