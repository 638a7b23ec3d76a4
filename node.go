package infix

import (
	"strconv"
	"strings"
)

// Node is a node of an expression tree. Which fields are meaningful depends on
// Symbol:
//
//	Number                Value, Param
//	Variable              Name, Weight
//	LaggedVariable        Name, Lag, Weight
//	FactorVariable        Name, Weights
//	BinaryFactorVariable  Name, Level, Weight
//	SubFunction           Name, Args, and at most one child as the body
//	everything else       Children
//
// A node belongs to exactly one parent.
type Node struct {
	Symbol Symbol

	// Value is the value of a number.
	Value float64
	// Param marks a number as a tunable parameter rather than a fixed
	// constant.
	Param bool

	// Name is a variable or sub-function name.
	Name string
	// Weight is the coefficient of a variable.
	Weight float64
	// Lag is the time offset of a lagged variable.
	Lag int
	// Weights holds one coefficient per level of a factor variable.
	Weights []float64
	// Level is the value a binary factor variable selects.
	Level string
	// Args is the argument names of a sub-function.
	Args []string

	Children []*Node
}

// NewNumber creates a fixed numeric constant.
func NewNumber(v float64) *Node {
	return &Node{Symbol: Number, Value: v}
}

// NewParam creates a tunable numeric parameter.
func NewParam(v float64) *Node {
	return &Node{Symbol: Number, Value: v, Param: true}
}

// NewVariable creates a weighted variable reference.
func NewVariable(name string, weight float64) *Node {
	return &Node{Symbol: Variable, Name: name, Weight: weight}
}

// NewLagged creates a weighted reference to a variable lag steps away.
func NewLagged(name string, lag int, weight float64) *Node {
	return &Node{Symbol: LaggedVariable, Name: name, Lag: lag, Weight: weight}
}

// NewFactor creates a factor variable with one weight per level.
func NewFactor(name string, weights ...float64) *Node {
	return &Node{Symbol: FactorVariable, Name: name, Weights: weights}
}

// NewBinaryFactor creates a weighted indicator of a variable being equal to
// level.
func NewBinaryFactor(name, level string, weight float64) *Node {
	return &Node{Symbol: BinaryFactorVariable, Name: name, Level: level, Weight: weight}
}

// NewOp creates an operator or function node.
func NewOp(sym Symbol, children ...*Node) *Node {
	return &Node{Symbol: sym, Children: children}
}

// NewSubFunction creates a sub-function node. body may be nil for a
// sub-function whose body is not yet known.
func NewSubFunction(name string, args []string, body *Node) *Node {
	n := &Node{Symbol: SubFunction, Name: name, Args: args}
	if body != nil {
		n.Children = []*Node{body}
	}
	return n
}

// Clone creates a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	m := *n
	if n.Weights != nil {
		m.Weights = append([]float64(nil), n.Weights...)
	}
	if n.Args != nil {
		m.Args = append([]string(nil), n.Args...)
	}
	if n.Children != nil {
		m.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			m.Children[i] = c.Clone()
		}
	}
	return &m
}

// Equal reports whether two subtrees have the same shape and payloads.
func (n *Node) Equal(m *Node) bool {
	if n == nil || m == nil {
		return n == m
	}
	if n.Symbol != m.Symbol || len(n.Children) != len(m.Children) {
		return false
	}
	switch n.Symbol {
	case Number:
		if n.Value != m.Value || n.Param != m.Param {
			return false
		}
	case Variable:
		if n.Name != m.Name || n.Weight != m.Weight {
			return false
		}
	case LaggedVariable:
		if n.Name != m.Name || n.Lag != m.Lag || n.Weight != m.Weight {
			return false
		}
	case FactorVariable:
		if n.Name != m.Name || len(n.Weights) != len(m.Weights) {
			return false
		}
		for i, w := range n.Weights {
			if w != m.Weights[i] {
				return false
			}
		}
	case BinaryFactorVariable:
		if n.Name != m.Name || n.Level != m.Level || n.Weight != m.Weight {
			return false
		}
	case SubFunction:
		if n.Name != m.Name || len(n.Args) != len(m.Args) {
			return false
		}
		for i, a := range n.Args {
			if a != m.Args[i] {
				return false
			}
		}
	}
	for i, c := range n.Children {
		if !c.Equal(m.Children[i]) {
			return false
		}
	}
	return true
}

// String creates a fully bracketed prefix representation of the subtree,
// intended for debugging.
func (n *Node) String() string {
	var b strings.Builder
	n.dump(&b, false)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, square bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	if n == nil {
		b.WriteString("nil")
		return
	}
	b.WriteString(n.Symbol.String())
	switch n.Symbol {
	case Number:
		b.WriteByte(' ')
		if n.Param {
			b.WriteByte('~')
		}
		b.WriteString(formatNum(n.Value))
	case Variable, BinaryFactorVariable, LaggedVariable:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.Name))
		if n.Symbol == BinaryFactorVariable {
			b.WriteByte('=')
			b.WriteString(strconv.Quote(n.Level))
		}
		if n.Symbol == LaggedVariable {
			b.WriteByte('@')
			b.WriteString(strconv.Itoa(n.Lag))
		}
		if n.Weight != 1 {
			b.WriteByte('*')
			b.WriteString(formatNum(n.Weight))
		}
	case FactorVariable:
		b.WriteByte(' ')
		b.WriteString(strconv.Quote(n.Name))
		b.WriteByte('[')
		for i, w := range n.Weights {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(formatNum(w))
		}
		b.WriteByte(']')
	case SubFunction:
		b.WriteByte(' ')
		b.WriteString(n.Name)
		b.WriteString(strconv.Quote(strings.Join(n.Args, ",")))
	}
	for _, c := range n.Children {
		b.WriteByte(' ')
		c.dump(b, !square)
	}
}

// Tree is an expression wrapped in the Root and Start sentinel nodes.
type Tree struct {
	Root *Node
}

// NewTree wraps an expression in sentinel nodes.
func NewTree(expr *Node) *Tree {
	return &Tree{Root: NewOp(Root, NewOp(Start, expr))}
}

// start returns the Start sentinel of the tree, or nil if the tree does not
// have the usual shape.
func (t *Tree) start() *Node {
	if t == nil || t.Root == nil || t.Root.Symbol != Root || len(t.Root.Children) != 1 {
		return nil
	}
	s := t.Root.Children[0]
	if s.Symbol != Start {
		return nil
	}
	return s
}

// Expr returns the expression below the sentinel nodes. If the tree does not
// have sentinels, the result is the root itself.
func (t *Tree) Expr() *Node {
	s := t.start()
	if s == nil {
		return t.Root
	}
	if len(s.Children) == 0 {
		return nil
	}
	return s.Children[0]
}

// Clone creates a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{Root: t.Root.Clone()}
}

// Equal reports whether two trees are structurally equal.
func (t *Tree) Equal(u *Tree) bool {
	return t.Root.Equal(u.Root)
}

func (t *Tree) String() string {
	return t.Root.String()
}

// Vars returns the sorted names of variables used in the tree.
func (t *Tree) Vars() []string {
	seen := make(map[string]bool)
	t.Root.walk(func(n *Node) {
		switch n.Symbol {
		case Variable, LaggedVariable, FactorVariable, BinaryFactorVariable:
			seen[n.Name] = true
		}
	})
	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sortstrs(names)
	return names
}

// Params returns the tunable number nodes in the tree in prefix order.
func (t *Tree) Params() []*Node {
	var p []*Node
	t.Root.walk(func(n *Node) {
		if n.Symbol == Number && n.Param {
			p = append(p, n)
		}
	})
	return p
}

// walk calls f on each node of the subtree in prefix order.
func (n *Node) walk(f func(*Node)) {
	if n == nil {
		return
	}
	f(n)
	for _, c := range n.Children {
		c.walk(f)
	}
}

// sortstrs sorts a string slice without using package sort because that has
// reflection and allocation problems.
func sortstrs(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j] < names[j-1]; j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}
