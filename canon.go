package infix

// Canonicalize rewrites a tree in place into the form Format accepts:
//
//   - weighted variables become explicit multiplications by their weights;
//   - sub-function wrappers are replaced by their bodies;
//   - single-operand sums, products and boolean chains are replaced by the
//     operand, and a single-operand division d(x) becomes 1/x;
//   - n-ary +, -, *, / and the boolean chains become left-leaning chains of
//     binary nodes with the operands in their original order;
//   - a(op)(b(op2)c) becomes (a(op)b)(op2)c when op is associative and has the
//     same priority as op2.
//
// Canonicalize is idempotent. Trees must not share nodes.
func Canonicalize(t *Tree) {
	s := t.start()
	if s == nil {
		if t.Root != nil {
			t.Root = canon(t.Root)
		}
		return
	}
	for i, c := range s.Children {
		s.Children[i] = canon(c)
	}
}

// canon canonicalizes the subtree rooted at n and returns its replacement.
func canon(n *Node) *Node {
	if n.Symbol.isVariable() && n.Weight != 1 {
		v := n.Clone()
		v.Weight = 1
		return NewOp(Multiplication, NewNumber(n.Weight), v)
	}
	if n.Symbol == SubFunction && len(n.Children) == 1 {
		return canon(n.Children[0])
	}
	for i, c := range n.Children {
		n.Children[i] = canon(c)
	}
	switch len(n.Children) {
	case 1:
		switch n.Symbol {
		case Addition, Multiplication, And, Or, Xor:
			return n.Children[0]
		case Division:
			n.Children = []*Node{NewNumber(1), n.Children[0]}
		}
	case 2:
		return rotate(n)
	default:
		if (leftassoc(n.Symbol) || associative(n.Symbol)) && len(n.Children) > 2 {
			return chain(n)
		}
	}
	return n
}

// leftassoc reports whether n-ary nodes of s are evaluated left to right and
// may be rebuilt as binary chains.
func leftassoc(s Symbol) bool {
	switch s {
	case Addition, Subtraction, Multiplication, Division:
		return true
	default:
		return false
	}
}

// associative reports whether s is mathematically associative.
func associative(s Symbol) bool {
	switch s {
	case Addition, Multiplication, And, Or, Xor:
		return true
	default:
		return false
	}
}

// chain rebuilds an n-ary node as a left-leaning chain of binary nodes.
func chain(n *Node) *Node {
	acc := n.Children[0]
	for _, c := range n.Children[1 : len(n.Children)-1] {
		acc = rotate(NewOp(n.Symbol, acc, c))
	}
	n.Children = []*Node{acc, n.Children[len(n.Children)-1]}
	return rotate(n)
}

// rotate turns n(a, c(b, d)) into c(n(a, b), d) when the operators allow it.
// The new left operand is canonicalized in turn, so right-nested chains of
// any depth straighten out.
func rotate(n *Node) *Node {
	c := n.Children[1]
	if !associative(n.Symbol) || len(c.Children) != 2 || !c.Symbol.IsOperator() {
		return n
	}
	if priority(n.Symbol) != priority(c.Symbol) {
		return n
	}
	n.Children[1] = c.Children[0]
	c.Children[0] = rotate(n)
	return c
}
