package infix

import (
	"testing"

	"github.com/alecthomas/repr"
)

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		name string
		src  string
		n    *Node
	}{
		{"var", "x", v("x")},
		{"neg", "-x", NewOp(Multiplication, num(-1), v("x"))},
		{"sub3", "1-2-3", NewOp(Subtraction, NewOp(Subtraction, num(1), num(2)), num(3))},
		{"div3", "1/2/4", NewOp(Division, NewOp(Division, num(1), num(2)), num(4))},
		{"add4", "a+b+c+d", NewOp(Addition, NewOp(Addition, NewOp(Addition, v("a"), v("b")), v("c")), v("d"))},
		{"add-right", "a+(b+c)", NewOp(Addition, NewOp(Addition, v("a"), v("b")), v("c"))},
		{"add-right3", "a+(b+(c+d))", NewOp(Addition, NewOp(Addition, NewOp(Addition, v("a"), v("b")), v("c")), v("d"))},
		{"mul-right4", "a*(b*(c*(d*e)))", NewOp(Multiplication, NewOp(Multiplication, NewOp(Multiplication, NewOp(Multiplication, v("a"), v("b")), v("c")), v("d")), v("e"))},
		{"add-sub", "a+(b-c)", NewOp(Subtraction, NewOp(Addition, v("a"), v("b")), v("c"))},
		{"mul-div", "a*(b/c)", NewOp(Division, NewOp(Multiplication, v("a"), v("b")), v("c"))},
		{"sub-right", "a-(b-c)", NewOp(Subtraction, v("a"), NewOp(Subtraction, v("b"), v("c")))},
		{"div-right", "a/(b*c)", NewOp(Division, v("a"), NewOp(Multiplication, v("b"), v("c")))},
		{"add-mul", "a+b*c", NewOp(Addition, v("a"), NewOp(Multiplication, v("b"), v("c")))},
		{"chain-right", "a+b+(c+d)", NewOp(Addition, NewOp(Addition, NewOp(Addition, v("a"), v("b")), v("c")), v("d"))},
		{"neg-inner", "a*-b", NewOp(Multiplication, NewOp(Multiplication, v("a"), num(-1)), v("b"))},
		{"negpow", "-x^2", NewOp(Power, NewOp(Multiplication, num(-1), v("x")), num(2))},
		{"and3", "AND(a, b, c)", NewOp(And, NewOp(And, v("a"), v("b")), v("c"))},
		{"and1", "AND(a)", v("a")},
		{"or-right", "OR(a, OR(b, c))", NewOp(Or, NewOp(Or, v("a"), v("b")), v("c"))},
		{"mean3", "MEAN(a, b+(c+d), e)", NewOp(Mean, v("a"), NewOp(Addition, NewOp(Addition, v("b"), v("c")), v("d")), v("e"))},
		{"call", "SIN(a+(b+c))", NewOp(Sine, NewOp(Addition, NewOp(Addition, v("a"), v("b")), v("c")))},
		{"lag", "-LAG(x, 1)", NewOp(Multiplication, num(-1), NewLagged("x", 1, 1))},
		{"subfn", "g(x) + 1", NewOp(Addition, NewSubFunction("g", []string{"x"}, nil), num(1))},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			Canonicalize(a)
			if !a.Expr().Equal(c.n) {
				t.Errorf("wrong canonical form of %q:\n\twant %v\n\tgot  %v", c.src, c.n, a.Expr())
			}
		})
	}
}

func TestCanonicalizeConstructed(t *testing.T) {
	cases := []struct {
		name string
		in   *Node
		n    *Node
	}{
		{
			name: "weight",
			in:   NewVariable("x", 3),
			n:    NewOp(Multiplication, num(3), v("x")),
		},
		{
			name: "lag-weight",
			in:   NewLagged("x", -1, 0.5),
			n:    NewOp(Multiplication, num(0.5), NewLagged("x", -1, 1)),
		},
		{
			name: "binfactor-weight",
			in:   NewBinaryFactor("f", "a", 2),
			n:    NewOp(Multiplication, num(2), NewBinaryFactor("f", "a", 1)),
		},
		{
			name: "factor",
			in:   NewFactor("f", 1, 2),
			n:    NewFactor("f", 1, 2),
		},
		{
			name: "subfn",
			in:   NewSubFunction("g", []string{"x"}, NewOp(Addition, v("x"), NewVariable("y", 2))),
			n:    NewOp(Addition, v("x"), NewOp(Multiplication, num(2), v("y"))),
		},
		{
			name: "subfn-nested",
			in:   NewOp(Multiplication, v("a"), NewSubFunction("g", nil, NewSubFunction("h", nil, v("b")))),
			n:    NewOp(Multiplication, v("a"), v("b")),
		},
		{
			name: "add1",
			in:   NewOp(Addition, v("x")),
			n:    v("x"),
		},
		{
			name: "mul1",
			in:   NewOp(Multiplication, NewOp(Addition, v("x"), v("y"))),
			n:    NewOp(Addition, v("x"), v("y")),
		},
		{
			name: "div1",
			in:   NewOp(Division, v("x")),
			n:    NewOp(Division, num(1), v("x")),
		},
		{
			name: "sub1",
			in:   NewOp(Subtraction, v("x")),
			n:    NewOp(Subtraction, v("x")),
		},
		{
			name: "xor-right",
			in:   NewOp(Xor, v("a"), NewOp(Xor, v("b"), NewOp(Xor, v("c"), v("d")))),
			n:    NewOp(Xor, NewOp(Xor, NewOp(Xor, v("a"), v("b")), v("c")), v("d")),
		},
		{
			name: "add-sub1",
			in:   NewOp(Addition, v("a"), NewOp(Subtraction, v("b"))),
			n:    NewOp(Addition, v("a"), NewOp(Subtraction, v("b"))),
		},
		{
			name: "div4",
			in:   NewOp(Division, v("a"), v("b"), v("c"), v("d")),
			n:    NewOp(Division, NewOp(Division, NewOp(Division, v("a"), v("b")), v("c")), v("d")),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := NewTree(c.in)
			Canonicalize(a)
			if !a.Expr().Equal(c.n) {
				t.Errorf("wrong canonical form:\n\twant %v\n\tgot  %v", c.n, a.Expr())
			}
		})
	}
}

func TestCanonicalizeNoSentinels(t *testing.T) {
	a := &Tree{Root: NewVariable("x", -1)}
	Canonicalize(a)
	if want := NewOp(Multiplication, num(-1), v("x")); !a.Root.Equal(want) {
		t.Errorf("wrong canonical form: want %v, got %v", want, a.Root)
	}
}

var canonsrcs = []string{
	"x",
	"-x",
	"1-2-3",
	"a+b+c+d",
	"a+(b+(c+(d+e)))",
	"a*(b*(c/d))",
	"a-(b+c)-(d-e)",
	"x1 * (3.0 * x2 + x3)",
	"-(a+b) * -c / -2",
	"SIN(a + (b + c)) ^ 2",
	"AND(a, OR(b, c, d), XOR(e, f))",
	"AND(a, b*c)",
	"a*AND(b, c)",
	"MEAN(a, -b, c + (d + e))",
	"IF(a, -LAG(x, 2), f = red) + g[1, -2]",
	"<NUM=1.5> * x + <NUM>",
	"h(x, y) * (1 + (2 + 3))",
}

func TestCanonicalizeIdempotent(t *testing.T) {
	for _, src := range canonsrcs {
		t.Run(src, func(t *testing.T) {
			a, err := ParseString(src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", src, err)
			}
			Canonicalize(a)
			b := a.Clone()
			Canonicalize(b)
			if !a.Equal(b) {
				t.Errorf("second canonicalization changed the tree:\n\tonce  %v\n\ttwice %v", a, b)
			}
		})
	}
}

func TestCanonicalInvariants(t *testing.T) {
	for _, src := range canonsrcs {
		t.Run(src, func(t *testing.T) {
			a, err := ParseString(src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", src, err)
			}
			Canonicalize(a)
			a.Expr().walk(func(n *Node) {
				switch {
				case n.Symbol.isVariable() && n.Weight != 1:
					t.Errorf("weighted variable %v in %s", n, repr.String(a.Expr()))
				case n.Symbol.IsOperator() && len(n.Children) > 2:
					t.Errorf("operator %v has %d operands", n.Symbol, len(n.Children))
				case n.Symbol == SubFunction && len(n.Children) != 0:
					t.Errorf("sub-function wrapper %v remains", n)
				}
			})
		})
	}
}
