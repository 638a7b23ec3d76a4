package bigeval_test

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"testing"

	"github.com/zephyrtronium/infix"
	"github.com/zephyrtronium/infix/internal/bigeval"
)

func near(x, y float64) bool {
	if x == y {
		return true
	}
	return math.Abs(x-y) <= 1e-15*math.Max(math.Abs(x), math.Abs(y))
}

func TestEval(t *testing.T) {
	type vv struct {
		n string
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"inf", "1e400", []vc{{nil, math.Inf(1)}}},
		{"ident", "x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
		}},
		{"neg", "-x", []vc{
			{[]vv{{"x", 4}}, -4},
			{[]vv{{"x", -5}}, 5},
		}},
		{"add", "4+5+6", []vc{{nil, 4 + 5 + 6}}},
		{"sub", "4-5-6", []vc{{nil, 4 - 5 - 6}}},
		{"mul", "4*5*6", []vc{{nil, 4 * 5 * 6}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"pow", "2^10", []vc{{nil, 1024}}},
		{"pow-neg", "POW(2, -2)", []vc{{nil, 0.25}}},
		{"pow-negbase", "(-2)^3", []vc{{nil, -8}}},
		{"pow-frac", "16^0.5", []vc{{nil, 4}}},
		{"pow-zero", "0^0.5", []vc{{nil, 0}}},
		{"prec", "x1 * (3.0 * x2 + x3)", []vc{
			{[]vv{{"x1", 2}, {"x2", 3}, {"x3", 4}}, 26},
			{[]vv{{"x1", 0}, {"x2", 3}, {"x3", 4}}, 0},
		}},
		{"exp", "EXP(0)", []vc{{nil, 1}}},
		{"log", "LOG(1)", []vc{{nil, 0}}},
		{"log-zero", "LOG(0)", []vc{{nil, math.Inf(-1)}}},
		{"sqrt", "SQRT(16)", []vc{{nil, 4}}},
		{"sqr", "SQR(-3)", []vc{{nil, 9}}},
		{"cube", "CUBE(-2)", []vc{{nil, -8}}},
		{"cuberoot", "CUBEROOT(-27)", []vc{{nil, -3}}},
		{"abs", "ABS(-3)", []vc{{nil, 3}}},
		{"sin", "SIN(0)", []vc{{nil, 0}}},
		{"cos", "COS(0)", []vc{{nil, 1}}},
		{"tan", "TAN(0)", []vc{{nil, 0}}},
		{"tanh", "TANH(0)", []vc{{nil, 0}}},
		{"aq", "AQ(3, 0)", []vc{{nil, 3}}},
		{"root", "ROOT(16, 2)", []vc{{nil, 4}}},
		{"if", "IF(x, 2, 3)", []vc{
			{[]vv{{"x", 1}}, 2},
			{[]vv{{"x", 0}}, 3},
			{[]vv{{"x", -1}}, 3},
		}},
		{"mean", "MEAN(1, 2, 3, 4)", []vc{{nil, 2.5}}},
		{"and", "AND(x, y)", []vc{
			{[]vv{{"x", 1}, {"y", 2}}, 1},
			{[]vv{{"x", 1}, {"y", 0}}, -1},
		}},
		{"or", "OR(x, y)", []vc{
			{[]vv{{"x", -1}, {"y", 0}}, -1},
			{[]vv{{"x", -1}, {"y", 3}}, 1},
		}},
		{"xor", "XOR(x, y, 1)", []vc{
			{[]vv{{"x", 1}, {"y", 1}}, 1},
			{[]vv{{"x", 1}, {"y", 0}}, -1},
		}},
		{"not", "NOT(x)", []vc{
			{[]vv{{"x", 1}}, -1},
			{[]vv{{"x", 0}}, 1},
		}},
		{"param", "<NUM=2.5> * x", []vc{{[]vv{{"x", 2}}, 5}}},
	}
	ctx := bigeval.NewContext(bigeval.Prec(64))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := infix.ParseString(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				ctx := ctx.Clone()
				for _, x := range v.vars {
					ctx.Set(x.n, new(big.Float).SetFloat64(x.v))
				}
				r, err := ctx.EvalTree(a)
				if err != nil {
					t.Fatal("evaluation error:", err)
				}
				if r == nil {
					t.Fatal("nil result")
				}
				if f, _ := r.Float64(); !near(f, v.r) {
					t.Errorf("wrong result: want %g, got %g", v.r, r)
				}
				// The canonical form must give the same result.
				b := a.Clone()
				infix.Canonicalize(b)
				q, err := ctx.EvalTree(b)
				if err != nil {
					t.Fatal("canonical evaluation error:", err)
				}
				if r.Cmp(q) != 0 {
					t.Errorf("canonical form gives %g, original gives %g", q, r)
				}
			}
		})
	}
}

func TestEvalVariables(t *testing.T) {
	ctx := bigeval.NewContext(
		bigeval.SetVar("x", big.NewFloat(3)),
		bigeval.SetLagged("x", 1, big.NewFloat(5)),
		bigeval.SetLagged("x", -2, big.NewFloat(7)),
		bigeval.SetLevels("f", "lo", "mid", "hi"),
		bigeval.SetLevel("f", "mid"),
	)
	cases := []struct {
		name string
		n    *infix.Node
		r    float64
	}{
		{"var-weight", infix.NewVariable("x", -2), -6},
		{"lag", infix.NewLagged("x", 1, 1), 5},
		{"lag-neg", infix.NewLagged("x", -2, 1), 7},
		{"lag-zero", infix.NewLagged("x", 0, 1), 3},
		{"lag-weight", infix.NewLagged("x", 1, 0.5), 2.5},
		{"factor", infix.NewFactor("f", 10, 20, 30), 20},
		{"binfactor", infix.NewBinaryFactor("f", "mid", 4), 4},
		{"binfactor-other", infix.NewBinaryFactor("f", "hi", 4), 0},
		{"subfn", infix.NewSubFunction("g", []string{"x"}, infix.NewOp(infix.Addition, infix.NewVariable("x", 1), infix.NewNumber(1))), 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := ctx.Eval(c.n)
			if err != nil {
				t.Fatalf("evaluating %v: %v", c.n, err)
			}
			if f, _ := r.Float64(); f != c.r {
				t.Errorf("wrong result: want %g, got %g", c.r, r)
			}
		})
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []string
		lag  int
	}{
		{"x", "x", []string{"x"}, 0},
		{"neg", "-x", []string{"x"}, 0},
		{"add-lhs", "x+1", []string{"x"}, 0},
		{"sub-rhs", "1-x", []string{"x"}, 0},
		{"div-rhs", "1/x", []string{"x"}, 0},
		{"pow-lhs", "x^2", []string{"x"}, 0},
		{"call", "EXP(x)", []string{"x"}, 0},
		{"lag", "LAG(x, 2)", []string{"x"}, 2},
		{"factor", "f[1, 2]", []string{"f"}, 0},
		{"binfactor", "f = a", []string{"f"}, 0},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	ctx := bigeval.NewContext(bigeval.Prec(64))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := infix.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := a.Vars(); !reflect.DeepEqual(c.r, v) {
				t.Errorf("%q gave wrong variables: want %q, got %q", c.src, c.r, v)
			}
			r, err := ctx.EvalTree(a)
			if r != nil {
				t.Errorf("evaluating %q gave non-nil result %g", c.src, r)
			}
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			u, ok := err.(*bigeval.NameError)
			if !ok {
				t.Fatalf("error was %#v, not NameError", err)
			}
			if u.Lag != c.lag {
				t.Errorf("wrong lag: want %d, got %d", c.lag, u.Lag)
			}
			msg := err.Error()
			if !ure.MatchString(msg) {
				t.Errorf(`%q doesn't mention "undef"`, msg)
			}
			if !vre.MatchString(msg) {
				t.Errorf(`%q doesn't mention "var"`, msg)
			}
			for _, v := range c.r {
				if v == u.Name {
					xre := regexp.MustCompile(`\b` + v + `\b`)
					if !xre.MatchString(msg) {
						t.Errorf(`%q doesn't mention %q`, msg, v)
					}
					return
				}
			}
			t.Errorf("NameError on %q, not in %q", u.Name, c.r)
		})
	}
}

func TestEvalUndefFunc(t *testing.T) {
	r, err := bigeval.EvalString("g(x) + 1", bigeval.SetVar("x", big.NewFloat(1)))
	if r != nil {
		t.Errorf("got non-nil result %g", r)
	}
	u, ok := err.(*bigeval.NameError)
	if !ok {
		t.Fatalf("error was %#v, not NameError", err)
	}
	if !u.Func || u.Name != "g" {
		t.Errorf("wrong NameError: %+v", u)
	}
	if !regexp.MustCompile(`(?i)\bfunc`).MatchString(err.Error()) {
		t.Errorf("%q doesn't mention function", err.Error())
	}
}

func TestEvalDomainError(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"sqrt", "SQRT(-1)"},
		{"log", "LOG(-1)"},
		{"div-zero", "0/0"},
		{"div-inf", "1e400/1e400"},
		{"sub-inf", "1e400 - 1e400"},
		{"mul-inf", "0 * 1e400"},
		{"pow-neg", "(-1)^0.5"},
		{"root-zero", "ROOT(4, 0)"},
		{"sin-inf", "SIN(1e400)"},
		{"nested", "1 + EXP(SQRT(-4))"},
	}
	ctx := bigeval.NewContext(bigeval.Prec(64))
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := infix.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			r, err := ctx.EvalTree(a)
			if r != nil {
				t.Errorf("evaluating %q gave non-nil result %g", c.src, r)
			}
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			if !errors.As(err, new(*bigeval.DomainError)) {
				t.Errorf("%#v is not a *bigeval.DomainError", err)
			}
			if !regexp.MustCompile(`(?i)\bdomain\b`).MatchString(err.Error()) {
				t.Errorf("%q doesn't mention domain", err.Error())
			}
		})
	}
}

func TestEvalShapeError(t *testing.T) {
	cases := []struct {
		name string
		n    *infix.Node
	}{
		{"pow1", infix.NewOp(infix.Power, infix.NewNumber(1))},
		{"sin0", infix.NewOp(infix.Sine)},
		{"if2", infix.NewOp(infix.IfThenElse, infix.NewNumber(1), infix.NewNumber(2))},
		{"root0", infix.NewOp(infix.Root)},
		{"unknown", infix.NewOp(infix.Symbol(100), infix.NewNumber(1))},
	}
	ctx := bigeval.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, err := ctx.Eval(c.n)
			if r != nil {
				t.Errorf("evaluating %v gave non-nil result %g", c.n, r)
			}
			if _, ok := err.(*bigeval.ShapeError); !ok {
				t.Errorf("error was %#v, not ShapeError", err)
			}
		})
	}
}

func TestContext(t *testing.T) {
	ctx := bigeval.NewContext(bigeval.SetVar("x", big.NewFloat(1)), bigeval.Prec(32), bigeval.Prec(128))
	if p := ctx.Prec(); p != 128 {
		t.Errorf("wrong precision: want 128, got %d", p)
	}
	if v := ctx.Lookup("x"); v == nil || v.Prec() != 128 {
		t.Errorf("wrong value for x: %v", v)
	}
	v := ctx.Lookup("x")
	v.SetInt64(5)
	if w := ctx.Lookup("x"); w.Cmp(big.NewFloat(1)) != 0 {
		t.Errorf("Lookup returned shared value, now %g", w)
	}
	c := ctx.Clone(bigeval.SetVar("y", big.NewFloat(2)))
	c.Set("x", big.NewFloat(3))
	if ctx.Lookup("y") != nil {
		t.Error("clone shares variables with the original")
	}
	if w := ctx.Lookup("x"); w.Cmp(big.NewFloat(1)) != 0 {
		t.Errorf("setting in clone changed original to %g", w)
	}
	if ctx.Lookup("z") != nil {
		t.Error("missing variable is non-nil")
	}
}

func ExampleEvalString() {
	r, err := bigeval.EvalString("x1 * (3.0 * x2 + x3)",
		bigeval.SetVar("x1", big.NewFloat(2)),
		bigeval.SetVar("x2", big.NewFloat(3)),
		bigeval.SetVar("x3", big.NewFloat(4)),
	)
	if err != nil {
		panic(err)
	}
	fmt.Println(r)
	// Output: 26
}
