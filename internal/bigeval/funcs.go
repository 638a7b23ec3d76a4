package bigeval

import (
	"errors"
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
	"github.com/zephyrtronium/infix"
)

// Func evaluates a symbol. The operand values are passed in invoc, whose
// length is within the symbol's arity. The function must set r to its result
// and should not use the value of r otherwise. Call may modify the elements
// of invoc.
type Func interface {
	Call(ctx *Context, invoc []*big.Float, r *big.Float) error
}

// FuncOf adapts a function to Func.
type FuncOf func(ctx *Context, invoc []*big.Float, r *big.Float) error

func (f FuncOf) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	return f(ctx, invoc, r)
}

var funcs map[infix.Symbol]Func

func init() {
	funcs = map[infix.Symbol]Func{
		infix.Addition:       FuncOf(add),
		infix.Subtraction:    FuncOf(sub),
		infix.Multiplication: FuncOf(mul),
		infix.Division:       FuncOf(div),
		infix.Power: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			return pow(r, invoc[0], invoc[1])
		}),
		infix.And: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			for _, x := range invoc {
				if x.Sign() <= 0 {
					return truth(r, false)
				}
			}
			return truth(r, true)
		}),
		infix.Or: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			for _, x := range invoc {
				if x.Sign() > 0 {
					return truth(r, true)
				}
			}
			return truth(r, false)
		}),
		infix.Xor: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			k := 0
			for _, x := range invoc {
				if x.Sign() > 0 {
					k++
				}
			}
			return truth(r, k%2 == 1)
		}),
		infix.Not: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			return truth(r, invoc[0].Sign() <= 0)
		}),
		infix.Sine:              Float64(math.Sin),
		infix.Cosine:            Float64(math.Cos),
		infix.Tangent:           Float64(math.Tan),
		infix.HyperbolicTangent: Float64(math.Tanh),
		infix.CubeRoot:          Float64(math.Cbrt),
		infix.Exponential:       Monadic(bigfloat.Exp),
		infix.Logarithm: Monadic(func(out, in *big.Float) *big.Float {
			switch in.Sign() {
			case -1:
				panic(&DomainError{X: in, Func: "LOG"})
			case 0:
				return out.SetInf(true)
			}
			return bigfloat.Log(out, in)
		}),
		infix.SquareRoot: Monadic(func(out, in *big.Float) *big.Float {
			if in.Sign() < 0 {
				panic(&DomainError{X: in, Func: "SQRT"})
			}
			return out.Sqrt(in)
		}),
		infix.Square: Monadic(func(out, in *big.Float) *big.Float {
			return out.Mul(in, in)
		}),
		infix.Cube: Monadic(func(out, in *big.Float) *big.Float {
			out.Mul(in, in)
			return out.Mul(out, in)
		}),
		infix.Absolute: Monadic((*big.Float).Abs),
		infix.AnalyticQuotient: FuncOf(aq),
		infix.RootOf: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			if invoc[1].Sign() == 0 {
				return &DomainError{X: invoc[1], Arg: 2, Func: "ROOT"}
			}
			e := ctx.float().Quo(big.NewFloat(1), invoc[1])
			return pow(r, invoc[0], e)
		}),
		infix.IfThenElse: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			if invoc[0].Sign() > 0 {
				r.Set(invoc[1])
			} else {
				r.Set(invoc[2])
			}
			return nil
		}),
		infix.Mean: FuncOf(func(ctx *Context, invoc []*big.Float, r *big.Float) error {
			if err := add(ctx, invoc, r); err != nil {
				return err
			}
			r.Quo(r, new(big.Float).SetInt64(int64(len(invoc))))
			return nil
		}),
	}
}

// truth sets r to 1 or -1.
func truth(r *big.Float, b bool) error {
	if b {
		r.SetInt64(1)
	} else {
		r.SetInt64(-1)
	}
	return nil
}

func add(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	defer catchNaN(&err, "+")
	r.Set(invoc[0])
	for _, x := range invoc[1:] {
		r.Add(r, x)
	}
	return nil
}

func sub(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	defer catchNaN(&err, "-")
	if len(invoc) == 1 {
		r.Neg(invoc[0])
		return nil
	}
	r.Set(invoc[0])
	for _, x := range invoc[1:] {
		r.Sub(r, x)
	}
	return nil
}

func mul(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	defer catchNaN(&err, "*")
	r.Set(invoc[0])
	for _, x := range invoc[1:] {
		r.Mul(r, x)
	}
	return nil
}

func div(ctx *Context, invoc []*big.Float, r *big.Float) error {
	if len(invoc) == 1 {
		invoc = []*big.Float{big.NewFloat(1), invoc[0]}
	}
	r.Set(invoc[0])
	for _, x := range invoc[1:] {
		// Guard against invalid divisions, 0/0 or inf/inf.
		if r.Sign() == 0 && x.Sign() == 0 || r.IsInf() && x.IsInf() {
			return &DomainError{X: x, Func: "/"}
		}
		r.Quo(r, x)
	}
	return nil
}

// aq computes the analytic quotient a / sqrt(1 + b^2).
func aq(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	defer catchNaN(&err, "AQ")
	d := ctx.float().Mul(invoc[1], invoc[1])
	d.Add(d, big.NewFloat(1))
	d.Sqrt(d)
	r.Quo(invoc[0], d)
	return nil
}

// pow sets z to x^y. Negative bases are allowed only with integer exponents.
func pow(z, x, y *big.Float) (err error) {
	defer catchNaN(&err, "^")
	if y.IsInt() {
		if n, acc := y.Int64(); acc == big.Exact {
			powint(z, x, n)
			return nil
		}
	}
	switch {
	case x.Signbit():
		return &DomainError{X: x, Func: "^"}
	case x.Sign() == 0:
		if y.Sign() > 0 {
			z.SetInt64(0)
		} else {
			z.SetInf(false)
		}
		return nil
	case x.IsInf(), y.IsInf():
		xf, _ := x.Float64()
		yf, _ := y.Float64()
		z.SetFloat64(math.Pow(xf, yf))
		return nil
	}
	bigfloat.Pow(z, x, y)
	return nil
}

// powint sets z to x^n by repeated squaring.
func powint(z, x *big.Float, n int64) {
	neg := n < 0
	if neg {
		n = -n
	}
	b := new(big.Float).SetPrec(z.Prec()).Set(x)
	z.SetInt64(1)
	for n > 0 {
		if n&1 != 0 {
			z.Mul(z, b)
		}
		b.Mul(b, b)
		n >>= 1
	}
	if neg {
		if z.Sign() == 0 {
			z.SetInf(false)
			return
		}
		z.Quo(new(big.Float).SetInt64(1), z)
	}
}

// catchNaN converts a big.ErrNaN panic into a DomainError.
func catchNaN(err *error, fn string) {
	r := recover()
	if r == nil {
		return
	}
	e, _ := r.(error)
	if e == nil || !errors.As(e, new(big.ErrNaN)) {
		panic(r)
	}
	*err = &DomainError{Func: fn}
}

type monadic struct {
	f func(out, in *big.Float) *big.Float
}

func (m monadic) Call(ctx *Context, invoc []*big.Float, r *big.Float) (err error) {
	in := invoc[0]
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = r.(error) // panic if not error
		if errors.As(err, new(*DomainError)) {
			return
		}
		if errors.As(err, new(big.ErrNaN)) {
			err = &DomainError{X: in}
			return
		}
		panic(err)
	}()
	r.SetPrec(ctx.Prec())
	m.f(r, in)
	return nil
}

// Monadic wraps a function of one variable into a Func. f must set out to its
// result, to the precision of out; its return value is always ignored. If f is
// called on an argument outside f's domain, it should panic with an error of
// type big.ErrNaN or *DomainError, or that unwraps to one.
func Monadic(f func(out, in *big.Float) *big.Float) Func {
	return monadic{f}
}

type float64fn struct {
	f func(float64) float64
}

func (m float64fn) Call(ctx *Context, invoc []*big.Float, r *big.Float) error {
	x, _ := invoc[0].Float64()
	y := m.f(x)
	if math.IsNaN(y) {
		return &DomainError{X: invoc[0]}
	}
	r.SetFloat64(y)
	return nil
}

// Float64 wraps a float64 function of one variable into a Func. The function
// is computed to float64 precision regardless of the context's precision.
func Float64(f func(float64) float64) Func {
	return float64fn{f}
}

// DomainError is an error returned when a function is called on arguments
// outside its domain.
type DomainError struct {
	// X is the out-of-domain argument, if known.
	X *big.Float
	// Arg is the 1-based index of the argument.
	Arg int
	// Func is a name identifying the function.
	Func string
}

func (err *DomainError) Error() string {
	r := "NaN"
	if err.X != nil {
		r = err.X.String()
	}
	r += " outside domain"
	if err.Func != "" {
		r += " of " + err.Func
	}
	if err.Arg > 0 {
		r += " (argument " + strconv.Itoa(err.Arg) + ")"
	}
	return r
}
