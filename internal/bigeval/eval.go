// Package bigeval evaluates expression trees with arbitrary-precision
// floating-point arithmetic.
package bigeval

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/infix"
)

// Context is a context for evaluating expressions. It holds variable values
// and the precision of calculations. It is not safe to modify a Context
// concurrently.
type Context struct {
	names  map[string]*big.Float
	lagged map[lagkey]*big.Float
	levels map[string]string
	orders map[string][]string
	prec   uint
}

type lagkey struct {
	name string
	lag  int
}

// ContextOption is an option used when creating a context.
type ContextOption interface {
	ctxOption()
}

type (
	varopt struct {
		name string
		val  *big.Float
	}
	varsopt   map[string]*big.Float
	laggedopt struct {
		name string
		lag  int
		val  *big.Float
	}
	levelopt struct {
		name, level string
	}
	levelsopt struct {
		name   string
		levels []string
	}
	precopt uint
)

func (varopt) ctxOption()    {}
func (varsopt) ctxOption()   {}
func (laggedopt) ctxOption() {}
func (levelopt) ctxOption()  {}
func (levelsopt) ctxOption() {}
func (precopt) ctxOption()   {}

// SetVar sets the value of a variable in the context.
func SetVar(name string, val *big.Float) ContextOption {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables in the context.
func SetVars(vars map[string]*big.Float) ContextOption {
	return varsopt(vars)
}

// SetLagged sets the value a variable had lag steps away. Lagged references
// with lag 0 fall back to the plain variable.
func SetLagged(name string, lag int, val *big.Float) ContextOption {
	return laggedopt{name, lag, val}
}

// SetLevel sets the current level of a categorical variable.
func SetLevel(name, level string) ContextOption {
	return levelopt{name, level}
}

// SetLevels sets the ordered list of levels of a categorical variable. Factor
// variables select their weights by the index of the current level in this
// list.
func SetLevels(name string, levels ...string) ContextOption {
	return levelsopt{name, levels}
}

// Prec sets the precision of calculations.
func Prec(prec uint) ContextOption {
	return precopt(prec)
}

// NewContext creates a new evaluation context. If no precision is given, the
// default is 64.
func NewContext(opts ...ContextOption) *Context {
	ctx := Context{prec: 64}
	return ctx.Clone(opts...)
}

// Clone creates a copy of a context and applies options to it.
func (ctx *Context) Clone(opts ...ContextOption) *Context {
	n := Context{
		names:  make(map[string]*big.Float, len(ctx.names)),
		lagged: make(map[lagkey]*big.Float, len(ctx.lagged)),
		levels: make(map[string]string, len(ctx.levels)),
		orders: make(map[string][]string, len(ctx.orders)),
		prec:   ctx.prec,
	}
	// First, check for a precision setting. Loop backward so we apply the last
	// precision.
	for i := len(opts) - 1; i >= 0; i-- {
		if p, ok := opts[i].(precopt); ok {
			n.prec = uint(p)
			break
		}
	}
	for name, val := range ctx.names {
		n.names[name] = n.float().Set(val)
	}
	for k, val := range ctx.lagged {
		n.lagged[k] = n.float().Set(val)
	}
	for k, v := range ctx.levels {
		n.levels[k] = v
	}
	for k, v := range ctx.orders {
		n.orders[k] = v
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = n.float().Set(opt.val)
		case varsopt:
			for k, v := range opt {
				n.names[k] = n.float().Set(v)
			}
		case laggedopt:
			n.lagged[lagkey{opt.name, opt.lag}] = n.float().Set(opt.val)
		case levelopt:
			n.levels[opt.name] = opt.level
		case levelsopt:
			n.orders[opt.name] = append([]string(nil), opt.levels...)
		case precopt:
			// Already done. Do nothing.
		default:
			panic("bigeval: unknown option type")
		}
	}
	return &n
}

// Set sets the value of a variable. Returns ctx for chaining.
func (ctx *Context) Set(name string, value *big.Float) *Context {
	ctx.names[name] = ctx.float().Set(value)
	return ctx
}

// Lookup returns a copy of the value of a variable. If there is no such
// variable in the context, then the result is nil.
func (ctx *Context) Lookup(name string) *big.Float {
	v := ctx.names[name]
	if v == nil {
		return nil
	}
	return new(big.Float).Copy(v)
}

// Prec returns the precision to which values are computed in the context.
func (ctx *Context) Prec() uint {
	return ctx.prec
}

func (ctx *Context) float() *big.Float {
	return new(big.Float).SetPrec(ctx.prec)
}

// EvalTree evaluates the expression of a tree.
func (ctx *Context) EvalTree(t *infix.Tree) (*big.Float, error) {
	return ctx.Eval(t.Expr())
}

// Eval evaluates the subtree rooted at n. Trees need not be canonical.
func (ctx *Context) Eval(n *infix.Node) (*big.Float, error) {
	switch n.Symbol {
	case infix.Number:
		if math.IsNaN(n.Value) {
			return nil, &DomainError{Func: "number"}
		}
		return ctx.float().SetFloat64(n.Value), nil
	case infix.Variable:
		v := ctx.names[n.Name]
		if v == nil {
			return nil, &NameError{Name: n.Name}
		}
		return ctx.weighted(v, n.Weight), nil
	case infix.LaggedVariable:
		v := ctx.lagged[lagkey{n.Name, n.Lag}]
		if v == nil && n.Lag == 0 {
			v = ctx.names[n.Name]
		}
		if v == nil {
			return nil, &NameError{Name: n.Name, Lag: n.Lag}
		}
		return ctx.weighted(v, n.Weight), nil
	case infix.FactorVariable:
		level, ok := ctx.levels[n.Name]
		if !ok {
			return nil, &NameError{Name: n.Name}
		}
		for i, l := range ctx.orders[n.Name] {
			if l != level {
				continue
			}
			if i >= len(n.Weights) {
				break
			}
			return ctx.float().SetFloat64(n.Weights[i]), nil
		}
		return nil, &NameError{Name: n.Name + "=" + level}
	case infix.BinaryFactorVariable:
		level, ok := ctx.levels[n.Name]
		if !ok {
			return nil, &NameError{Name: n.Name}
		}
		if level != n.Level {
			return ctx.float(), nil
		}
		return ctx.float().SetFloat64(n.Weight), nil
	case infix.SubFunction:
		if len(n.Children) != 1 {
			return nil, &NameError{Name: n.Name, Func: true}
		}
		return ctx.Eval(n.Children[0])
	case infix.Root, infix.Start:
		if len(n.Children) != 1 {
			return nil, &ShapeError{Symbol: n.Symbol, Len: len(n.Children)}
		}
		return ctx.Eval(n.Children[0])
	}
	f := funcs[n.Symbol]
	if f == nil {
		return nil, &ShapeError{Symbol: n.Symbol, Len: len(n.Children)}
	}
	if min, max := n.Symbol.Arity(); len(n.Children) < min || len(n.Children) > max {
		return nil, &ShapeError{Symbol: n.Symbol, Len: len(n.Children)}
	}
	invoc := make([]*big.Float, len(n.Children))
	for i, c := range n.Children {
		v, err := ctx.Eval(c)
		if err != nil {
			return nil, err
		}
		invoc[i] = v
	}
	r := ctx.float()
	if err := f.Call(ctx, invoc, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (ctx *Context) weighted(v *big.Float, w float64) *big.Float {
	r := ctx.float().Set(v)
	if w == 1 {
		return r
	}
	return r.Mul(r, ctx.float().SetFloat64(w))
}

// EvalString is a shortcut to parse and evaluate a string expression.
func EvalString(src string, opts ...ContextOption) (*big.Float, error) {
	t, err := infix.ParseString(src)
	if err != nil {
		return nil, err
	}
	return NewContext(opts...).EvalTree(t)
}

// NameError is an error from a lookup for a variable or sub-function that is
// missing from the evaluation context.
type NameError struct {
	// Name is the name that was missing.
	Name string
	// Lag is the time offset of a missing lagged variable.
	Lag int
	// Func indicates a sub-function without a body.
	Func bool
}

func (err *NameError) Error() string {
	if err.Func {
		return "undefined function: " + strconv.Quote(err.Name)
	}
	if err.Lag != 0 {
		return "undefined variable: " + strconv.Quote(err.Name) + " at lag " + strconv.Itoa(err.Lag)
	}
	return "undefined variable: " + strconv.Quote(err.Name)
}

// ShapeError is an error from evaluating a node with a symbol that cannot be
// evaluated or with the wrong number of children.
type ShapeError struct {
	Symbol infix.Symbol
	Len    int
}

func (err *ShapeError) Error() string {
	return "cannot evaluate " + err.Symbol.String() + " with " + strconv.Itoa(err.Len) + " operands"
}
