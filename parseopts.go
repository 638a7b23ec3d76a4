package infix

// ParseOption is an option for parsing.
type ParseOption interface {
	parseOption(parsectx) parsectx
}

type (
	symsopt struct {
		r *Registry
	}
	funcopt struct {
		token string
		sym   Symbol
	}
)

// parsectx holds general data for parsing.
type parsectx struct {
	// syms resolves function names.
	syms *Registry
	// owned indicates that syms is a private copy which options may modify.
	owned bool
}

// ParseSymbols sets the registry used to resolve function names. The parser
// does not modify r.
func ParseSymbols(r *Registry) ParseOption {
	return &symsopt{r}
}

func (o *symsopt) parseOption(p parsectx) parsectx {
	p.syms = o.r
	p.owned = false
	return p
}

// ParseFunc adds a function name for parsing, in addition to those of the
// registry in effect.
func ParseFunc(token string, sym Symbol) ParseOption {
	return &funcopt{token, sym}
}

func (o *funcopt) parseOption(p parsectx) parsectx {
	if !p.owned {
		// Always make a copy.
		p.syms = p.syms.Clone()
		p.owned = true
	}
	p.syms.Register(o.token, o.sym)
	return p
}
