package infix

import (
	"io"
	"math"
	"strconv"
	"strings"
)

// S          = Expr End
// Expr       = Term { ('+' | '-') Term }
// Term       = Fact { ('*' | '/') Fact }
// Fact       = SimpleFact [ '^' SimpleFact ]
// SimpleFact = '(' Expr ')' | '{' Expr '}'
//            | 'LAG' '(' varId ',' sign? integer ')'
//            | funcId '(' ArgList ')'
//            | VarExpr
//            | '<' 'NUM' [ '=' sign? number ] '>'
//            | number
//            | sign SimpleFact
// ArgList    = Expr { ',' Expr }
// VarExpr    = varId [ '=' varVal | '[' sign? number { ',' sign? number } ']' ]

// Parse parses an expression into a tree. The given options are applied in
// order.
func Parse(src io.RuneScanner, opts ...ParseOption) (*Tree, error) {
	scan := NewLexer(src)
	p := parsectx{syms: globalsyms}
	for _, opt := range opts {
		p = opt.parseOption(p)
	}
	n, err := parseexpr(scan, &p)
	if err != nil {
		return nil, err
	}
	tok, err := next(scan)
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenEnd {
		return nil, unexpected(tok, "operator or end of input")
	}
	return NewTree(n), nil
}

// ParseString is a shortcut to parse an expression from a string.
func ParseString(src string, opts ...ParseOption) (*Tree, error) {
	return Parse(strings.NewReader(src), opts...)
}

// next scans a token, converting invalid tokens to errors.
func next(scan *Lexer) (Token, error) {
	tok, err := scan.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind == TokenInvalid {
		kind := "number"
		if tok.Text == "" || tok.Text[0] < '0' || tok.Text[0] > '9' {
			kind = "quoted identifier"
		}
		return tok, &LexError{Text: tok.Text, Kind: kind, Col: tok.Pos}
	}
	return tok, nil
}

// expect scans a token and checks that it has the given kind.
func expect(scan *Lexer, kind TokenKind, want string) (Token, error) {
	tok, err := next(scan)
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, unexpected(tok, want)
	}
	return tok, nil
}

func unexpected(tok Token, want string) error {
	return &SyntaxError{Col: tok.Pos, Want: want, Got: tok}
}

// parseexpr parses a sum of terms.
func parseexpr(scan *Lexer, p *parsectx) (*Node, error) {
	n, err := parseterm(scan, p)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := next(scan)
		if err != nil {
			return nil, err
		}
		var sym Symbol
		switch {
		case tok.Kind == TokenOperator && tok.Text == "+":
			sym = Addition
		case tok.Kind == TokenOperator && tok.Text == "-":
			sym = Subtraction
		default:
			scan.push(tok)
			return foldleft(n), nil
		}
		rhs, err := parseterm(scan, p)
		if err != nil {
			return nil, err
		}
		n = NewOp(sym, n, rhs)
	}
}

// parseterm parses a product of factors.
func parseterm(scan *Lexer, p *parsectx) (*Node, error) {
	n, err := parsefact(scan, p)
	if err != nil {
		return nil, err
	}
	for {
		tok, err := next(scan)
		if err != nil {
			return nil, err
		}
		var sym Symbol
		switch {
		case tok.Kind == TokenOperator && tok.Text == "*":
			sym = Multiplication
		case tok.Kind == TokenOperator && tok.Text == "/":
			sym = Division
		default:
			scan.push(tok)
			return foldleft(n), nil
		}
		rhs, err := parsefact(scan, p)
		if err != nil {
			return nil, err
		}
		n = NewOp(sym, n, rhs)
	}
}

// parsefact parses a simple factor with at most one exponent. Exponents do
// not chain: x^y^z is a syntax error.
func parsefact(scan *Lexer, p *parsectx) (*Node, error) {
	n, err := parsesimple(scan, p)
	if err != nil {
		return nil, err
	}
	tok, err := next(scan)
	if err != nil {
		return nil, err
	}
	if tok.Kind != TokenOperator || tok.Text != "^" {
		scan.push(tok)
		return n, nil
	}
	rhs, err := parsesimple(scan, p)
	if err != nil {
		return nil, err
	}
	return NewOp(Power, n, rhs), nil
}

// parsesimple parses a bracketed expression, call, variable, parameter,
// number, or signed simple factor.
func parsesimple(scan *Lexer, p *parsectx) (*Node, error) {
	tok, err := next(scan)
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokenLeftPar:
		n, err := parseexpr(scan, p)
		if err != nil {
			return nil, err
		}
		if _, err := closepar(scan, tok); err != nil {
			return nil, err
		}
		return n, nil
	case TokenIdent:
		la, err := scan.peek()
		if err != nil {
			return nil, err
		}
		if la.Kind == TokenLeftPar {
			if strings.EqualFold(tok.Text, "LAG") {
				return parselag(scan)
			}
			return parsecall(scan, p, tok)
		}
		return parsevar(scan, tok)
	case TokenLeftAngle:
		return parseparam(scan)
	case TokenNumber:
		return NewNumber(tok.Value), nil
	case TokenOperator:
		switch tok.Text {
		case "+":
			return parsesimple(scan, p)
		case "-":
			n, err := parsesimple(scan, p)
			if err != nil {
				return nil, err
			}
			return negate(n), nil
		}
	}
	return nil, unexpected(tok, "expression")
}

// closepar scans the bracket closing open.
func closepar(scan *Lexer, open Token) (Token, error) {
	want := ")"
	if open.Text == "{" {
		want = "}"
	}
	tok, err := next(scan)
	if err != nil {
		return tok, err
	}
	if tok.Kind != TokenRightPar || tok.Text != want {
		return tok, unexpected(tok, strconv.Quote(want))
	}
	return tok, nil
}

// negate applies unary minus to a parsed factor.
func negate(n *Node) *Node {
	switch n.Symbol {
	case Number:
		n.Value = -n.Value
		return n
	case Variable:
		n.Weight = -n.Weight
		return n
	default:
		return NewOp(Multiplication, NewNumber(-1), n)
	}
}

// parsecall parses the argument list of a call to the function named by id.
// Names which are not registered become sub-functions.
func parsecall(scan *Lexer, p *parsectx, id Token) (*Node, error) {
	open, err := next(scan)
	if err != nil {
		return nil, err
	}
	var args []*Node
	for {
		n, err := parseexpr(scan, p)
		if err != nil {
			return nil, err
		}
		args = append(args, n)
		tok, err := next(scan)
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokenComma {
			continue
		}
		scan.push(tok)
		if _, err := closepar(scan, open); err != nil {
			return nil, err
		}
		break
	}
	sym, ok := p.syms.Lookup(id.Text)
	if !ok || sym.IsTerminal() || sym == SubFunction || sym == Root || sym == Start {
		// Only plain variable arguments name the sub-function's parameters.
		// Other arguments are accepted but not recorded.
		var names []string
		for _, a := range args {
			if a.Symbol == Variable {
				names = append(names, a.Name)
			}
		}
		return NewSubFunction(id.Text, names, nil), nil
	}
	min, max := sym.Arity()
	if len(args) < min || len(args) > max {
		return nil, &ArityError{Col: id.Pos, Func: id.Text, Len: len(args), Min: min, Max: max}
	}
	return NewOp(sym, args...), nil
}

// parselag parses the arguments of a LAG form.
func parselag(scan *Lexer) (*Node, error) {
	open, err := next(scan)
	if err != nil {
		return nil, err
	}
	v, err := expect(scan, TokenIdent, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := expect(scan, TokenComma, `","`); err != nil {
		return nil, err
	}
	x, tok, err := parsesigned(scan, "integer lag")
	if err != nil {
		return nil, err
	}
	if x != math.Trunc(x) || math.Abs(x) > math.MaxInt32 {
		return nil, unexpected(tok, "integer lag")
	}
	if _, err := closepar(scan, open); err != nil {
		return nil, err
	}
	return NewLagged(v.Text, int(x), 1), nil
}

// parsesigned parses a number with an optional sign. The returned token is the
// number token.
func parsesigned(scan *Lexer, want string) (float64, Token, error) {
	tok, err := next(scan)
	if err != nil {
		return 0, tok, err
	}
	neg := false
	if tok.Kind == TokenOperator && (tok.Text == "+" || tok.Text == "-") {
		neg = tok.Text == "-"
		tok, err = next(scan)
		if err != nil {
			return 0, tok, err
		}
	}
	if tok.Kind != TokenNumber {
		return 0, tok, unexpected(tok, want)
	}
	if neg {
		return -tok.Value, tok, nil
	}
	return tok.Value, tok, nil
}

// parsevar parses the remainder of a variable expression starting with id.
func parsevar(scan *Lexer, id Token) (*Node, error) {
	tok, err := next(scan)
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case TokenEq:
		v, err := expect(scan, TokenIdent, "factor level")
		if err != nil {
			return nil, err
		}
		return NewBinaryFactor(id.Text, v.Text, 1), nil
	case TokenLeftBracket:
		var w []float64
		for {
			x, _, err := parsesigned(scan, "factor weight")
			if err != nil {
				return nil, err
			}
			w = append(w, x)
			tok, err := next(scan)
			if err != nil {
				return nil, err
			}
			switch tok.Kind {
			case TokenComma:
				continue
			case TokenRightBracket:
				return NewFactor(id.Text, w...), nil
			default:
				return nil, unexpected(tok, `"," or "]"`)
			}
		}
	default:
		scan.push(tok)
		return NewVariable(id.Text, 1), nil
	}
}

// parseparam parses a parameter placeholder after its opening angle bracket.
func parseparam(scan *Lexer) (*Node, error) {
	id, err := expect(scan, TokenIdent, "NUM")
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(id.Text, "NUM") {
		return nil, unexpected(id, "NUM")
	}
	var x float64
	tok, err := next(scan)
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokenEq {
		x, _, err = parsesigned(scan, "number")
		if err != nil {
			return nil, err
		}
		tok, err = next(scan)
		if err != nil {
			return nil, err
		}
	}
	if tok.Kind != TokenRightAngle {
		return nil, unexpected(tok, `">"`)
	}
	return NewParam(x), nil
}

// foldleft merges the left spine of a freshly parsed chain of one chainable
// operator into a single n-ary node, e.g. ((a-b)-c) into -(a, b, c). Only
// first children are merged, so later children keep their meaning as
// successive operands.
func foldleft(n *Node) *Node {
	if len(n.Children) < 2 || !chainable(n.Symbol) {
		return n
	}
	first := foldleft(n.Children[0])
	if first.Symbol != n.Symbol || len(first.Children) < 2 {
		n.Children[0] = first
		return n
	}
	n.Children = append(first.Children, n.Children[1:]...)
	return n
}

func chainable(s Symbol) bool {
	switch s {
	case Addition, Subtraction, Multiplication, Division, And, Or, Xor:
		return true
	default:
		return false
	}
}
