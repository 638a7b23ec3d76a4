package infix

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// Token is a lexical token of an infix expression.
type Token struct {
	Kind TokenKind
	// Text is the token's text. Quoted identifiers have their quotes removed.
	Text string
	// Value is the value of a Number token.
	Value float64
	// Pos is the 1-based rune column where the token starts.
	Pos int
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Pos)
}

// TokenKind is the lexical class of a token.
type TokenKind int8

const (
	tokenNone TokenKind = iota
	// TokenOperator is one of + - * / ^.
	TokenOperator
	// TokenIdent is a bare or quoted name.
	TokenIdent
	// TokenNumber is a numeric literal.
	TokenNumber
	// TokenLeftPar is ( or {.
	TokenLeftPar
	// TokenRightPar is ) or }.
	TokenRightPar
	TokenLeftBracket
	TokenRightBracket
	TokenLeftAngle
	TokenRightAngle
	TokenComma
	TokenEq
	// TokenEnd is the end of input.
	TokenEnd
	// TokenInvalid is a token that could not be scanned, e.g. a malformed
	// number or an unterminated quote.
	TokenInvalid
)

var tokenKindNames = [...]string{
	tokenNone:         "None",
	TokenOperator:     "Operator",
	TokenIdent:        "Identifier",
	TokenNumber:       "Number",
	TokenLeftPar:      "LeftPar",
	TokenRightPar:     "RightPar",
	TokenLeftBracket:  "LeftBracket",
	TokenRightBracket: "RightBracket",
	TokenLeftAngle:    "LeftAngleBracket",
	TokenRightAngle:   "RightAngleBracket",
	TokenComma:        "Comma",
	TokenEq:           "Eq",
	TokenEnd:          "End",
	TokenInvalid:      "Invalid",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// Operators contains the runes which are lexed as operators.
const Operators = "+-*/^"

// numstop contains the runes other than whitespace, + and - that end a
// numeric literal.
const numstop = "*/^)]},>"

// Lexer scans tokens from a rune source.
type Lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	p    Token
	eof  bool
}

// NewLexer creates a lexer reading from src.
func NewLexer(src io.RuneScanner) *Lexer {
	return &Lexer{
		src:  src,
		rune: 1,
	}
}

// Tokenize scans all tokens of src, including the final TokenEnd token.
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(strings.NewReader(src))
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokenEnd {
			return toks, nil
		}
	}
}

// push unreads a token so that it is the next token returned from Next.
// Panics if there is already a pushed token.
func (l *Lexer) push(tok Token) {
	if l.p.Kind != tokenNone {
		panic("infix: double push")
	}
	l.p = tok
}

// peek returns the next token without consuming it.
func (l *Lexer) peek() (Token, error) {
	tok, err := l.Next()
	if err != nil {
		return tok, err
	}
	l.push(tok)
	return tok, nil
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *Lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *Lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// Next scans the next token from the input. The first time the input is
// exhausted, the result is a TokenEnd token with a nil error. After that, the
// result is an empty token with io.EOF.
func (l *Lexer) Next() (Token, error) {
	if l.p.Kind != tokenNone {
		tok := l.p
		l.p = Token{}
		return tok, nil
	}
	if l.eof {
		return Token{}, io.EOF
	}
	defer l.buf.Reset()
	tok := Token{Pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.Kind = TokenEnd
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case unicode.IsSpace(r):
			tok.Pos++
			continue
		case '0' <= r && r <= '9':
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.Text = l.buf.String()
			v, err := strconv.ParseFloat(tok.Text, 64)
			if err != nil && !errors.Is(err, strconv.ErrRange) {
				tok.Kind = TokenInvalid
				return tok, nil
			}
			tok.Kind = TokenNumber
			tok.Value = v
			return tok, nil
		case r == '_', unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.Text = l.buf.String()
			tok.Kind = TokenIdent
			return tok, nil
		case r == '"', r == '\'':
			ok, err := l.scanQuoted(r)
			if err != nil {
				return tok, err
			}
			tok.Text = l.buf.String()
			tok.Kind = TokenIdent
			if !ok {
				tok.Kind = TokenInvalid
			}
			return tok, nil
		case strings.ContainsRune(Operators, r):
			tok.Text = string(r)
			tok.Kind = TokenOperator
			return tok, nil
		default:
			tok.Text = string(r)
			switch r {
			case '(', '{':
				tok.Kind = TokenLeftPar
			case ')', '}':
				tok.Kind = TokenRightPar
			case '[':
				tok.Kind = TokenLeftBracket
			case ']':
				tok.Kind = TokenRightBracket
			case '<':
				tok.Kind = TokenLeftAngle
			case '>':
				tok.Kind = TokenRightAngle
			case ',':
				tok.Kind = TokenComma
			case '=':
				tok.Kind = TokenEq
			default:
				// Write the rune so that it shows up in the error message.
				l.buf.WriteRune(r)
				return Token{Pos: tok.Pos}, l.error("", tok.Pos)
			}
			return tok, nil
		}
	}
}

// scanNum scans the maximal run of runes that could belong to a number. It
// does not check that the run is a valid number.
func (l *Lexer) scanNum() error {
	var last rune
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if unicode.IsSpace(r) || strings.ContainsRune(numstop, r) {
			l.unreadRune()
			return nil
		}
		if (r == '+' || r == '-') && last != 'e' && last != 'E' {
			// + or - anywhere other than immediately following an exponent
			// marker means a new token, as it is an operator.
			l.unreadRune()
			return nil
		}
		l.buf.WriteRune(r)
		last = r
	}
}

func (l *Lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

// scanQuoted scans up to and including the closing quote q. The result is
// false if the input ends first.
func (l *Lexer) scanQuoted(q rune) (bool, error) {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if r == q {
			return true, nil
		}
		l.buf.WriteRune(r)
	}
}

func (l *Lexer) error(kind string, col int) error {
	return &LexError{
		Text: l.buf.String(),
		Kind: kind,
		Col:  col,
	}
}
