package infix

import "strconv"

// LexError indicates a character or token the lexer cannot scan. It
// implements InputError.
type LexError struct {
	// Text is the offending text.
	Text string
	// Kind describes the token being scanned, e.g. "number" or "quoted
	// identifier", or is empty if the lexer had not decided a token kind.
	Kind string
	// Col is the column where the offending token starts.
	Col int
}

func (err *LexError) Error() string {
	if err.Kind == "" {
		return errpos(err.Col, "invalid character "+strconv.Quote(err.Text))
	}
	return errpos(err.Col, "invalid "+err.Kind+" token "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}

// SyntaxError is an error indicating a token the parser did not expect. It
// implements InputError.
type SyntaxError struct {
	// Col is the position of the unexpected token.
	Col int
	// Want describes what the parser expected.
	Want string
	// Got is the token that was found.
	Got Token
}

func (err *SyntaxError) Error() string {
	got := "end of input"
	if err.Got.Kind != TokenEnd {
		got = strconv.Quote(err.Got.Text)
	}
	return errpos(err.Col, "expected "+err.Want+" but found "+got)
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// ArityError is an error indicating a function call with the wrong number of
// arguments. It implements InputError.
type ArityError struct {
	// Col is the position of the function name.
	Col int
	// Func is the function name that was called.
	Func string
	// Len is the number of arguments in the call.
	Len int
	// Min and Max are the bounds on the number of arguments to the function.
	Min, Max int
}

func (err *ArityError) Error() string {
	want := strconv.Itoa(err.Min)
	if err.Max != err.Min {
		want += " to " + strconv.Itoa(err.Max)
	}
	return errpos(err.Col, "cannot call "+err.Func+" with "+strconv.Itoa(err.Len)+" arguments (want "+want+")")
}

func (err *ArityError) Pos() int {
	return err.Col
}

// FormatError is an error indicating a tree shape the printer cannot render,
// generally because the tree is not canonical.
type FormatError struct {
	// Symbol is the symbol of the offending node.
	Symbol Symbol
	// Children is the number of children of the offending node.
	Children int
	// Reason describes the problem.
	Reason string
}

func (err *FormatError) Error() string {
	return "cannot format " + err.Symbol.String() + " with " + strconv.Itoa(err.Children) + " children: " + err.Reason
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input implements InputError.
type InputError interface {
	error
	// Pos returns the position of the error as the number of runes up to and
	// including the start of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*LexError)(nil)
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*ArityError)(nil)
)
