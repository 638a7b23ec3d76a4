// Package infix converts algebraic models between infix text and expression
// trees.
//
// The text syntax is the one used to exchange symbolic regression results:
// "'x1' * (3 * 'x2' + 'x3')", "LAG(y, -1)", "SIN(x) / <NUM=0.5>", and so on.
// Parse turns such text into a Tree. Canonicalize rewrites a Tree into a
// strictly binary, left-associative form, and Format prints a canonical Tree
// with the fewest parentheses that still reparse to the same value.
//
// Trees may also come from elsewhere, e.g. a search procedure, which is why
// canonicalization is a separate step. Canonicalize modifies its argument;
// use Clone first to keep the original.
//
package infix
