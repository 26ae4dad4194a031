// Package report explains usage marks.
//
// Explain walks the cause chain of a shortest-explanation mark back to
// the seed that started it. Printer renders single nodes or whole pools as
// text, one line per hop, or as JSON. With a simple marker there are no
// chains and only verdicts are printed.
package report
