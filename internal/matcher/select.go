package matcher

// Kind names one of the algorithms selectable from the CLI's --regex/--tbm
// flag pair (spec.md §6). FJS is deliberately not a Kind: it is reachable
// only by importing the package directly, never through CLI selection.
type Kind int

const (
	// KindQuickSearch is the default when neither --regex nor --tbm is set.
	KindQuickSearch Kind = iota
	KindTBM
	KindRegex
)

// Select returns the Algorithm for kind. ignoreCase only affects KindRegex;
// the literal algorithms fold case by lowering src/pat before calling
// Search, which is the caller's responsibility (spec.md §4.1 leaves case
// folding of literal search to the caller, unlike the regex variant which
// folds internally via lowerRegexpASCII).
func Select(kind Kind, ignoreCase bool) Algorithm {
	switch kind {
	case KindTBM:
		return TBM{}
	case KindRegex:
		return Regex{IgnoreCase: ignoreCase}
	default:
		return QuickSearch{}
	}
}
