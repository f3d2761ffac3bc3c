// Package cli registers the paired --flag/--no-flag option set spec.md §6
// describes, the way the Rust original (ambr.rs/ambs.rs) pairs a flag with
// its negation via structopt rather than a single tri-state value.
package cli

import "flag"

// BoolPair is one --name/--no-name pair registered on a flag.FlagSet.
// Resolve reports the user's explicit choice, or nil if neither was passed
// -- the three-way state config.Merge needs to apply CLI-over-file-over-
// default precedence correctly.
type BoolPair struct {
	yes, no *bool
}

// RegisterBoolPair adds both --name and --no-name as ordinary bool flags.
// Passing both is user error; --no-name wins (mirrors the original's
// "if self.fixed_order { !opt.no_fixed_order } else { opt.fixed_order }"
// resolution, which also favours the negative form).
func RegisterBoolPair(fs *flag.FlagSet, name, usage string) *BoolPair {
	return &BoolPair{
		yes: fs.Bool(name, false, usage),
		no:  fs.Bool("no-"+name, false, "disable "+usage),
	}
}

func (p *BoolPair) Resolve() *bool {
	switch {
	case *p.no:
		v := false
		return &v
	case *p.yes:
		v := true
		return &v
	default:
		return nil
	}
}

// ResolveInt and ResolveInt64 treat the zero value as "not passed": none of
// max-threads, size-per-thread, bin-check-bytes or mmap-bytes has a sane
// zero setting, so there is no ambiguity with an explicit 0.
func ResolveInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func ResolveInt64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
