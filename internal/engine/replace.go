package engine

import (
	"context"
	"regexp"

	"github.com/ambergrep/ambergrep/internal/config"
	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/replacer"
)

// ReplaceOptions extends SearchOptions with what the Replacer stage needs:
// the replacement text (or a compiled regex for capture-reference
// expansion) and the interactive prompt hook.
type ReplaceOptions struct {
	Resolved   config.Resolved
	Paths      []string
	Keyword    []byte
	IgnoreCase bool

	Replacement []byte
	Regex       *regexp.Regexp

	Prompt replacer.Prompter
}

// Replace runs Finder->Scanner->Sorter->Replacer to completion. It returns
// replacer.ErrQuit if the user quit an interactive prompt, in which case
// the driver should stop the process with exit code 0 per spec.md §6.
func Replace(ctx context.Context, opts ReplaceOptions, w *console.Writer) (*Result, error) {
	r := opts.Resolved
	algo := algorithmKind(r)
	build := buildUpToSorter(ctx, r, opts.Paths, opts.Keyword, algo, opts.IgnoreCase, r.FixedOrder)

	rep := replacer.New(r.MaxThreads+2, replacer.Config{
		Replacement:   opts.Replacement,
		Regex:         opts.Regex,
		Interactive:   r.Interactive,
		PreserveTime:  r.PreserveTime,
		MmapThreshold: r.MmapBytes,
		Prompt:        opts.Prompt,
	})

	err := rep.Run(build.Out, func(text string) { w.Errorf("%s", text) }, func(text string) { w.Infof("%s", text) })
	return &Result{Stats: build.Stats}, err
}
