// Command search is the ambergrep search binary: KEYWORD [PATHS…],
// walking PATHS (default ".") for files containing KEYWORD and printing
// grep-style matches (spec.md §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/ambergrep/ambergrep/internal/cli"
	"github.com/ambergrep/ambergrep/internal/config"
	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/engine"
	"github.com/ambergrep/ambergrep/internal/janitor"
	"github.com/ambergrep/ambergrep/internal/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	log.SetFlags(0)

	fs := flag.NewFlagSet("search", flag.ContinueOnError)

	maxThreads := fs.Int("max-threads", 0, "matcher replica count (default 4)")
	sizePerThread := fs.Int64("size-per-thread", 0, "bytes per chunk worker (default 1 MiB)")
	binCheckBytes := fs.Int("bin-check-bytes", 0, "bytes sniffed for binary detection (default 256)")
	mmapBytes := fs.Int64("mmap-bytes", 0, "file size above which mmap is used (default 1 MiB)")

	regexFlag := cli.RegisterBoolPair(fs, "regex", "match KEYWORD as a regular expression")
	tbmFlag := cli.RegisterBoolPair(fs, "tbm", "use the Tuned Boyer-Moore algorithm")
	columnFlag := cli.RegisterBoolPair(fs, "column", "show the match's line number")
	rowFlag := cli.RegisterBoolPair(fs, "row", "show the match's column within its line")
	fileFlag := cli.RegisterBoolPair(fs, "file", "show the matched file's path")
	recursiveFlag := cli.RegisterBoolPair(fs, "recursive", "descend into subdirectories")
	symlinkFlag := cli.RegisterBoolPair(fs, "symlink", "follow symlinked directories")
	skipVCSFlag := cli.RegisterBoolPair(fs, "skip-vcs", "skip .git/.hg/.svn directories")
	skipGitignoreFlag := cli.RegisterBoolPair(fs, "skip-gitignore", "honour .gitignore files")
	parentIgnoreFlag := cli.RegisterBoolPair(fs, "parent-ignore", "seed ignore rules from parent directories")
	fixedOrderFlag := cli.RegisterBoolPair(fs, "fixed-order", "restore original file order in output")
	binaryFlag := cli.RegisterBoolPair(fs, "binary", "search inside binary files")
	skippedFlag := cli.RegisterBoolPair(fs, "skipped", "print skipped paths")
	statisticsFlag := cli.RegisterBoolPair(fs, "statistics", "print a per-stage timing report")

	keyFromFile := fs.String("key-from-file", "", "read KEYWORD from the named file instead of the command line")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	keyword, args, err := resolveKeyword(*keyFromFile, fs.Args())
	if err != nil {
		log.Print(err)
		return 1
	}

	paths := args
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cleanup, err := janitor.Setup()
	if err != nil {
		log.Print(err)
		return 1
	}
	defer cleanup()

	stopTracing, err := tracing.Setup("ambergrep-search")
	if err != nil {
		log.Print(err)
		return 1
	}
	defer stopTracing()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := console.New(os.Stdout, os.Stderr, nil)

	configPath, err := config.FilePath()
	var fileVals map[string]string
	if err == nil {
		fileVals, err = config.Load(configPath)
	}
	if err != nil {
		log.Print(err)
		return 1
	}

	resolved := config.Merge(fileVals, config.Flags{
		MaxThreads:    cli.ResolveInt(*maxThreads),
		SizePerThread: cli.ResolveInt64(*sizePerThread),
		BinCheckBytes: cli.ResolveInt(*binCheckBytes),
		MmapBytes:     cli.ResolveInt64(*mmapBytes),
		Regex:         regexFlag.Resolve(),
		TBM:           tbmFlag.Resolve(),
		Column:        columnFlag.Resolve(),
		Row:           rowFlag.Resolve(),
		File:          fileFlag.Resolve(),
		Recursive:     recursiveFlag.Resolve(),
		Symlink:       symlinkFlag.Resolve(),
		SkipVCS:       skipVCSFlag.Resolve(),
		SkipGitignore: skipGitignoreFlag.Resolve(),
		ParentIgnore:  parentIgnoreFlag.Resolve(),
		FixedOrder:    fixedOrderFlag.Resolve(),
		Binary:        binaryFlag.Resolve(),
		Skipped:       skippedFlag.Resolve(),
		Statistics:    statisticsFlag.Resolve(),
	})

	if resolved.Regex {
		if _, err := regexp.Compile(string(keyword)); err != nil {
			log.Printf("invalid regex %q: %s", keyword, err)
			return 1
		}
	}

	result := engine.Search(ctx, engine.SearchOptions{
		Resolved: resolved,
		Paths:    paths,
		Keyword:  keyword,
	}, w)

	if resolved.Statistics {
		fmt.Fprint(os.Stderr, result.Stats.Report())
	}

	return 0
}

// resolveKeyword returns the keyword operand, preferring --key-from-file's
// content over the first positional argument, and the remaining positional
// arguments as paths (spec.md §6: "--key-from-file ... read the operand
// from the named file").
func resolveKeyword(keyFromFile string, args []string) ([]byte, []string, error) {
	if keyFromFile != "" {
		content, err := os.ReadFile(keyFromFile)
		if err != nil {
			return nil, nil, err
		}
		keyword := trimTrailingNewline(content)
		if len(keyword) == 0 {
			return nil, nil, fmt.Errorf("search: KEYWORD must not be empty")
		}
		return keyword, args, nil
	}
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("search: missing KEYWORD operand")
	}
	if len(args[0]) == 0 {
		return nil, nil, fmt.Errorf("search: KEYWORD must not be empty")
	}
	return []byte(args[0]), args[1:], nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
