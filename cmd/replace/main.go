// Command replace is the ambergrep replace binary: KEYWORD REPLACEMENT
// [PATHS…], rewriting files under PATHS (default ".") that contain KEYWORD
// (spec.md §6).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/ambergrep/ambergrep/internal/cli"
	"github.com/ambergrep/ambergrep/internal/config"
	"github.com/ambergrep/ambergrep/internal/console"
	"github.com/ambergrep/ambergrep/internal/engine"
	"github.com/ambergrep/ambergrep/internal/janitor"
	"github.com/ambergrep/ambergrep/internal/model"
	"github.com/ambergrep/ambergrep/internal/replacer"
	"github.com/ambergrep/ambergrep/internal/tracing"
)

func main() {
	os.Exit(run())
}

func run() int {
	log.SetFlags(0)

	fs := flag.NewFlagSet("replace", flag.ContinueOnError)

	maxThreads := fs.Int("max-threads", 0, "matcher replica count (default 4)")
	sizePerThread := fs.Int64("size-per-thread", 0, "bytes per chunk worker (default 1 MiB)")
	binCheckBytes := fs.Int("bin-check-bytes", 0, "bytes sniffed for binary detection (default 256)")
	mmapBytes := fs.Int64("mmap-bytes", 0, "file size above which mmap is used (default 1 MiB)")

	regexFlag := cli.RegisterBoolPair(fs, "regex", "match KEYWORD as a regular expression")
	tbmFlag := cli.RegisterBoolPair(fs, "tbm", "use the Tuned Boyer-Moore algorithm")
	recursiveFlag := cli.RegisterBoolPair(fs, "recursive", "descend into subdirectories")
	symlinkFlag := cli.RegisterBoolPair(fs, "symlink", "follow symlinked directories")
	skipVCSFlag := cli.RegisterBoolPair(fs, "skip-vcs", "skip .git/.hg/.svn directories")
	skipGitignoreFlag := cli.RegisterBoolPair(fs, "skip-gitignore", "honour .gitignore files")
	parentIgnoreFlag := cli.RegisterBoolPair(fs, "parent-ignore", "seed ignore rules from parent directories")
	fixedOrderFlag := cli.RegisterBoolPair(fs, "fixed-order", "restore original file order in output")
	binaryFlag := cli.RegisterBoolPair(fs, "binary", "search inside binary files")
	skippedFlag := cli.RegisterBoolPair(fs, "skipped", "print skipped paths")
	statisticsFlag := cli.RegisterBoolPair(fs, "statistics", "print a per-stage timing report")
	interactiveFlag := cli.RegisterBoolPair(fs, "interactive", "confirm each replacement")
	preserveTimeFlag := cli.RegisterBoolPair(fs, "preserve-time", "restore each file's mtime/atime after rewriting")

	keyFromFile := fs.String("key-from-file", "", "read KEYWORD from the named file instead of the command line")
	repFromFile := fs.String("rep-from-file", "", "read REPLACEMENT from the named file instead of the command line")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return 1
	}

	keyword, replacement, paths, err := resolveOperands(*keyFromFile, *repFromFile, fs.Args())
	if err != nil {
		log.Print(err)
		return 1
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	cleanup, err := janitor.Setup()
	if err != nil {
		log.Print(err)
		return 1
	}
	defer cleanup()

	stopTracing, err := tracing.Setup("ambergrep-replace")
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
		Recursive:     recursiveFlag.Resolve(),
		Symlink:       symlinkFlag.Resolve(),
		SkipVCS:       skipVCSFlag.Resolve(),
		SkipGitignore: skipGitignoreFlag.Resolve(),
		ParentIgnore:  parentIgnoreFlag.Resolve(),
		FixedOrder:    fixedOrderFlag.Resolve(),
		Binary:        binaryFlag.Resolve(),
		Skipped:       skippedFlag.Resolve(),
		Statistics:    statisticsFlag.Resolve(),
		Interactive:   interactiveFlag.Resolve(),
		PreserveTime:  preserveTimeFlag.Resolve(),
	})

	var re *regexp.Regexp
	if resolved.Regex {
		re, err = regexp.Compile(string(keyword))
		if err != nil {
			log.Printf("invalid regex %q: %s", keyword, err)
			return 1
		}
	}

	opts := engine.ReplaceOptions{
		Resolved:    resolved,
		Paths:       paths,
		Keyword:     keyword,
		Replacement: replacement,
		Regex:       re,
	}
	if resolved.Interactive {
		opts.Prompt = promptStdin
	}

	result, err := engine.Replace(ctx, opts, w)
	if err != nil {
		if errors.Is(err, replacer.ErrQuit) {
			return 0
		}
		log.Print(err)
		return 1
	}

	if resolved.Statistics {
		fmt.Fprint(os.Stderr, result.Stats.Report())
	}
	return 0
}

// promptStdin implements the interactive [Y]es/[N]o/[A]ll/[Q]uit prompt
// spec.md §4.9 describes, defaulting to Yes on an empty line.
func promptStdin(path string, m model.Match) replacer.Decision {
	fmt.Fprintf(os.Stderr, "%s:%d: replace? [Y/n/a/q] ", path, m.Beg)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n":
		return replacer.No
	case "a":
		return replacer.All
	case "q":
		return replacer.Quit
	default:
		return replacer.Yes
	}
}

// resolveOperands returns keyword, replacement and the remaining paths,
// preferring --key-from-file/--rep-from-file content over positional
// arguments (spec.md §6).
func resolveOperands(keyFromFile, repFromFile string, args []string) ([]byte, []byte, []string, error) {
	var keyword, replacement []byte

	if keyFromFile != "" {
		content, err := os.ReadFile(keyFromFile)
		if err != nil {
			return nil, nil, nil, err
		}
		keyword = trimTrailingNewline(content)
	} else {
		if len(args) == 0 {
			return nil, nil, nil, fmt.Errorf("replace: missing KEYWORD operand")
		}
		keyword = []byte(args[0])
		args = args[1:]
	}
	if len(keyword) == 0 {
		return nil, nil, nil, fmt.Errorf("replace: KEYWORD must not be empty")
	}

	if repFromFile != "" {
		content, err := os.ReadFile(repFromFile)
		if err != nil {
			return nil, nil, nil, err
		}
		replacement = trimTrailingNewline(content)
	} else {
		if len(args) == 0 {
			return nil, nil, nil, fmt.Errorf("replace: missing REPLACEMENT operand")
		}
		replacement = []byte(args[0])
		args = args[1:]
	}

	return keyword, replacement, args, nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
