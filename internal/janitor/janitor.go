// Package janitor wraps github.com/keegancsmith/tmpfriend's process-wide
// temp-directory setup, shared by both the search and replace binaries
// (C12). It does not touch the Replacer's temp files, which sit beside each
// target file outside this directory; no handler removes an in-progress
// rewrite's temp file on SIGINT/SIGTERM.
package janitor

import "github.com/keegancsmith/tmpfriend"

// Setup reaps orphaned temp files from prior crashed runs and arranges for
// the current run's temp directory to be cleaned on SIGINT/SIGTERM. The
// returned cleanup func should be deferred by main() for the normal-exit
// path.
func Setup() (cleanup func(), err error) {
	return tmpfriend.SetupTmpDir()
}
