//go:build !windows

package replacer

import (
	"os"
	"syscall"
	"time"
)

// restoreTimes applies the atime/mtime captured before rewrite back onto
// the rewritten file, for --preserve-time (spec.md §4.9).
func restoreTimes(path string, srcInfo os.FileInfo) {
	st, ok := srcInfo.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	atime := time.Unix(st.Atim.Sec, st.Atim.Nsec)
	mtime := time.Unix(st.Mtim.Sec, st.Mtim.Nsec)
	_ = os.Chtimes(path, atime, mtime)
}
