//go:build windows

package replacer

import "os"

// restoreTimes falls back to the file's mtime only; the Stat_t-based atime
// this package reads on Unix has no direct Windows equivalent through
// os.FileInfo, and guessing at syscall.Win32FileAttributeData parsing
// without being able to test it risks silently corrupting timestamps.
func restoreTimes(path string, srcInfo os.FileInfo) {
	_ = os.Chtimes(path, srcInfo.ModTime(), srcInfo.ModTime())
}
