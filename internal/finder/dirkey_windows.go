//go:build windows

package finder

import "os"

// dirKey has no portable (device, inode) equivalent readily available from
// os.FileInfo on Windows; symlink-cycle detection is skipped there rather
// than guessing at a volume-serial/file-index pairing we cannot test.
func dirKey(info os.FileInfo) (uint32, bool) {
	return 0, false
}
