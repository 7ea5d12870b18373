package engine

import "io/fs"

// ownerExec is the owner-execute permission bit.
const ownerExec fs.FileMode = 0o100

// FileTask describes a single copy: one selected entry of the source
// directory and where it lands. It is built per entry and consumed at once.
type FileTask struct {
	Name    string
	SrcPath string
	DstPath string
	Size    int64
	Mode    fs.FileMode

	// srcInfo is the lstat result the task was selected from.
	srcInfo fs.FileInfo
}

// Perm returns the permission for the destination file: the owner, group and
// other rwx triplets of the source mode, without setuid, setgid, sticky or
// type bits.
func (t FileTask) Perm() fs.FileMode {
	return t.Mode.Perm()
}

// IsOwnerExecutable reports whether mode describes a regular file whose
// owner-execute bit is set. Symlinks are never selected because the mode
// comes from lstat.
func IsOwnerExecutable(mode fs.FileMode) bool {
	return mode.IsRegular() && mode&ownerExec != 0
}

// skipReason explains why an entry with the given mode is not selected.
// It returns "" for selectable entries.
func skipReason(mode fs.FileMode) string {
	switch {
	case mode.IsDir():
		return "directory"
	case mode&fs.ModeSymlink != 0:
		return "symlink"
	case !mode.IsRegular():
		return "special file"
	case mode&ownerExec == 0:
		return "not owner-executable"
	default:
		return ""
	}
}
