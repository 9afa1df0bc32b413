package fileserver

import "os"

// EntryKind classifies a resolved filesystem path for dispatch to the right
// responder.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
	EntryOther
)

// statResolved stats fsPath, following symlinks iff followLinks is set, and
// classifies the result. It is stateless: the caller owns any worker-pool
// scheduling around this call.
func statResolved(fsPath string, followLinks bool) (os.FileInfo, EntryKind, error) {
	var (
		info os.FileInfo
		err  error
	)
	if followLinks {
		info, err = os.Stat(fsPath)
	} else {
		info, err = os.Lstat(fsPath)
	}
	if err != nil {
		return nil, EntryOther, ioErr("stat", fsPath, err)
	}

	switch {
	case info.Mode().IsRegular():
		return info, EntryFile, nil
	case info.IsDir():
		return info, EntryDir, nil
	default:
		return info, EntryOther, typoErr(fsPath)
	}
}
