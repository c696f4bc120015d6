package fsops

import (
	"errors"
	"io/fs"
)

// accessCode maps a stat error onto an access code for filesystems that do
// not expose errno values
func accessCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, fs.ErrNotExist):
		return CodeNotExist
	case errors.Is(err, fs.ErrPermission):
		return CodeNotPermitted
	default:
		return err.Error()
	}
}
