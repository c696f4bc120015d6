//go:build linux || darwin

package fsops

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

func accessPath(path string) AccessResult {
	err := unix.Access(path, unix.F_OK)
	if err == nil {
		return AccessResult{}
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if name := unix.ErrnoName(errno); name != "" {
			return AccessResult{Code: name}
		}
	}
	return AccessResult{Code: err.Error()}
}
