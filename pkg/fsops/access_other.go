//go:build !linux && !darwin

package fsops

import "os"

func accessPath(path string) AccessResult {
	_, err := os.Lstat(path)
	return AccessResult{Code: accessCode(err)}
}
