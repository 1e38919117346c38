package errutil

import (
	"errors"
	"syscall"
)

// IsBrokenPipe reports whether err comes from writing to a pipe whose
// reader went away, as when the output is piped into head.
func IsBrokenPipe(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return isErrBrokenPipe(errno)
}
