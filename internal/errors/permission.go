package errors

import (
	stderrors "errors"
	"os"

	"golang.org/x/sys/unix"
)

// IsPermission reports whether err stems from missing raw-socket privilege.
func IsPermission(err error) bool {
	return stderrors.Is(err, unix.EPERM) || stderrors.Is(err, unix.EACCES) || stderrors.Is(err, os.ErrPermission)
}

// IsTimeout reports whether err is an I/O deadline expiry.
func IsTimeout(err error) bool {
	if stderrors.Is(err, os.ErrDeadlineExceeded) || stderrors.Is(err, unix.EAGAIN) {
		return true
	}
	var te interface{ Timeout() bool }
	return stderrors.As(err, &te) && te.Timeout()
}
