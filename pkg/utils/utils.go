// pkg/utils/utils.go
package utils

import (
	"log/slog"
	"runtime"

	"golang.org/x/sys/unix"
)

var geteuid = unix.Geteuid

// CheckPrivileges warns if the process is not running with root rights.
// Raw sockets may still open with CAP_NET_RAW, so this never aborts.
func CheckPrivileges(logger *slog.Logger) bool {
	if runtime.GOOS != "linux" {
		logger.Warn("[Security] - Link-layer capture is only supported on Linux.", "os", runtime.GOOS)
		return false
	}
	if euid := geteuid(); euid != 0 {
		logger.Warn("[Security] - Running as non-root. Opening raw sockets will fail without CAP_NET_RAW.", "euid", euid)
		return false
	}
	return true
}
