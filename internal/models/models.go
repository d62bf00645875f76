package models

import (
	"fmt"
	"net"
	"time"
)

// ResolveStatus represents the outcome of one resolution attempt.
type ResolveStatus string

const (
	StatusResolved    ResolveStatus = "RESOLVED"
	StatusUnreachable ResolveStatus = "UNREACHABLE"
	StatusTimeout     ResolveStatus = "TIMEOUT"
	StatusExhausted   ResolveStatus = "EXHAUSTED"
	StatusError       ResolveStatus = "ERROR"
)

// ResolveResult holds the outcome of a single resolution attempt.
type ResolveResult struct {
	Timestamp    time.Time
	Target       string
	Interface    string
	Status       ResolveStatus
	HardwareAddr net.HardwareAddr
	Frames       int
	Latency      time.Duration
	Error        error
}

// ToCSVRow converts a ResolveResult into a slice of strings for CSV writing.
func (r *ResolveResult) ToCSVRow() []string {
	status := string(r.Status)
	if r.Status == StatusError && r.Error != nil {
		status = fmt.Sprintf("ERROR: %v", r.Error)
	}
	mac := ""
	if r.HardwareAddr != nil {
		mac = r.HardwareAddr.String()
	}
	return []string{
		r.Timestamp.Format(time.RFC3339),
		r.Target,
		r.Interface,
		status,
		mac,
		fmt.Sprintf("%d", r.Frames),
		fmt.Sprintf("%.2f", r.Latency.Seconds()*1000), // Latency in ms
	}
}

// CSVHeader returns the header row for the results CSV file.
func CSVHeader() []string {
	return []string{"timestamp", "target_ip", "iface", "status", "mac", "frames", "latency_ms"}
}
