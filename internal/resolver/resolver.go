// Package resolver resolves the hardware address of an IPv4 neighbour by
// sending one ICMP Echo Request and capturing the reply at the link layer.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/netip"
	"time"

	"getmac/internal/capture"
	macerrors "getmac/internal/errors"
	"getmac/internal/matcher"
	"getmac/internal/models"
	"getmac/internal/netifaces"
	"getmac/internal/parser"
	"getmac/internal/probe"
)

// Options configures a Resolver.
type Options struct {
	// Interface, when set, skips interface selection.
	Interface         string
	FallbackInterface string
	ReceiveTimeout    time.Duration
	SendTimeout       time.Duration
	MaxFrames         int
	Backend           capture.Backend
	KernelFilter      bool
	DumpFile          string
}

// DefaultOptions mirrors config.Default.
func DefaultOptions() Options {
	return Options{
		FallbackInterface: netifaces.DefaultFallback,
		ReceiveTimeout:    2 * time.Second,
		SendTimeout:       2 * time.Second,
		MaxFrames:         200,
		Backend:           capture.BackendPacket,
	}
}

// Resolver runs resolution attempts. Each attempt owns its own sockets and
// probe identifier; a Resolver keeps no state between attempts.
type Resolver struct {
	opts   Options
	logger *slog.Logger

	selectInterface func(target netip.Addr, fallback string, logger *slog.Logger) string
	openCapture     func(iface string, opts capture.Options) (capture.FrameReader, error)
	openTransmitter func() (probe.Transmitter, error)
	newID           func() uint16
}

// New creates a Resolver backed by raw sockets.
func New(opts Options, logger *slog.Logger) *Resolver {
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = DefaultOptions().MaxFrames
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = DefaultOptions().ReceiveTimeout
	}
	return &Resolver{
		opts:            opts,
		logger:          logger.With(slog.String("component", "resolver")),
		selectInterface: netifaces.Select,
		openCapture:     capture.Open,
		openTransmitter: probe.Listen,
		newID:           func() uint16 { return uint16(rand.Uint32()) },
	}
}

// attempt is the state of one resolution.
type attempt struct {
	input  string
	target netip.Addr
	id     uint16
	iface  string
	frames int
}

// Resolve returns the hardware address of target or a *errors.ResolveError.
func (r *Resolver) Resolve(ctx context.Context, target string) (net.HardwareAddr, error) {
	res := r.ResolveDetailed(ctx, target)
	return res.HardwareAddr, res.Error
}

// ResolveDetailed runs one attempt and reports everything known about it.
func (r *Resolver) ResolveDetailed(ctx context.Context, target string) models.ResolveResult {
	start := time.Now()
	a := &attempt{input: target}

	mac, err := r.run(ctx, a)

	result := models.ResolveResult{
		Timestamp:    start,
		Target:       target,
		Interface:    a.iface,
		HardwareAddr: mac,
		Frames:       a.frames,
		Latency:      time.Since(start),
		Error:        err,
		Status:       statusOf(err),
	}
	if err != nil {
		r.logger.Debug("Resolution failed.", "target", target, "iface", a.iface, "frames", a.frames, "kind", macerrors.KindOf(err))
	} else {
		r.logger.Info("Resolved.", "target", target, "iface", a.iface, "mac", mac.String(), "frames", a.frames, "latency", result.Latency)
	}
	return result
}

func statusOf(err error) models.ResolveStatus {
	if err == nil {
		return models.StatusResolved
	}
	switch macerrors.KindOf(err) {
	case macerrors.KindUnreachable:
		return models.StatusUnreachable
	case macerrors.KindTimeout:
		return models.StatusTimeout
	case macerrors.KindExhausted:
		return models.StatusExhausted
	default:
		return models.StatusError
	}
}

// run sequences selection, capture, send and receive. The capture socket is
// bound and its deadline armed before the request leaves.
func (r *Resolver) run(ctx context.Context, a *attempt) (net.HardwareAddr, error) {
	target, err := parser.ParseTarget(a.input)
	if err != nil {
		return nil, macerrors.Input(a.input, err)
	}
	a.target = target
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", target, err)
	}

	a.id = r.newID()
	a.iface = r.opts.Interface
	if a.iface == "" {
		a.iface = r.selectInterface(target, r.opts.FallbackInterface, r.logger)
	}
	log := r.logger.With("target", target.String(), "iface", a.iface, "id", a.id)

	rx, err := r.openReceiver(a.iface, target)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rx.Close(); cerr != nil {
			log.Warn("Closing capture socket failed.", "error", cerr)
		}
	}()

	// ctx expiry reaches a pending read through the AfterFunc below.
	if err := rx.SetReadDeadline(time.Now().Add(r.opts.ReceiveTimeout)); err != nil {
		return nil, macerrors.Resource("set receive timeout", err)
	}
	stop := context.AfterFunc(ctx, func() {
		// Unblock the pending read; the loop then reports ctx.Err().
		_ = rx.SetReadDeadline(time.Now())
	})
	defer stop()

	tx, err := r.openTransmitter()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := tx.Close(); cerr != nil {
			log.Warn("Closing ICMP socket failed.", "error", cerr)
		}
	}()

	if err := probe.Send(tx, target, a.id, probe.Sequence, r.opts.SendTimeout, log); err != nil {
		return nil, err
	}

	return r.receive(ctx, rx, a, log)
}

func (r *Resolver) openReceiver(iface string, target netip.Addr) (capture.FrameReader, error) {
	copts := capture.Options{Backend: r.opts.Backend}
	if r.opts.KernelFilter {
		copts.Filter = net.IP(target.AsSlice())
	}

	rx, err := r.openCapture(iface, copts)
	if err != nil {
		if macerrors.KindOf(err) == macerrors.KindUnknown {
			err = macerrors.Resource("open capture on "+iface, err)
		}
		return nil, err
	}

	if r.opts.DumpFile == "" {
		return rx, nil
	}
	d, err := capture.NewDumpingReader(rx, r.opts.DumpFile)
	if err != nil {
		_ = rx.Close()
		return nil, macerrors.Resource("open frame dump", err)
	}
	return d, nil
}

// receive reads frames until the matcher reaches a terminal verdict, the
// deadline passes, or MaxFrames frames have been read.
func (r *Resolver) receive(ctx context.Context, rx capture.FrameReader, a *attempt, log *slog.Logger) (net.HardwareAddr, error) {
	m := matcher.New(a.target, a.id, probe.Sequence)
	buf := make([]byte, capture.MaxFrameSize)
	target := a.target.String()

	for a.frames < r.opts.MaxFrames {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", target, err)
		}
		n, err := rx.ReadFrame(buf)
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, fmt.Errorf("resolve %s: %w", target, cerr)
			}
			if macerrors.IsTimeout(err) {
				log.Warn("Receive deadline reached.", "frames", a.frames)
				return nil, macerrors.Timeout(target, a.frames, err)
			}
			log.Error("Reading from capture socket failed.", "error", err)
			return nil, macerrors.Resource("read from capture socket", err)
		}
		a.frames++

		if n < matcher.MinFrameLen {
			continue
		}

		d := m.Decide(buf[:n])
		switch d.Verdict {
		case matcher.Match:
			log.Debug("Echo reply matched.", "mac", d.HardwareAddr.String(), "frames", a.frames)
			return d.HardwareAddr, nil
		case matcher.Unreachable, matcher.TimeExceeded:
			log.Warn("Host unreachable.", "icmp", d.Reason)
			return nil, macerrors.Unreachable(target, d.Reason)
		}
	}

	log.Warn("Maximum number of frames reached.", "frames", a.frames)
	return nil, macerrors.Exhausted(target, a.frames)
}
