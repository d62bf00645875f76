package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// DumpingReader copies every frame it returns into a pcap file. A failed dump
// write does not fail the read; the first such error is returned by Close.
type DumpingReader struct {
	FrameReader
	f   *os.File
	w   *pcapgo.Writer
	err error
}

// NewDumpingReader wraps r so each frame read is appended to a new pcap file at path.
func NewDumpingReader(r FrameReader, path string) (*DumpingReader, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(MaxFrameSize, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("write dump header: %w", err)
	}
	return &DumpingReader{FrameReader: r, f: f, w: w}, nil
}

func (d *DumpingReader) ReadFrame(b []byte) (int, error) {
	n, err := d.FrameReader.ReadFrame(b)
	if err != nil || n == 0 {
		return n, err
	}
	ci := gopacket.CaptureInfo{Timestamp: time.Now(), CaptureLength: n, Length: n}
	if werr := d.w.WritePacket(ci, b[:n]); werr != nil && d.err == nil {
		d.err = fmt.Errorf("write dump frame: %w", werr)
	}
	return n, nil
}

// Close closes the wrapped reader and the dump file.
func (d *DumpingReader) Close() error {
	rerr := d.FrameReader.Close()
	ferr := d.f.Close()
	switch {
	case rerr != nil:
		return rerr
	case d.err != nil:
		return d.err
	}
	return ferr
}
