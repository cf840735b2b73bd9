// Package telemetry provides an off-hot-path recording and diagnostics
// surface for the stabilizer: a binary tick-log writer/reader in the style
// of a pcap-style packet capture, plus a non-blocking fan-out publisher in
// the style of a UDP/TCP sender. Nothing here runs on the control loop's
// call stack except a single non-blocking channel send.
package telemetry

import (
	"encoding/binary"
	"io"
	"math"
	"os"
)

// tickMagic identifies this log format: a flat sequence of fixed-size tick
// records, not a pcap capture, so it gets its own magic number rather than
// reusing a pcap one.
const tickMagic = 0x5354414E // "STAN"

const recordLen = 8*8 + 4 // 8 float64 fields + 1 uint32 state tag

// TickRecord is one tick's recorded snapshot: enough to replay or audit the
// pipeline without re-running the controller.
type TickRecord struct {
	TimestampSec float64
	State        uint32 // Disabled=0, Enabled=1, Airborne=2 (mirrors stabilizer.State)
	MeasuredDCM  [3]float64
	MeasuredZMP  [3]float64
	LeftFootRatio float64
}

// Writer appends TickRecords to a binary log file.
type Writer struct {
	w   io.WriteCloser
	buf [recordLen]byte
}

// NewWriter creates (or truncates) path and writes the format header.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	hdr := make([]byte, 8)
	binary.LittleEndian.PutUint32(hdr[0:], tickMagic)
	binary.LittleEndian.PutUint32(hdr[4:], 1) // format version
	if _, err := f.Write(hdr); err != nil {
		f.Close()
		return nil, err
	}
	return &Writer{w: f}, nil
}

// Write appends one record.
func (w *Writer) Write(r TickRecord) error {
	b := w.buf[:0]
	b = appendFloat64(b, r.TimestampSec)
	b = appendUint32(b, r.State)
	for _, v := range r.MeasuredDCM {
		b = appendFloat64(b, v)
	}
	for _, v := range r.MeasuredZMP {
		b = appendFloat64(b, v)
	}
	b = appendFloat64(b, r.LeftFootRatio)
	_, err := w.w.Write(b)
	return err
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error { return w.w.Close() }

func appendFloat64(b []byte, v float64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	return append(b, tmp[:]...)
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// Reader replays a binary tick log written by Writer.
type Reader struct {
	r io.ReadCloser
}

// NewReader opens path and validates the format header.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	hdr := make([]byte, 8)
	if _, err := io.ReadFull(f, hdr); err != nil {
		f.Close()
		return nil, err
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != tickMagic {
		f.Close()
		return nil, errNotATickLog
	}
	return &Reader{r: f}, nil
}

var errNotATickLog = errFormat("telemetry: not a tick log")

type errFormat string

func (e errFormat) Error() string { return string(e) }

// Next reads the next record, returning io.EOF when the log is exhausted.
func (r *Reader) Next() (TickRecord, error) {
	var rec TickRecord
	buf := make([]byte, recordLen)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return rec, err
	}
	off := 0
	rec.TimestampSec = readFloat64(buf[off:])
	off += 8
	rec.State = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	for i := range rec.MeasuredDCM {
		rec.MeasuredDCM[i] = readFloat64(buf[off:])
		off += 8
	}
	for i := range rec.MeasuredZMP {
		rec.MeasuredZMP[i] = readFloat64(buf[off:])
		off += 8
	}
	rec.LeftFootRatio = readFloat64(buf[off:])
	return rec, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.r.Close() }

func readFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
