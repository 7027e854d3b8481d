package ictest

// SyncByte opens every binary reply frame.
const SyncByte = 0x55

// Frame is a reply frame located inside a received buffer. Frames are only
// produced by the scanners, so Start and Payload always describe bytes that
// were validated against the frame structure.
type Frame struct {
	// Start is the offset of the sync byte within the scanned buffer.
	Start int
	// Payload holds the result bytes between the header and the end marker.
	Payload []byte
	// Counted is true for frames that carry an explicit count byte.
	Counted bool
}

// Len returns the number of result bytes in the frame.
func (f Frame) Len() int { return len(f.Payload) }

// End returns the offset just past the frame's end marker.
func (f Frame) End() int {
	if f.Counted {
		return f.Start + 3 + len(f.Payload)
	}
	return f.Start + 2 + len(f.Payload)
}

// Shape describes a reply frame layout. A zero Fixed means the frame carries a
// count byte bounded by MaxCount; otherwise the frame carries exactly Fixed
// payload bytes and no count.
//
// Expect, when non-zero, is the result count the command asked for. Only
// Pending uses it; the scanners still accept any count within MaxCount so a
// wrong count surfaces as ErrMalformedFrame.
type Shape struct {
	MaxCount int
	Fixed    int
	Expect   int
}

var (
	// CountedShape is the generic counted reply used for gates and flip-flops.
	CountedShape = Shape{MaxCount: MaxBatch}
	// WideShape is the counted reply used by mux, demux and counter tests.
	WideShape = Shape{MaxCount: MaxWideCount}
	// AnalogShape is the fixed NE555 reply: frequency (2 bytes) and status.
	AnalogShape = Shape{Fixed: 3}
)

// ReplyShape returns the reply layout expected for a command kind.
func ReplyShape(k Kind) Shape {
	switch k {
	case KindMux, KindCounter:
		return WideShape
	case KindAnalog:
		return AnalogShape
	default:
		return CountedShape
	}
}

// Scan locates a frame of the given shape.
func Scan(buf []byte, s Shape) (Frame, error) {
	if s.Fixed > 0 {
		return ScanFixed(buf, s.Fixed)
	}
	return ScanCounted(buf, s.MaxCount)
}

// ScanCounted finds the first [55][count][results...][FF] frame in buf.
//
// The transport may deliver a command echo and free text around the frame,
// and the sync and count bytes can occur by chance inside that text. A
// candidate is accepted only when its count is within 1..maxCount and the end
// marker sits exactly where the count says it should. The first candidate
// that satisfies both, scanning left to right, wins.
func ScanCounted(buf []byte, maxCount int) (Frame, error) {
	for i := 0; i < len(buf)-3; i++ {
		if buf[i] != SyncByte {
			continue
		}
		count := int(buf[i+1])
		if count < 1 || count > maxCount {
			continue
		}
		end := i + 2 + count
		if end < len(buf) && buf[end] == EndMarker {
			return Frame{
				Start:   i,
				Payload: append([]byte(nil), buf[i+2:end]...),
				Counted: true,
			}, nil
		}
	}
	return Frame{}, ErrNotFound
}

// ScanFixed finds the first [55][payload(size)][FF] frame in buf. Frames of
// this shape have no count byte, so only the end marker position is checked.
func ScanFixed(buf []byte, size int) (Frame, error) {
	if size < 1 {
		return Frame{}, ErrNotFound
	}
	for i := 0; i+size+1 < len(buf); i++ {
		if buf[i] == SyncByte && buf[i+size+1] == EndMarker {
			return Frame{
				Start:   i,
				Payload: append([]byte(nil), buf[i+1:i+1+size]...),
			}, nil
		}
	}
	return Frame{}, ErrNotFound
}

// Pending reports whether buf holds the start of a frame that has not fully
// arrived: a sync byte followed by an in-range count whose end marker would
// lie past the end of the buffer, or a sync byte too close to the end to
// hold a complete frame.
//
// Device text can end a line with a capital U (0x55), which then reads as a
// header whose count is CR or LF. Such a candidate is ignored when the byte
// after it is text too, and any count other than s.Expect is ignored when
// Expect is set. A trailing "U\r" that matches Expect is still reported as
// pending.
func Pending(buf []byte, s Shape) bool {
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] != SyncByte {
			continue
		}
		if s.Fixed > 0 {
			if i+s.Fixed+1 >= len(buf) {
				return true
			}
			continue
		}
		if i+1 >= len(buf) {
			return true
		}
		count := int(buf[i+1])
		if count < 1 || count > s.MaxCount || i+2+count < len(buf) {
			continue
		}
		if s.Expect > 0 && count != s.Expect {
			continue
		}
		if endsTextLine(buf, i) {
			continue
		}
		return true
	}
	return false
}

// endsTextLine reports whether the sync byte at i is the last letter of a text
// line: the count position holds CR or LF and the byte after it is text.
// Result bytes are pin levels or one-hot vectors, never printable.
func endsTextLine(buf []byte, i int) bool {
	if c := buf[i+1]; c != '\r' && c != '\n' {
		return false
	}
	if i+2 >= len(buf) {
		return false
	}
	next := buf[i+2]
	return next == '\r' || next == '\n' || (next >= 0x20 && next < 0x7F)
}
