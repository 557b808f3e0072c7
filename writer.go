package dnp3

import "github.com/sirupsen/logrus"

// DefaultWriterCapacity is the default APDU fragment buffer size
// (spec.md §4.7).
const DefaultWriterCapacity = 2048

// C7: composes an APDU fragment into a fixed-capacity buffer. Side-effect
// free — Writer never logs (spec.md §5); byte sequences below are
// cross-checked against opendnp3's TestAPDUWriting.cpp.
type Writer struct {
	buf []byte
	cap int
	lg  *logrus.Logger
}

// NewWriter builds a Writer with the given options applied, defaulting to
// DefaultWriterCapacity and the package logger.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{cap: DefaultWriterCapacity, lg: _lg}
	for _, opt := range opts {
		opt(w)
	}
	w.buf = make([]byte, 0, w.cap)
	return w
}

// Reset empties the fragment back to zero length, retaining capacity.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// Bytes returns the composed fragment so far.
func (w *Writer) Bytes() []byte { return w.buf }

// Remaining is the number of bytes still free in the fragment.
func (w *Writer) Remaining() int { return w.cap - len(w.buf) }

func (w *Writer) append(b []byte) bool {
	if len(b) > w.Remaining() {
		return false
	}
	w.buf = append(w.buf, b...)
	return true
}

// WriteHeader writes the 2-byte request application header.
func (w *Writer) WriteHeader(ctrl AppControlField, fn Function) bool {
	return w.append([]byte{ctrl.Byte(), byte(fn)})
}

// WriteResponseHeader writes the 4-byte response application header
// (control + function + IIN), matching TestAPDUWriting.cpp's WriteIIN.
func (w *Writer) WriteResponseHeader(ctrl AppControlField, fn Function, iin IIN) bool {
	return w.append([]byte{ctrl.Byte(), byte(fn), iin.LSB, iin.MSB})
}

// WriteAllObjectsHeader writes a 3-byte object header with the
// ALL_OBJECTS qualifier and no payload, e.g. for a class poll request.
func (w *Writer) WriteAllObjectsHeader(group, variation byte) bool {
	return w.append([]byte{group, variation, byte(QualifierAllObjects)})
}

// qualifierForSpan picks the narrowest range qualifier (0x00/0x01/0x02)
// that can represent both start and stop.
func qualifierForSpan(start, stop uint32) (QualifierCode, int) {
	if start <= 0xFF && stop <= 0xFF {
		return QualifierRangeStart1Stop1, 1
	}
	if start <= 0xFFFF && stop <= 0xFFFF {
		return QualifierRangeStart2Stop2, 2
	}
	return QualifierRangeStart4Stop4, 4
}

func putIndex(v uint32, size int) []byte {
	switch size {
	case 1:
		return []byte{byte(v)}
	case 2:
		return serializeUint16(uint16(v))
	default:
		return serializeUint32(v)
	}
}

// WriteRange writes one range-qualified object header for a contiguous
// run of fixed-size values at indices [start, start+len(values)-1].
func (w *Writer) WriteRange(group, variation byte, start uint32, values []Measurement) bool {
	desc, ok := lookupObject(group, variation)
	if !ok {
		return false
	}
	stop := start + uint32(len(values)) - 1
	if len(values) == 0 {
		stop = start
	}
	q, size := qualifierForSpan(start, stop)
	if !w.append([]byte{group, variation, byte(q)}) {
		return false
	}
	if !w.append(putIndex(start, size)) || !w.append(putIndex(stop, size)) {
		return false
	}
	for _, v := range values {
		if !w.appendFixedValue(desc, v) {
			return false
		}
	}
	return true
}

// WriteIndexed writes a single count-with-prefix-qualified object header
// covering every (index, value) pair in ivs, matching opendnp3's
// WriteIndexed(descriptor, count, maxIndex) behavior of emitting one
// header for the whole batch rather than one header per element.
func (w *Writer) WriteIndexed(group, variation byte, ivs []IndexedValue) bool {
	desc, ok := lookupObject(group, variation)
	if !ok {
		return false
	}
	maxIndex := uint32(0)
	for _, iv := range ivs {
		if iv.Index > maxIndex {
			maxIndex = iv.Index
		}
	}
	var q QualifierCode
	var size int
	switch {
	case maxIndex <= 0xFF:
		q, size = QualifierCountPrefix1Index1, 1
	case maxIndex <= 0xFFFF:
		q, size = QualifierCountPrefix2Index2, 2
	default:
		q, size = QualifierCountPrefix4Index4, 4
	}
	if !w.append([]byte{group, variation, byte(q)}) || !w.append(putIndex(uint32(len(ivs)), size)) {
		return false
	}
	for _, iv := range ivs {
		if !w.append(putIndex(iv.Index, size)) {
			return false
		}
		if !w.appendFixedValue(desc, iv.Value) {
			return false
		}
	}
	return true
}

// WriteIndexPrefixedRequest writes a count-with-prefix header naming
// indices only, with no value payload, e.g. a READ request asking for
// specific points by index rather than a contiguous range (spec.md §8 S5).
func (w *Writer) WriteIndexPrefixedRequest(group, variation byte, indices []uint32) bool {
	maxIndex := uint32(0)
	for _, idx := range indices {
		if idx > maxIndex {
			maxIndex = idx
		}
	}
	var q QualifierCode
	var size int
	switch {
	case maxIndex <= 0xFF:
		q, size = QualifierCountPrefix1Index1, 1
	case maxIndex <= 0xFFFF:
		q, size = QualifierCountPrefix2Index2, 2
	default:
		q, size = QualifierCountPrefix4Index4, 4
	}
	if !w.append([]byte{group, variation, byte(q)}) || !w.append(putIndex(uint32(len(indices)), size)) {
		return false
	}
	for _, idx := range indices {
		if !w.append(putIndex(idx, size)) {
			return false
		}
	}
	return true
}

// WriteBitRange writes a range-qualified header over a packed-bit-array
// group (1/10/80 var 1): the payload is ceil(len(values)/8) bytes, each
// fresh byte zero-initialized and filled bit-by-bit as values are packed
// in (spec.md §4.7 "Bitfield packing").
func (w *Writer) WriteBitRange(group, variation byte, start uint32, values []Measurement) bool {
	desc, ok := lookupObject(group, variation)
	if !ok || !desc.isBitArray {
		return false
	}
	stop := start + uint32(len(values)) - 1
	if len(values) == 0 {
		stop = start
	}
	q, size := qualifierForSpan(start, stop)
	if !w.append([]byte{group, variation, byte(q)}) {
		return false
	}
	if !w.append(putIndex(start, size)) || !w.append(putIndex(stop, size)) {
		return false
	}
	packed := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		putBit(packed, i, desc.encodeBit(v))
	}
	return w.append(packed)
}

// WriteOctetStringRange writes a range-qualified header over group
// 110/111/112 values, where the variation byte on the wire equals the
// fixed per-element byte length (spec.md §4.2).
func (w *Writer) WriteOctetStringRange(group byte, start uint32, values [][]byte) bool {
	if len(values) == 0 {
		return w.append([]byte{group, 0, byte(QualifierRangeStart1Stop1), byte(start), byte(start)})
	}
	size := len(values[0])
	stop := start + uint32(len(values)) - 1
	q, idxSize := qualifierForSpan(start, stop)
	if !w.append([]byte{group, byte(size), byte(q)}) {
		return false
	}
	if !w.append(putIndex(start, idxSize)) || !w.append(putIndex(stop, idxSize)) {
		return false
	}
	for _, v := range values {
		if len(v) != size || !w.append(v) {
			return false
		}
	}
	return true
}

// WriteOctetStringIndexed writes a count-with-prefix header over group
// 111/112 values at explicit indices, matching the virtual-terminal write
// scenario (spec.md §8 S6).
func (w *Writer) WriteOctetStringIndexed(group byte, ivs []IndexedValue) bool {
	if len(ivs) == 0 {
		return false
	}
	size := len(ivs[0].Value.OctetString.Data)
	maxIndex := uint32(0)
	for _, iv := range ivs {
		if iv.Index > maxIndex {
			maxIndex = iv.Index
		}
	}
	var q QualifierCode
	var idxSize int
	switch {
	case maxIndex <= 0xFF:
		q, idxSize = QualifierCountPrefix1Index1, 1
	case maxIndex <= 0xFFFF:
		q, idxSize = QualifierCountPrefix2Index2, 2
	default:
		q, idxSize = QualifierCountPrefix4Index4, 4
	}
	if !w.append([]byte{group, byte(size), byte(q)}) || !w.append(putIndex(uint32(len(ivs)), idxSize)) {
		return false
	}
	for _, iv := range ivs {
		if !w.append(putIndex(iv.Index, idxSize)) {
			return false
		}
		if !w.append(iv.Value.OctetString.Data) {
			return false
		}
	}
	return true
}

func (w *Writer) appendFixedValue(desc objectDescriptor, v Measurement) bool {
	var flags byte
	switch {
	case v.Binary != nil:
		flags = v.Binary.Flags
	case v.DoubleBitBinary != nil:
		flags = v.DoubleBitBinary.Flags
	case v.Analog != nil:
		flags = v.Analog.Flags
	case v.Counter != nil:
		flags = v.Counter.Flags
	case v.ControlStatus != nil:
		flags = v.ControlStatus.Flags
	case v.SetpointStatus != nil:
		flags = v.SetpointStatus.Flags
	}
	if desc.hasFlags {
		if !w.append([]byte{flags}) {
			return false
		}
	}
	return w.append(desc.encodeValue(v))
}
