package dnp3

// C4: a lazy, non-owning iterable over the elements of one object header.
// It decodes one element per Next() call directly from the Buffer it was
// handed, so a header's elements are never materialized into a slice
// unless the Handler chooses to collect them.
type Iterator struct {
	buf        *Buffer
	desc       objectDescriptor
	group      byte
	variation  byte
	octetSize  int // >0 for variable-size octet-string-like groups
	remaining  int
	nextIndex  uint32
	indexed    bool   // true for count-with-prefix headers (explicit indices)
	prefixSize int    // byte width of the index prefix, when indexed
	stop       uint32 // inclusive range stop, when !indexed
	readOnly   bool   // true for READ-function headers: indices only, no value payload on the wire
	err        error

	isBitArray bool // true for the packed-bit-array statics (group 1/10/80 var 1)
	curByte    byte
	bitOffset  int // 0-7, position within curByte of the next bit to decode

	// mapFn composes a transform over each decoded element without
	// materializing them (spec.md §4.4). Set directly by the parser for
	// bit-array descriptors (see decodeBit), and extendable by callers via
	// Map.
	mapFn func(IndexedValue) IndexedValue
}

// Remaining returns the number of not-yet-decoded elements left in this
// header.
func (it *Iterator) Remaining() int { return it.remaining }

// Err returns the first decode error encountered, if any.
func (it *Iterator) Err() error { return it.err }

// Map composes f onto every element it yields from here on, without
// materializing the untransformed elements first (spec.md §4.4). It
// returns it itself so calls can chain: items.Map(f).Map(g).
func (it *Iterator) Map(f func(IndexedValue) IndexedValue) *Iterator {
	prev := it.mapFn
	it.mapFn = func(iv IndexedValue) IndexedValue {
		if prev != nil {
			iv = prev(iv)
		}
		return f(iv)
	}
	return it
}

// Next decodes and returns the next element, or ok=false when the header
// is exhausted (remaining == 0) or a decode error occurred (check Err).
func (it *Iterator) Next() (IndexedValue, bool) {
	if it.err != nil || it.remaining <= 0 {
		return IndexedValue{}, false
	}

	var index uint32
	if it.indexed {
		raw, ok := it.buf.Take(it.prefixSize)
		if !ok {
			it.err = ErrNotEnoughDataForPrefix
			return IndexedValue{}, false
		}
		index = takeIndex(raw)
	} else {
		index = it.nextIndex
	}

	var iv IndexedValue
	switch {
	case it.readOnly:
		iv = IndexedValue{Index: index, Kind: it.desc.kind}

	case it.isBitArray:
		if it.bitOffset == 0 {
			raw, ok := it.buf.Take(1)
			if !ok {
				it.err = ErrNotEnoughDataForPayload
				return IndexedValue{}, false
			}
			it.curByte = raw[0]
		}
		bit := getBit([]byte{it.curByte}, it.bitOffset)
		it.bitOffset = (it.bitOffset + 1) % 8
		iv = IndexedValue{Index: index, Kind: it.desc.kind, Value: Measurement{Binary: &Binary{Value: bit}}}

	case it.octetSize > 0:
		raw, ok := it.buf.Take(it.octetSize)
		if !ok {
			it.err = ErrNotEnoughDataForPayload
			return IndexedValue{}, false
		}
		iv = IndexedValue{Index: index, Kind: KindOctetString,
			Value: Measurement{OctetString: &OctetString{Data: append([]byte(nil), raw...)}}}

	default:
		raw, ok := it.buf.Take(it.desc.size)
		if !ok {
			it.err = ErrNotEnoughDataForPayload
			return IndexedValue{}, false
		}
		var flags byte
		payload := raw
		if it.desc.hasFlags {
			flags = raw[0]
			payload = raw[1:]
		}
		iv = IndexedValue{Index: index, Kind: it.desc.kind, Value: it.desc.decode(flags, payload)}
	}

	if it.mapFn != nil {
		iv = it.mapFn(iv)
	}
	it.remaining--
	it.nextIndex++
	return iv, true
}

func takeIndex(raw []byte) uint32 {
	switch len(raw) {
	case 1:
		return uint32(raw[0])
	case 2:
		return uint32(parseUint16(raw))
	default:
		return parseUint32(raw)
	}
}
