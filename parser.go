package dnp3

// C6: decodes the object-header sequence that follows an APDU's
// application header. Side-effect free — it never logs and never
// allocates beyond what the Handler itself retains (spec.md §5). The
// qualifier-dispatch shape (range/count-only collapse into one table,
// count-with-prefix into another, restricted by group) is ported from
// opendnp3's APDUParser.cpp ParseHeader/ParseRangeOfObjects/
// ParseObjectsWithIndexPrefix.

// ObjectHeaderInfo describes one decoded object header, before its
// elements are pulled from the Iterator handed alongside it.
type ObjectHeaderInfo struct {
	Group     byte
	Variation byte
	Qualifier QualifierCode
	Count     int
}

// Handler receives one callback per object header found in a fragment. It
// may pull zero or more elements from items; the parser drains whatever is
// left unread before moving to the next header.
type Handler interface {
	OnHeader(info ObjectHeaderInfo, items *Iterator) error
}

// ParseObjects decodes every object header remaining in buf, invoking h
// once per header. It stops at the first error, whether from a malformed
// header or from h itself. fn is the enclosing fragment's function code:
// under FuncRead every header names indices/ranges only, never a value
// payload, since a READ request asks for data rather than carrying it.
func ParseObjects(buf *Buffer, fn Function, h Handler) error {
	for !buf.Empty() {
		if err := parseOneHeader(buf, fn, h); err != nil {
			return err
		}
	}
	return nil
}

func parseOneHeader(buf *Buffer, fn Function, h Handler) error {
	readOnly := fn == FuncRead
	raw, ok := buf.Take(3)
	if !ok {
		return ErrNotEnoughDataForObject
	}
	group, variation, qByte := raw[0], raw[1], raw[2]
	q := QualifierCode(qByte)
	if !q.known() {
		return ErrUnknownQualifier
	}

	if group == classPollGroup {
		if !isClassPollVariation(variation) {
			return ErrUnknownObject
		}
		if q != QualifierAllObjects {
			return ErrIllegalObjectQualifier
		}
		it := &Iterator{buf: buf, group: group, variation: variation}
		info := ObjectHeaderInfo{Group: group, Variation: variation, Qualifier: q, Count: 0}
		return h.OnHeader(info, it)
	}

	octetSize := 0
	var desc objectDescriptor
	switch {
	case octetStringGroups[group]:
		octetSize = int(variation)
	case readOnly && variation == 0:
		// V=0 in a READ request means "this group, configured default
		// variation" (spec.md §4.8) — no concrete descriptor is needed
		// since a READ header never carries a value payload to decode.
		kind, found := groupKind[group]
		if !found {
			return ErrUnknownObject
		}
		desc = objectDescriptor{kind: kind}
	default:
		d, found := lookupObject(group, variation)
		if !found {
			return ErrUnknownObject
		}
		desc = d
	}

	it := &Iterator{buf: buf, desc: desc, group: group, variation: variation, octetSize: octetSize, readOnly: readOnly}
	if desc.isBitArray && !readOnly {
		it.isBitArray = true
		d := desc
		it.mapFn = func(iv IndexedValue) IndexedValue {
			iv.Value = d.decodeBit(iv.Value.Binary.Value)
			return iv
		}
	}

	var count int
	switch {
	case q == QualifierAllObjects:
		if !readOnly && !validForRange(group, variation) {
			return ErrIllegalObjectQualifier
		}
		count = 0

	case q.isCountOnly():
		if !readOnly && !validForRange(group, variation) {
			return ErrIllegalObjectQualifier
		}
		n, ok := takeUint(buf, q.countSize())
		if !ok {
			return ErrNotEnoughDataForRange
		}
		count = int(n)

	case q.isRange():
		if !readOnly && !validForRange(group, variation) {
			return ErrIllegalObjectQualifier
		}
		size := q.rangeSize()
		startRaw, ok := buf.Take(size)
		if !ok {
			return ErrNotEnoughDataForRange
		}
		stopRaw, ok := buf.Take(size)
		if !ok {
			return ErrNotEnoughDataForRange
		}
		start := takeIndex(startRaw)
		stop := takeIndex(stopRaw)
		if stop < start {
			return ErrInvalidRange
		}
		count = int(stop-start) + 1
		it.nextIndex = start

	case q.isCountWithPrefix():
		if !readOnly && !validForPrefix(group, variation) {
			return ErrIllegalObjectQualifier
		}
		n, ok := takeUint(buf, q.prefixSize())
		if !ok {
			return ErrNotEnoughDataForPrefix
		}
		count = int(n)
		it.indexed = true
		it.prefixSize = q.prefixSize()

	default:
		return ErrUnknownQualifier
	}

	it.remaining = count

	info := ObjectHeaderInfo{Group: group, Variation: variation, Qualifier: q, Count: count}
	if err := h.OnHeader(info, it); err != nil {
		return err
	}
	if it.err != nil {
		return it.err
	}
	// Drain whatever the handler left unread so the buffer is positioned
	// at the start of the next header.
	for it.remaining > 0 {
		if _, ok := it.Next(); !ok {
			return it.err
		}
	}
	return nil
}

func takeUint(buf *Buffer, size int) (uint32, bool) {
	raw, ok := buf.Take(size)
	if !ok {
		return 0, false
	}
	return takeIndex(raw), true
}
