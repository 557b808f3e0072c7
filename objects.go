package dnp3

// objectKey identifies a (group, variation) pair in the object registry.
type objectKey struct {
	group     byte
	variation byte
}

// ObjectKind distinguishes the measurement family a group/variation decodes
// into, so the parser's Handler callbacks can be typed per kind (spec.md §3).
type ObjectKind int

const (
	KindBinary ObjectKind = iota
	KindDoubleBitBinary
	KindAnalog
	KindCounter
	KindControlStatus
	KindSetpointStatus
	KindOctetString
	KindClassPoll
)

// classPollGroup is the class-poll placeholder object (spec.md §3/§6, group
// 60 vars 1-4): it carries no payload on the wire at all, only ever appears
// under the ALL_OBJECTS qualifier, and exists purely to ask for class 0-3
// data in a READ request (opendnp3 Group60Var1..4, DoPlaceholderWrite).
const classPollGroup byte = 60

func isClassPollVariation(variation byte) bool {
	return variation >= 1 && variation <= 4
}

// objectDescriptor describes how to decode and encode one fixed-size
// object variation. Variable-size groups (110/111/112) are handled
// separately in parser.go/writer.go since their size comes from the
// variation byte itself rather than this table.
type objectDescriptor struct {
	kind        ObjectKind
	size        int
	hasFlags    bool
	hasTime     bool
	timeSize    int
	valueSize   int
	decode      func(flags byte, raw []byte) Measurement
	encodeValue func(m Measurement) []byte

	// isBitArray marks the packed-bit-array statics (group 1/10/80 var 1,
	// spec.md §4.6 "Special case"): size/hasFlags/decode/encodeValue are
	// unused, and the element size is ceil(count/8) bytes rather than
	// size-per-index. decodeBit/encodeBit convert a single unpacked bit to
	// and from this object's Measurement shape.
	isBitArray bool
	decodeBit  func(bit bool) Measurement
	encodeBit  func(m Measurement) bool
}

// objectRegistry maps every fixed-size (group, variation) this module
// implements to its descriptor. The set is the subset of opendnp3's object
// library spec.md's scenarios and qualifier table exercise: static and
// event Binary/DoubleBitBinary/Analog/Counter, ControlStatus (group 12 CROB
// shell) and SetpointStatus (group 41 analog output command echo / group 40
// analog output status).
var objectRegistry = buildObjectRegistry()

func buildObjectRegistry() map[objectKey]objectDescriptor {
	reg := map[objectKey]objectDescriptor{}

	// Group 1 Var 1: Binary Input (static), packed bit array — no flags byte
	// at all, just one bit per index (spec.md §4.6 "Special case", §8
	// testable property #6: byte 0b10101010 over [0,7] decodes to
	// [0,1,0,1,0,1,0,1]).
	reg[objectKey{1, 1}] = objectDescriptor{kind: KindBinary, isBitArray: true,
		decodeBit: func(bit bool) Measurement { return Measurement{Binary: &Binary{Value: bit}} },
		encodeBit: func(m Measurement) bool { return m.Binary != nil && m.Binary.Value }}

	// Group 1: Binary Input (static)
	reg[objectKey{1, 2}] = objectDescriptor{kind: KindBinary, size: 1, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Binary: &Binary{Value: flags&0x80 != 0, Flags: flags}}
		}, encodeValue: noPayload}

	// Group 2: Binary Input Event
	reg[objectKey{2, 1}] = objectDescriptor{kind: KindBinary, size: 1, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Binary: &Binary{Value: flags&0x80 != 0, Flags: flags}}
		}, encodeValue: noPayload}
	reg[objectKey{2, 2}] = objectDescriptor{kind: KindBinary, size: 7, hasFlags: true, hasTime: true, timeSize: 6,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Binary: &Binary{Value: flags&0x80 != 0, Flags: flags, Time: parseUint48(raw), HasTime: true}}
		}, encodeValue: func(m Measurement) []byte { return serializeUint48(m.Binary.Time) }}

	// Group 3/4: Double-bit Binary (static/event), 2-bit state packed in flags
	reg[objectKey{3, 2}] = objectDescriptor{kind: KindDoubleBitBinary, size: 1, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{DoubleBitBinary: &DoubleBitBinary{State: (flags >> 6) & 0x03, Flags: flags}}
		}, encodeValue: noPayload}
	reg[objectKey{4, 1}] = objectDescriptor{kind: KindDoubleBitBinary, size: 1, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{DoubleBitBinary: &DoubleBitBinary{State: (flags >> 6) & 0x03, Flags: flags}}
		}, encodeValue: noPayload}
	reg[objectKey{4, 3}] = objectDescriptor{kind: KindDoubleBitBinary, size: 7, hasFlags: true, hasTime: true, timeSize: 6,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{DoubleBitBinary: &DoubleBitBinary{State: (flags >> 6) & 0x03, Flags: flags, Time: parseUint48(raw), HasTime: true}}
		}, encodeValue: func(m Measurement) []byte { return serializeUint48(m.DoubleBitBinary.Time) }}

	// Group 80 Var 1: Internal Indications, a WRITE-only packed bit array
	// used to clear specific IIN bits (spec.md §4.6/§8 S2) — one bit per
	// index, no flags byte.
	reg[objectKey{80, 1}] = objectDescriptor{kind: KindBinary, isBitArray: true,
		decodeBit: func(bit bool) Measurement { return Measurement{Binary: &Binary{Value: bit}} },
		encodeBit: func(m Measurement) bool { return m.Binary != nil && m.Binary.Value }}

	// Group 10 Var 1: Binary Output Status (static), packed bit array —
	// same "Special case" shape as Group 1 Var 1 (spec.md §4.6).
	reg[objectKey{10, 1}] = objectDescriptor{kind: KindControlStatus, isBitArray: true,
		decodeBit: func(bit bool) Measurement { return Measurement{ControlStatus: &ControlStatus{Value: bit}} },
		encodeBit: func(m Measurement) bool { return m.ControlStatus != nil && m.ControlStatus.Value }}

	// Group 10: Binary Output Status (static)
	reg[objectKey{10, 2}] = objectDescriptor{kind: KindControlStatus, size: 1, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{ControlStatus: &ControlStatus{Value: flags&0x80 != 0, Flags: flags}}
		}, encodeValue: noPayload}

	// Group 12: Control Relay Output Block (CROB), fixed 11 bytes, no flags
	// byte of its own (opendnp3 Group12Var1). Carried opaque: this module
	// codecs the block but does not interpret/execute the control.
	reg[objectKey{12, 1}] = objectDescriptor{kind: KindControlStatus, size: 11,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{ControlStatus: &ControlStatus{Raw: append([]byte(nil), raw...)}}
		},
		encodeValue: func(m Measurement) []byte {
			if m.ControlStatus != nil && len(m.ControlStatus.Raw) == 11 {
				return m.ControlStatus.Raw
			}
			return make([]byte, 11)
		}}

	// Group 20: Binary Counter (static)
	reg[objectKey{20, 1}] = fixedNumeric(KindCounter, 5, true, false, 4, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v, Flags: f}}
	}, numericEncodeU32(func(m Measurement) uint32 { return m.Counter.Value }))
	reg[objectKey{20, 2}] = fixedNumeric(KindCounter, 3, true, false, 2, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v, Flags: f}}
	}, numericEncodeU16(func(m Measurement) uint32 { return m.Counter.Value }))
	reg[objectKey{20, 5}] = fixedNumeric(KindCounter, 4, false, false, 4, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v}}
	}, numericEncodeU32(func(m Measurement) uint32 { return m.Counter.Value }))
	reg[objectKey{20, 6}] = fixedNumeric(KindCounter, 2, false, false, 2, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v}}
	}, numericEncodeU16(func(m Measurement) uint32 { return m.Counter.Value }))

	// Group 22: Counter Event
	reg[objectKey{22, 1}] = fixedNumeric(KindCounter, 5, true, false, 4, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v, Flags: f}}
	}, numericEncodeU32(func(m Measurement) uint32 { return m.Counter.Value }))
	reg[objectKey{22, 2}] = fixedNumeric(KindCounter, 3, true, false, 2, func(f byte, v uint32) Measurement {
		return Measurement{Counter: &Counter{Value: v, Flags: f}}
	}, numericEncodeU16(func(m Measurement) uint32 { return m.Counter.Value }))

	// Group 30: Analog Input (static)
	reg[objectKey{30, 1}] = objectDescriptor{kind: KindAnalog, size: 5, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: float64(parseInt32(raw)), Flags: flags}}
		}, encodeValue: analogEncodeI32}
	reg[objectKey{30, 2}] = objectDescriptor{kind: KindAnalog, size: 3, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: float64(parseInt16(raw)), Flags: flags}}
		}, encodeValue: analogEncodeI16}
	reg[objectKey{30, 5}] = objectDescriptor{kind: KindAnalog, size: 5, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: float64(parseFloat32(raw)), Flags: flags}}
		}, encodeValue: analogEncodeF32}
	reg[objectKey{30, 6}] = objectDescriptor{kind: KindAnalog, size: 9, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: parseFloat64(raw), Flags: flags}}
		}, encodeValue: analogEncodeF64}

	// Group 32: Analog Input Event. None of the registered variations
	// carries a timestamp: Var1/2 are 32/16-bit integers, Var3/4 are
	// float32/float64.
	reg[objectKey{32, 1}] = objectRegistry30(5)
	reg[objectKey{32, 2}] = objectRegistry30(3)
	reg[objectKey{32, 3}] = objectDescriptor{kind: KindAnalog, size: 5, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: float64(parseFloat32(raw)), Flags: flags}}
		}, encodeValue: analogEncodeF32}
	reg[objectKey{32, 4}] = objectDescriptor{kind: KindAnalog, size: 9, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: parseFloat64(raw), Flags: flags}}
		}, encodeValue: analogEncodeF64}

	// Group 40: Analog Output Status (static)
	reg[objectKey{40, 1}] = objectDescriptor{kind: KindSetpointStatus, size: 5, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseInt32(raw)), Flags: flags}}
		}, encodeValue: setpointEncodeI32}
	reg[objectKey{40, 2}] = objectDescriptor{kind: KindSetpointStatus, size: 3, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseInt16(raw)), Flags: flags}}
		}, encodeValue: setpointEncodeI16}
	reg[objectKey{40, 3}] = objectDescriptor{kind: KindSetpointStatus, size: 5, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseFloat32(raw)), Flags: flags}}
		}, encodeValue: setpointEncodeF32}
	reg[objectKey{40, 4}] = objectDescriptor{kind: KindSetpointStatus, size: 9, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: parseFloat64(raw), Flags: flags}}
		}, encodeValue: setpointEncodeF64}

	// Group 41: Analog Output Block (command), fixed size, no leading flags
	// byte on the wire for Var1 (opendnp3 Group41Var1 = value then status).
	reg[objectKey{41, 1}] = objectDescriptor{kind: KindSetpointStatus, size: 5,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseInt32(raw[:4])), Flags: raw[4]}}
		}, encodeValue: setpointEncodeCommandI32}
	reg[objectKey{41, 2}] = objectDescriptor{kind: KindSetpointStatus, size: 3,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseInt16(raw[:2])), Flags: raw[2]}}
		}, encodeValue: setpointEncodeCommandI16}
	reg[objectKey{41, 3}] = objectDescriptor{kind: KindSetpointStatus, size: 5,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: float64(parseFloat32(raw[:4])), Flags: raw[4]}}
		}, encodeValue: setpointEncodeCommandF32}
	reg[objectKey{41, 4}] = objectDescriptor{kind: KindSetpointStatus, size: 9,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{SetpointStatus: &SetpointStatus{Value: parseFloat64(raw[:8]), Flags: raw[8]}}
		}, encodeValue: setpointEncodeCommandF64}

	return reg
}

// objectRegistry30 builds a Group32 (Analog Input Event, no time) entry
// sharing Group30's decode shape at the given size.
func objectRegistry30(size int) objectDescriptor {
	if size == 5 {
		return objectDescriptor{kind: KindAnalog, size: 5, hasFlags: true,
			decode: func(flags byte, raw []byte) Measurement {
				return Measurement{Analog: &Analog{Value: float64(parseInt32(raw)), Flags: flags}}
			}, encodeValue: analogEncodeI32}
	}
	return objectDescriptor{kind: KindAnalog, size: 3, hasFlags: true,
		decode: func(flags byte, raw []byte) Measurement {
			return Measurement{Analog: &Analog{Value: float64(parseInt16(raw)), Flags: flags}}
		}, encodeValue: analogEncodeI16}
}

func fixedNumeric(kind ObjectKind, size int, hasFlags, hasTime bool, valueSize int,
	decode func(flags byte, v uint32) Measurement, encode func(m Measurement) []byte) objectDescriptor {
	return objectDescriptor{
		kind: kind, size: size, hasFlags: hasFlags, hasTime: hasTime, valueSize: valueSize,
		decode: func(flags byte, raw []byte) Measurement {
			var v uint32
			if valueSize == 4 {
				v = parseUint32(raw[:4])
			} else {
				v = uint32(parseUint16(raw[:2]))
			}
			return decode(flags, v)
		},
		encodeValue: encode,
	}
}

// noPayload is the encodeValue for descriptors whose entire fixed size is
// the leading flags byte itself (e.g. Group 1/2/3/4/10's boolean/state
// variations) — nothing remains to serialize once the flags byte is
// written.
func noPayload(Measurement) []byte { return nil }

func numericEncodeU32(get func(m Measurement) uint32) func(Measurement) []byte {
	return func(m Measurement) []byte { return serializeUint32(get(m)) }
}

func numericEncodeU16(get func(m Measurement) uint32) func(Measurement) []byte {
	return func(m Measurement) []byte { return serializeUint16(uint16(get(m))) }
}

func analogEncodeI32(m Measurement) []byte { return serializeUint32(uint32(int32(m.Analog.Value))) }
func analogEncodeI16(m Measurement) []byte { return serializeUint16(uint16(int16(m.Analog.Value))) }
func analogEncodeF32(m Measurement) []byte { return serializeFloat32(float32(m.Analog.Value)) }
func analogEncodeF64(m Measurement) []byte { return serializeFloat64(m.Analog.Value) }

func setpointEncodeI32(m Measurement) []byte {
	return serializeUint32(uint32(int32(m.SetpointStatus.Value)))
}
func setpointEncodeI16(m Measurement) []byte {
	return serializeUint16(uint16(int16(m.SetpointStatus.Value)))
}
func setpointEncodeF32(m Measurement) []byte { return serializeFloat32(float32(m.SetpointStatus.Value)) }
func setpointEncodeF64(m Measurement) []byte { return serializeFloat64(m.SetpointStatus.Value) }

func setpointEncodeCommandI32(m Measurement) []byte {
	return append(serializeUint32(uint32(int32(m.SetpointStatus.Value))), m.SetpointStatus.Flags)
}
func setpointEncodeCommandI16(m Measurement) []byte {
	return append(serializeUint16(uint16(int16(m.SetpointStatus.Value))), m.SetpointStatus.Flags)
}
func setpointEncodeCommandF32(m Measurement) []byte {
	return append(serializeFloat32(float32(m.SetpointStatus.Value)), m.SetpointStatus.Flags)
}
func setpointEncodeCommandF64(m Measurement) []byte {
	return append(serializeFloat64(m.SetpointStatus.Value), m.SetpointStatus.Flags)
}

// lookupObject returns the descriptor for a fixed-size (group, variation),
// or ok=false if this module does not implement it.
func lookupObject(group, variation byte) (objectDescriptor, bool) {
	d, ok := objectRegistry[objectKey{group, variation}]
	return d, ok
}

// groupKind maps a group to the measurement kind any of its registered
// variations decode into, derived once from objectRegistry. It backs the
// variation-0 "use configured default variation" READ convention (spec.md
// §4.8), where the parser must tag a header's kind without resolving one
// concrete (group, variation) descriptor.
var groupKind = buildGroupKind()

func buildGroupKind() map[byte]ObjectKind {
	m := map[byte]ObjectKind{}
	for k, d := range objectRegistry {
		if _, ok := m[k.group]; !ok {
			m[k.group] = d.kind
		}
	}
	return m
}
