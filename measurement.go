package dnp3

// Measurement is a tagged union over the seven value families spec.md §3
// names. Exactly one field is non-nil for any decoded point; Kind on the
// enclosing IndexedValue says which.
type Measurement struct {
	Binary          *Binary
	DoubleBitBinary *DoubleBitBinary
	Analog          *Analog
	Counter         *Counter
	ControlStatus   *ControlStatus
	SetpointStatus  *SetpointStatus
	OctetString     *OctetString
}

type Binary struct {
	Value   bool
	Flags   byte
	HasTime bool
	Time    uint64 // milliseconds, 48-bit absolute time
}

type DoubleBitBinary struct {
	State   byte // 2-bit state: 0 intermediate, 1 off, 2 on, 3 indeterminate
	Flags   byte
	HasTime bool
	Time    uint64
}

type Analog struct {
	Value float64
	Flags byte
}

type Counter struct {
	Value uint32
	Flags byte
}

// ControlStatus covers both point status readback (group 10/11) and the
// Control Relay Output Block command shell (group 12), which this module
// transports opaque (Raw) without interpreting the control semantics.
type ControlStatus struct {
	Value bool
	Flags byte
	Raw   []byte
}

// SetpointStatus covers both analog output status readback (group 40) and
// the analog output command echo (group 41).
type SetpointStatus struct {
	Value float64
	Flags byte
}

type OctetString struct {
	Data []byte
}

// IndexedValue pairs a decoded Measurement with the point index it applies
// to, the unit the parser hands the Handler for both range-qualified
// (sequential index) and count-with-prefix-qualified (explicit index)
// headers (spec.md §4.6).
type IndexedValue struct {
	Index uint32
	Kind  ObjectKind
	Value Measurement
}
