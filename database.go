package dnp3

import (
	"sort"
	"sync"
)

// DatabaseCursor yields a snapshot of one measurement kind's points in
// ascending index order (spec.md §6).
type DatabaseCursor interface {
	Next() (IndexedValue, bool)
}

// Database is the static-data collaborator the response context reads
// from when composing static headers (spec.md §6). The core never mutates
// it; a real outstation updates it from I/O independently of the response
// context's single task (spec.md §5).
type Database interface {
	BeginBinary() DatabaseCursor
	BeginDoubleBitBinary() DatabaseCursor
	BeginAnalog() DatabaseCursor
	BeginCounter() DatabaseCursor
	BeginControlStatus() DatabaseCursor
	BeginSetpointStatus() DatabaseCursor
	BeginOctetString() DatabaseCursor
}

type sliceCursor struct {
	items []IndexedValue
	pos   int
}

func (c *sliceCursor) Next() (IndexedValue, bool) {
	if c.pos >= len(c.items) {
		return IndexedValue{}, false
	}
	iv := c.items[c.pos]
	c.pos++
	return iv, true
}

// MemoryDatabase is a reference, in-memory Database good enough to drive
// the response context end to end (not a production point database),
// grounded on the outstation reference's per-kind table
// (other_examples/79c90d26_avaneesh92-dnp3-go__pkg-outstation-outstation.go.go).
// External updates may race the response context's task, hence the lock.
type MemoryDatabase struct {
	mu      sync.RWMutex
	binary  map[uint32]Measurement
	dbl     map[uint32]Measurement
	analog  map[uint32]Measurement
	counter map[uint32]Measurement
	control map[uint32]Measurement
	setpt   map[uint32]Measurement
	octet   map[uint32]Measurement
}

// NewMemoryDatabase builds an empty MemoryDatabase.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		binary:  map[uint32]Measurement{},
		dbl:     map[uint32]Measurement{},
		analog:  map[uint32]Measurement{},
		counter: map[uint32]Measurement{},
		control: map[uint32]Measurement{},
		setpt:   map[uint32]Measurement{},
		octet:   map[uint32]Measurement{},
	}
}

func (d *MemoryDatabase) SetBinary(index uint32, v Binary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.binary[index] = Measurement{Binary: &v}
}

func (d *MemoryDatabase) SetDoubleBitBinary(index uint32, v DoubleBitBinary) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dbl[index] = Measurement{DoubleBitBinary: &v}
}

func (d *MemoryDatabase) SetAnalog(index uint32, v Analog) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.analog[index] = Measurement{Analog: &v}
}

func (d *MemoryDatabase) SetCounter(index uint32, v Counter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counter[index] = Measurement{Counter: &v}
}

func (d *MemoryDatabase) SetControlStatus(index uint32, v ControlStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.control[index] = Measurement{ControlStatus: &v}
}

func (d *MemoryDatabase) SetSetpointStatus(index uint32, v SetpointStatus) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setpt[index] = Measurement{SetpointStatus: &v}
}

func (d *MemoryDatabase) SetOctetString(index uint32, v OctetString) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.octet[index] = Measurement{OctetString: &v}
}

func snapshot(m map[uint32]Measurement, kind ObjectKind) *sliceCursor {
	indices := make([]uint32, 0, len(m))
	for idx := range m {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	items := make([]IndexedValue, 0, len(indices))
	for _, idx := range indices {
		items = append(items, IndexedValue{Index: idx, Kind: kind, Value: m[idx]})
	}
	return &sliceCursor{items: items}
}

func (d *MemoryDatabase) BeginBinary() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.binary, KindBinary)
}

func (d *MemoryDatabase) BeginDoubleBitBinary() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.dbl, KindDoubleBitBinary)
}

func (d *MemoryDatabase) BeginAnalog() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.analog, KindAnalog)
}

func (d *MemoryDatabase) BeginCounter() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.counter, KindCounter)
}

func (d *MemoryDatabase) BeginControlStatus() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.control, KindControlStatus)
}

func (d *MemoryDatabase) BeginSetpointStatus() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.setpt, KindSetpointStatus)
}

func (d *MemoryDatabase) BeginOctetString() DatabaseCursor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return snapshot(d.octet, KindOctetString)
}
