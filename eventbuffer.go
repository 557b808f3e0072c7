package dnp3

import "sync"

// EventClass is one of the three DNP3 event classes (spec.md §3).
type EventClass int

const (
	Class1 EventClass = 1
	Class2 EventClass = 2
	Class3 EventClass = 3
)

// EventBuffer is the event-data collaborator the response context selects
// from when composing event headers (spec.md §3/§6). Selection is a
// two-phase protocol: SelectByClass/SelectByVariation mark a bounded batch
// of pending events as "in flight" for the current response; ClearWritten
// permanently removes events that were confirmed delivered; Deselect
// returns in-flight events to pending (e.g. after CON times out unanswered),
// matching opendnp3 ResponseContext.cpp's Select/ClearWritten/Reset cycle.
type EventBuffer interface {
	SelectByClass(class EventClass, limit int) int
	// SelectByVariation marks up to limit not-yet-selected pending events of
	// kind as selected, returning how many were marked. variation == 0
	// selects every pending event of that kind regardless of which
	// variation encoded it (spec.md §4.8's "(2,0) select all events of that
	// kind"); a nonzero variation selects only events recorded with that
	// exact variation.
	SelectByVariation(kind ObjectKind, variation byte, limit int) int
	HasClassData(class EventClass) bool
	IsOverflow() bool

	BeginBinary() DatabaseCursor
	BeginDoubleBitBinary() DatabaseCursor
	BeginAnalog() DatabaseCursor
	BeginCounter() DatabaseCursor
	BeginControlStatus() DatabaseCursor
	BeginSetpointStatus() DatabaseCursor
	BeginOctetString() DatabaseCursor

	ClearWritten()
	Deselect()
}

type eventRecord struct {
	index     uint32
	kind      ObjectKind
	variation byte
	value     Measurement
	class     EventClass
	selected  bool
}

// MemoryEventBuffer is a reference, bounded in-memory EventBuffer,
// grounded on the outstation reference's eventBuffer field
// (other_examples/79c90d26_avaneesh92-dnp3-go__pkg-outstation-outstation.go.go)
// and on opendnp3's EventBuffer overflow behavior: once full, adding a new
// event evicts the oldest event of the same class (selected or not) and
// sets a sticky overflow flag. Nothing in MemoryEventBuffer clears that
// flag once it is set.
type MemoryEventBuffer struct {
	mu       sync.RWMutex
	capacity int
	events   []*eventRecord
	overflow bool
}

// NewMemoryEventBuffer builds an empty MemoryEventBuffer holding up to
// capacity pending events per class before overflowing.
func NewMemoryEventBuffer(capacity int) *MemoryEventBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryEventBuffer{capacity: capacity}
}

// Add appends a new event recorded with the given variation, evicting the
// class's oldest event, selected or not (and setting the sticky overflow
// flag), if the class is already at capacity.
func (b *MemoryEventBuffer) Add(index uint32, kind ObjectKind, variation byte, value Measurement, class EventClass) {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	oldestPos := -1
	for i, e := range b.events {
		if e.class == class {
			count++
			if oldestPos == -1 {
				oldestPos = i
			}
		}
	}
	if count >= b.capacity && oldestPos != -1 {
		dropped := b.events[oldestPos]
		b.events = append(b.events[:oldestPos], b.events[oldestPos+1:]...)
		b.overflow = true
		_lg.Warnf("event buffer overflow for class %d, dropping oldest event at index %d", class, dropped.index)
	}
	b.events = append(b.events, &eventRecord{index: index, kind: kind, variation: variation, value: value, class: class})
}

// SelectByClass marks up to limit not-yet-selected pending events of class
// as selected, returning how many were marked.
func (b *MemoryEventBuffer) SelectByClass(class EventClass, limit int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if n >= limit {
			break
		}
		if e.class == class && !e.selected {
			e.selected = true
			n++
		}
	}
	return n
}

// SelectByVariation marks up to limit not-yet-selected pending events of
// kind as selected, restricting to a specific recorded variation when
// variation != 0 (spec.md §4.8).
func (b *MemoryEventBuffer) SelectByVariation(kind ObjectKind, variation byte, limit int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if n >= limit {
			break
		}
		if e.kind != kind || e.selected {
			continue
		}
		if variation != 0 && e.variation != variation {
			continue
		}
		e.selected = true
		n++
	}
	return n
}

func (b *MemoryEventBuffer) HasClassData(class EventClass) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.events {
		if e.class == class && !e.selected {
			return true
		}
	}
	return false
}

func (b *MemoryEventBuffer) IsOverflow() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.overflow
}

func (b *MemoryEventBuffer) beginKind(kind ObjectKind) DatabaseCursor {
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := make([]IndexedValue, 0)
	for _, e := range b.events {
		if e.kind == kind && e.selected {
			items = append(items, IndexedValue{Index: e.index, Kind: e.kind, Value: e.value})
		}
	}
	return &sliceCursor{items: items}
}

func (b *MemoryEventBuffer) BeginBinary() DatabaseCursor          { return b.beginKind(KindBinary) }
func (b *MemoryEventBuffer) BeginDoubleBitBinary() DatabaseCursor { return b.beginKind(KindDoubleBitBinary) }
func (b *MemoryEventBuffer) BeginAnalog() DatabaseCursor          { return b.beginKind(KindAnalog) }
func (b *MemoryEventBuffer) BeginCounter() DatabaseCursor         { return b.beginKind(KindCounter) }
func (b *MemoryEventBuffer) BeginControlStatus() DatabaseCursor   { return b.beginKind(KindControlStatus) }
func (b *MemoryEventBuffer) BeginSetpointStatus() DatabaseCursor  { return b.beginKind(KindSetpointStatus) }
func (b *MemoryEventBuffer) BeginOctetString() DatabaseCursor     { return b.beginKind(KindOctetString) }

// ClearWritten permanently removes every selected event, once the
// response carrying them has been confirmed delivered.
func (b *MemoryEventBuffer) ClearWritten() {
	b.mu.Lock()
	defer b.mu.Unlock()
	remaining := b.events[:0]
	for _, e := range b.events {
		if !e.selected {
			remaining = append(remaining, e)
		}
	}
	b.events = remaining
}

// Deselect returns every selected event to pending, without removing it.
func (b *MemoryEventBuffer) Deselect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, e := range b.events {
		e.selected = false
	}
}
