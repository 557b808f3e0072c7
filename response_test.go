package dnp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readRequest builds a READ-function fragment from the given object
// headers and returns a Buffer positioned just past the application
// header, ready for ResponseContext.Configure.
func readRequest(t *testing.T, build func(w *Writer)) *Buffer {
	t.Helper()
	w := NewWriter()
	require.True(t, w.WriteHeader(AppControlField{FIR: true, FIN: true}, FuncRead))
	build(w)
	buf := NewBuffer(w.Bytes())
	_, err := ParseHeader(buf)
	require.NoError(t, err)
	return buf
}

func TestResponseContextStaticOnly(t *testing.T) {
	db := NewMemoryDatabase()
	db.SetBinary(0, Binary{Value: true, Flags: 0x81})
	db.SetBinary(1, Binary{Value: false, Flags: 0x01})
	events := NewMemoryEventBuffer(10)

	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(1, 0)) })
	cfgIIN, err := rc.Configure(req)
	require.NoError(t, err)
	assert.False(t, cfgIIN.IsSetMSB(IINFuncNotSupported))

	w := NewWriter()
	iin, fin := rc.LoadResponse(w, 0, IIN{})
	assert.True(t, fin)
	assert.False(t, iin.IsSetLSB(IINClass1Events))

	buf := NewBuffer(w.Bytes())
	h, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FuncResponse, h.Function)
	assert.True(t, h.Control.FIR)
	assert.True(t, h.Control.FIN)
	assert.False(t, h.Control.CON)

	hc := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncResponse, hc))
	require.Len(t, hc.values, 1)
	require.Len(t, hc.values[0], 2)
}

func TestResponseContextConfigureHonorsExplicitVariation(t *testing.T) {
	db := NewMemoryDatabase()
	db.SetBinary(0, Binary{Value: true, Flags: 0x81})
	events := NewMemoryEventBuffer(10)

	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(1, 2)) })
	_, err := rc.Configure(req)
	require.NoError(t, err)

	w := NewWriter()
	rc.LoadResponse(w, 0, IIN{})

	buf := NewBuffer(w.Bytes())
	_, err = ParseHeader(buf)
	require.NoError(t, err)
	hc := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncResponse, hc))
	require.Len(t, hc.headers, 1)
	assert.EqualValues(t, 1, hc.headers[0].Group)
	assert.EqualValues(t, 2, hc.headers[0].Variation)
}

func TestResponseContextConfigureSetsFuncNotSupportedForUnroutedGroup(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	rc := NewResponseContext(db, events)

	// Group 12 (CROB) is a registered object but not one Configure routes
	// static or event reads through.
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(12, 1)) })
	cfgIIN, err := rc.Configure(req)
	require.NoError(t, err)
	assert.True(t, cfgIIN.IsSetMSB(IINFuncNotSupported))
}

func TestResponseContextConfigureEventCountLimitsSelection(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	for i := uint32(0); i < 5; i++ {
		events.Add(i, KindBinary, 1, Measurement{Binary: &Binary{Value: true}}, Class1)
	}
	rc := NewResponseContext(db, events)

	w := NewWriter()
	require.True(t, w.WriteHeader(AppControlField{FIR: true, FIN: true}, FuncRead))
	require.True(t, w.append([]byte{2, 0, byte(QualifierCount1), 2}))
	buf := NewBuffer(w.Bytes())
	_, err := ParseHeader(buf)
	require.NoError(t, err)

	_, err = rc.Configure(buf)
	require.NoError(t, err)

	out := NewWriter()
	rc.LoadResponse(out, 0, IIN{})
	assert.True(t, events.HasClassData(Class1), "3 of 5 events remain unselected")
}

func TestResponseContextReportsPendingEventClasses(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	events.Add(1, KindBinary, 1, Measurement{Binary: &Binary{Value: true}}, Class1)

	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(classPollGroup, 2)) })
	_, err := rc.Configure(req)
	require.NoError(t, err)

	w := NewWriter()
	iin, fin := rc.LoadResponse(w, 0, IIN{})
	assert.True(t, fin)
	assert.False(t, iin.IsSetLSB(IINClass1Events), "the only class 1 event was selected into this response")
}

func TestResponseContextFinalizeClearsSelectedEvents(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	events.Add(1, KindBinary, 1, Measurement{Binary: &Binary{Value: true}}, Class1)

	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(classPollGroup, 2)) })
	_, err := rc.Configure(req)
	require.NoError(t, err)
	w := NewWriter()
	rc.LoadResponse(w, 0, IIN{})
	rc.FinalizeResponse()

	assert.False(t, events.HasClassData(Class1))
	cur := events.BeginBinary()
	_, ok := cur.Next()
	assert.False(t, ok)
}

func TestResponseContextResetReturnsEventsToPending(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	events.Add(1, KindBinary, 1, Measurement{Binary: &Binary{Value: true}}, Class1)

	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) { require.True(t, w.WriteAllObjectsHeader(classPollGroup, 2)) })
	_, err := rc.Configure(req)
	require.NoError(t, err)
	w := NewWriter()
	rc.LoadResponse(w, 0, IIN{})
	rc.Reset()

	assert.True(t, events.HasClassData(Class1))
}

func TestResponseContextEmptyDatabaseProducesFinalFragmentImmediately(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	rc := NewResponseContext(db, events)
	req := readRequest(t, func(w *Writer) {
		require.True(t, w.WriteAllObjectsHeader(classPollGroup, 2))
		require.True(t, w.WriteAllObjectsHeader(classPollGroup, 3))
		require.True(t, w.WriteAllObjectsHeader(classPollGroup, 4))
		require.True(t, w.WriteAllObjectsHeader(classPollGroup, 1))
	})
	_, err := rc.Configure(req)
	require.NoError(t, err)

	w := NewWriter()
	_, fin := rc.LoadResponse(w, 0, IIN{})
	assert.True(t, fin)
	assert.True(t, rc.IsEmpty())
}

func TestResponseContextUnsolicitedSetsUNSFlag(t *testing.T) {
	db := NewMemoryDatabase()
	events := NewMemoryEventBuffer(10)
	events.Add(1, KindBinary, 1, Measurement{Binary: &Binary{Value: true}}, Class1)

	rc := NewResponseContext(db, events)
	rc.SelectUnsol(ClassMask{Class1: true})
	w := NewWriter()
	rc.LoadResponse(w, 4, IIN{})

	buf := NewBuffer(w.Bytes())
	h, err := ParseHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, FuncUnsolicitedResponse, h.Function)
	assert.True(t, h.Control.UNS)
	assert.EqualValues(t, 4, h.Control.SEQ)
}
