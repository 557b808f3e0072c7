package dnp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponseHeaderBytes(t *testing.T) {
	w := NewWriter()
	ctrl := AppControlField{FIR: true, FIN: true, SEQ: 1}
	ok := w.WriteResponseHeader(ctrl, FuncResponse, IIN{LSB: 0x00, MSB: 0x00})
	require.True(t, ok)
	assert.Equal(t, []byte{0xC1, 0x81, 0x00, 0x00}, w.Bytes())
}

func TestWriteAllObjectsHeaderBytes(t *testing.T) {
	w := NewWriter()
	require.True(t, w.WriteAllObjectsHeader(60, 1))
	assert.Equal(t, []byte{60, 1, byte(QualifierAllObjects)}, w.Bytes())
}

func TestWriteClassPollRequestMatchesReferenceHex(t *testing.T) {
	w := NewWriter()
	ctrl := AppControlField{FIR: true, FIN: true, SEQ: 3}
	require.True(t, w.WriteHeader(ctrl, FuncRead))
	require.True(t, w.WriteAllObjectsHeader(classPollGroup, 2))
	require.True(t, w.WriteAllObjectsHeader(classPollGroup, 3))
	require.True(t, w.WriteAllObjectsHeader(classPollGroup, 4))
	require.True(t, w.WriteAllObjectsHeader(classPollGroup, 1))

	want := []byte{0xC3, 0x01, 0x3C, 0x02, 0x06, 0x3C, 0x03, 0x06, 0x3C, 0x04, 0x06, 0x3C, 0x01, 0x06}
	assert.Equal(t, want, w.Bytes())
}

func TestWriteIndexPrefixedRequestMatchesReferenceHex(t *testing.T) {
	// C0 = FIR|FIN|SEQ0, function READ, Group1Var2 at explicit indices
	// 1, 3, 5 with no value payload (spec.md §8 S5).
	w := NewWriter()
	ctrl := AppControlField{FIR: true, FIN: true}
	require.True(t, w.WriteHeader(ctrl, FuncRead))
	require.True(t, w.WriteIndexPrefixedRequest(1, 2, []uint32{1, 3, 5}))

	want := []byte{0xC0, 0x01, 1, 2, byte(QualifierCountPrefix1Index1), 3, 1, 3, 5}
	assert.Equal(t, want, w.Bytes())
}

func TestWriteIndexPrefixedRequestThenParseYieldsIndicesOnly(t *testing.T) {
	w := NewWriter()
	require.True(t, w.WriteIndexPrefixedRequest(1, 2, []uint32{1, 3, 5}))

	buf := NewBuffer(w.Bytes())
	h := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncRead, h))
	require.Len(t, h.values[0], 3)
	assert.EqualValues(t, 1, h.values[0][0].Index)
	assert.EqualValues(t, 3, h.values[0][1].Index)
	assert.EqualValues(t, 5, h.values[0][2].Index)
	for _, iv := range h.values[0] {
		assert.Nil(t, iv.Value.Binary, "a READ request names indices only, never values")
	}
}

func TestWriteTwoOctetStringIndexedCallsMatchVirtualTerminalWriteHex(t *testing.T) {
	// Reproduces opendnp3's VirtualTerminalWriteMultipleIndices test: two
	// independent single-item writes, not one batched header (spec.md §8 S6).
	w := NewWriter()
	ctrl := AppControlField{FIR: true, FIN: true, SEQ: 2}
	require.True(t, w.WriteHeader(ctrl, FuncWrite))
	require.True(t, w.WriteOctetStringIndexed(112, []IndexedValue{
		{Index: 1, Value: Measurement{OctetString: &OctetString{Data: []byte("hello")}}},
	}))
	require.True(t, w.WriteOctetStringIndexed(112, []IndexedValue{
		{Index: 1, Value: Measurement{OctetString: &OctetString{Data: []byte("world")}}},
	}))

	want := []byte{
		0xC2, 0x02,
		112, 5, byte(QualifierCountPrefix1Index1), 1, 1, 'h', 'e', 'l', 'l', 'o',
		112, 5, byte(QualifierCountPrefix1Index1), 1, 1, 'w', 'o', 'r', 'l', 'd',
	}
	assert.Equal(t, want, w.Bytes())
}

func TestWriteRangeNarrowestQualifier(t *testing.T) {
	w := NewWriter()
	values := []Measurement{
		{Binary: &Binary{Value: false, Flags: 0x01}},
		{Binary: &Binary{Value: true, Flags: 0x81}},
	}
	require.True(t, w.WriteRange(1, 2, 7, values))
	want := []byte{1, 2, byte(QualifierRangeStart1Stop1), 7, 8, 0x01, 0x81}
	assert.Equal(t, want, w.Bytes())
}

func TestWriteRangeThenParseRoundTrips(t *testing.T) {
	w := NewWriter()
	values := []Measurement{
		{Analog: &Analog{Value: 12, Flags: 0x02}},
		{Analog: &Analog{Value: -5, Flags: 0x02}},
	}
	require.True(t, w.WriteRange(30, 1, 100, values))

	buf := NewBuffer(w.Bytes())
	h := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncWrite, h))
	require.Len(t, h.values[0], 2)
	assert.EqualValues(t, 100, h.values[0][0].Index)
	assert.EqualValues(t, 12, h.values[0][0].Value.Analog.Value)
	assert.EqualValues(t, 101, h.values[0][1].Index)
	assert.EqualValues(t, -5, h.values[0][1].Value.Analog.Value)
}

func TestWriteIndexedSingleHeaderForBatch(t *testing.T) {
	w := NewWriter()
	ivs := []IndexedValue{
		{Index: 3, Value: Measurement{Analog: &Analog{Value: 1, Flags: 0x02}}},
		{Index: 9, Value: Measurement{Analog: &Analog{Value: 2, Flags: 0x02}}},
	}
	require.True(t, w.WriteIndexed(32, 2, ivs))

	buf := NewBuffer(w.Bytes())
	h := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncWrite, h))
	require.Len(t, h.headers, 1, "a batch of indexed values must produce exactly one header")
	assert.EqualValues(t, 2, h.headers[0].Count)
	assert.EqualValues(t, 3, h.values[0][0].Index)
	assert.EqualValues(t, 9, h.values[0][1].Index)
}

func TestWriteOctetStringIndexedRoundTrips(t *testing.T) {
	w := NewWriter()
	ivs := []IndexedValue{
		{Index: 1, Value: Measurement{OctetString: &OctetString{Data: []byte("hi")}}},
	}
	require.True(t, w.WriteOctetStringIndexed(111, ivs))

	buf := NewBuffer(w.Bytes())
	h := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncWrite, h))
	require.Len(t, h.values[0], 1)
	assert.Equal(t, []byte("hi"), h.values[0][0].Value.OctetString.Data)
}

func TestWriteBitRangePacksEightPerByte(t *testing.T) {
	w := NewWriter()
	values := []Measurement{
		{Binary: &Binary{Value: false}}, {Binary: &Binary{Value: true}},
		{Binary: &Binary{Value: false}}, {Binary: &Binary{Value: true}},
		{Binary: &Binary{Value: false}}, {Binary: &Binary{Value: true}},
		{Binary: &Binary{Value: false}}, {Binary: &Binary{Value: true}},
	}
	require.True(t, w.WriteBitRange(1, 1, 0, values))
	want := []byte{1, 1, byte(QualifierRangeStart1Stop1), 0, 7, 0b10101010}
	assert.Equal(t, want, w.Bytes())
}

func TestWriteBitRangeThenParseRoundTrips(t *testing.T) {
	w := NewWriter()
	values := []Measurement{
		{ControlStatus: &ControlStatus{Value: true}},
		{ControlStatus: &ControlStatus{Value: false}},
		{ControlStatus: &ControlStatus{Value: true}},
	}
	require.True(t, w.WriteBitRange(10, 1, 5, values))

	buf := NewBuffer(w.Bytes())
	h := &collectHandler{}
	require.NoError(t, ParseObjects(buf, FuncWrite, h))
	require.Len(t, h.values[0], 3)
	assert.EqualValues(t, 5, h.values[0][0].Index)
	assert.True(t, h.values[0][0].Value.ControlStatus.Value)
	assert.False(t, h.values[0][1].Value.ControlStatus.Value)
	assert.True(t, h.values[0][2].Value.ControlStatus.Value)
}

func TestWriteBitRangeRejectsNonBitArrayObject(t *testing.T) {
	w := NewWriter()
	assert.False(t, w.WriteBitRange(1, 2, 0, []Measurement{{Binary: &Binary{Value: true}}}))
}

func TestWriteRangeUnknownObjectFails(t *testing.T) {
	w := NewWriter()
	assert.False(t, w.WriteRange(250, 250, 0, nil))
}

func TestWriterRespectsCapacity(t *testing.T) {
	w := NewWriter(WithCapacity(4))
	assert.True(t, w.WriteAllObjectsHeader(60, 1))
	assert.False(t, w.WriteAllObjectsHeader(60, 2))
}
