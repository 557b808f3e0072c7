package dnp3

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryDatabaseAscendingOrder(t *testing.T) {
	db := NewMemoryDatabase()
	db.SetBinary(5, Binary{Value: true})
	db.SetBinary(1, Binary{Value: false})
	db.SetBinary(3, Binary{Value: true})

	cur := db.BeginBinary()
	var indices []uint32
	for {
		iv, ok := cur.Next()
		if !ok {
			break
		}
		indices = append(indices, iv.Index)
	}
	assert.Equal(t, []uint32{1, 3, 5}, indices)
}

func TestMemoryDatabaseOverwriteKeepsLatestValue(t *testing.T) {
	db := NewMemoryDatabase()
	db.SetAnalog(1, Analog{Value: 1})
	db.SetAnalog(1, Analog{Value: 42})

	cur := db.BeginAnalog()
	iv, ok := cur.Next()
	assert.True(t, ok)
	assert.EqualValues(t, 42, iv.Value.Analog.Value)
	_, ok = cur.Next()
	assert.False(t, ok)
}

func TestMemoryDatabaseEmptyCursor(t *testing.T) {
	db := NewMemoryDatabase()
	cur := db.BeginCounter()
	_, ok := cur.Next()
	assert.False(t, ok)
}
