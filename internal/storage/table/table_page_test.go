package table

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTablePage_InsertAndGetTupleRoundTrip(t *testing.T) {
	buf := make([]byte, pageSize)
	page := InitTablePage(buf)

	slotA, ok := page.InsertTuple([]byte("hello"))
	require.True(t, ok)
	slotB, ok := page.InsertTuple([]byte("world!!"))
	require.True(t, ok)
	require.NotEqual(t, slotA, slotB)

	data, deleted, ok := page.GetTuple(slotA)
	require.True(t, ok)
	require.False(t, deleted)
	require.Equal(t, "hello", string(data))

	data, deleted, ok = page.GetTuple(slotB)
	require.True(t, ok)
	require.False(t, deleted)
	require.Equal(t, "world!!", string(data))
}

func TestTablePage_InsertFailsWhenPageFull(t *testing.T) {
	buf := make([]byte, pageSize)
	page := InitTablePage(buf)

	big := make([]byte, pageSize-headerSize-slotSize-1)
	_, ok := page.InsertTuple(big)
	require.True(t, ok)

	_, ok = page.InsertTuple([]byte("x"))
	require.False(t, ok)
}

func TestTablePage_SetDeletedTogglesFlagWithoutMovingBytes(t *testing.T) {
	buf := make([]byte, pageSize)
	page := InitTablePage(buf)
	slot, ok := page.InsertTuple([]byte("payload"))
	require.True(t, ok)

	require.NoError(t, page.SetDeleted(slot, true))
	data, deleted, ok := page.GetTuple(slot)
	require.True(t, ok)
	require.True(t, deleted)
	require.Equal(t, "payload", string(data))

	require.NoError(t, page.SetDeleted(slot, false))
	_, deleted, _ = page.GetTuple(slot)
	require.False(t, deleted)
}

func TestTablePage_SetDeletedOutOfRangeFails(t *testing.T) {
	buf := make([]byte, pageSize)
	page := InitTablePage(buf)
	require.Error(t, page.SetDeleted(3, true))
}
