package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ncw/directio"
	"github.com/stretchr/testify/require"

	"fewduckdb/internal/common"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.db")
	dm := NewManager(path)
	t.Cleanup(func() { _ = dm.Close() })
	return dm
}

func TestDiskManager_AllocateWriteReadRoundTrip(t *testing.T) {
	dm := newTestManager(t)

	pageID, err := dm.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, common.PageID(1), pageID)

	want := directio.AlignedBlock(PageSize)
	for i := range want {
		want[i] = byte(i % 256)
	}
	require.NoError(t, dm.WritePage(pageID, want))

	got := directio.AlignedBlock(PageSize)
	require.NoError(t, dm.ReadPage(pageID, got))
	require.Equal(t, want, got)
}

func TestDiskManager_DeallocateReusesPageID(t *testing.T) {
	dm := newTestManager(t)

	first, err := dm.AllocatePage()
	require.NoError(t, err)
	second, err := dm.AllocatePage()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	require.NoError(t, dm.DeallocatePage(first))
	reused, err := dm.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, first, reused)
}

func TestDiskManager_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.db")
	dm := NewManager(path)

	pageID, err := dm.AllocatePage()
	require.NoError(t, err)
	want := directio.AlignedBlock(PageSize)
	copy(want, []byte("hello, page"))
	require.NoError(t, dm.WritePage(pageID, want))
	require.NoError(t, dm.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	dm2 := NewManager(path)
	defer dm2.Close()
	got := directio.AlignedBlock(PageSize)
	require.NoError(t, dm2.ReadPage(pageID, got))
	require.Equal(t, want, got)
}
