// Package disk implements the on-disk backend the buffer pool reads and
// writes through: fixed-size aligned pages addressed by page id, with page 0
// reserved for a free-page-id header.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ncw/directio"
	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
)

// PageSize is the fixed size of every page, matching the buffer pool's
// default and the teacher's own constant.
const PageSize = 4096

// Manager does O_DIRECT-aligned page I/O against a single backing file. Page
// id 0 always holds the free-list header; user pages start at id 1.
type Manager struct {
	fileName      string
	header        *headerPageInfo
	headerRawData []byte

	fi     *os.File
	logger log.FieldLogger
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithLogger overrides the logger used for I/O warnings.
func WithLogger(logger log.FieldLogger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager opens (or creates) fileName as the backing store.
func NewManager(fileName string, opts ...Option) *Manager {
	dm := &Manager{
		fileName: fileName,
		logger:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(dm)
	}

	fi, err := directio.OpenFile(fileName, os.O_CREATE|os.O_RDWR|os.O_SYNC, 0644)
	if err != nil {
		dm.logger.WithError(err).Fatalf("disk: cannot open backing file %q", fileName)
	}
	dm.fi = fi

	size, err := dm.fileSize()
	if err != nil {
		dm.logger.WithError(err).Fatalf("disk: cannot stat backing file %q", fileName)
	}
	if size == 0 {
		dm.headerRawData = directio.AlignedBlock(PageSize)
		dm.header = createHeaderPageInfo(dm.headerRawData)
		dm.header.reset()
		if err := dm.writeHeaderPage(); err != nil {
			dm.logger.WithError(err).Fatalf("disk: cannot write header page")
		}
	} else {
		dm.headerRawData, err = dm.readPageData(common.PageID(0))
		if err != nil {
			dm.logger.WithError(err).Fatalf("disk: cannot read header page")
		}
		dm.header = createHeaderPageInfo(dm.headerRawData)
	}
	return dm
}

// Close releases the backing file.
func (dm *Manager) Close() error {
	return dm.fi.Close()
}

// AllocatePage reserves a page id: reuses a deallocated one if the free list
// is non-empty, otherwise grows the file by one page. It tries the free list
// first rather than branching on a separate hasFreePage check, so the only
// place that decides "empty" is tryPopFreePage itself.
func (dm *Manager) AllocatePage() (common.PageID, error) {
	pageID, err := dm.header.tryPopFreePage()
	if err != nil {
		if !errors.Is(err, enginerr.ErrFreeListEmpty) {
			return common.InvalidPageID, fmt.Errorf("disk: allocate page: %w", err)
		}
		pageID = dm.header.nextPageID
		blank := directio.AlignedBlock(PageSize)
		if err := dm.writePageData(pageID, blank); err != nil {
			return common.InvalidPageID, fmt.Errorf("disk: extend file for page %d: %w", pageID, err)
		}
		dm.header.nextPageID++
	} else {
		dm.logger.Debugf("disk: reused free page %d", pageID)
	}
	if err := dm.writeHeaderPage(); err != nil {
		return common.InvalidPageID, fmt.Errorf("disk: persist header after allocate: %w", err)
	}
	return pageID, nil
}

// DeallocatePage returns a page id to the free list for reuse by a future
// AllocatePage. It does not erase the page's on-disk contents.
func (dm *Manager) DeallocatePage(pageID common.PageID) error {
	dm.header.pushFreePage(pageID)
	if err := dm.writeHeaderPage(); err != nil {
		return fmt.Errorf("disk: persist header after deallocate: %w", err)
	}
	return nil
}

// ReadPage fills buf (which must be PageSize bytes) with pageID's contents.
func (dm *Manager) ReadPage(pageID common.PageID, buf []byte) error {
	data, err := dm.readPageData(pageID)
	if err != nil {
		return err
	}
	copy(buf, data)
	return nil
}

// WritePage persists buf (PageSize bytes) as pageID's contents.
func (dm *Manager) WritePage(pageID common.PageID, buf []byte) error {
	return dm.writePageData(pageID, buf)
}

func (dm *Manager) fileSize() (int64, error) {
	stat, err := dm.fi.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// pageOffset converts a page id to a byte offset into the backing file,
// rejecting negative ids once so readPageData and writePageData never
// duplicate the check.
func pageOffset(pageID common.PageID) (int64, error) {
	if pageID < 0 {
		return 0, fmt.Errorf("disk: page id %d: %w", pageID, enginerr.ErrInvalidPageID)
	}
	return int64(pageID) * PageSize, nil
}

func (dm *Manager) readPageData(pageID common.PageID) ([]byte, error) {
	offset, err := pageOffset(pageID)
	if err != nil {
		return nil, err
	}
	size, err := dm.fileSize()
	if err != nil {
		return nil, err
	}
	if offset >= size {
		return nil, fmt.Errorf("disk: page %d: %w", pageID, enginerr.ErrPageOutOfRange)
	}
	if _, err := dm.fi.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	data := directio.AlignedBlock(PageSize)
	n, err := dm.fi.Read(data)
	if err != nil {
		return nil, err
	}
	if n < PageSize {
		dm.logger.Warnf("disk: short read of page %d (%d of %d bytes)", pageID, n, PageSize)
		return nil, fmt.Errorf("disk: page %d: %w", pageID, enginerr.ErrPageOutOfRange)
	}
	return data, nil
}

func (dm *Manager) writePageData(pageID common.PageID, data []byte) error {
	offset, err := pageOffset(pageID)
	if err != nil {
		return err
	}
	if _, err := dm.fi.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := dm.fi.Write(data); err != nil {
		return err
	}
	return nil
}

func (dm *Manager) writeHeaderPage() error {
	return dm.writePageData(common.PageID(0), dm.headerRawData)
}
