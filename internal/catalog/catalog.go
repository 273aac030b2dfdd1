// Package catalog provides a minimal in-memory table/index directory: enough
// for the executors to resolve a plan node's table or index name to a live
// table heap or B+ tree index, without a persistent system catalog.
package catalog

import (
	"sync"

	"fewduckdb/internal/common"
	"fewduckdb/internal/enginerr"
	"fewduckdb/internal/storage/bptree"
	"fewduckdb/internal/storage/table"
	"fewduckdb/internal/types"
)

// TableInfo binds a table's name and schema to its heap.
type TableInfo struct {
	Name   string
	Schema *types.Schema
	Heap   *table.TableHeap
}

// IndexInfo binds a secondary index's name to the tree implementing it, its
// key schema, and which columns of the base table it is keyed on.
type IndexInfo struct {
	Name      string
	TableName string
	KeySchema *types.Schema
	KeyAttrs  []int
	Tree      *bptree.BPlusTree
}

// KeyFromTuple projects a base tuple down to the index's key columns, in the
// order KeyAttrs names them.
func (ix *IndexInfo) KeyFromTuple(baseSchema *types.Schema, tuple *types.Tuple) *types.Tuple {
	values := make([]types.Value, len(ix.KeyAttrs))
	for i, attr := range ix.KeyAttrs {
		values[i] = tuple.GetValue(baseSchema, attr)
	}
	return types.NewTuple(values)
}

// InsertEntry adds a (key, rid) entry to the index. The tree is single-
// column int32-keyed (mirroring BPlusTreeIndexForOneIntegerColumn), so the
// key tuple's first value must be an INTEGER.
func (ix *IndexInfo) InsertEntry(key *types.Tuple, rid common.RID) (bool, error) {
	return ix.Tree.Insert(key.Values[0].AsInteger(), rid)
}

// DeleteEntry removes the entry for key from the index. Deletion is a
// documented no-op at the tree level (see BPlusTree.Remove); this exists so
// executors have a stable call site if that changes.
func (ix *IndexInfo) DeleteEntry(key *types.Tuple) {
	ix.Tree.Remove(key.Values[0].AsInteger())
}

// GetEntry looks up a single key, used by IndexScanExecutor.
func (ix *IndexInfo) GetEntry(key int32) (common.RID, bool) {
	return ix.Tree.GetValue(key)
}

// Catalog is a mutex-protected directory of tables and their indexes.
type Catalog struct {
	mu      sync.RWMutex
	tables  map[string]*TableInfo
	indexes map[string][]*IndexInfo // keyed by table name
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tables:  make(map[string]*TableInfo),
		indexes: make(map[string][]*IndexInfo),
	}
}

// CreateTable registers a table heap under name.
func (c *Catalog) CreateTable(name string, schema *types.Schema, heap *table.TableHeap) *TableInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := &TableInfo{Name: name, Schema: schema, Heap: heap}
	c.tables[name] = info
	return info
}

// GetTable resolves a table by name.
func (c *Catalog) GetTable(name string) (*TableInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.tables[name]
	if !ok {
		return nil, enginerr.ErrTableNotFound
	}
	return info, nil
}

// CreateIndex registers a secondary index over a table.
func (c *Catalog) CreateIndex(indexName, tableName string, keySchema *types.Schema, keyAttrs []int, tree *bptree.BPlusTree) *IndexInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	info := &IndexInfo{Name: indexName, TableName: tableName, KeySchema: keySchema, KeyAttrs: keyAttrs, Tree: tree}
	c.indexes[tableName] = append(c.indexes[tableName], info)
	return info
}

// GetTableIndexes returns every secondary index registered against a table.
func (c *Catalog) GetTableIndexes(tableName string) []*IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*IndexInfo(nil), c.indexes[tableName]...)
}

// GetIndex resolves one index by name, for IndexScan plan nodes.
func (c *Catalog) GetIndex(indexName, tableName string) (*IndexInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ix := range c.indexes[tableName] {
		if ix.Name == indexName {
			return ix, nil
		}
	}
	return nil, enginerr.ErrIndexNotFound
}
