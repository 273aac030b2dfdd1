// Command enginectl assembles the storage engine end to end — disk manager,
// buffer pool, a catalog with one table and one secondary index, and a
// handful of executors — and runs a fixed insert/scan/join demo against it.
// It exists to exercise the library, not as a general query tool: there is
// no SQL parser in this repository (see SPEC_FULL.md §1).
package main

import (
	"context"
	"flag"
	"fmt"

	log "github.com/sirupsen/logrus"

	"fewduckdb/internal/catalog"
	"fewduckdb/internal/common"
	"fewduckdb/internal/execution"
	"fewduckdb/internal/expression"
	"fewduckdb/internal/optimizer"
	"fewduckdb/internal/storage/bptree"
	"fewduckdb/internal/storage/buffer"
	"fewduckdb/internal/storage/disk"
	"fewduckdb/internal/storage/table"
	"fewduckdb/internal/types"
)

func main() {
	dbFile := flag.String("db", "enginectl.db", "backing file for the disk manager")
	poolSize := flag.Int("pool-size", 32, "number of buffer pool frames")
	replacerK := flag.Int("replacer-k", 2, "LRU-K history depth")
	flag.Parse()

	if err := run(*dbFile, *poolSize, *replacerK); err != nil {
		log.WithError(err).Fatal("enginectl: run failed")
	}
}

func run(dbFile string, poolSize, replacerK int) error {
	ctx := context.Background()

	dm := disk.NewManager(dbFile)
	defer dm.Close()
	bpm := buffer.NewPoolManager(poolSize, replacerK, dm)
	cat := catalog.NewCatalog()

	usersSchema := types.NewSchema([]types.Column{
		{Name: "id", Type: types.Integer},
		{Name: "name", Type: types.Varchar},
	})
	usersInfo := cat.CreateTable("users", usersSchema, table.NewTableHeap(bpm))

	idxHeaderID, idxHeaderGuard := bpm.NewPageGuarded()
	idxHeaderGuard.Drop()
	usersIdx := bptree.NewBPlusTree("users_id_idx", idxHeaderID, bpm, bptree.Int32Comparator)
	cat.CreateIndex("users_id_idx", "users", usersSchema, []int{0}, usersIdx)

	execCtx := &execution.ExecutorContext{Catalog: cat}

	seedRows := []struct {
		id   int32
		name string
	}{{1, "ada"}, {2, "grace"}, {3, "margaret"}}
	values := &staticRows{schema: usersSchema, rows: seedRows}
	insert, err := execution.NewInsertExecutor(execCtx, "users", values)
	if err != nil {
		return fmt.Errorf("enginectl: build insert executor: %w", err)
	}
	if err := insert.Init(ctx); err != nil {
		return fmt.Errorf("enginectl: init insert executor: %w", err)
	}
	countTuple, _, _, err := insert.Next(ctx)
	if err != nil {
		return fmt.Errorf("enginectl: run insert: %w", err)
	}
	log.Infof("enginectl: inserted %d rows into users", countTuple.Values[0].AsInteger())

	scan, err := execution.NewSeqScanExecutor(execCtx, "users", nil)
	if err != nil {
		return fmt.Errorf("enginectl: build seq scan executor: %w", err)
	}
	if err := scan.Init(ctx); err != nil {
		return fmt.Errorf("enginectl: init seq scan executor: %w", err)
	}
	fmt.Println("users (sequential scan):")
	for {
		tuple, _, ok, err := scan.Next(ctx)
		if err != nil {
			return fmt.Errorf("enginectl: scan users: %w", err)
		}
		if !ok {
			break
		}
		fmt.Printf("  id=%d name=%s\n", tuple.Values[0].AsInteger(), tuple.Values[1].AsVarchar())
	}

	joinDemo(ctx, usersInfo, execCtx)

	if err := bpm.FlushAllPages(ctx); err != nil {
		return fmt.Errorf("enginectl: flush pool before shutdown: %w", err)
	}
	return nil
}

// joinDemo self-joins users against itself on id to demonstrate the
// NLJ-to-HashJoin optimizer rewrite; the pairing is meaningless (every row
// matches only itself) but it exercises the whole executor+optimizer path.
func joinDemo(ctx context.Context, usersInfo *catalog.TableInfo, execCtx *execution.ExecutorContext) {
	leftPlan := &execution.LeafPlan{Schema: usersInfo.Schema}
	rightPlan := &execution.LeafPlan{Schema: usersInfo.Schema}
	predicate := expression.NewComparison(
		expression.NewColumnValue(0, 0, types.Integer),
		expression.NewColumnValue(1, 0, types.Integer),
		expression.Equal,
	)
	nlj := &execution.NestedLoopJoinPlan{
		Left: leftPlan, Right: rightPlan, Predicate: predicate,
		JoinType: execution.InnerJoin, Schema: usersInfo.Schema,
	}

	rewritten := optimizer.OptimizeNLJAsHashJoin(nlj)
	hashPlan, ok := rewritten.(*execution.HashJoinPlan)
	if !ok {
		log.Warn("enginectl: expected NLJ-to-HashJoin rewrite, got unchanged plan")
		return
	}

	left, err := execution.NewSeqScanExecutor(execCtx, "users", nil)
	if err != nil {
		log.WithError(err).Warn("enginectl: build left scan for join demo")
		return
	}
	right, err := execution.NewSeqScanExecutor(execCtx, "users", nil)
	if err != nil {
		log.WithError(err).Warn("enginectl: build right scan for join demo")
		return
	}
	joinExec, err := execution.NewHashJoinExecutor(
		left, right, hashPlan.LeftKeyExprs, hashPlan.RightKeyExprs, hashPlan.JoinType, hashPlan.Schema,
	)
	if err != nil {
		log.WithError(err).Warn("enginectl: build hash join executor")
		return
	}
	if err := joinExec.Init(ctx); err != nil {
		log.WithError(err).Warn("enginectl: init hash join executor")
		return
	}

	fmt.Println("users self-joined on id (hash join, rewritten from a nested loop join):")
	for {
		tuple, _, ok, err := joinExec.Next(ctx)
		if err != nil {
			log.WithError(err).Warn("enginectl: hash join scan")
			return
		}
		if !ok {
			break
		}
		fmt.Printf("  id=%d name=%s == id=%d name=%s\n",
			tuple.Values[0].AsInteger(), tuple.Values[1].AsVarchar(),
			tuple.Values[2].AsInteger(), tuple.Values[3].AsVarchar())
	}
}

// staticRows is a fixed-list Executor standing in for a Values plan node,
// which this repository does not implement (query construction is out of
// scope; only the executor and optimizer layers are).
type staticRows struct {
	schema *types.Schema
	rows   []struct {
		id   int32
		name string
	}
	pos int
}

func (s *staticRows) Schema() *types.Schema          { return s.schema }
func (s *staticRows) Init(ctx context.Context) error { s.pos = 0; return nil }
func (s *staticRows) Next(ctx context.Context) (*types.Tuple, common.RID, bool, error) {
	if s.pos >= len(s.rows) {
		return nil, common.RID{}, false, nil
	}
	row := s.rows[s.pos]
	s.pos++
	tuple := types.NewTuple([]types.Value{types.NewInteger(row.id), types.NewVarchar(row.name)})
	return tuple, common.RID{}, true, nil
}
