package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/tuning"
)

var ErrNotFound = errors.New("structure not found")

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropStructure atomic.Uint64
	dropAudit     atomic.Uint64
	dropSnapshot  atomic.Uint64
}

// Stats reports queue pressure. Drops happen when the writer falls behind;
// the JSONL build log stays the source of truth.
type Stats struct {
	QueueDepth         int    `json:"queue_depth"`
	QueueCapacity      int    `json:"queue_capacity"`
	DropStructureTotal uint64 `json:"drop_structure_total"`
	DropAuditTotal     uint64 `json:"drop_audit_total"`
	DropSnapshotTotal  uint64 `json:"drop_snapshot_total"`
}

type reqKind int

const (
	reqStructure reqKind = iota + 1
	reqAudit
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	structure StructureRow
	audit     vlog.AuditEntry
	snapshot  snapshotRow
	done      chan struct{}
}

type snapshotRow struct {
	Path       string
	WorldID    string
	Seed       int64
	Structures int
	Pieces     int
	RecordedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Batch builds (admin index runs, replays) arrive in bursts.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS configs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS structures (
			id TEXT PRIMARY KEY,
			family TEXT NOT NULL,
			seed INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			facing INTEGER NOT NULL,
			min_x INTEGER NOT NULL,
			min_y INTEGER NOT NULL,
			min_z INTEGER NOT NULL,
			max_x INTEGER NOT NULL,
			max_y INTEGER NOT NULL,
			max_z INTEGER NOT NULL,
			pieces INTEGER NOT NULL,
			digest TEXT NOT NULL,
			built_at TEXT NOT NULL,
			raw_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_structures_family_seed ON structures(family, seed);`,
		`CREATE TABLE IF NOT EXISTS structure_chunks (
			cx INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			structure_id TEXT NOT NULL REFERENCES structures(id) ON DELETE CASCADE,
			PRIMARY KEY (cx, cz, structure_id)
		);`,
		`CREATE TABLE IF NOT EXISTS audits (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			structure_id TEXT NOT NULL,
			action TEXT NOT NULL,
			family TEXT,
			detail TEXT NOT NULL,
			at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_audits_structure ON audits(structure_id);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			seed INTEGER NOT NULL,
			structures INTEGER NOT NULL,
			pieces INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:         len(s.ch),
		QueueCapacity:      cap(s.ch),
		DropStructureTotal: s.dropStructure.Load(),
		DropAuditTotal:     s.dropAudit.Load(),
		DropSnapshotTotal:  s.dropSnapshot.Load(),
	}
}

// RecordStructure queues one structure and its chunk footprint.
func (s *SQLiteIndex) RecordStructure(row StructureRow) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqStructure, structure: row}:
	default:
		s.dropStructure.Add(1)
	}
}

func (s *SQLiteIndex) WriteAudit(entry vlog.AuditEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqAudit, audit: entry}:
	default:
		s.dropAudit.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		Path:       path,
		WorldID:    snap.Header.WorldID,
		Seed:       snap.Header.Seed,
		Structures: len(snap.Structures),
		RecordedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	for _, st := range snap.Structures {
		r.Pieces += len(st.Pieces)
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// Flush waits until everything queued before it is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	done := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpsertTuning stores the budgets the server actually builds with.
func (s *SQLiteIndex) UpsertTuning(tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	b, err := json.Marshal(tune)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT OR REPLACE INTO configs(name,digest,json,updated_at) VALUES(?,?,?,?)`,
		"tuning", tune.Digest(), string(b), now); err != nil {
		return err
	}
	return tx.Commit()
}

const structureCols = `s.id,s.family,s.seed,s.x,s.y,s.z,s.facing,s.min_x,s.min_y,s.min_z,s.max_x,s.max_y,s.max_z,s.pieces,s.digest,s.built_at,s.raw_json`

func scanStructure(sc interface{ Scan(...any) error }) (StructureRow, error) {
	var (
		r   StructureRow
		raw string
	)
	err := sc.Scan(&r.ID, &r.Family, &r.Seed,
		&r.Anchor[0], &r.Anchor[1], &r.Anchor[2], &r.Facing,
		&r.Bounds[0], &r.Bounds[1], &r.Bounds[2], &r.Bounds[3], &r.Bounds[4], &r.Bounds[5],
		&r.Pieces, &r.Digest, &r.BuiltAt, &raw)
	if err != nil {
		return r, err
	}
	var full StructureRow
	if json.Unmarshal([]byte(raw), &full) == nil {
		r.Stats = full.Stats
		r.Chunks = full.Chunks
	}
	return r, nil
}

// Structure reads one structure by id.
func (s *SQLiteIndex) Structure(ctx context.Context, id string) (StructureRow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+structureCols+` FROM structures s WHERE s.id=?`, id)
	r, err := scanStructure(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// StructuresInChunk lists every structure with a piece in chunk (cx,cz),
// ordered by id.
func (s *SQLiteIndex) StructuresInChunk(ctx context.Context, cx, cz int) ([]StructureRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+structureCols+`
		FROM structure_chunks c JOIN structures s ON s.id = c.structure_id
		WHERE c.cx=? AND c.cz=? ORDER BY s.id`, cx, cz)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StructureRow
	for rows.Next() {
		r, err := scanStructure(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertStructure, _ := s.db.Prepare(`INSERT OR REPLACE INTO structures(id,family,seed,x,y,z,facing,min_x,min_y,min_z,max_x,max_y,max_z,pieces,digest,built_at,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	deleteChunks, _ := s.db.Prepare(`DELETE FROM structure_chunks WHERE structure_id=?`)
	insertChunk, _ := s.db.Prepare(`INSERT OR REPLACE INTO structure_chunks(cx,cz,structure_id) VALUES(?,?,?)`)
	insertAudit, _ := s.db.Prepare(`INSERT INTO audits(structure_id,action,family,detail,at) VALUES(?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,world_id,seed,structures,pieces,recorded_at) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertStructure, deleteChunks, insertChunk, insertAudit, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.done)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqStructure:
			st := r.structure
			raw, _ := json.Marshal(st)
			if insertStructure == nil || deleteChunks == nil || insertChunk == nil {
				continue
			}
			if _, err := tx.Stmt(insertStructure).Exec(
				st.ID, st.Family, st.Seed,
				st.Anchor[0], st.Anchor[1], st.Anchor[2], st.Facing,
				st.Bounds[0], st.Bounds[1], st.Bounds[2], st.Bounds[3], st.Bounds[4], st.Bounds[5],
				st.Pieces, st.Digest, st.BuiltAt, string(raw),
			); err != nil {
				rollback()
				continue
			}
			opCount++
			if _, err := tx.Stmt(deleteChunks).Exec(st.ID); err != nil {
				rollback()
				continue
			}
			for _, c := range st.Chunks {
				if _, err := tx.Stmt(insertChunk).Exec(c[0], c[1], st.ID); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqAudit:
			a := r.audit
			at := a.Time
			if at.IsZero() {
				at = time.Now()
			}
			if insertAudit != nil {
				if _, err := tx.Stmt(insertAudit).Exec(a.StructureID, a.Action, a.Family, a.Detail, at.UTC().Format(time.RFC3339Nano)); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(sn.Path, sn.WorldID, sn.Seed, sn.Structures, sn.Pieces, sn.RecordedAt); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
