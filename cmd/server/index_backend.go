package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voxelstruct.ai/internal/persistence/indexdb"
	vlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	RecordStructure(row indexdb.StructureRow)
	WriteAudit(entry vlog.AuditEntry) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
	UpsertTuning(tune tuning.Tuning) error
	Flush(ctx context.Context) error
	Close() error
}

// queryIndex is the read side only the sqlite backend has.
type queryIndex interface {
	Structure(ctx context.Context, id string) (indexdb.StructureRow, error)
	StructuresInChunk(ctx context.Context, cx, cz int) ([]indexdb.StructureRow, error)
}

func openRuntimeIndex(dir, worldID string, disableDB bool, logger *log.Logger) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("VS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dir, "index", "structures.sqlite")
		return indexdb.OpenSQLite(dbPath)
	case "d1":
		endpoint := strings.TrimSpace(os.Getenv("VS_INDEX_D1_INGEST_URL"))
		token := strings.TrimSpace(os.Getenv("VS_INDEX_D1_TOKEN"))
		if endpoint == "" {
			return nil, fmt.Errorf("VS_INDEX_BACKEND=d1 but VS_INDEX_D1_INGEST_URL is empty")
		}
		flushMS := envInt("VS_INDEX_D1_FLUSH_MS", 500)
		batchSize := envInt("VS_INDEX_D1_BATCH_SIZE", 128)
		idx, err := indexdb.OpenD1(indexdb.D1Config{
			Endpoint:      endpoint,
			Token:         token,
			WorldID:       worldID,
			BatchSize:     batchSize,
			FlushInterval: time.Duration(flushMS) * time.Millisecond,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unsupported VS_INDEX_BACKEND: %s", backend)
	}
}

// multiAuditLogger fans audit entries out to the JSONL log and the index.
type multiAuditLogger struct {
	a *vlog.AuditLogger
	b runtimeIndex
}

func (m multiAuditLogger) WriteAudit(entry vlog.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
