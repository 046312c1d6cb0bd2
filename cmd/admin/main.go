package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelstruct.ai/internal/buildsvc"
	persistlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/paint"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "build":
			buildCmd(os.Args[2:])
			return
		case "inspect":
			inspectCmd(os.Args[2:])
			return
		case "paint":
			paintCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "worlds")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func loadTuning(path string) tuning.Tuning {
	tune, err := tuning.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	return tune
}

// buildCmd builds structures offline and writes them as a snapshot the
// server can resume from.
func buildCmd(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (optional)")
	family := fs.String("family", "", "structure family (required)")
	seed := fs.Int64("seed", 0, "first structure seed")
	count := fs.Int("count", 1, "structures to build; seeds and anchors step from the first")
	spacing := fs.Int("spacing", 512, "x distance between successive anchors")
	anchor := fs.String("anchor", "0,64,0", "anchor x,y,z")
	facing := fs.String("facing", "", "north|east|south|west (default: drawn from the seed)")
	outPath := fs.String("out", "", "snapshot path (default: <data>/worlds/<world>/snapshots/<now>.snap.zst)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*family) == "" {
		fmt.Fprintln(os.Stderr, "missing -family")
		os.Exit(2)
	}
	at, err := parseVec3(*anchor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -anchor:", err)
		os.Exit(2)
	}
	if *count <= 0 {
		*count = 1
	}

	tune := loadTuning(*tuningPath)
	worldDir := filepath.Join(*dataDir, "worlds", tune.WorldID)
	buildLog := persistlog.NewBuildLogger(worldDir)
	defer buildLog.Close()

	svc := buildsvc.New(buildsvc.Config{
		Registry: families.Default(tune),
		Tuning:   tune,
		BuildLog: buildLog,
		Logger:   log.New(os.Stderr, "[admin] ", log.LstdFlags),
		Recent:   *count,
	})
	for i := 0; i < *count; i++ {
		req := protocol.BuildMsg{
			Type:   protocol.TypeBuild,
			ReqID:  strconv.Itoa(i),
			Family: *family,
			Seed:   *seed + int64(i),
			Anchor: [3]int{at[0] + i**spacing, at[1], at[2]},
			Facing: *facing,
		}
		in, err := svc.Build(context.Background(), req, "admin")
		if err != nil {
			fmt.Fprintln(os.Stderr, "build:", err)
			buildLog.Close()
			os.Exit(1)
		}
		printJSON(buildsvc.StructureMsgOf(req.ReqID, in))
	}

	snap, err := svc.Snapshot(*seed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "snapshot:", err)
		os.Exit(1)
	}
	path := strings.TrimSpace(*outPath)
	if path == "" {
		path = filepath.Join(worldDir, "snapshots", fmt.Sprintf("%d.snap.zst", time.Now().UnixNano()))
	}
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		fmt.Fprintln(os.Stderr, "write snapshot:", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote snapshot=%s structures=%d\n", path, len(snap.Structures))
}

// openSnapshot resolves -snapshot or the latest snapshot of the world.
func openSnapshot(dataDir, worldID, snapPath string) (string, snapshot.SnapshotV1) {
	path := strings.TrimSpace(snapPath)
	if path == "" {
		if strings.TrimSpace(worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -snapshot or -world")
			os.Exit(2)
		}
		path = buildsvc.LatestSnapshot(filepath.Join(dataDir, "worlds", worldID, "snapshots"))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run the server until it writes one")
		os.Exit(2)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	return path, snap
}

type pieceLine struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Depth  int    `json:"depth"`
	Facing string `json:"facing"`
	Bounds [6]int `json:"bounds"`
}

func inspectCmd(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used to find the latest snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (optional)")
	id := fs.String("id", "", "only this structure")
	pieces := fs.Bool("pieces", false, "list every piece")
	_ = fs.Parse(args)

	path, snap := openSnapshot(*dataDir, *worldID, *snapPath)
	reg := families.Default(loadTuning(*tuningPath))
	fmt.Fprintf(os.Stderr, "snapshot=%s world=%s structures=%d\n", filepath.Base(path), snap.Header.WorldID, len(snap.Structures))

	for _, st := range snap.Structures {
		if *id != "" && st.ID != *id {
			continue
		}
		in, errs := structure.Import(st, reg.Decoders())
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "%s: %v\n", st.ID, err)
		}
		printJSON(buildsvc.StructureMsgOf("", in))
		if !*pieces {
			continue
		}
		for i, p := range in.Pieces {
			printJSON(pieceLine{
				Index:  i,
				Kind:   string(p.Kind),
				Depth:  p.Depth,
				Facing: p.Facing.String(),
				Bounds: p.Box.Array(),
			})
		}
	}
}

// paintCmd paints one structure into an in-memory world and prints its
// block totals and one-shot spawns.
func paintCmd(args []string) {
	fs := flag.NewFlagSet("paint", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (used to find the latest snapshot)")
	snapPath := fs.String("snapshot", "", "snapshot path (optional)")
	tuningPath := fs.String("tuning", "", "path to tuning.yaml (optional)")
	id := fs.String("id", "", "structure id from the snapshot")
	family := fs.String("family", "", "build this family instead of reading a snapshot")
	seed := fs.Int64("seed", 0, "seed for -family")
	anchor := fs.String("anchor", "0,64,0", "anchor x,y,z for -family")
	facing := fs.String("facing", "", "facing for -family")
	chunk := fs.String("chunk", "", "paint only chunk cx,cz (optional)")
	floor := fs.Int("floor", 0, "surface height of the in-memory world")
	_ = fs.Parse(args)

	reg := families.Default(loadTuning(*tuningPath))

	var in *structure.Instance
	if strings.TrimSpace(*family) != "" {
		at, err := parseVec3(*anchor)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -anchor:", err)
			os.Exit(2)
		}
		f, err := geom.ParseFacing(*facing)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -facing:", err)
			os.Exit(2)
		}
		in, err = reg.Build(strings.ToLower(*family), at, f, *seed)
		if err != nil {
			fmt.Fprintln(os.Stderr, "build:", err)
			os.Exit(1)
		}
	} else {
		if *id == "" {
			fmt.Fprintln(os.Stderr, "missing -id or -family")
			os.Exit(2)
		}
		_, snap := openSnapshot(*dataDir, *worldID, *snapPath)
		for _, st := range snap.Structures {
			if st.ID != *id {
				continue
			}
			var errs []error
			in, errs = structure.Import(st, reg.Decoders())
			for _, err := range errs {
				fmt.Fprintf(os.Stderr, "%s: %v\n", st.ID, err)
			}
		}
		if in == nil {
			fmt.Fprintln(os.Stderr, "no structure", *id, "in snapshot")
			os.Exit(1)
		}
	}

	w := paint.NewMemWorld(*floor)
	var pieces int
	if strings.TrimSpace(*chunk) != "" {
		c, err := parseVec2(*chunk)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -chunk:", err)
			os.Exit(2)
		}
		pieces = in.PaintChunk(w, geom.ChunkPos{X: c[0], Z: c[1]})
	} else {
		pieces = in.PaintAll(w)
	}

	printJSON(struct {
		ID      string             `json:"id"`
		Family  string             `json:"family"`
		Painted int                `json:"painted_pieces"`
		Blocks  []paint.BlockCount `json:"blocks"`
		Spawns  []paint.Entity     `json:"spawns"`
	}{in.ID.String(), in.Family, pieces, w.Counts(), w.Spawns()})
}

// auditCmd prints audit entries, newest first.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required)")
	id := fs.String("id", "", "structure id filter")
	action := fs.String("action", "", "PIECE_DROPPED|DIGEST_MISMATCH filter")
	since := fs.String("since", "", "RFC3339 lower bound (optional)")
	limit := fs.Int("limit", 100, "result limit")
	_ = fs.Parse(args)

	if strings.TrimSpace(*worldID) == "" {
		fmt.Fprintln(os.Stderr, "missing -world")
		os.Exit(2)
	}
	var from time.Time
	if strings.TrimSpace(*since) != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			fmt.Fprintln(os.Stderr, "bad -since:", err)
			os.Exit(2)
		}
		from = t
	}

	recs, err := readAudit(filepath.Join(*dataDir, "worlds", *worldID), auditFilter{
		StructureID: *id,
		Action:      strings.ToUpper(*action),
		Since:       from,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	for i, r := range recs {
		if *limit > 0 && i >= *limit {
			break
		}
		printJSON(r.Entry)
	}
}

type auditFilter struct {
	StructureID string
	Action      string
	Since       time.Time
}

func (f auditFilter) match(e persistlog.AuditEntry) bool {
	if f.StructureID != "" && e.StructureID != f.StructureID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	return f.Since.IsZero() || !e.Time.Before(f.Since)
}

type auditRec struct {
	Seq   uint64
	Entry persistlog.AuditEntry
}

func readAudit(worldDir string, filter auditFilter) ([]auditRec, error) {
	dir := filepath.Join(worldDir, "audit")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]auditRec, 0, 256)
	var seq uint64

	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		sc := bufio.NewScanner(dec)
		sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
		for sc.Scan() {
			var e persistlog.AuditEntry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				dec.Close()
				_ = f.Close()
				return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			seq++
			if filter.match(e) {
				out = append(out, auditRec{Seq: seq, Entry: e})
			}
		}
		if err := sc.Err(); err != nil {
			dec.Close()
			_ = f.Close()
			return nil, err
		}
		dec.Close()
		_ = f.Close()
	}

	// Newest first; same instant falls back to reverse read order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Entry.Time.Equal(out[j].Entry.Time) {
			return out[i].Entry.Time.After(out[j].Entry.Time)
		}
		return out[i].Seq > out[j].Seq
	})
	return out, nil
}

func parseVec3(s string) ([3]int, error) {
	var v [3]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return v, fmt.Errorf("expected x,y,z")
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}

func parseVec2(s string) ([2]int, error) {
	var v [2]int
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return v, fmt.Errorf("expected x,z")
	}
	for i := 0; i < 2; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v, err
		}
		v[i] = n
	}
	return v, nil
}
