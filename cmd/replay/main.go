package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	persistlog "voxelstruct.ai/internal/persistence/log"
	"voxelstruct.ai/internal/persistence/snapshot"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/geom"
	"voxelstruct.ai/internal/sim/structure"
	"voxelstruct.ai/internal/sim/tuning"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	var (
		snapPath   = fs.String("snapshot", "", "path to .snap.zst (optional)")
		buildsDir  = fs.String("builds", "", "builds dir containing builds-*.jsonl.zst (optional)")
		tuningPath = fs.String("tuning", "", "path to tuning.yaml (default: built-in tuning)")
		auditDir   = fs.String("audit", "", "world dir to append DIGEST_MISMATCH audit entries under (optional)")
		keepGoing  = fs.Bool("keep_going", false, "report every mismatch instead of stopping at the first")
	)
	_ = fs.Parse(args)

	if *snapPath == "" && *buildsDir == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot or -builds")
		return 2
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		return 1
	}
	r := &replayer{reg: families.Default(tune), keepGoing: *keepGoing}
	if *auditDir != "" {
		al := persistlog.NewAuditLogger(*auditDir)
		defer al.Close()
		r.audit = al
	}

	if *snapPath != "" {
		snap, err := snapshot.ReadSnapshot(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			return 1
		}
		fmt.Printf("snapshot v%d world=%s seed=%d structures=%d\n",
			snap.Header.Version, snap.Header.WorldID, snap.Header.Seed, len(snap.Structures))
		if err := r.snapshot(snap); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			return 1
		}
	}

	if *buildsDir != "" {
		files, err := listBuildFiles(*buildsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list builds:", err)
			return 1
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "no builds files found in", *buildsDir)
			return 1
		}
		for _, path := range files {
			if err := r.buildsFile(path); err != nil {
				fmt.Fprintln(os.Stderr, "replay:", err)
				return 1
			}
		}
	}

	if r.mismatched > 0 {
		fmt.Printf("replay FAILED: checked=%d mismatched=%d\n", r.checked, r.mismatched)
		if r.audit != nil {
			fmt.Printf("audit entries written: %d\n", r.audit.Written())
		}
		return 1
	}
	fmt.Printf("replay ok: checked=%d structures\n", r.checked)
	return 0
}

type replayer struct {
	reg       *structure.Registry
	audit     *persistlog.AuditLogger
	keepGoing bool

	checked    int
	mismatched int
}

// snapshot rebuilds every stored structure from its inputs and also checks
// that the stored pieces decode back to the recorded digest.
func (r *replayer) snapshot(snap snapshot.SnapshotV1) error {
	for _, st := range snap.Structures {
		got, err := r.rebuild(st.Family, st.Seed, st.Anchor, geom.Facing(st.Facing))
		if err != nil {
			return fmt.Errorf("structure %s: %w", st.ID, err)
		}
		if err := r.compare(st.ID, st.Family, "rebuild", got, st.Digest); err != nil {
			return err
		}

		in, errs := structure.Import(st, r.reg.Decoders())
		if len(errs) > 0 {
			if err := r.compare(st.ID, st.Family, "import", fmt.Sprintf("%d pieces dropped", len(errs)), st.Digest); err != nil {
				return err
			}
			continue
		}
		if err := r.compare(st.ID, st.Family, "import", in.Digest(), st.Digest); err != nil {
			return err
		}
	}
	return nil
}

func (r *replayer) buildsFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		var entry persistlog.BuildEntry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		facing, err := geom.ParseFacing(entry.Facing)
		if err != nil {
			return fmt.Errorf("%s: structure %s: %w", filepath.Base(path), entry.ID, err)
		}
		got, err := r.rebuild(entry.Family, entry.Seed, entry.Anchor, facing)
		if err != nil {
			return fmt.Errorf("%s: structure %s: %w", filepath.Base(path), entry.ID, err)
		}
		if err := r.compare(entry.ID, entry.Family, "build log", got, entry.Digest); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (r *replayer) rebuild(family string, seed int64, anchor [3]int, facing geom.Facing) (string, error) {
	in, err := r.reg.Build(family, anchor, facing, seed)
	if err != nil {
		return "", err
	}
	return in.Digest(), nil
}

func (r *replayer) compare(id, family, stage, got, want string) error {
	r.checked++
	if got == want {
		return nil
	}
	r.mismatched++
	detail := fmt.Sprintf("%s: got=%s want=%s", stage, got, want)
	if r.audit != nil {
		_ = r.audit.WriteAudit(persistlog.AuditEntry{
			Time:        time.Now().UTC(),
			Action:      persistlog.AuditDigestMismatch,
			StructureID: id,
			Family:      family,
			Detail:      detail,
		})
	}
	if !r.keepGoing {
		return fmt.Errorf("digest mismatch for %s %s: %s", family, id, detail)
	}
	fmt.Printf("mismatch %s %s: %s\n", family, id, detail)
	return nil
}

func listBuildFiles(dir string) ([]string, error) {
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
		if strings.HasPrefix(name, "builds-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}
