package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxelstruct.ai/internal/buildsvc"
	"voxelstruct.ai/internal/persistence/indexdb"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/sim/encoding"
	"voxelstruct.ai/internal/sim/families"
	"voxelstruct.ai/internal/sim/tuning"
)

func newTestRoutes(t *testing.T, withIndex bool) *routes {
	t.Helper()
	tune := tuning.Defaults()
	cfg := buildsvc.Config{Registry: families.Default(tune), Tuning: tune}
	rt := &routes{
		log:    log.New(io.Discard, "", 0),
		seed:   42,
		snapTo: filepath.Join(t.TempDir(), "snapshots"),
		admin:  true,
	}
	if withIndex {
		idx, err := indexdb.OpenSQLite(filepath.Join(t.TempDir(), "index", "structures.sqlite"))
		if err != nil {
			t.Fatalf("OpenSQLite: %v", err)
		}
		t.Cleanup(func() { _ = idx.Close() })
		rt.idx = idx
		cfg.Index = idx
	}
	rt.svc = buildsvc.New(cfg)
	return rt
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, rd)
	req.RemoteAddr = "127.0.0.1:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes_Families(t *testing.T) {
	rt := newTestRoutes(t, false)
	rec := do(t, rt.handler(), http.MethodGet, "/v1/families", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rec.Code)
	}
	var resp struct {
		Families     []string `json:"families"`
		TuningDigest string   `json:"tuning_digest"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(resp.Families, ",") != "fortress,mansion,mineshaft,monument" {
		t.Fatalf("families=%v", resp.Families)
	}
	if resp.TuningDigest != rt.svc.TuningDigest() {
		t.Fatalf("digest=%q want %q", resp.TuningDigest, rt.svc.TuningDigest())
	}
}

func TestRoutes_BuildAndFetch(t *testing.T) {
	rt := newTestRoutes(t, false)
	h := rt.handler()

	rec := do(t, h, http.MethodPost, "/v1/structures?blocks=1", protocol.BuildMsg{
		ReqID:  "a1",
		Family: "monument",
		Seed:   11,
		Anchor: [3]int{0, 40, 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d want 201 body=%s", rec.Code, rec.Body.String())
	}
	var got protocol.StructureMsg
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ReqID != "a1" || got.Family != "monument" || len(got.Pieces) == 0 {
		t.Fatalf("structure=%+v", got)
	}
	if len(got.Blocks) == 0 {
		t.Fatalf("blocks=1 returned no block counts")
	}

	rec = do(t, h, http.MethodGet, "/v1/structures/"+got.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status=%d want 200", rec.Code)
	}
	var again protocol.StructureMsg
	if err := json.Unmarshal(rec.Body.Bytes(), &again); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if again.Digest != got.Digest {
		t.Fatalf("digest=%s want %s", again.Digest, got.Digest)
	}

	c := got.Chunks[0]
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/structures/%s/chunks/%d/%d", got.ID, c[0], c[1]), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("section status=%d want 200", rec.Code)
	}
	var sec struct {
		Section encoding.Section `json:"section"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, err := sec.Section.Blocks(); err != nil {
		t.Fatalf("section blocks: %v", err)
	}
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/v1/structures/%s/chunks/%d/%d", got.ID, c[0]+999, c[1]), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("untouched chunk status=%d want 404", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/v1/structures/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status=%d want 404", rec.Code)
	}
}

func TestRoutes_BuildErrors(t *testing.T) {
	rt := newTestRoutes(t, false)
	h := rt.handler()

	cases := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"unknown family", protocol.BuildMsg{ReqID: "e1", Family: "village"}, http.StatusNotFound, protocol.ErrUnknownFamily},
		{"missing family", protocol.BuildMsg{ReqID: "e2"}, http.StatusBadRequest, protocol.ErrBadRequest},
		{"wrong type", protocol.BuildMsg{Type: protocol.TypeHello, Family: "mansion"}, http.StatusBadRequest, protocol.ErrProtoBadRequest},
		{"not json", "{", http.StatusBadRequest, protocol.ErrBadRequest},
	}
	for _, tc := range cases {
		rec := do(t, h, http.MethodPost, "/v1/structures", tc.body)
		if rec.Code != tc.status {
			t.Fatalf("%s: status=%d want %d", tc.name, rec.Code, tc.status)
		}
		var em protocol.ErrorMsg
		if err := json.Unmarshal(rec.Body.Bytes(), &em); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if em.Code != tc.code {
			t.Fatalf("%s: code=%s want %s", tc.name, em.Code, tc.code)
		}
	}
}

func TestRoutes_ChunkQuery(t *testing.T) {
	for _, withIndex := range []bool{false, true} {
		t.Run(fmt.Sprintf("index=%v", withIndex), func(t *testing.T) {
			rt := newTestRoutes(t, withIndex)
			h := rt.handler()

			in, err := rt.svc.Build(context.Background(), protocol.BuildMsg{Family: "mineshaft", Seed: 5, Anchor: [3]int{100, 30, -50}}, "test")
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if rt.idx != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := rt.idx.Flush(ctx); err != nil {
					t.Fatalf("Flush: %v", err)
				}
			}
			c := in.Chunks()[0]

			rec := do(t, h, http.MethodGet, fmt.Sprintf("/v1/chunks/%d/%d/structures", c.X, c.Z), nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status=%d want 200", rec.Code)
			}
			var resp struct {
				Chunk      [2]int                 `json:"chunk"`
				Structures []indexdb.StructureRow `json:"structures"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Chunk != [2]int{c.X, c.Z} {
				t.Fatalf("chunk=%v", resp.Chunk)
			}
			if len(resp.Structures) != 1 || resp.Structures[0].ID != in.ID.String() {
				t.Fatalf("structures=%+v", resp.Structures)
			}

			rec = do(t, h, http.MethodGet, "/v1/chunks/9999/9999/structures", nil)
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Structures) != 0 {
				t.Fatalf("far chunk structures=%d want 0", len(resp.Structures))
			}

			rec = do(t, h, http.MethodGet, "/v1/chunks/x/0/structures", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("bad coords status=%d want 400", rec.Code)
			}
		})
	}
}

func TestRoutes_AdminSnapshot(t *testing.T) {
	rt := newTestRoutes(t, true)
	h := rt.handler()
	if _, err := rt.svc.Build(context.Background(), protocol.BuildMsg{Family: "fortress", Seed: 2}, "test"); err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec := do(t, h, http.MethodPost, "/admin/v1/snapshot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d want 200 body=%s", rec.Code, rec.Body.String())
	}
	var resp struct {
		OK         bool   `json:"ok"`
		Path       string `json:"path"`
		Structures int    `json:"structures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Structures != 1 {
		t.Fatalf("resp=%+v", resp)
	}
	if _, err := os.Stat(resp.Path); err != nil {
		t.Fatalf("snapshot file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/v1/state", nil)
	req.RemoteAddr = "10.0.0.8:5000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("remote admin status=%d want 403", rec.Code)
	}
}

func TestRoutes_Metrics(t *testing.T) {
	rt := newTestRoutes(t, true)
	h := rt.handler()
	_, _ = rt.svc.Build(context.Background(), protocol.BuildMsg{Family: "mansion", Seed: 1}, "test")
	_, _ = rt.svc.Build(context.Background(), protocol.BuildMsg{Family: "castle"}, "test")

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	body := rec.Body.String()
	for _, want := range []string{
		`voxelstruct_builds_total{world="` + rt.svc.WorldID() + `"} 1`,
		`voxelstruct_build_failures_total{world="` + rt.svc.WorldID() + `"} 1`,
		"voxelstruct_index_queue_depth",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:1":   true,
		"[::1]:8080":    true,
		"192.168.1.2:3": false,
		"garbage":       false,
	}
	for in, want := range cases {
		if got := isLoopbackRemote(in); got != want {
			t.Fatalf("isLoopbackRemote(%q)=%v want %v", in, got, want)
		}
	}
}
