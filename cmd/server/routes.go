package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"voxelstruct.ai/internal/buildsvc"
	"voxelstruct.ai/internal/persistence/indexdb"
	"voxelstruct.ai/internal/protocol"
	"voxelstruct.ai/internal/transport/ws"
)

type routes struct {
	svc    *buildsvc.Service
	idx    runtimeIndex
	log    *log.Logger
	seed   int64
	snapTo string
	admin  bool
}

func (rt *routes) handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", rt.metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", ws.NewServer(rt.svc, rt.log).Handler())
		r.Get("/families", rt.families)
		r.Post("/structures", rt.build)
		r.Get("/structures/{id}", rt.structure)
		r.Get("/structures/{id}/chunks/{x}/{z}", rt.section)
		r.Get("/chunks/{x}/{z}/structures", rt.chunk)
	})

	if rt.admin {
		// Local-only admin endpoints.
		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(loopbackOnly)
			r.Get("/state", rt.state)
			r.Post("/snapshot", rt.snapshot)
		})
	}
	return r
}

func (rt *routes) families(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"families":      rt.svc.Families(),
		"tuning_digest": rt.svc.TuningDigest(),
		"world_id":      rt.svc.WorldID(),
	})
}

func (rt *routes) build(w http.ResponseWriter, r *http.Request) {
	var req protocol.BuildMsg
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024))
	if err := dec.Decode(&req); err != nil {
		respondError(w, protocol.NewError("", protocol.ErrBadRequest, "bad BUILD body: %v", err))
		return
	}
	if req.Type != "" && req.Type != protocol.TypeBuild {
		respondError(w, protocol.NewError(req.ReqID, protocol.ErrProtoBadRequest, "unexpected %s", req.Type))
		return
	}
	in, err := rt.svc.Build(r.Context(), req, "http")
	if err != nil {
		var em protocol.ErrorMsg
		if !errors.As(err, &em) {
			em = protocol.NewError(req.ReqID, protocol.ErrInternal, "%v", err)
		}
		respondError(w, em)
		return
	}
	blocks, _ := strconv.ParseBool(r.URL.Query().Get("blocks"))
	respondJSON(w, http.StatusCreated, rt.svc.Describe(req.ReqID, in, blocks))
}

func (rt *routes) structure(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if in, ok := rt.svc.Lookup(id); ok {
		blocks, _ := strconv.ParseBool(r.URL.Query().Get("blocks"))
		respondJSON(w, http.StatusOK, rt.svc.Describe("", in, blocks))
		return
	}
	if q, ok := rt.idx.(queryIndex); ok {
		row, err := q.Structure(r.Context(), id)
		if err == nil {
			respondJSON(w, http.StatusOK, row)
			return
		}
		if !errors.Is(err, indexdb.ErrNotFound) {
			rt.log.Printf("index structure %s: %v", id, err)
			respondError(w, protocol.NewError("", protocol.ErrInternal, "index lookup failed"))
			return
		}
	}
	respondError(w, protocol.NewError("", protocol.ErrNotFound, "no structure %s", id))
}

func (rt *routes) section(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, ok := rt.svc.Lookup(id)
	if !ok {
		respondError(w, protocol.NewError("", protocol.ErrNotFound, "no recent structure %s", id))
		return
	}
	cx, err1 := strconv.Atoi(chi.URLParam(r, "x"))
	cz, err2 := strconv.Atoi(chi.URLParam(r, "z"))
	if err1 != nil || err2 != nil {
		respondError(w, protocol.NewError("", protocol.ErrBadRequest, "chunk coordinates must be integers"))
		return
	}
	sec, ok := rt.svc.ChunkSection(in, cx, cz)
	if !ok {
		respondError(w, protocol.NewError("", protocol.ErrNotFound, "structure %s does not touch chunk %d,%d", id, cx, cz))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "section": sec})
}

func (rt *routes) chunk(w http.ResponseWriter, r *http.Request) {
	cx, err1 := strconv.Atoi(chi.URLParam(r, "x"))
	cz, err2 := strconv.Atoi(chi.URLParam(r, "z"))
	if err1 != nil || err2 != nil {
		respondError(w, protocol.NewError("", protocol.ErrBadRequest, "chunk coordinates must be integers"))
		return
	}

	rows := []indexdb.StructureRow{}
	if q, ok := rt.idx.(queryIndex); ok {
		list, err := q.StructuresInChunk(r.Context(), cx, cz)
		if err != nil {
			rt.log.Printf("index chunk %d,%d: %v", cx, cz, err)
			respondError(w, protocol.NewError("", protocol.ErrInternal, "index lookup failed"))
			return
		}
		rows = append(rows, list...)
	} else {
		for _, in := range rt.svc.InChunk(cx, cz) {
			rows = append(rows, indexdb.RowOf(in))
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"chunk":      [2]int{cx, cz},
		"structures": rows,
	})
}

func (rt *routes) state(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"world_id": rt.svc.WorldID(),
		"counters": rt.svc.Counters(),
	}
	if st, ok := rt.idx.(interface{ Stats() indexdb.Stats }); ok {
		resp["index"] = st.Stats()
	}
	if st, ok := rt.idx.(interface{ Stats() indexdb.D1Stats }); ok {
		resp["index"] = st.Stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (rt *routes) snapshot(w http.ResponseWriter, r *http.Request) {
	path, snap, err := rt.svc.WriteSnapshot(rt.snapTo, rt.seed)
	if err != nil {
		rt.log.Printf("snapshot write: %v", err)
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if rt.idx != nil {
		rt.idx.RecordSnapshot(path, snap)
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		_ = rt.idx.Flush(ctx)
	}
	respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": path, "structures": len(snap.Structures)})
}

func (rt *routes) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	c := rt.svc.Counters()
	world := rt.svc.WorldID()

	// Minimal Prometheus exposition format.
	fmt.Fprintf(w, "# HELP voxelstruct_builds_total Structures built.\n")
	fmt.Fprintf(w, "# TYPE voxelstruct_builds_total counter\n")
	fmt.Fprintf(w, "voxelstruct_builds_total{world=%q} %d\n", world, c.Built)

	fmt.Fprintf(w, "# HELP voxelstruct_build_failures_total Rejected or failed build requests.\n")
	fmt.Fprintf(w, "# TYPE voxelstruct_build_failures_total counter\n")
	fmt.Fprintf(w, "voxelstruct_build_failures_total{world=%q} %d\n", world, c.Failed)

	fmt.Fprintf(w, "# HELP voxelstruct_recent_structures Structures addressable by id.\n")
	fmt.Fprintf(w, "# TYPE voxelstruct_recent_structures gauge\n")
	fmt.Fprintf(w, "voxelstruct_recent_structures{world=%q} %d\n", world, c.Recent)

	if st, ok := rt.idx.(interface{ Stats() indexdb.Stats }); ok {
		s := st.Stats()
		fmt.Fprintf(w, "# HELP voxelstruct_index_queue_depth Index writer backlog.\n")
		fmt.Fprintf(w, "# TYPE voxelstruct_index_queue_depth gauge\n")
		fmt.Fprintf(w, "voxelstruct_index_queue_depth{world=%q} %d\n", world, s.QueueDepth)
		fmt.Fprintf(w, "# HELP voxelstruct_index_dropped_total Index writes dropped on a full queue.\n")
		fmt.Fprintf(w, "# TYPE voxelstruct_index_dropped_total counter\n")
		fmt.Fprintf(w, "voxelstruct_index_dropped_total{world=%q,kind=%q} %d\n", world, "structure", s.DropStructureTotal)
		fmt.Fprintf(w, "voxelstruct_index_dropped_total{world=%q,kind=%q} %d\n", world, "audit", s.DropAuditTotal)
		fmt.Fprintf(w, "voxelstruct_index_dropped_total{world=%q,kind=%q} %d\n", world, "snapshot", s.DropSnapshotTotal)
	}
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func statusFor(code string) int {
	switch code {
	case protocol.ErrBadRequest, protocol.ErrProtoBadRequest, protocol.ErrProtoVersion:
		return http.StatusBadRequest
	case protocol.ErrUnknownFamily, protocol.ErrNotFound:
		return http.StatusNotFound
	case protocol.ErrRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, em protocol.ErrorMsg) {
	respondJSON(w, statusFor(em.Code), em)
}
