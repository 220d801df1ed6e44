// Command server exposes the storage core over HTTP (JSON) and gRPC (a
// hand-rolled JSON codec service, no protobuf codegen — the teacher's own
// approach to keeping the wire format introspectable without a .proto
// build step). It wires internal/config, internal/storage's catalog and
// maintenance scheduler, and internal/engine's compiler/executor.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/minipagedb/minipagedb/internal/config"
	"github.com/minipagedb/minipagedb/internal/engine"
	"github.com/minipagedb/minipagedb/internal/netserver"
	"github.com/minipagedb/minipagedb/internal/storage"
)

var flagConfig = flag.String("config", "", "Path to a YAML config file (optional; built-in defaults otherwise)")

// execRequest/execResponse and queryRequest/queryResponse are the request
// and response envelopes shared by the HTTP JSON handlers and the gRPC
// JSON-codec service beneath them.
type execRequest struct {
	SQL string `json:"sql"`
}
type execResponse struct {
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	RowsAffected int    `json:"rows_affected,omitempty"`
	Duration     string `json:"duration"`
	RequestID    string `json:"request_id,omitempty"`
}

type queryRequest struct {
	SQL string `json:"sql"`
}
type queryResponse struct {
	SQL       string           `json:"sql"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	Error     string           `json:"error,omitempty"`
	Duration  string           `json:"duration"`
	Count     int              `json:"count"`
	RequestID string           `json:"request_id,omitempty"`
}

// jsonCodec lets the gRPC service speak plain JSON instead of protobuf, so
// the wire format matches the HTTP JSON handlers exactly.
type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (jsonCodec) Unmarshal(d []byte, v any) error { return json.Unmarshal(d, v) }

// minipagedbServer is the manually registered gRPC service interface
// (Exec/Query), mirroring the HTTP handlers without a .proto build step.
type minipagedbServer interface {
	Exec(context.Context, *execRequest) (*execResponse, error)
	Query(context.Context, *queryRequest) (*queryResponse, error)
}

func registerServer(s *grpc.Server, srv minipagedbServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "minipagedb.Storage",
		HandlerType: (*minipagedbServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Exec", Handler: execHandler},
			{MethodName: "Query", Handler: queryHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "minipagedb",
	}, srv)
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(execRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(minipagedbServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/minipagedb.Storage/Exec"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(minipagedbServer).Exec(ctx, req.(*execRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func queryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(queryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(minipagedbServer).Query(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/minipagedb.Storage/Query"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(minipagedbServer).Query(ctx, req.(*queryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// server holds the process-wide state: the catalog, the default
// database/schema every request targets (this engine has no USE statement
// — one schema per process, per spec.md §6's pinned command surface), and
// a shared query cache.
type server struct {
	catalog  *storage.Catalog
	db       *storage.Database
	schema   *storage.Schema
	cache    *engine.QueryCache
	defaults engine.TableDefaults
}

func newServer(cfg *config.ServerConfig) (*server, error) {
	catalog := storage.NewCatalog()
	db, err := catalog.CreateDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	schema, err := db.CreateSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}
	defaults := engine.TableDefaults{
		Fanout:   cfg.Engine.Fanout,
		Strategy: cfg.Engine.FitStrategy(),
		Coalesce: cfg.Engine.Coalesce,
	}
	return &server{catalog: catalog, db: db, schema: schema, cache: engine.NewQueryCache(200), defaults: defaults}, nil
}

func (s *server) Exec(ctx context.Context, req *execRequest) (*execResponse, error) {
	start := time.Now()
	compiled, err := s.cache.Compile(req.SQL)
	if err != nil {
		return &execResponse{Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	res, err := compiled.Execute(ctx, s.db, s.schema, s.defaults)
	if err != nil {
		return &execResponse{Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	return &execResponse{Success: true, RowsAffected: res.RowsAffected, Duration: time.Since(start).String()}, nil
}

func (s *server) Query(ctx context.Context, req *queryRequest) (*queryResponse, error) {
	start := time.Now()
	compiled, err := s.cache.Compile(req.SQL)
	if err != nil {
		return &queryResponse{SQL: req.SQL, Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	res, err := compiled.Execute(ctx, s.db, s.schema, s.defaults)
	if err != nil {
		return &queryResponse{SQL: req.SQL, Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	rows := make([]map[string]any, len(res.Rows))
	for i, row := range res.Rows {
		m := make(map[string]any, len(res.Columns))
		for j, col := range res.Columns {
			if j < len(row) {
				m[col] = row[j].String()
			}
		}
		rows[i] = m
	}
	return &queryResponse{
		SQL:      req.SQL,
		Columns:  res.Columns,
		Rows:     rows,
		Duration: time.Since(start).String(),
		Count:    len(rows),
	}, nil
}

func (s *server) handleExec(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req execRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Exec(r.Context(), &req)
	if id, ok := netserver.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id.String()
	}
	writeJSON(w, resp)
}

func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Query(r.Context(), &req)
	if id, ok := netserver.RequestIDFromContext(r.Context()); ok {
		resp.RequestID = id.String()
	}
	writeJSON(w, resp)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":          true,
		"time":        time.Now().Format(time.RFC3339),
		"database":    s.db.Name,
		"database_id": s.db.ID,
		"schema":      s.schema.Name,
		"schema_id":   s.schema.ID,
		"tables":      s.schema.Tables(),
	})
}

// writeJSON marshals v through storage.JSONMarshal rather than calling
// encoding/json directly, giving every HTTP response one shared
// normalization path for catalog values — handleStatus's database_id and
// schema_id are uuid.UUID, which JSONMarshal renders as a plain string.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	b, err := storage.JSONMarshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(b)
}

// grpcQuery is a small JSON-codec gRPC client helper for exercising the
// gRPC surface without a .proto-generated stub. Nothing in this
// repository calls it.
func grpcQuery(addr string, req *queryRequest) (*queryResponse, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
	)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	var resp queryResponse
	if err := conn.Invoke(context.Background(), "/minipagedb.Storage/Query", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return &resp, fmt.Errorf("%s", resp.Error)
	}
	return &resp, nil
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("server: config: %v", err)
		}
		cfg = loaded
	}

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	sched := storage.NewScheduler(srv.catalog)
	if err := sched.Start(cfg.CronSpec); err != nil {
		log.Fatalf("server: scheduler: %v", err)
	}
	defer sched.Stop()

	encoding.RegisterCodec(jsonCodec{})

	if cfg.GRPCAddr != "" {
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Printf("server: gRPC listen: %v", err)
				return
			}
			gs := grpc.NewServer()
			registerServer(gs, srv)
			log.Printf("server: gRPC listening on %s", cfg.GRPCAddr)
			if err := gs.Serve(lis); err != nil {
				log.Printf("server: gRPC serve: %v", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/exec", srv.handleExec)
	mux.HandleFunc("/api/query", srv.handleQuery)
	mux.HandleFunc("/api/status", srv.handleStatus)

	log.Printf("server: HTTP listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, netserver.WithRequestID(mux)); err != nil {
		log.Fatalf("server: HTTP serve: %v", err)
	}
}
