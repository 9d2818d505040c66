package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/leengari/mini-optimizer/internal/engine"
	"github.com/leengari/mini-optimizer/internal/planner"
)

type Request struct {
	Query string `json:"query"`
}

// Response carries either the snapshots of one explain run or an error.
type Response struct {
	RunID     string         `json:"run_id,omitempty"`
	Snapshots []SnapshotView `json:"snapshots,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type SnapshotView struct {
	Stage    string     `json:"stage"`
	Nodes    []NodeView `json:"nodes"`
	Pipeline []string   `json:"pipeline,omitempty"`
}

type NodeView struct {
	Operator string  `json:"operator"`
	Path     string  `json:"path"`
	Rows     float64 `json:"rows"`
}

// NewResponse converts an explain result into its wire form.
func NewResponse(res *engine.Result) *Response {
	out := &Response{RunID: res.RunID}
	for _, s := range res.Snapshots {
		out.Snapshots = append(out.Snapshots, snapshotView(s))
	}
	return out
}

func snapshotView(s planner.Snapshot) SnapshotView {
	v := SnapshotView{Stage: string(s.Stage)}
	for i, e := range s.Entries() {
		n := NodeView{Operator: e.Operator.String(), Path: e.Path.String()}
		if i < len(s.Rows) {
			n.Rows = s.Rows[i]
		}
		v.Nodes = append(v.Nodes, n)
	}
	for _, p := range s.Pipeline {
		v.Pipeline = append(v.Pipeline, p.String())
	}
	return v
}

// Server answers JSON explain requests over TCP, one JSON value per
// request and per reply.
type Server struct {
	eng    *engine.Engine
	logger *slog.Logger
}

func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{eng: eng, logger: logger}
}

// ListenAndServe binds port and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", port, err)
	}
	s.logger.Info("Running on port", "port", port)
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is cancelled. The
// listener is closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	defer listener.Close()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	// Use Decoder instead of Scanner for network streams
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF {
				return // Connection closed gracefully
			}
			s.logger.Error("decode error", "error", err)
			_ = encoder.Encode(&Response{Error: fmt.Sprintf("Invalid request format: %v", err)})
			return
		}

		if req.Query == "exit" || req.Query == "\\q" {
			return
		}

		var resp *Response
		res, err := s.eng.Explain(req.Query)
		if err != nil {
			resp = &Response{Error: err.Error()}
		} else {
			resp = NewResponse(res)
		}
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("encode error", "error", err)
			return
		}
	}
}
