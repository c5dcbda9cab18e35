// Package router dispatches typed requests from the local transport to
// the use-cases that invoke the session manager, wait engine, and VOM
// pipeline: a method-name-keyed dispatch table, the same shape as an
// HTTP mux but keyed by RPC method name instead of verb+path, over the
// length-prefixed JSON transport.
package router

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/agent-tui/agent-tui/internal/apperr"
	"github.com/agent-tui/agent-tui/internal/ptyhost"
	"github.com/agent-tui/agent-tui/internal/session"
	"github.com/agent-tui/agent-tui/internal/vom"
	"github.com/agent-tui/agent-tui/internal/waitengine"
)

// Router holds the session registry and startedAt, recorded once by
// New for daemon.status's uptime field.
type Router struct {
	sessions  *session.Manager
	startedAt time.Time
}

func New(sessions *session.Manager) *Router {
	return &Router{sessions: sessions, startedAt: time.Now()}
}

// Handle dispatches method against params and returns either a
// JSON-marshalable result or a structured *apperr.Error. Errors that
// are not already *apperr.Error are wrapped via apperr.As before being
// returned; a panic inside a handler is not recovered here.
func (r *Router) Handle(ctx context.Context, method string, params json.RawMessage) (any, *apperr.Error) {
	h, ok := handlers[method]
	if !ok {
		return nil, apperr.Protocol("unknown method " + method)
	}
	result, err := h(ctx, r, params)
	if err != nil {
		return nil, apperr.As(err)
	}
	return result, nil
}

type handlerFunc func(ctx context.Context, r *Router, params json.RawMessage) (any, error)

var handlers = map[string]handlerFunc{
	"daemon.status":    handleDaemonStatus,
	"daemon.stop":      handleDaemonStop,
	"session.spawn":    handleSpawn,
	"session.list":     handleList,
	"session.kill":     handleKill,
	"session.input":    handleInput,
	"session.snapshot": handleSnapshot,
	"session.fill":     handleFill,
	"session.click":    handleClick,
	"session.wait":     handleWait,
	"session.resize":   handleResize,
}

func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, apperr.Protocol("malformed params: " + err.Error())
	}
	return v, nil
}

// --- daemon.* ---

// ProtocolVersion is bumped whenever a wire-incompatible change is
// made to a request/result shape; the CLI checks it against its own
// build before trusting a response.
const ProtocolVersion = "1.0.0"

type daemonStatusResult struct {
	Uptime   string `json:"uptime"`
	Sessions int    `json:"sessions"`
	Protocol string `json:"protocol"`
}

func handleDaemonStatus(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	return daemonStatusResult{
		Uptime:   time.Since(r.startedAt).Round(time.Second).String(),
		Sessions: r.sessions.Count(),
		Protocol: ProtocolVersion,
	}, nil
}

// StopFunc is set by the daemon package to request shutdown; the
// router itself has no reference to the transport listener.
var StopFunc func()

func handleDaemonStop(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	if StopFunc != nil {
		StopFunc()
	}
	return map[string]bool{"stopped": true}, nil
}

// --- session.* ---

type spawnParams struct {
	Cmd  string            `json:"cmd"`
	Args []string          `json:"args,omitempty"`
	Env  map[string]string `json:"env,omitempty"`
	Size *sizeParams       `json:"size,omitempty"`
}

type sizeParams struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

type spawnResult struct {
	ID string `json:"id"`
}

func handleSpawn(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[spawnParams](params)
	if err != nil {
		return nil, err
	}
	if p.Cmd == "" {
		return nil, apperr.BadArgs("cmd is required")
	}
	size := ptyhost.Size{Cols: 80, Rows: 24}
	if p.Size != nil {
		size = ptyhost.Size{Cols: p.Size.Cols, Rows: p.Size.Rows}
	}
	var env []string
	for k, v := range p.Env {
		env = append(env, k+"="+v)
	}
	s, err := r.sessions.Spawn(p.Cmd, p.Args, env, size)
	if err != nil {
		return nil, err
	}
	return spawnResult{ID: s.ID}, nil
}

type listResult struct {
	Sessions []sessionInfo `json:"sessions"`
}

type sessionInfo struct {
	ID     string `json:"id"`
	Cmd    string `json:"cmd"`
	Status string `json:"status"`
}

func handleList(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	sessions := r.sessions.List()
	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		status, _ := s.Status()
		out = append(out, sessionInfo{ID: s.ID, Cmd: s.Cmd, Status: string(status)})
	}
	return listResult{Sessions: out}, nil
}

type killParams struct {
	ID     string `json:"id"`
	Signal string `json:"signal,omitempty"`
}

func handleKill(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[killParams](params)
	if err != nil {
		return nil, err
	}
	force := strings.EqualFold(p.Signal, "KILL")
	if p.Signal != "" && !force && !strings.EqualFold(p.Signal, "TERM") {
		return nil, apperr.BadArgs("signal must be TERM or KILL")
	}
	if err := r.sessions.Kill(p.ID, force); err != nil {
		return nil, err
	}
	return map[string]bool{"killed": true}, nil
}

type inputParams struct {
	ID    string `json:"id"`
	Bytes string `json:"bytes,omitempty"`
	Key   string `json:"key,omitempty"`
	Text  string `json:"text,omitempty"`
}

func handleInput(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[inputParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()

	switch {
	case p.Key != "":
		err = s.SendKey(p.Key)
	case p.Text != "":
		err = s.SendText(p.Text)
	case p.Bytes != "":
		err = s.SendText(p.Bytes)
	default:
		return nil, apperr.BadArgs("one of key, text, or bytes is required")
	}
	if err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type snapshotParams struct {
	ID              string `json:"id"`
	InteractiveOnly bool   `json:"interactive_only,omitempty"`
}

type snapshotResult struct {
	Tree  string               `json:"tree"`
	Refs  map[string]refResult `json:"refs"`
	Stats vom.Stats            `json:"stats"`
}

type refResult struct {
	Role   vom.Role       `json:"role"`
	Name   string         `json:"name,omitempty"`
	Bounds vom.Bounds     `json:"bounds"`
	Attrs  vom.Attributes `json:"attrs,omitempty"`
}

func handleSnapshot(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[snapshotParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	snap := s.Snapshot(p.InteractiveOnly)
	s.Unlock()

	refs := make(map[string]refResult, len(snap.Refs))
	for ref, c := range snap.Refs {
		refs[ref] = refResult{Role: c.Role, Name: c.Name, Bounds: c.Bounds, Attrs: c.Attributes}
	}
	return snapshotResult{
		Tree:  RenderTree(snap),
		Refs:  refs,
		Stats: snap.Stats,
	}, nil
}

type fillParams struct {
	ID    string `json:"id"`
	Ref   string `json:"ref"`
	Value string `json:"value"`
}

func handleFill(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[fillParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	if err := s.Fill(p.Ref, p.Value); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type clickParams struct {
	ID  string `json:"id"`
	Ref string `json:"ref"`
}

func handleClick(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[clickParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	if err := s.Click(p.Ref); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}

type waitParams struct {
	ID        string              `json:"id"`
	Condition waitengine.Condition `json:"condition"`
	TimeoutMs int                 `json:"timeout_ms"`
	Assert    bool                `json:"assert,omitempty"`
}

type waitResult struct {
	Satisfied  bool   `json:"satisfied"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

func handleWait(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[waitParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(p.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	// Waits are deliberately NOT taken under s.Lock(): a long wait must
	// not block concurrent input/snapshot calls against the same
	// session (only the mutating step inside each poll takes no
	// additional lock because Snapshot/ScreenBuffer already clone and
	// release internally).
	res, err := waitengine.Evaluate(ctx, s, p.Condition, timeout)
	if err != nil {
		return nil, err
	}
	return waitResult{Satisfied: res.Satisfied, Diagnostic: res.Diagnostic}, nil
}

type resizeParams struct {
	ID   string `json:"id"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

func handleResize(ctx context.Context, r *Router, params json.RawMessage) (any, error) {
	p, err := decode[resizeParams](params)
	if err != nil {
		return nil, err
	}
	s, err := r.sessions.Get(p.ID)
	if err != nil {
		return nil, err
	}
	s.Lock()
	defer s.Unlock()
	if err := s.Resize(ptyhost.Size{Cols: p.Cols, Rows: p.Rows}); err != nil {
		return nil, err
	}
	return map[string]bool{"ok": true}, nil
}
