package script

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/nfrund/mochachat/internal/reply"
	"github.com/spf13/afero"
)

// NameResolver maps a participant id to a display name.
type NameResolver func(userID string) string

// ReplyScript is a reply.Picker backed by a Tengo script file.
//
// The script sees chat_id, remote_user_id, remote_name and replies (the
// default pool) and must assign a non-empty string to reply:
//
//	text := import("text")
//	reply = text.contains(remote_name, "Tech") ? "[Bot] build is green" : replies[0]
type ReplyScript struct {
	fs      afero.Fs
	path    string
	engine  *Engine
	names   NameResolver
	pool    []any
	current atomic.Pointer[CompiledScript]
	logger  *slog.Logger
}

var replyInputs = map[string]any{
	"chat_id":        "",
	"remote_user_id": "",
	"remote_name":    "",
	"replies":        []any{},
	"reply":          "",
}

// NewReplyScript loads and compiles the script at path.
func NewReplyScript(fsys afero.Fs, path string, engine *Engine, names NameResolver, pool []string) (*ReplyScript, error) {
	r := &ReplyScript{
		fs:     fsys,
		path:   filepath.Clean(path),
		engine: engine,
		names:  names,
		logger: slog.Default().With("component", "script", "path", path),
	}
	for _, p := range pool {
		r.pool = append(r.pool, p)
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Path returns the script file location.
func (r *ReplyScript) Path() string {
	return r.path
}

// Reload reads and compiles the file again. On failure the previously
// loaded version stays active.
func (r *ReplyScript) Reload() error {
	content, err := afero.ReadFile(r.fs, r.path)
	if err != nil {
		return NewScriptError(ErrorTypeNotFound, r.path, "failed to read script", err)
	}

	sum := Checksum(content)
	if cur := r.current.Load(); cur != nil && cur.Script.Checksum == sum {
		return nil
	}

	info, err := r.fs.Stat(r.path)
	if err != nil {
		return NewScriptError(ErrorTypeNotFound, r.path, "failed to stat script", err)
	}
	compiled, err := r.engine.Compile(&Script{
		Name:         filepath.Base(r.path),
		Path:         r.path,
		Content:      string(content),
		LastModified: info.ModTime(),
		Checksum:     sum,
	}, replyInputs)
	if err != nil {
		return err
	}

	r.current.Store(compiled)
	r.logger.Info("Reply script loaded", "checksum", sum[:12])
	return nil
}

// Pick runs the script for req.
func (r *ReplyScript) Pick(req reply.Request) (string, error) {
	compiled := r.current.Load()
	run, err := r.engine.Run(context.Background(), compiled, map[string]any{
		"chat_id":        req.ChatID,
		"remote_user_id": req.RemoteUserID,
		"remote_name":    r.names(req.RemoteUserID),
		"replies":        r.pool,
	})
	if err != nil {
		return "", err
	}

	text, ok := run.Get("reply").Value().(string)
	if !ok || strings.TrimSpace(text) == "" {
		return "", NewScriptError(ErrorTypeResult, compiled.Script.Name,
			fmt.Sprintf("script must assign a non-empty string to reply, got %v", run.Get("reply").Value()), nil)
	}
	return text, nil
}
