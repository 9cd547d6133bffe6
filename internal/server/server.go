// Package server exposes the tools over line-delimited JSON-RPC 2.0. Every request is one
// line on the input and every response one line on the output.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/logger"
	"github.com/spigell/gig-assistant/internal/tools"
)

// Options configure a Server.
type Options struct {
	Name    string
	Version string
	Logger  *zap.Logger
}

// Server dispatches JSON-RPC requests to tools.
type Server struct {
	info    ServerInfo
	tools   []tools.Tool
	byName  map[string]tools.Tool
	schemas map[string]*gojsonschema.Schema
	session string
	logger  *zap.Logger
}

// New compiles the input schema of every tool.
func New(list []tools.Tool, opts Options) (*Server, error) {
	s := &Server{
		info:    ServerInfo{Name: opts.Name, Version: opts.Version},
		tools:   list,
		byName:  make(map[string]tools.Tool, len(list)),
		schemas: make(map[string]*gojsonschema.Schema, len(list)),
		session: uuid.NewString(),
	}
	s.logger = logger.WithFields(opts.Logger, zap.String(logger.FieldSession, s.session))

	for _, tool := range list {
		if _, ok := s.byName[tool.Name]; ok {
			return nil, fmt.Errorf("duplicate tool %q", tool.Name)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compile schema of %s: %w", tool.Name, err)
		}
		s.byName[tool.Name] = tool
		s.schemas[tool.Name] = schema
	}

	return s, nil
}

// Session returns the id logged with every message of this server.
func (s *Server) Session() string {
	return s.session
}

// Serve reads requests from r until EOF or ctx is done and writes responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxMessageSize)

	s.logger.Info("server started", zap.Int("tools", len(s.tools)))

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp := s.Handle(ctx, line)
		if resp == nil {
			continue
		}
		if err := write(w, resp); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	s.logger.Info("server stopped", zap.String("reason", "eof"))
	return nil
}

func write(w io.Writer, resp *Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Handle processes one raw message. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, line []byte) *Response {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Warn("unparsable message", zap.Int("bytes", len(line)))
		return failure(nil, ParseError, "parse error", err.Error())
	}

	if req.IsNotification() {
		s.logger.Debug("notification ignored", zap.String("method", req.Method))
		return nil
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return failure(req.ID, InvalidRequest, "invalid request", nil)
	}

	s.logger.Debug("request received", zap.String("method", req.Method))

	switch req.Method {
	case "initialize":
		return result(req.ID, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      s.info,
			Capabilities:    map[string]any{"tools": map[string]any{}},
		})
	case "ping":
		return result(req.ID, map[string]any{})
	case "tools/list":
		return result(req.ID, s.list())
	case "tools/call":
		return s.call(ctx, req)
	default:
		return failure(req.ID, MethodNotFound, "method not found: "+req.Method, nil)
	}
}

func (s *Server) list() ToolsListResult {
	out := ToolsListResult{Tools: make([]ToolInfo, 0, len(s.tools))}
	for _, tool := range s.tools {
		out.Tools = append(out.Tools, ToolInfo{Name: tool.Name, Description: tool.Description, InputSchema: tool.InputSchema})
	}
	return out
}

func (s *Server) call(ctx context.Context, req Request) *Response {
	var params CallParams
	if len(req.Params) == 0 {
		return failure(req.ID, InvalidParams, "missing params", nil)
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req.ID, InvalidParams, "invalid params", err.Error())
	}

	tool, ok := s.byName[params.Name]
	if !ok {
		return failure(req.ID, InvalidParams, fmt.Sprintf("unknown tool %q", params.Name), nil)
	}
	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	if err := s.check(tool.Name, params.Arguments); err != nil {
		s.logger.Debug("tool arguments rejected", append(logger.OpFields(tool.Name, 0), logger.ErrorFields(err)...)...)
		return result(req.ID, textResult(apperr.Describe(err), true))
	}

	started := time.Now()
	out, err := tool.Handler(ctx, params.Arguments)
	fields := logger.OpFields(tool.Name, time.Since(started))

	if err != nil {
		s.logger.Debug("tool failed", append(fields, logger.ErrorFields(err)...)...)
		return result(req.ID, textResult(apperr.Describe(err), true))
	}

	s.logger.Debug("tool completed", fields...)
	return result(req.ID, textResult(out, false))
}

// check validates arguments against the tool schema. A mismatch fails the tool call with
// the kind the operation reports for the same argument, naming the first offending path.
func (s *Server) check(name string, args map[string]any) error {
	res, err := s.schemas[name].Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return apperr.E(name, apperr.Internal, "arguments", err)
	}
	if res.Valid() {
		return nil
	}

	violations := res.Errors()
	paths := make([]string, len(violations))
	for i, v := range violations {
		paths[i] = argumentPath(v)
	}
	order := make([]int, len(violations))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return paths[order[a]] < paths[order[b]] })

	problems := make([]string, 0, len(order))
	for _, i := range order {
		problems = append(problems, fmt.Sprintf("%s: %s", paths[i], violations[i].Description()))
	}

	subject := paths[order[0]]
	return apperr.E(name, argumentKind(subject), subject, errors.New(strings.Join(problems, "; ")))
}

// argumentPath is the dotted path of the argument a violation is about.
func argumentPath(v gojsonschema.ResultError) string {
	path := v.Field()
	if path == "(root)" {
		path = ""
	}
	if property, ok := v.Details()["property"].(string); ok && property != "" {
		if path == "" {
			return property
		}
		return path + "." + property
	}
	if path == "" {
		return "arguments"
	}
	return path
}

func argumentKind(path string) apperr.Kind {
	head, _, _ := strings.Cut(path, ".")
	switch head {
	case "review_type":
		return apperr.InvalidReviewType
	case "fix_type":
		return apperr.InvalidFixType
	case "profile":
		return apperr.InvalidProfile
	case "gig", "gigs":
		return apperr.InvalidGig
	default:
		return apperr.InvalidInput
	}
}

func textResult(v any, isError bool) CallResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		data, _ = json.Marshal(apperr.Describe(errors.New("encode result: " + err.Error())))
		isError = true
	}
	return CallResult{Content: []Content{{Type: "text", Text: strings.TrimSpace(string(data))}}, IsError: isError}
}
