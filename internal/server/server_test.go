package server

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/sandbox"
	"github.com/spigell/gig-assistant/internal/tools"
)

type reply struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

func newServer(t *testing.T) *Server {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("var x = 1;\n"), 0o644))

	accessor, err := sandbox.New(root, 0, nil)
	require.NoError(t, err)

	svc := &tools.Service{Files: accessor}
	srv, err := New(svc.Tools(), Options{Name: "gig-assistant", Version: "test"})
	require.NoError(t, err)
	return srv
}

func serve(t *testing.T, srv *Server, lines ...string) []reply {
	t.Helper()

	var out strings.Builder
	require.NoError(t, srv.Serve(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"), &out))

	var replies []reply
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	for scanner.Scan() {
		var r reply
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		replies = append(replies, r)
	}
	return replies
}

func callResult(t *testing.T, r reply) (CallResult, map[string]any) {
	t.Helper()
	require.Nil(t, r.Error)

	var res CallResult
	require.NoError(t, json.Unmarshal(r.Result, &res))
	require.Len(t, res.Content, 1)
	assert.Equal(t, "text", res.Content[0].Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &payload))
	return res, payload
}

func TestInitializeAndList(t *testing.T) {
	srv := newServer(t)

	replies := serve(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":"two","method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, replies, 3, "notifications get no response")

	var init InitializeResult
	require.NoError(t, json.Unmarshal(replies[0].Result, &init))
	assert.Equal(t, ProtocolVersion, init.ProtocolVersion)
	assert.Equal(t, "gig-assistant", init.ServerInfo.Name)
	assert.JSONEq(t, "1", string(replies[0].ID))

	var list ToolsListResult
	require.NoError(t, json.Unmarshal(replies[1].Result, &list))
	assert.JSONEq(t, `"two"`, string(replies[1].ID))

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.InputSchema)
	}
	assert.Equal(t, []string{
		tools.OpSearch, tools.OpAnalyzeFit, tools.OpCodeReview, tools.OpCodeDebug,
		tools.OpNegotiateRate, tools.OpGenerateProposal, tools.OpOptimizeProfile, tools.OpTrack,
	}, names)

	assert.Nil(t, replies[2].Error)
	assert.JSONEq(t, "{}", string(replies[2].Result))
}

func TestProtocolErrors(t *testing.T) {
	srv := newServer(t)

	replies := serve(t, srv,
		`{not json`,
		`{"jsonrpc":"1.0","id":1,"method":"ping"}`,
		`{"jsonrpc":"2.0","id":2,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call"}`,
	)
	require.Len(t, replies, 5)

	codes := make([]int, 0, len(replies))
	for _, r := range replies {
		require.NotNil(t, r.Error)
		codes = append(codes, r.Error.Code)
	}
	assert.Equal(t, []int{ParseError, InvalidRequest, MethodNotFound, InvalidParams, InvalidParams}, codes)
	assert.JSONEq(t, "null", string(replies[0].ID))
}

func TestCallTool(t *testing.T) {
	srv := newServer(t)

	replies := serve(t, srv,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"code_review","arguments":{"file_path":"app.js"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"code_review","arguments":{"file_path":"../etc/passwd"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"negotiate_rate","arguments":{"current_rate":40,"target_rate":50}}}`,
	)
	require.Len(t, replies, 3)

	res, payload := callResult(t, replies[0])
	assert.False(t, res.IsError)
	assert.Equal(t, "app.js", payload["file_path"])
	assert.Equal(t, "javascript", payload["language"])

	res, payload = callResult(t, replies[1])
	assert.True(t, res.IsError)
	assert.Equal(t, tools.OpCodeReview, payload["op"])
	assert.Equal(t, string(apperr.OutOfSandbox), payload["kind"])
	assert.Equal(t, "../etc/passwd", payload["subject"])

	res, payload = callResult(t, replies[2])
	assert.True(t, res.IsError)
	assert.Equal(t, string(apperr.AdvisoryUnavailable), payload["kind"])
	assert.Equal(t, tools.OpNegotiateRate, payload["op"])
}

func TestCallRejectsArgumentsWithTaggedErrors(t *testing.T) {
	srv := newServer(t)
	gig := `{"required_skills":["Go"],"project_type":"hourly"}`

	cases := []struct {
		name    string
		call    string
		op      string
		kind    apperr.Kind
		subject string
	}{
		{
			name: "unknown review type",
			call: `{"name":"code_review","arguments":{"file_path":"app.js","review_type":"style"}}`,
			op:   tools.OpCodeReview, kind: apperr.InvalidReviewType, subject: "review_type",
		},
		{
			name: "unknown fix type",
			call: `{"name":"code_debug","arguments":{"file_path":"app.js","fix_type":"yolo"}}`,
			op:   tools.OpCodeDebug, kind: apperr.InvalidFixType, subject: "fix_type",
		},
		{
			name: "profile without rate",
			call: `{"name":"analyze_profile_fit","arguments":{"profile":{"skills":["Go"]},"gig":` + gig + `}}`,
			op:   tools.OpAnalyzeFit, kind: apperr.InvalidProfile, subject: "profile.hourly_rate",
		},
		{
			name: "gig without project type",
			call: `{"name":"analyze_profile_fit","arguments":{"profile":{"skills":["Go"],"hourly_rate":50},"gig":{"required_skills":["Go"]}}}`,
			op:   tools.OpAnalyzeFit, kind: apperr.InvalidGig, subject: "gig.project_type",
		},
		{
			name: "missing file path",
			call: `{"name":"code_review","arguments":{"review_type":"general"}}`,
			op:   tools.OpCodeReview, kind: apperr.InvalidInput, subject: "file_path",
		},
		{
			name: "unknown argument",
			call: `{"name":"code_review","arguments":{"file_path":"app.js","extra":1}}`,
			op:   tools.OpCodeReview, kind: apperr.InvalidInput, subject: "extra",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			replies := serve(t, srv, `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":`+tc.call+`}`)
			require.Len(t, replies, 1)

			res, payload := callResult(t, replies[0])
			assert.True(t, res.IsError)
			assert.Equal(t, tc.op, payload["op"])
			assert.Equal(t, string(tc.kind), payload["kind"])
			assert.Equal(t, tc.subject, payload["subject"])
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestNewRejectsDuplicateTools(t *testing.T) {
	list := (&tools.Service{}).Tools()
	_, err := New(append(list, list[0]), Options{})
	require.Error(t, err)
}

func TestServeStopsOnCancelledContext(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := srv.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}
