// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package r2d2

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/cilium/streamtok/pkg/tokenizer"
)

func mustPolicy(t *testing.T, rules ...map[string]string) Policy {
	t.Helper()
	p, err := ParsePolicy(rules)
	require.NoError(t, err)
	return p
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		err    error
	}{
		{name: "cmd", fields: map[string]string{"cmd": "READ"}},
		{name: "file", fields: map[string]string{"file": "/public/.*"}},
		{name: "cmd and file", fields: map[string]string{"cmd": "WRITE", "file": "/public/.*"}},
		{name: "unknown key", fields: map[string]string{"path": "/"}, err: ErrUnsupportedKey},
		{name: "unknown cmd", fields: map[string]string{"cmd": "JUMP"}, err: ErrInvalidCommand},
		{name: "file on halt", fields: map[string]string{"cmd": "HALT", "file": "/"}, err: ErrFileNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRule(tt.fields)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, tt.err), "unexpected error %v", err)
		})
	}

	_, err := ParseRule(map[string]string{"file": "("})
	require.Error(t, err)
}

func TestPolicy(t *testing.T) {
	require.True(t, Policy(nil).Matches(Request{Cmd: CmdHalt}))
	require.False(t, Policy{}.Matches(Request{Cmd: CmdHalt}))

	p := mustPolicy(t,
		map[string]string{"cmd": "READ", "file": "^/public/.*"},
		map[string]string{"cmd": "HALT"},
	)
	require.True(t, p.Matches(Request{Cmd: CmdRead, File: "/public/a"}))
	require.False(t, p.Matches(Request{Cmd: CmdRead, File: "/private/a"}))
	require.False(t, p.Matches(Request{Cmd: CmdWrite, File: "/public/a"}))
	require.True(t, p.Matches(Request{Cmd: CmdHalt}))
}

func TestRequests(t *testing.T) {
	p, err := NewParser(mustPolicy(t,
		map[string]string{"cmd": "READ", "file": "^/public/.*"},
		map[string]string{"cmd": "RESET"},
	), false)
	require.NoError(t, err)

	ops, err := p.OnData([]byte("READ /public/a\r\nWRITE /public/a\r\nRESET\r\nHALT\r\n"), false)
	require.NoError(t, err)
	want := []Op{
		{Type: PASS, Length: 16, Request: Request{Cmd: CmdRead, File: "/public/a"}},
		{Type: DROP, Length: 17, Request: Request{Cmd: CmdWrite, File: "/public/a"}, Inject: errorReply},
		{Type: PASS, Length: 7, Request: Request{Cmd: CmdReset}},
		{Type: DROP, Length: 6, Request: Request{Cmd: CmdHalt}, Inject: errorReply},
	}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Fatalf("unexpected ops (-want +got):\n%s", diff)
	}
}

func TestPartialRequests(t *testing.T) {
	p, err := NewParser(nil, false)
	require.NoError(t, err)

	ops, err := p.OnData([]byte("READ /pub"), false)
	require.NoError(t, err)
	require.Equal(t, []Op{{Type: MORE, Length: 1}}, ops)

	ops, err = p.OnData([]byte("lic/a\r"), false)
	require.NoError(t, err)
	require.Equal(t, []Op{{Type: MORE, Length: 1}}, ops)

	ops, err = p.OnData([]byte("\nHA"), false)
	require.NoError(t, err)
	require.Equal(t, []Op{
		{Type: PASS, Length: 16, Request: Request{Cmd: CmdRead, File: "/public/a"}},
		{Type: MORE, Length: 1},
	}, ops)

	ops, err = p.OnData([]byte("LT\r\nRES"), true)
	require.NoError(t, err)
	require.Equal(t, []Op{
		{Type: PASS, Length: 6, Request: Request{Cmd: CmdHalt}},
		{Type: ERROR, Length: 3},
	}, ops)

	_, err = p.OnData([]byte("RESET\r\n"), false)
	require.True(t, errors.Is(err, tokenizer.ErrEnded))
}

func TestReplies(t *testing.T) {
	p, err := NewParser(Policy{}, true)
	require.NoError(t, err)

	ops, err := p.OnData([]byte("OK hello world\r\nERROR\r\nOK"), false)
	require.NoError(t, err)
	require.Equal(t, []Op{
		{Type: PASS, Length: 16},
		{Type: PASS, Length: 7},
		{Type: MORE, Length: 1},
	}, ops)
}

func TestOpTypeString(t *testing.T) {
	require.Equal(t, "PASS", PASS.String())
	require.Equal(t, "DROP", DROP.String())
	require.Equal(t, "ERROR", ERROR.String())
	require.Equal(t, "MORE", MORE.String())
	require.Equal(t, "NOP", NOP.String())
}
