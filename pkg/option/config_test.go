// SPDX-License-Identifier: Apache-2.0
// Copyright Authors of Cilium

package option

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cilium/streamtok/pkg/defaults"
)

func TestGetEnvName(t *testing.T) {
	type args struct {
		option string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "Normal option",
			args: args{
				option: "foo",
			},
			want: "STREAMTOK_FOO",
		},
		{
			name: "Capital option",
			args: args{
				option: "FOO",
			},
			want: "STREAMTOK_FOO",
		},
		{
			name: "with numbers",
			args: args{
				option: "2222",
			},
			want: "STREAMTOK_2222",
		},
		{
			name: "mix numbers small letters and dashes",
			args: args{
				option: "22ada2------2",
			},
			want: "STREAMTOK_22ADA2______2",
		},
		{
			name: "normal option",
			args: args{
				option: "chunk-size",
			},
			want: "STREAMTOK_CHUNK_SIZE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getEnvName(tt.args.option); got != tt.want {
				t.Errorf("getEnvName() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPopulate(t *testing.T) {
	vp := viper.New()
	vp.Set(DebugArg, true)
	vp.Set(RulesFile, "rules.yaml")
	vp.Set(TrimLeft, false)
	vp.Set(TrimRight, true)
	vp.Set(Escape, "")
	vp.Set(ChunkSize, 16)
	vp.Set(Output, "json")
	vp.Set(LogOpt, map[string]string{"format": "json"})

	c := &StreamtokConfig{}
	c.Populate(vp)

	assert.True(t, c.Debug)
	assert.Equal(t, "rules.yaml", c.RulesFile)
	assert.False(t, c.TrimLeft)
	assert.True(t, c.TrimRight)
	assert.Equal(t, 16, c.ChunkSize)
	assert.Equal(t, "json", c.Output)
	assert.Equal(t, map[string]string{"format": "json"}, c.LogOpt)
	require.NoError(t, c.Validate())

	opts := c.RuleOptions()
	assert.False(t, opts.TrimLeft)
	assert.True(t, opts.TrimRight)
	assert.Zero(t, opts.Escape)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("STREAMTOK_CHUNK_SIZE", "128")

	vp := viper.New()
	BindEnv(vp, ChunkSize)
	require.Equal(t, 128, vp.GetInt(ChunkSize))
}

func TestBindFlags(t *testing.T) {
	t.Setenv("STREAMTOK_TRIM_RIGHT", "false")

	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	vp := viper.New()
	DefaultConfig().BindFlags(flags, vp)
	require.NoError(t, flags.Parse([]string{"--chunk-size=7", "-o", "yaml", "--escape=", "-D"}))

	c := DefaultConfig()
	c.Populate(vp)
	assert.True(t, c.Debug)
	assert.Equal(t, 7, c.ChunkSize)
	assert.Equal(t, "yaml", c.Output)
	assert.Equal(t, "", c.Escape)
	assert.True(t, c.TrimLeft)
	assert.False(t, c.TrimRight)
	assert.Empty(t, c.LogOpt)
}

func TestValidate(t *testing.T) {
	c := *DefaultConfig()
	require.NoError(t, c.Validate())
	require.Equal(t, defaults.Escape, c.RuleOptions().Escape)

	c.Escape = "ab"
	require.Error(t, c.Validate())

	c.Escape = "#"
	c.ChunkSize = 0
	require.Error(t, c.Validate())

	c.ChunkSize = 1
	require.NoError(t, c.Validate())
	require.Equal(t, byte('#'), c.RuleOptions().Escape)
}
