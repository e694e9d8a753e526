package mdmake

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/mdmake/pkg/mdmake"
)

func execute(t *testing.T, args ...string) (mdmake.RunParams, error) {
	t.Helper()
	var captured mdmake.RunParams
	cmd := NewRootCmd(context.Background(),
		WithReadme("readme body"),
		withRunFunc(func(params mdmake.RunParams) error {
			captured = params
			return nil
		}))
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return captured, err
}

func TestRootCmdDefaults(t *testing.T) {
	params, err := execute(t)
	require.NoError(t, err)

	assert.Empty(t, params.Targets)
	assert.Empty(t, params.Files)
	assert.False(t, params.Force)
	assert.False(t, params.DryRun)
	assert.Equal(t, "readme body", params.ReadmeText)
	assert.NotNil(t, params.BaseCtx)
}

func TestRootCmdTargetsAndFlags(t *testing.T) {
	params, err := execute(t, "-B", "-n", "-s", "-q", "--color", "never", "build", "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"build", "test"}, params.Targets)
	assert.True(t, params.Force)
	assert.True(t, params.DryRun)
	assert.True(t, params.Script)
	assert.True(t, params.Quiet)
	assert.Equal(t, "never", params.Color)
}

func TestRootCmdRepeatableFileFlag(t *testing.T) {
	params, err := execute(t, "-f", "base.md", "-f", "local.md")
	require.NoError(t, err)

	assert.Equal(t, []string{"base.md", "local.md"}, params.Files)
}

func TestRootCmdDirectoryAndGenerate(t *testing.T) {
	params, err := execute(t, "-C", "sub", "-g", "rust")
	require.NoError(t, err)

	assert.Equal(t, "sub", params.Dir)
	assert.Equal(t, "rust", params.Generate)
}

func TestRootCmdPropagatesRunError(t *testing.T) {
	boom := errors.New("boom")
	cmd := NewRootCmd(context.Background(), withRunFunc(func(mdmake.RunParams) error {
		return boom
	}))
	cmd.SetArgs([]string{})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	assert.ErrorIs(t, cmd.Execute(), boom)
}
