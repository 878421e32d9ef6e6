package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rileyhilliard/xperf/internal/logger"
	sshtesting "github.com/rileyhilliard/xperf/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSSH(m *sshtesting.MockClient) *SSH {
	s := NewSSH(m, time.Second)
	s.log = logger.Noop()
	return s
}

func TestSSH_Execute(t *testing.T) {
	m := sshtesting.NewMockClient("pixel")
	m.On("pidof com.example.app", sshtesting.Response{Stdout: "25786\n"})
	m.On("pidof gone", sshtesting.Response{ExitCode: 1})
	m.On("dumpsys meminfo 1", sshtesting.Response{Err: errors.New("EOF")})

	s := newTestSSH(m)

	out, err := s.Execute(context.Background(), "pidof com.example.app")
	require.NoError(t, err)
	assert.Equal(t, "25786\n", out)

	_, err = s.Execute(context.Background(), "pidof gone")
	kind, _ := KindOf(err)
	assert.Equal(t, NonZeroExit, kind)

	_, err = s.Execute(context.Background(), "dumpsys meminfo 1")
	kind, _ = KindOf(err)
	assert.Equal(t, Unreachable, kind)

	require.NoError(t, s.Close())
	_, err = s.Execute(context.Background(), "pidof com.example.app")
	assert.True(t, IsConnectionFailure(err))
}

func TestSSH_Execute_Cancelled(t *testing.T) {
	s := newTestSSH(sshtesting.NewMockClient("pixel"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Execute(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
