package cli

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/xperf/internal/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"config error", errors.New(errors.ErrConfig, "No package given", ""), ExitConfig},
		{"wrapped config error", fmt.Errorf("loading: %w", errors.New(errors.ErrConfig, "bad", "")), ExitConfig},
		{"unknown flag", fmt.Errorf("unknown flag: --bogus"), ExitConfig},
		{"missing flag value", fmt.Errorf("flag needs an argument: --interval"), ExitConfig},
		{"too many args", fmt.Errorf("accepts at most 1 arg(s), received 2"), ExitConfig},
		{"bridge error", errors.New(errors.ErrBridge, "No Android device connected", ""), ExitConnectionLost},
		{"exit error", errors.NewExitError(ExitConnectionLost), ExitConnectionLost},
		{"parse error", errors.New(errors.ErrParse, "garbled", ""), ExitUnexpected},
		{"plain error", fmt.Errorf("boom"), ExitUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestRun_ExitCodes(t *testing.T) {
	isolate(t)

	assert.Equal(t, ExitOK, run([]string{"version", "--short"}))
	assert.Equal(t, ExitConfig, run([]string{"no-such-command"}))
	assert.Equal(t, ExitConfig, run([]string{"summary"}))
	assert.Equal(t, ExitConfig, run([]string{"summary", "missing.yaml"}))
}
