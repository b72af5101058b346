package logging

import (
	"testing"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandLineFormatter(t *testing.T) {
	f := &CommandLineFormatter{ShowLevel: true}

	out, err := f.Format(&log.Entry{Message: "submitted", Level: log.InfoLevel, Data: log.Fields{"runs": 3, "batch": "P2k_IBD"}})
	require.NoError(t, err)
	assert.Equal(t, "submitted batch=P2k_IBD runs=3\n", string(out))

	out, err = f.Format(&log.Entry{Message: "run failed", Level: log.WarnLevel, Data: log.Fields{}})
	require.NoError(t, err)
	assert.Equal(t, "WARNING: run failed\n", string(out))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		"empty":   {"", log.InfoLevel, false},
		"debug":   {"DEBUG", log.DebugLevel, false},
		"warning": {"warning", log.WarnLevel, false},
		"error":   {"error", log.ErrorLevel, false},
		"bogus":   {"loud", log.InfoLevel, true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			level, err := ParseLevel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, level)
		})
	}
}

func TestConfigure_RejectsUnknownFormat(t *testing.T) {
	err := Configure(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestTopmostWithCause(t *testing.T) {
	root := errors.New("root")
	wrapped := errors.Wrap(errors.Wrap(root, "middle"), "outer")
	assert.Equal(t, root, errors.Cause(TopmostWithCause(wrapped)))
	assert.Nil(t, TopmostWithCause(nil))
}
