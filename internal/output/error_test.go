package output_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/walletgate/internal/output"
	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// failingWriter implements io.Writer but always returns an error.
type failingWriter struct{}

func (failingWriter) Write(_ []byte) (n int, err error) {
	//nolint:err113 // Test error, not wrapped
	return 0, errors.New("write failed")
}

func TestFormatError_Nil(t *testing.T) {
	t.Parallel()
	for _, format := range []output.Format{output.FormatText, output.FormatJSON} {
		var buf bytes.Buffer
		require.NoError(t, output.FormatError(&buf, nil, format))
		assert.Empty(t, buf.String())
	}
}

func TestFormatError_GenericError(t *testing.T) {
	t.Parallel()

	var text bytes.Buffer
	require.NoError(t, output.FormatError(&text, errors.New("boom"), output.FormatText))
	assert.Equal(t, "Error: boom\n", text.String())

	var js bytes.Buffer
	require.NoError(t, output.FormatError(&js, errors.New("boom"), output.FormatJSON))
	var out output.ErrorOutput
	require.NoError(t, json.Unmarshal(js.Bytes(), &out))
	assert.Equal(t, "GENERAL_ERROR", out.Error.Code)
	assert.Equal(t, "boom", out.Error.Message)
	assert.Equal(t, gateerr.ExitGeneral, out.Error.ExitCode)
}

func TestFormatError_GateErrorText(t *testing.T) {
	t.Parallel()
	err := gateerr.WithSuggestion(
		gateerr.WithDetails(gateerr.ErrUnknownProvider, map[string]string{
			"binding": "slsh",
			"allowed": "slush, suiet",
		}),
		`did you mean "slush"?`,
	)

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatText))

	expected := "Error: unknown wallet provider\n" +
		"\nDetails:\n" +
		"  allowed: slush, suiet\n" +
		"  binding: slsh\n" +
		"\nSuggestion: did you mean \"slush\"?\n"
	assert.Equal(t, expected, buf.String())
}

func TestFormatError_GateErrorJSON(t *testing.T) {
	t.Parallel()
	err := gateerr.WithCause(gateerr.ErrConnectionFailed, errors.New("dial tcp: refused"))

	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, err, output.FormatJSON))

	var out output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "CONNECTION_FAILED", out.Error.Code)
	assert.Equal(t, "wallet connection failed: dial tcp: refused", out.Error.Message)
	assert.Equal(t, gateerr.ExitGeneral, out.Error.ExitCode)
	assert.Empty(t, out.Error.Details)
	assert.Contains(t, buf.String(), "\n  \"error\"")
}

func TestFormatError_SentinelSuggestion(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, output.FormatError(&buf, gateerr.ErrUserRejected, output.FormatJSON))

	var out output.ErrorOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, gateerr.ErrUserRejected.Suggestion, out.Error.Suggestion)
	assert.Equal(t, gateerr.ExitRejected, out.Error.ExitCode)
}

func TestFormatError_WriterError(t *testing.T) {
	t.Parallel()
	for _, format := range []output.Format{output.FormatText, output.FormatJSON} {
		err := output.FormatError(failingWriter{}, gateerr.ErrNotConnected, format)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "write failed")
	}
}
