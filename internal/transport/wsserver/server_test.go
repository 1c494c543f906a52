package wsserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitedFrameIsValidErrorEnvelope(t *testing.T) {
	frame := rateLimitedFrame(errors.New("rate limit exceeded"))
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","error":{"code":-32000,"message":"rate limit exceeded"},"id":null}`,
		frame)
}
