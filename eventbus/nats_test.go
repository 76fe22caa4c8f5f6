package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionStatusString(t *testing.T) {
	cases := map[ConnectionStatus]string{
		StatusDisconnected: "disconnected",
		StatusConnecting:   "connecting",
		StatusConnected:    "connected",
		StatusCircuitOpen:  "circuit_open",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}
