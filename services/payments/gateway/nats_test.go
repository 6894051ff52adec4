package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNATSGateway_NilClient(t *testing.T) {
	gw, err := NewNATSGateway(nil)

	assert.Error(t, err)
	assert.Nil(t, gw)
}
