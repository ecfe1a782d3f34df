package consul

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickInstance(t *testing.T) {
	_, err := pickInstance("mailliam-api", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailliam-api")

	only := &ServiceInstance{ID: "api-1", Address: "10.0.0.5", Port: 8000}
	got, err := pickInstance("mailliam-api", []*ServiceInstance{only})
	require.NoError(t, err)
	assert.Same(t, only, got)
}

func TestServiceInstance_HostPort(t *testing.T) {
	assert.Equal(t, "10.0.0.5:8000", (&ServiceInstance{Address: "10.0.0.5", Port: 8000}).HostPort())
	assert.Equal(t, "[::1]:8000", (&ServiceInstance{Address: "::1", Port: 8000}).HostPort())
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("127.0.0.1:8500", "secret")
	require.NoError(t, err)
	assert.NotNil(t, c.api)
}
