package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTransport_Defaults(t *testing.T) {
	tr := NewTransport(TransportConfig{})

	assert.Equal(t, 30*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 20, tr.MaxIdleConnsPerHost)
	assert.Equal(t, 40, tr.MaxIdleConns)
	assert.NotNil(t, tr.DialContext)
}

func TestNewTransport_Overrides(t *testing.T) {
	tr := NewTransport(TransportConfig{
		ResponseHeaderTimeout: 2 * time.Second,
		MaxIdleConnsPerHost:   4,
	})

	assert.Equal(t, 2*time.Second, tr.ResponseHeaderTimeout)
	assert.Equal(t, 4, tr.MaxIdleConnsPerHost)
}
