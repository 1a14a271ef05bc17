package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_None(t *testing.T) {
	p, err := Setup("none")
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_Unsupported(t *testing.T) {
	_, err := Setup("zipkin")
	assert.Error(t, err)
}
