//go:build !cgo || !sourcekitd

package native

import (
	"testing"

	"github.com/leapstack-labs/sourcekit/pkg/sourcekitd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Unavailable(t *testing.T) {
	d, err := Open()
	require.Error(t, err)
	assert.Nil(t, d)
	assert.ErrorIs(t, err, sourcekitd.ErrUnavailable)
}
