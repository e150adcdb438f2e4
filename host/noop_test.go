package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopHostReturnsErrCallbackMissing(t *testing.T) {
	var h NoopHost

	_, err := h.MapMemory(0, 1)
	assert.ErrorIs(t, err, ErrCallbackMissing)

	_, err = h.PortReadByte(0)
	assert.ErrorIs(t, err, ErrCallbackMissing)

	err = h.PCIWriteDword(PCIAddress{}, 0)
	assert.ErrorIs(t, err, ErrCallbackMissing)

	assert.Nil(t, h.Logger())
	assert.NotPanics(t, func() { h.Sleep(0) })
	assert.NotPanics(t, func() { h.HandleDebug(nil) })
}
