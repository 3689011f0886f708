package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	var a amount
	a.add(0.1)
	a.add(0.2)
	assert.Equal(t, 0.3, a.float())

	a.add(math.NaN())
	a.add(math.Inf(1))
	assert.Equal(t, 0.3, a.float())

	var line amount
	line.addLine(19.99, 3)
	assert.Equal(t, 59.97, line.float())
	assert.InDelta(t, 19.99, line.per(3), 1e-9)
	assert.Zero(t, line.per(0))
}

func TestPercentChange(t *testing.T) {
	assert.Nil(t, percentChange(10, 0))

	up := percentChange(150, 100)
	require.NotNil(t, up)
	assert.InDelta(t, 50.0, *up, 1e-9)

	down := percentChange(0, 80)
	require.NotNil(t, down)
	assert.InDelta(t, -100.0, *down, 1e-9)
}

func TestPercentage(t *testing.T) {
	assert.Zero(t, percentage(5, 0))
	assert.InDelta(t, 25.0, percentage(1, 4), 1e-9)
}
