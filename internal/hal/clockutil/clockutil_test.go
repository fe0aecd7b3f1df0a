package clockutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trainctl/throttle/internal/hal/clockutil"
)

func TestMockClockStartsAtZero(t *testing.T) {
	m := clockutil.NewMock()
	assert.Equal(t, uint64(0), m.NowMS())
}

func TestMockClockAdvances(t *testing.T) {
	m := clockutil.NewMock()
	m.Advance(1500)
	assert.Equal(t, uint64(1500), m.NowMS())
	m.Advance(250)
	assert.Equal(t, uint64(1750), m.NowMS())
}

func TestSystemClockNeverGoesBackwards(t *testing.T) {
	s := clockutil.NewSystem()
	first := s.NowMS()
	second := s.NowMS()
	assert.GreaterOrEqual(t, second, first)
}
