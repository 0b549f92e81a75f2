package transport

import (
	"testing"

	"github.com/loli/notedancer/internal/logging"
	"github.com/loli/notedancer/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testListener() *ControlListener {
	store := params.NewStore(params.DefaultParameters())
	log := logging.NewWithWriter(discard{}, false)
	return &ControlListener{store: store, log: log}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestApplyValidFieldsUpdatesStore(t *testing.T) {
	l := testListener()
	l.apply([]byte(`{"low_gain": 15, "norm_mode": "fixed"}`))

	p := l.store.Get()
	require.Equal(t, params.NormFixed, p.NormMode)
	assert.Equal(t, 15.0, p.LowGain)
}

func TestApplyOutOfRangeFieldIgnored(t *testing.T) {
	l := testListener()
	before := l.store.Get()

	l.apply([]byte(`{"low_gain": 9999}`))

	after := l.store.Get()
	assert.Equal(t, before.LowGain, after.LowGain)
}

func TestApplyUnknownNormModeIgnored(t *testing.T) {
	l := testListener()
	before := l.store.Get()

	l.apply([]byte(`{"norm_mode": "not_a_mode"}`))

	after := l.store.Get()
	assert.Equal(t, before.NormMode, after.NormMode)
}

func TestApplyMalformedJSONIsDropped(t *testing.T) {
	l := testListener()
	before := l.store.Get()

	l.apply([]byte(`not json`))

	after := l.store.Get()
	assert.Equal(t, before, after)
}

func TestApplyPartialUpdateLeavesOtherFieldsAlone(t *testing.T) {
	l := testListener()
	before := l.store.Get()
	l.apply([]byte(`{"high_gain": 20}`))
	p := l.store.Get()

	assert.Equal(t, 20.0, p.HighGain)
	assert.Equal(t, before.LowGain, p.LowGain)
	assert.Equal(t, params.NormCompetitive, p.NormMode)
}
