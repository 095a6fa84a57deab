package daq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPlanIsValid(t *testing.T) {
	p := DefaultPlan()
	require.NoError(t, p.Validate())
	assert.Equal(t, 1, p.Words())
}

func TestPlanValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(p *Plan)
		errMsg string
	}{
		{"zero period", func(p *Plan) { p.SamplePeriodUs = 0 }, "sample period"},
		{"long period", func(p *Plan) { p.SamplePeriodUs = 1000001 }, "sample period"},
		{"wrapping period", func(p *Plan) { p.SamplePeriodUs = 0xFFFFFFFF }, "sample period"},
		{"averaging", func(p *Plan) { p.Averaging = 1001 }, "averaging"},
		{"repeat", func(p *Plan) { p.Repeat = 1001 }, "repeat"},
		{"empty sequence", func(p *Plan) { p.Sequence = nil }, "sequence needs"},
		{"long sequence", func(p *Plan) { p.Sequence = []int{1, 2, 3, 4, 1} }, "sequence needs"},
		{"bad channel", func(p *Plan) { p.Sequence = []int{5} }, "out of range 1..4"},
		{"duplicate", func(p *Plan) { p.Sequence = []int{2, 2} }, "twice"},
		{"gain", func(p *Plan) { p.Gains = []int{3} }, "gain 3"},
		{"block size", func(p *Plan) { p.BlockSize = 2048 }, "block size"},
		{"mode", func(p *Plan) { p.Mode = "hex" }, "unknown mode"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultPlan()
			tc.modify(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestPlanWords(t *testing.T) {
	p := DefaultPlan()
	p.Sequence = []int{1, 3, 4}
	p.BlockSize = 100
	assert.Equal(t, 300, p.Words())

	p.Averaging = 10
	assert.Equal(t, 3, p.Words())
}
