package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := DefaultClassifier()

	testCases := []struct {
		name string
		w, h int
		want AspectClass
	}{
		{name: "landscape photo", w: 1600, h: 900, want: Wide},
		{name: "square", w: 1000, h: 1000, want: Wide},
		{name: "portrait phone shot", w: 1080, h: 2400, want: Tall},
		{name: "lower band edge", w: 545, h: 1000, want: SpecialBand},
		{name: "canvas ratio itself", w: 504, h: 890, want: SpecialBand},
		{name: "upper band edge", w: 588, h: 1000, want: SpecialBand},
		{name: "just below band", w: 530, h: 1000, want: Tall},
		{name: "just above band", w: 600, h: 1000, want: Wide},
		{name: "degenerate", w: 0, h: 100, want: Wide},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.w, tc.h, 504, 890))
		})
	}
}

func TestClassifyBandFollowsWorkRatio(t *testing.T) {
	c := DefaultClassifier()

	assert.Equal(t, SpecialBand, c.Classify(720, 1280, 1080, 1920))
	assert.Equal(t, SpecialBand, c.Classify(1280, 720, 1280, 720))
	assert.Equal(t, Wide, c.Classify(1920, 800, 1280, 720))
}
