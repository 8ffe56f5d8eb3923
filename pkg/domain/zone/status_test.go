package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		sumCm3 float64
		want   Status
	}{
		{"zero sum is green", 0, StatusGreen},
		{"below yellow threshold", 9999.99, StatusGreen},
		{"exactly yellow threshold", 10000, StatusYellow},
		{"between thresholds", 29999.99, StatusYellow},
		{"exactly red threshold", 30000, StatusRed},
		{"far above red threshold", 250000, StatusRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sumCm3))
		})
	}
}

func TestStatusIsValid(t *testing.T) {
	assert.True(t, StatusGreen.IsValid())
	assert.True(t, StatusYellow.IsValid())
	assert.True(t, StatusRed.IsValid())
	assert.False(t, Status("orange").IsValid())
	assert.False(t, Status("").IsValid())
}
