package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"single char", "a", 1},
		{"exact multiple", "abcd", 1},
		{"one over", "abcde", 2},
		{"eight", "abcdefgh", 2},
		{"hundred", strings.Repeat("x", 100), 25},
		{"multibyte counts code points", "héllo", 2},
		{"emoji", "🦉🦉🦉🦉", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Estimate(tt.text))
		})
	}
}

func TestEstimateAll(t *testing.T) {
	assert.Equal(t, 0, EstimateAll())
	assert.Equal(t, 1, EstimateAll("abc"))
	// concatenation is estimated as a whole, not summed per part
	assert.Equal(t, 2, EstimateAll("abc", "def"))
	assert.Equal(t, Estimate("abc")+Estimate("def"), 2)
	assert.Equal(t, 1, EstimateAll("ab", "cd"))
}
