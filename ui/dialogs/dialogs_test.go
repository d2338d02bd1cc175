package dialogs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestParseVec(t *testing.T) {
	tests := []struct {
		in      string
		want    r3.Vec
		wantErr bool
	}{
		{"", r3.Vec{}, false},
		{"1 2 3", r3.Vec{X: 1, Y: 2, Z: 3}, false},
		{"0,1, 0", r3.Vec{Y: 1}, false},
		{"1 2", r3.Vec{}, true},
		{"a b c", r3.Vec{}, true},
	}
	for _, tt := range tests {
		got, err := ParseVec(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatVecRoundTrip(t *testing.T) {
	v := r3.Vec{X: 0.5, Y: -1, Z: 2}
	got, err := ParseVec(formatVec(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.Empty(t, formatVec(r3.Vec{}))
}
