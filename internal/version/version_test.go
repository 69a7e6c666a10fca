package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtLeast(t *testing.T) {
	tests := []struct {
		actual, min string
		want        bool
		wantErr     bool
	}{
		{actual: "1.2.0", min: "", want: true},
		{actual: "1.2.0", min: "1.2.0", want: true},
		{actual: "v1.10.0", min: "1.9", want: true},
		{actual: "1.1.9", min: "1.2.0", want: false},
		{actual: "2024.1.0", min: "1.0.0", want: true},
		{actual: "garbage", min: "1.0.0", wantErr: true},
		{actual: "1.0.0", min: "nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.actual+">="+tt.min, func(t *testing.T) {
			got, err := AtLeast(tt.actual, tt.min)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrent(t *testing.T) {
	b := Current()
	assert.Equal(t, Version, b.Version)
	assert.NotEmpty(t, b.Go)

	fields := b.Fields()
	require.NotEmpty(t, fields)
	assert.Equal(t, [2]string{"client", Version}, fields[0])
	assert.Contains(t, fields, [2]string{"commit", GitCommit})
	assert.Contains(t, fields, [2]string{"user agent", UserAgent()})
	assert.Equal(t, "rowbase-go/"+Version, UserAgent())
}
