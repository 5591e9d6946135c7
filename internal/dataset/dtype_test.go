package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDType(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		size    int
		wantErr bool
	}{
		{in: "<f4", want: "float32", size: 4},
		{in: ">f8", want: "float64", size: 8},
		{in: "<i2", want: "int16", size: 2},
		{in: "|u1", want: "uint8", size: 1},
		{in: "|b1", want: "bool", size: 1},
		{in: "<M8[ns]", want: "datetime64[ns]", size: 8},
		{in: "<m8[s]", want: "timedelta64[s]", size: 8},
		{in: "<U12", want: "string", size: 12},
		{in: "<M8", wantErr: true},
		{in: "|O", wantErr: true},
		{in: "f4", wantErr: true},
		{in: "<x4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			dt, err := ParseDType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, dt.String())
			assert.Equal(t, tt.size, dt.Size)
		})
	}
}

func TestDTypeDecode_BigEndian(t *testing.T) {
	dt := MustParseDType(">i4")
	vals, err := dt.decode([]byte{0, 0, 0, 1, 0xff, 0xff, 0xff, 0xfe}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2}, vals.ints)

	_, err = dt.decode([]byte{0, 0}, 1)
	assert.Error(t, err)
}
