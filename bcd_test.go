package fins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBCDByteRoundTrip(t *testing.T) {
	for v := byte(0); v < 100; v++ {
		packed, err := ByteToBCDByte(v)
		require.NoError(t, err)
		back, err := BCDByteToByte(packed)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestBCDToUint16(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		want  uint16
	}{
		{"zero", []byte{0x00, 0x00}, 0},
		{"year 2024", []byte{0x20, 0x24}, 2024},
		{"max", []byte{0x99, 0x99}, 9999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BCDToUint16(tt.bytes)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBCDToUint16RoundTrip(t *testing.T) {
	for _, v := range []uint16{0, 1, 42, 999, 1234, 9999} {
		packed, err := Uint16ToBCD(v)
		require.NoError(t, err)
		back, err := BCDToUint16(packed)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestBCDToUint32RoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 42, 999999, 12345678, 99999999} {
		packed, err := Uint32ToBCD(v)
		require.NoError(t, err)
		back, err := BCDToUint32(packed)
		require.NoError(t, err)
		assert.Equal(t, v, back)
	}
}

func TestInt32ToBCDMagnitudeOnly(t *testing.T) {
	pos, err := Int32ToBCD(12345)
	require.NoError(t, err)
	neg, err := Int32ToBCD(-12345)
	require.NoError(t, err)
	assert.Equal(t, pos, neg, "sign must not be carried in the BCD nibbles")
}

func TestBCDBadWidth(t *testing.T) {
	_, err := BCDToUint16([]byte{0x01})
	require.Error(t, err)
	var werr BadBcdWidthError
	require.ErrorAs(t, err, &werr)

	_, err = BCDToUint32([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestBCDInvalidDigit(t *testing.T) {
	_, err := BCDByteToByte(0xA0)
	assert.Error(t, err)
	_, err = BCDByteToByte(0x0A)
	assert.Error(t, err)
}
