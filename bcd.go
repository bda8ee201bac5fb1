package fins

import "fmt"

// BadBcdWidthError is returned when a BCD byte slice's length is outside
// 1-4 or does not match the width the caller requested.
type BadBcdWidthError struct {
	Len  int
	Want int
}

func (e BadBcdWidthError) Error() string {
	return fmt.Sprintf("fins: bad BCD width: got %d bytes, want %d", e.Len, e.Want)
}

// bcdToBinary decodes 1-4 packed-BCD bytes, most-significant byte first, into
// an unsigned integer: each byte contributes ((hi*10)+lo) to a running total
// multiplied by 100 per byte already consumed.
func bcdToBinary(b []byte) (uint32, error) {
	if len(b) < 1 || len(b) > 4 {
		return 0, BadBcdWidthError{Len: len(b), Want: -1}
	}
	var x uint32
	for _, by := range b {
		hi := uint32(by >> 4)
		lo := uint32(by & 0x0f)
		if hi > 9 || lo > 9 {
			return 0, fmt.Errorf("fins: invalid BCD digit in byte 0x%02X", by)
		}
		x = x*100 + hi*10 + lo
	}
	return x, nil
}

// binaryToBCD packs x into width bytes of BCD, filling low-place bytes
// first; once the residual reaches zero the remaining (more-significant)
// bytes stay zero.
func binaryToBCD(x uint32, width int) ([]byte, error) {
	if width < 1 || width > 4 {
		return nil, BadBcdWidthError{Len: width, Want: -1}
	}
	out := make([]byte, width)
	for i := width - 1; i >= 0 && x > 0; i-- {
		place := x % 100
		out[i] = byte((place/10)<<4 | (place % 10))
		x /= 100
	}
	return out, nil
}

// BCDByteToByte decodes a single packed-BCD byte (0-99) into its binary value.
func BCDByteToByte(b byte) (byte, error) {
	x, err := bcdToBinary([]byte{b})
	if err != nil {
		return 0, err
	}
	return byte(x), nil
}

// ByteToBCDByte packs a binary value 0-99 into a single BCD byte.
func ByteToBCDByte(v byte) (byte, error) {
	out, err := binaryToBCD(uint32(v), 1)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}

// BCDToUint16 decodes 2 packed-BCD bytes into an unsigned 16-bit value.
func BCDToUint16(b []byte) (uint16, error) {
	if len(b) != 2 {
		return 0, BadBcdWidthError{Len: len(b), Want: 2}
	}
	x, err := bcdToBinary(b)
	if err != nil {
		return 0, err
	}
	return uint16(x), nil
}

// Uint16ToBCD packs an unsigned 16-bit value into 2 BCD bytes.
func Uint16ToBCD(v uint16) ([]byte, error) {
	return binaryToBCD(uint32(v), 2)
}

// BCDToInt16 decodes 2 packed-BCD bytes into a signed 16-bit magnitude; the
// sign is carried by the caller's wrapper, never by the BCD nibbles.
func BCDToInt16(b []byte) (int16, error) {
	u, err := BCDToUint16(b)
	if err != nil {
		return 0, err
	}
	return int16(u), nil
}

// Int16ToBCD packs the magnitude of a signed 16-bit value into 2 BCD bytes.
func Int16ToBCD(v int16) ([]byte, error) {
	m := v
	if m < 0 {
		m = -m
	}
	return Uint16ToBCD(uint16(m))
}

// BCDToUint32 decodes 4 packed-BCD bytes into an unsigned 32-bit value.
func BCDToUint32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, BadBcdWidthError{Len: len(b), Want: 4}
	}
	return bcdToBinary(b)
}

// Uint32ToBCD packs an unsigned 32-bit value into 4 BCD bytes.
func Uint32ToBCD(v uint32) ([]byte, error) {
	return binaryToBCD(v, 4)
}

// BCDToInt32 decodes 4 packed-BCD bytes into a signed 32-bit magnitude.
func BCDToInt32(b []byte) (int32, error) {
	u, err := BCDToUint32(b)
	if err != nil {
		return 0, err
	}
	return int32(u), nil
}

// Int32ToBCD packs the magnitude of a signed 32-bit value into 4 BCD bytes.
func Int32ToBCD(v int32) ([]byte, error) {
	m := v
	if m < 0 {
		m = -m
	}
	return Uint32ToBCD(uint32(m))
}
