package fins

import "encoding/binary"

// request is a fully-assembled FINS command frame: header + command code +
// per-command payload (spec §3, §4.2).
type request struct {
	header  header
	command uint16
	payload []byte
}

func encodeRequest(r request) []byte {
	out := make([]byte, 0, headerSize+2+len(r.payload))
	out = append(out, encodeHeader(r.header)...)
	out = append(out, byte(r.command>>8), byte(r.command))
	out = append(out, r.payload...)
	return out
}

func memAddrBytes(areaCode byte, address uint16, bitIndex byte) []byte {
	b := make([]byte, 4)
	b[0] = areaCode
	binary.BigEndian.PutUint16(b[1:3], address)
	b[3] = bitIndex
	return b
}

// buildReadWords builds a Read Memory Area (Word) request payload
// (spec §4.2): [areaCode, addrHi, addrLo, 0x00, lenHi, lenLo].
func buildReadWords(areaCode byte, address, count uint16) []byte {
	payload := memAddrBytes(areaCode, address, 0)
	lenBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBytes, count)
	return append(payload, lenBytes...)
}

// buildReadBits builds a Read Memory Area (Bit) request payload:
// [areaCode, addrHi, addrLo, bitIndex, lenHi, lenLo].
func buildReadBits(areaCode byte, address uint16, bitIndex byte, count uint16) []byte {
	payload := memAddrBytes(areaCode, address, bitIndex)
	lenBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBytes, count)
	return append(payload, lenBytes...)
}

// buildWriteWords builds a Write Memory Area (Word) request payload: the
// read-word prefix followed by each 16-bit value as a big-endian pair.
func buildWriteWords(areaCode byte, address uint16, values []uint16) []byte {
	payload := memAddrBytes(areaCode, address, 0)
	lenBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBytes, uint16(len(values)))
	payload = append(payload, lenBytes...)
	for _, v := range values {
		vb := make([]byte, 2)
		binary.BigEndian.PutUint16(vb, v)
		payload = append(payload, vb...)
	}
	return payload
}

// buildWriteBits builds a Write Memory Area (Bit) request payload: the
// read-bit prefix followed by one byte per bit (0x00 or 0x01).
func buildWriteBits(areaCode byte, address uint16, bitIndex byte, values []bool) []byte {
	payload := memAddrBytes(areaCode, address, bitIndex)
	lenBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(lenBytes, uint16(len(values)))
	payload = append(payload, lenBytes...)
	for _, v := range values {
		if v {
			payload = append(payload, 0x01)
		} else {
			payload = append(payload, 0x00)
		}
	}
	return payload
}

// buildReadCPUUnitData builds the Read CPU Unit Data payload: a single zero byte.
func buildReadCPUUnitData() []byte {
	return []byte{0x00}
}

// buildReadClock builds the Read Clock payload: empty.
func buildReadClock() []byte {
	return nil
}

// buildWriteClock builds the Write Clock payload: seven BCD bytes
// year%100, month, day, hour, minute, second, day-of-week.
func buildWriteClock(year, month, day, hour, minute, second, dow int) ([]byte, error) {
	yy, err := ByteToBCDByte(byte(year % 100))
	if err != nil {
		return nil, err
	}
	mo, err := ByteToBCDByte(byte(month))
	if err != nil {
		return nil, err
	}
	dd, err := ByteToBCDByte(byte(day))
	if err != nil {
		return nil, err
	}
	hh, err := ByteToBCDByte(byte(hour))
	if err != nil {
		return nil, err
	}
	mm, err := ByteToBCDByte(byte(minute))
	if err != nil {
		return nil, err
	}
	ss, err := ByteToBCDByte(byte(second))
	if err != nil {
		return nil, err
	}
	dw, err := ByteToBCDByte(byte(dow))
	if err != nil {
		return nil, err
	}
	return []byte{yy, mo, dd, hh, mm, ss, dw}, nil
}

// buildReadCycleTime builds the Read Cycle Time payload: a single byte 0x01.
func buildReadCycleTime() []byte {
	return []byte{0x01}
}
