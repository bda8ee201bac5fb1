package fins

import (
	"encoding/binary"
	"fmt"
)

// response is a decoded FINS response frame: header + command echo +
// two-byte response code + payload (spec §3, §4.3).
type response struct {
	header   header
	command  uint16
	respCode [2]byte
	payload  []byte
}

const minResponseLen = headerSize + 2 + 2 // header + command + response code

// decodeResponse validates framing length and splits a raw response into its
// fields. It does not validate the echo or response code; call
// validateResponse for that.
func decodeResponse(b []byte) (response, error) {
	if len(b) < minResponseLen {
		return response{}, ProtocolFramingError{Reason: fmt.Sprintf("response too short: %d bytes", len(b))}
	}
	h := decodeHeader(b[0:headerSize])
	cmd := binary.BigEndian.Uint16(b[headerSize : headerSize+2])
	var code [2]byte
	copy(code[:], b[headerSize+2:headerSize+4])
	payload := b[headerSize+4:]
	return response{header: h, command: cmd, respCode: code, payload: payload}, nil
}

// validateResponse checks the response's command echo and service-id
// against the originating request, and decodes the response code into the
// FINS error taxonomy. purgeNeeded reports whether the mismatch is a
// service-id echo error, which requires the caller to purge the channel
// before the error escapes (spec §4.3, §4.6).
func validateResponse(req request, resp response) (purgeNeeded bool, err error) {
	if resp.command != req.command {
		return false, ProtocolEchoError{Reason: fmt.Sprintf("command echo mismatch: sent %04X, got %04X", req.command, resp.command)}
	}
	if resp.header.serviceID != req.header.serviceID {
		return true, ProtocolEchoError{Reason: fmt.Sprintf("service-id echo mismatch: sent %02X, got %02X", req.header.serviceID, resp.header.serviceID)}
	}

	fn := byte(resp.command >> 8)
	sub := byte(resp.command)
	if !validSubFunction(fn, sub) {
		return false, ProtocolEchoError{Reason: fmt.Sprintf("unknown sub-function %02X for function %02X", sub, fn)}
	}

	if resp.respCode[0]&0x80 != 0 {
		return false, NetworkRelayError{}
	}
	main := resp.respCode[0] & 0x7f
	sc := resp.respCode[1] & 0x3f
	if main != 0 || sc != 0 {
		return false, FinsError{MainCode: main, SubCode: sc, Message: endCodeMessage(main, sc)}
	}
	return false, nil
}

// extractWords decodes count big-endian 16-bit signed words from payload.
func extractWords(payload []byte, count int) ([]int16, error) {
	if len(payload) < count*2 {
		return nil, ProtocolFramingError{Reason: fmt.Sprintf("payload too short for %d words: %d bytes", count, len(payload))}
	}
	out := make([]int16, count)
	for i := 0; i < count; i++ {
		out[i] = int16(binary.BigEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return out, nil
}

// extractBits decodes count bit-result bytes (nonzero == true).
func extractBits(payload []byte, count int) ([]bool, error) {
	if len(payload) < count {
		return nil, ProtocolFramingError{Reason: fmt.Sprintf("payload too short for %d bits: %d bytes", count, len(payload))}
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = payload[i] != 0
	}
	return out, nil
}

// clockResult is the decoded payload of a Read Clock response.
type clockResult struct {
	Year, Month, Day, Hour, Minute, Second int
	DayOfWeek                              int
}

// extractClock decodes seven BCD bytes into a clockResult, disambiguating
// the two-digit year per spec §4.3: <70 => 2000+yy, else <100 => 1900+yy.
func extractClock(payload []byte) (clockResult, error) {
	if len(payload) < 7 {
		return clockResult{}, ProtocolFramingError{Reason: fmt.Sprintf("clock payload too short: %d bytes", len(payload))}
	}
	yy, err := BCDByteToByte(payload[0])
	if err != nil {
		return clockResult{}, FinsError{MainCode: 0x11, SubCode: 0x0C, Message: "invalid BCD in clock response"}
	}
	month, err := BCDByteToByte(payload[1])
	if err != nil {
		return clockResult{}, err
	}
	day, err := BCDByteToByte(payload[2])
	if err != nil {
		return clockResult{}, err
	}
	hour, err := BCDByteToByte(payload[3])
	if err != nil {
		return clockResult{}, err
	}
	minute, err := BCDByteToByte(payload[4])
	if err != nil {
		return clockResult{}, err
	}
	second, err := BCDByteToByte(payload[5])
	if err != nil {
		return clockResult{}, err
	}
	dow, err := BCDByteToByte(payload[6])
	if err != nil {
		return clockResult{}, err
	}

	year := int(yy)
	if year < 70 {
		year += 2000
	} else {
		year += 1900
	}

	return clockResult{
		Year: year, Month: int(month), Day: int(day),
		Hour: int(hour), Minute: int(minute), Second: int(second),
		DayOfWeek: int(dow),
	}, nil
}

// controllerData is the decoded payload of a Read CPU Unit Data response.
type controllerData struct {
	Model   string
	Version string
}

// extractControllerData decodes 40 reserved bytes + 12 area bytes, then a
// 20-byte NUL-terminated model and a 20-byte NUL-terminated version.
func extractControllerData(payload []byte) (controllerData, error) {
	const skip = 40 + 12
	if len(payload) < skip+40 {
		return controllerData{}, ProtocolFramingError{Reason: fmt.Sprintf("controller-data payload too short: %d bytes", len(payload))}
	}
	model := nulTerminatedASCII(payload[skip : skip+20])
	version := nulTerminatedASCII(payload[skip+20 : skip+40])
	return controllerData{Model: model, Version: version}, nil
}

func nulTerminatedASCII(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// cycleTimeResult is the decoded payload of a Read Cycle Time response, in
// milliseconds.
type cycleTimeResult struct {
	AverageMs, MaxMs, MinMs float64
}

// extractCycleTime decodes three 4-byte BCD groups (average, maximum,
// minimum) in tenths of a millisecond.
func extractCycleTime(payload []byte) (cycleTimeResult, error) {
	if len(payload) < 12 {
		return cycleTimeResult{}, ProtocolFramingError{Reason: fmt.Sprintf("cycle-time payload too short: %d bytes", len(payload))}
	}
	avg, err := BCDToUint32(payload[0:4])
	if err != nil {
		return cycleTimeResult{}, err
	}
	max, err := BCDToUint32(payload[4:8])
	if err != nil {
		return cycleTimeResult{}, err
	}
	min, err := BCDToUint32(payload[8:12])
	if err != nil {
		return cycleTimeResult{}, err
	}
	return cycleTimeResult{
		AverageMs: float64(avg) / 10,
		MaxMs:     float64(max) / 10,
		MinMs:     float64(min) / 10,
	}, nil
}
