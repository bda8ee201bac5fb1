package fins

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// parsedAddress is the decoded form of an address string (spec §3, §4.8):
// area, word index, an optional bit index, and an optional array length
// (used only for strings).
type parsedAddress struct {
	Area     MemoryArea
	Word     uint16
	HasBit   bool
	Bit      byte
	HasLen   bool
	Length   int
	Raw      string
}

// wordAddrPattern matches "<area><digits>[ [len]]"; bitAddrPattern matches
// "<area><digits>.<bit>". Grounded on yatesdr-warlogix/omron/address.go's
// regex-based approach, narrowed to the spec's closed area-prefix set.
var (
	wordAddrPattern = regexp.MustCompile(`(?i)^(D|DM|C|CIO|W|H|A)(\d+)(?:\s*\[(\d+)\])?$`)
	bitAddrPattern  = regexp.MustCompile(`(?i)^(D|DM|C|CIO|W|H|A)(\d+)\.(\d+)$`)
)

// areaFromPrefix maps a case-insensitive area prefix to a MemoryArea, per
// spec §3's `D|DM->DataMemory, C|CIO->CommonIO, W->Work, H->Holding,
// A->Auxiliary` table.
func areaFromPrefix(prefix string) (MemoryArea, bool) {
	switch strings.ToUpper(prefix) {
	case "D", "DM":
		return AreaDataMemory, true
	case "C", "CIO":
		return AreaCommonIO, true
	case "W":
		return AreaWork, true
	case "H":
		return AreaHolding, true
	case "A":
		return AreaAuxiliary, true
	default:
		return 0, false
	}
}

// parseAddress parses an address string of the form
// "<area><digits>[.bit][ [len]]" (spec §4.8). Bit and length are mutually
// exclusive; bit index must be 0-15; length must be 1-999.
func parseAddress(s string) (parsedAddress, error) {
	trimmed := strings.TrimSpace(s)

	if m := bitAddrPattern.FindStringSubmatch(trimmed); m != nil {
		area, ok := areaFromPrefix(m[1])
		if !ok {
			return parsedAddress{}, AddressInvalidError{Address: s, Reason: "unknown area prefix"}
		}
		word, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			return parsedAddress{}, AddressInvalidError{Address: s, Reason: "word index out of range"}
		}
		bit, err := strconv.Atoi(m[3])
		if err != nil || bit < 0 || bit > 15 {
			return parsedAddress{}, AddressInvalidError{Address: s, Reason: "bit index must be 0-15"}
		}
		return parsedAddress{Area: area, Word: uint16(word), HasBit: true, Bit: byte(bit), Raw: s}, nil
	}

	if m := wordAddrPattern.FindStringSubmatch(trimmed); m != nil {
		area, ok := areaFromPrefix(m[1])
		if !ok {
			return parsedAddress{}, AddressInvalidError{Address: s, Reason: "unknown area prefix"}
		}
		word, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			return parsedAddress{}, AddressInvalidError{Address: s, Reason: "word index out of range"}
		}
		p := parsedAddress{Area: area, Word: uint16(word), Raw: s}
		if m[3] != "" {
			length, err := strconv.Atoi(m[3])
			if err != nil || length < 1 || length > 999 {
				return parsedAddress{}, AddressInvalidError{Address: s, Reason: "length must be 1-999"}
			}
			p.HasLen = true
			p.Length = length
		}
		return p, nil
	}

	return parsedAddress{}, AddressInvalidError{Address: s, Reason: fmt.Sprintf("does not match <area><digits>[.bit][ [len]]: %q", trimmed)}
}
