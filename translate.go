package fins

import "context"

// validateAddressForKind checks that a tag's parsed address fits its kind
// before the session's typed read/write operations run, enforcing spec §3's address
// invariants: bit-index present iff the address names a single bit; a
// length bracket only makes sense for strings; bit and length are mutually
// exclusive (already enforced by parseAddress's disjoint grammars).
func validateAddressForKind(addr parsedAddress, kind TagKind) error {
	if addr.HasBit && kind != KindBool {
		return AddressInvalidError{Address: addr.Raw, Reason: "bit index only valid for bool tags"}
	}
	if addr.HasLen && kind != KindString {
		return AddressInvalidError{Address: addr.Raw, Reason: "length bracket only valid for string tags"}
	}
	return nil
}

// readTagValue performs the read(s) a tag of kind k at addr requires and
// decodes the result into a Go value, per spec §4.8's per-type layout.
func readTagValue(ctx context.Context, s *session, addr parsedAddress, kind TagKind, strLen int) (any, error) {
	if err := validateAddressForKind(addr, kind); err != nil {
		return nil, err
	}

	if addr.HasBit {
		bits, err := s.ReadBits(ctx, addr.Area, addr.Word, int(addr.Bit), 1)
		if err != nil {
			return nil, err
		}
		return bits[0], nil
	}

	if kind == KindString {
		length := addr.Length
		if !addr.HasLen {
			length = strLen // wordCount falls back to 16 when strLen is 0
		}
		wc := kind.wordCount(length)
		words, err := s.ReadWords(ctx, addr.Area, addr.Word, wc)
		if err != nil {
			return nil, err
		}
		return decodeValue(kind, words)
	}

	wc := kind.wordCount(0)
	words, err := s.ReadWords(ctx, addr.Area, addr.Word, wc)
	if err != nil {
		return nil, err
	}
	return decodeValue(kind, words)
}

// writeTagValue is the write-side counterpart of readTagValue.
func writeTagValue(ctx context.Context, s *session, addr parsedAddress, kind TagKind, strLen int, v any) error {
	if err := validateAddressForKind(addr, kind); err != nil {
		return err
	}

	if addr.HasBit {
		b, ok := v.(bool)
		if !ok {
			return TypeMismatchError{Name: addr.Raw, Want: KindBool}
		}
		return s.WriteBits(ctx, addr.Area, addr.Word, int(addr.Bit), []bool{b})
	}

	length := strLen
	if kind == KindString && addr.HasLen {
		length = addr.Length
	}

	words, err := encodeValue(kind, v, length)
	if err != nil {
		return err
	}
	return s.WriteWords(ctx, addr.Area, addr.Word, words)
}
