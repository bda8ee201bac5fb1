package fins

import "fmt"

// ConfigInvalidError reports a construction-time parameter out of range.
type ConfigInvalidError struct {
	Field  string
	Reason string
}

func (e ConfigInvalidError) Error() string {
	return fmt.Sprintf("fins: invalid config field %s: %s", e.Field, e.Reason)
}

// NotInitializedError is returned when a read/write is attempted before the
// session has completed Initialize.
type NotInitializedError struct{}

func (e NotInitializedError) Error() string {
	return "fins: session not initialized"
}

// AddressInvalidError reports an address string that could not be parsed or
// is semantically impossible (bit+length together, bad bit index, unknown area).
type AddressInvalidError struct {
	Address string
	Reason  string
}

func (e AddressInvalidError) Error() string {
	return fmt.Sprintf("fins: invalid address %q: %s", e.Address, e.Reason)
}

// RangeInvalidError reports an address+length combination that exceeds the
// capability table for the detected PLC model, or an area unsupported by it.
type RangeInvalidError struct {
	Reason string
}

func (e RangeInvalidError) Error() string {
	return fmt.Sprintf("fins: address range invalid: %s", e.Reason)
}

// TransportError wraps a socket-level failure.
type TransportError struct {
	Cause error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("fins: transport error: %v", e.Cause)
}

func (e TransportError) Unwrap() error { return e.Cause }

// TimeoutError is returned when an operation did not complete within its
// configured deadline.
type TimeoutError struct {
	Op string
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("fins: %s timed out", e.Op)
}

// ChannelClosedError is returned when the underlying socket was disposed,
// typically racing with shutdown.
type ChannelClosedError struct{}

func (e ChannelClosedError) Error() string {
	return "fins: channel closed"
}

// ProtocolFramingError reports a malformed FINS/TCP envelope: bad magic,
// invalid length, a truncated header, or an invalid FINS header start byte.
type ProtocolFramingError struct {
	Reason string
}

func (e ProtocolFramingError) Error() string {
	return fmt.Sprintf("fins: protocol framing error: %s", e.Reason)
}

// ProtocolEchoError reports a response whose function, sub-function, or
// service-id did not match the originating request.
type ProtocolEchoError struct {
	Reason string
}

func (e ProtocolEchoError) Error() string {
	return fmt.Sprintf("fins: protocol echo mismatch: %s", e.Reason)
}

// NetworkRelayError reports the network-relay bit (bit 7 of the first
// response-code byte) being set.
type NetworkRelayError struct{}

func (e NetworkRelayError) Error() string {
	return "fins: network relay error reported by destination"
}

// TypeMismatchError is returned when a cached value is requested with an
// incompatible type parameter.
type TypeMismatchError struct {
	Name string
	Want TagKind
	Got  TagKind
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("fins: tag %q type mismatch: requested %s, registered %s", e.Name, e.Want, e.Got)
}

// UnsupportedError is returned when an operation is rejected by the
// capability table for the detected PLC model.
type UnsupportedError struct {
	Op    string
	Model PlcType
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("fins: %s unsupported on %s", e.Op, e.Model)
}

// FinsError carries a main/sub response code pair decoded per the FINS
// end-code table, and the canonical message for that pair.
type FinsError struct {
	MainCode byte
	SubCode  byte
	Message  string
}

func (e FinsError) Error() string {
	return fmt.Sprintf("fins: end code %02X/%02X: %s", e.MainCode, e.SubCode, e.Message)
}
