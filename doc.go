/*
Package fins implements a client for Omron's FINS (Factory Interface Network
Service) protocol over TCP or UDP, plus a reactive tag layer that polls a
user-declared set of PLC memory addresses and publishes typed value streams
to subscribers.

# Layers

The package is built from three tightly-coupled layers:

  - Wire framing: the FINS request/response header, per-command payload
    encoding, and the response error taxonomy (header.go, request.go,
    response.go, commands.go, bcd.go).
  - Transport: a UDP datagram channel and a TCP channel with FINS/TCP framing
    and node-address negotiation, both driven through a single-in-flight
    request pipeline with retry-with-reconnect (transport.go, udp.go, tcp.go,
    pipeline.go).
  - Tag engine: address parsing, typed word layout, a polling loop, and
    broadcast channels for value changes (address.go, tagtype.go, tag.go,
    engine.go, session.go, client.go).

# Quick start

	c, err := fins.NewClient(fins.Config{
		LocalNodeID:  2,
		RemoteNodeID: 1,
		Transport:    fins.TransportTCP,
		Host:         "192.168.1.100",
	})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Dispose()

	fins.RegisterTag[int16](c, "D100", "line-speed")
	values, unsub := fins.Observe[int16](c, "line-speed")
	defer unsub()

	for v := range values {
		if v.Valid {
			fmt.Println("line-speed:", v.Value)
		}
	}

# Errors

Errors returned by synchronous calls, and errors published on Errors(),
are mostly one of the taxonomy types in errors.go (ConfigInvalidError,
NotInitializedError, AddressInvalidError, RangeInvalidError,
TransportError, TimeoutError, ChannelClosedError, ProtocolFramingError,
ProtocolEchoError, NetworkRelayError, FinsError, TypeMismatchError,
UnsupportedError). The exceptions are BCD decoding failures
(BadBcdWidthError from bcd.go, or a plain error for an invalid BCD digit)
and context cancellation errors, which are passed through as they are.
Use errors.As to recover the concrete type.
*/
package fins
