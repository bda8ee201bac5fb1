package fins

// FinsAddress identifies a FINS-layer endpoint: network, node, unit.
type FinsAddress struct {
	Network byte
	Node    byte
	Unit    byte
}

// header is the fixed 10-byte FINS frame header (spec §3, §4.2).
type header struct {
	icf          byte // information control field
	gatewayCount byte // permissible gateways
	dst          FinsAddress
	src          FinsAddress
	serviceID    byte
}

const headerSize = 10

const (
	icfCommand  byte = 0x80 // ICF for a command frame: bridges bit set, response required
	icfResponse byte = 0xC1 // ICF for a response frame: bridges + message-type + response-not-required bits
	icfReserved byte = 0x00
)

func newRequestHeader(local, remote byte, serviceID byte) header {
	return header{
		icf:          icfCommand,
		gatewayCount: 0x02,
		dst:          FinsAddress{Network: 0x00, Node: remote, Unit: 0x00},
		src:          FinsAddress{Network: 0x00, Node: local, Unit: 0x00},
		serviceID:    serviceID,
	}
}

// newResponseHeader builds the header for a reply to req: source and
// destination swap, the service-id is echoed, and the ICF marks the frame
// as a response with no further response required.
func newResponseHeader(req header) header {
	return header{
		icf:          icfResponse,
		gatewayCount: req.gatewayCount,
		dst:          req.src,
		src:          req.dst,
		serviceID:    req.serviceID,
	}
}

func encodeHeader(h header) []byte {
	return []byte{
		h.icf, icfReserved, h.gatewayCount,
		h.dst.Network, h.dst.Node, h.dst.Unit,
		h.src.Network, h.src.Node, h.src.Unit,
		h.serviceID,
	}
}

func decodeHeader(b []byte) header {
	return header{
		icf:          b[0],
		gatewayCount: b[2],
		dst:          FinsAddress{Network: b[3], Node: b[4], Unit: b[5]},
		src:          FinsAddress{Network: b[6], Node: b[7], Unit: b[8]},
		serviceID:    b[9],
	}
}
