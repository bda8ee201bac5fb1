package fins

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// mockUDPServer is a minimal in-process FINS/UDP responder used to drive the
// literal byte scenarios in spec §8 without a real PLC. Grounded on the
// teacher's deleted server.go in-process simulator.
type mockUDPServer struct {
	conn    *net.UDPConn
	handler func(reqHeader header, cmd uint16, payload []byte) (respPayload []byte, respCode [2]byte)
	done    chan struct{}
}

func newMockUDPServer(t *testing.T, handler func(header, uint16, []byte) ([]byte, [2]byte)) *mockUDPServer {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		t.Fatal(err)
	}
	s := &mockUDPServer{conn: conn, handler: handler, done: make(chan struct{})}
	go s.serve()
	return s
}

func (s *mockUDPServer) port() int {
	return s.conn.LocalAddr().(*net.UDPAddr).Port
}

func (s *mockUDPServer) serve() {
	buf := make([]byte, 4096)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		if n < headerSize+2 {
			continue
		}
		reqHeader, reqCmd, reqPayload := decodeIncomingRequest(buf[:n])
		respPayload, respCode := s.handler(reqHeader, reqCmd, reqPayload)
		out := make([]byte, 0, headerSize+4+len(respPayload))
		out = append(out, encodeHeader(newResponseHeader(reqHeader))...)
		out = append(out, byte(reqCmd>>8), byte(reqCmd))
		out = append(out, respCode[0], respCode[1])
		out = append(out, respPayload...)
		_, _ = s.conn.WriteToUDP(out, raddr)
	}
}

func (s *mockUDPServer) close() {
	close(s.done)
	_ = s.conn.Close()
}

// decodeIncomingRequest splits a raw request frame (header + command +
// payload, no response-code field) the way a server sees it on the wire.
func decodeIncomingRequest(b []byte) (header, uint16, []byte) {
	h := decodeHeader(b[0:headerSize])
	cmd := binary.BigEndian.Uint16(b[headerSize : headerSize+2])
	return h, cmd, b[headerSize+2:]
}

// mockTCPServer answers the FINS/TCP node-address handshake and echoes
// FINS-frame commands through handler.
type mockTCPServer struct {
	ln            net.Listener
	local, remote byte
	handler       func(reqHeader header, cmd uint16, payload []byte) (respPayload []byte, respCode [2]byte)
}

func newMockTCPServer(t *testing.T, local, remote byte, handler func(header, uint16, []byte) ([]byte, [2]byte)) *mockTCPServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &mockTCPServer{ln: ln, local: local, remote: remote, handler: handler}
	go s.serve()
	return s
}

func (s *mockTCPServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *mockTCPServer) serve() {
	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	hdr := make([]byte, 16)
	if _, err := readFullConn(conn, hdr); err != nil {
		return
	}
	length := binary.BigEndian.Uint32(hdr[4:8])
	body := make([]byte, length-8)
	if len(body) > 0 {
		if _, err := readFullConn(conn, body); err != nil {
			return
		}
	}
	reply := make([]byte, 8)
	reply[3] = s.local
	reply[7] = s.remote
	_, _ = conn.Write(encodeTCPFrame(tcpCmdNodeAddressReply, 0, reply))

	for {
		hdr := make([]byte, 16)
		if _, err := readFullConn(conn, hdr); err != nil {
			return
		}
		length := binary.BigEndian.Uint32(hdr[4:8])
		body := make([]byte, length-8)
		if len(body) > 0 {
			if _, err := readFullConn(conn, body); err != nil {
				return
			}
		}
		if len(body) < headerSize+2 {
			continue
		}
		reqHeader, reqCmd, reqPayload := decodeIncomingRequest(body)
		respPayload, respCode := s.handler(reqHeader, reqCmd, reqPayload)
		out := make([]byte, 0, headerSize+4+len(respPayload))
		out = append(out, encodeHeader(newResponseHeader(reqHeader))...)
		out = append(out, byte(reqCmd>>8), byte(reqCmd))
		out = append(out, respCode[0], respCode[1])
		out = append(out, respPayload...)
		_, _ = conn.Write(encodeTCPFrame(tcpCmdFinsFrame, 0, out))
	}
}

func (s *mockTCPServer) close() {
	_ = s.ln.Close()
}

func readFullConn(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// newTestPipeline builds a pipeline talking to a mock UDP server, for tests
// that exercise the pipeline/session layers without a real PLC.
func newTestPipeline(t *testing.T, host string, port int) *pipeline {
	t.Helper()
	factory := func() channel {
		return newUDPChannel(host, port, 2, 1)
	}
	return newPipeline(factory, 1, nil)
}
