package fins

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, modelPrefix string) (*Client, *mockUDPServer) {
	t.Helper()
	srv := newMockUDPServer(t, func(h header, cmd uint16, payload []byte) ([]byte, [2]byte) {
		switch cmd {
		case cmdReadCPUUnitData:
			resp := make([]byte, 40+12+40)
			copy(resp[52:], modelPrefix)
			copy(resp[72:], "1.00")
			return resp, [2]byte{0, 0}
		case cmdMemoryAreaRead:
			return []byte{0x00, 0x64}, [2]byte{0, 0}
		case cmdMemoryAreaWrite:
			return nil, [2]byte{0, 0}
		default:
			return nil, [2]byte{0, 0}
		}
	})

	c, err := NewClient(Config{
		LocalNodeID:  2,
		RemoteNodeID: 1,
		Transport:    TransportUDP,
		Host:         "127.0.0.1",
		Port:         srv.port(),
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return c, srv
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{LocalNodeID: 1, RemoteNodeID: 2, Host: "x"}.withDefaults()
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
	assert.Equal(t, defaultPollInterval, cfg.PollInterval)
}

func TestConfigValidation(t *testing.T) {
	_, err := NewClient(Config{LocalNodeID: 0, RemoteNodeID: 1, Host: "x"})
	assert.Error(t, err)
	_, err = NewClient(Config{LocalNodeID: 1, RemoteNodeID: 1, Host: "x"})
	assert.Error(t, err)
	_, err = NewClient(Config{LocalNodeID: 1, RemoteNodeID: 2, Host: ""})
	assert.Error(t, err)
}

func TestClientRegisterAndObserve(t *testing.T) {
	c, srv := newTestClient(t, "CJ2M-CPU31")
	defer srv.close()
	defer c.Dispose()

	require.NoError(t, RegisterTag[int16](c, "D100", "line-speed"))
	values, unsub := Observe[int16](c, "line-speed")
	defer unsub()

	select {
	case v := <-values:
		require.True(t, v.Valid)
		assert.Equal(t, int16(100), v.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for observed value")
	}
}

func TestClientValueSynchronousRead(t *testing.T) {
	c, srv := newTestClient(t, "CJ2M-CPU31")
	defer srv.close()
	defer c.Dispose()

	require.NoError(t, RegisterTag[int16](c, "D100", "line-speed"))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v := Value[int16](c, "line-speed"); v.Valid {
			assert.Equal(t, int16(100), v.Value)
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("cached value never populated")
}

func TestClientValueUnknownTag(t *testing.T) {
	c, srv := newTestClient(t, "CJ2M-CPU31")
	defer srv.close()
	defer c.Dispose()

	v := Value[int16](c, "does-not-exist")
	assert.False(t, v.Valid)
}

func TestClientWriteFireAndForget(t *testing.T) {
	c, srv := newTestClient(t, "CJ2M-CPU31")
	defer srv.close()
	defer c.Dispose()

	require.NoError(t, RegisterTag[int16](c, "D100", "setpoint"))
	Write[int16](c, "setpoint", 42)
	// Fire-and-forget: no panic, no block. Errors() would carry any failure.
}

func TestClientRegisterTagReplacesOnTypeChange(t *testing.T) {
	c, srv := newTestClient(t, "CJ2M-CPU31")
	defer srv.close()
	defer c.Dispose()

	require.NoError(t, RegisterTag[int16](c, "D100", "tag1"))
	entry1, ok := c.table.get("tag1")
	require.True(t, ok)

	require.NoError(t, RegisterTag[uint16](c, "D100", "tag1"))
	entry2, ok := c.table.get("tag1")
	require.True(t, ok)
	assert.NotSame(t, entry1, entry2)
	assert.Equal(t, KindUint16, entry2.Kind)
}

func TestClientPlcTypeAfterInitialize(t *testing.T) {
	c, srv := newTestClient(t, "NJ501-1300")
	defer srv.close()
	defer c.Dispose()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.PlcType() == PlcNJ501 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("plc type never classified")
}
