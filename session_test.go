package fins

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, modelPrefix string) (*session, *mockUDPServer) {
	t.Helper()
	srv := newMockUDPServer(t, func(h header, cmd uint16, payload []byte) ([]byte, [2]byte) {
		switch cmd {
		case cmdReadCPUUnitData:
			resp := make([]byte, 40+12+40)
			copy(resp[52:], modelPrefix)
			copy(resp[72:], "1.00")
			return resp, [2]byte{0, 0}
		case cmdMemoryAreaRead:
			// one 0x012C word per requested element (count is payload bytes 4-5)
			count := int(payload[4])<<8 | int(payload[5])
			resp := make([]byte, 0, count*2)
			for i := 0; i < count; i++ {
				resp = append(resp, 0x01, 0x2C)
			}
			return resp, [2]byte{0, 0}
		case cmdMemoryAreaWrite:
			return nil, [2]byte{0, 0}
		case cmdReadClock:
			return []byte{0x24, 0x01, 0x02, 0x03, 0x04, 0x05, 0x03}, [2]byte{0, 0}
		case cmdReadCycleTime:
			return []byte{0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00, 0x50}, [2]byte{0, 0}
		default:
			return nil, [2]byte{0, 0}
		}
	})
	p := newTestPipeline(t, "127.0.0.1", srv.port())
	return newSession(p, time.Second, nil), srv
}

func TestSessionInitializeClassifiesModel(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()

	require.NoError(t, sess.Initialize(context.Background()))
	assert.Equal(t, PlcCJ2, sess.PlcType())
	assert.Equal(t, "CJ2M-CPU31", sess.ControllerModel())
	assert.Equal(t, "1.00", sess.ControllerVersion())
}

func TestSessionRejectsBeforeInitialize(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()

	_, err := sess.ReadWords(context.Background(), AreaDataMemory, 100, 1)
	require.Error(t, err)
	var notInit NotInitializedError
	require.ErrorAs(t, err, &notInit)
}

func TestSessionReadWordsAfterInitialize(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()

	require.NoError(t, sess.Initialize(context.Background()))
	words, err := sess.ReadWords(context.Background(), AreaDataMemory, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, int16(300), words[0])
}

func TestSessionMaxReadWordsPerModel(t *testing.T) {
	sess, srv := newTestSession(t, "CP1H")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	_, err := sess.ReadWords(context.Background(), AreaDataMemory, 0, 499)
	assert.NoError(t, err)
	_, err = sess.ReadWords(context.Background(), AreaDataMemory, 0, 500)
	assert.Error(t, err)
}

func TestSessionCycleTimeUnsupportedOnNX(t *testing.T) {
	sess, srv := newTestSession(t, "NX102")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	_, err := sess.ReadCycleTime(context.Background())
	require.Error(t, err)
	var unsupported UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}

func TestSessionCycleTimeSupportedOnNJ501(t *testing.T) {
	sess, srv := newTestSession(t, "NJ501-1300")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	res, err := sess.ReadCycleTime(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.AverageMs, 0.0)
}

func TestSessionReadClock(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	res, err := sess.ReadClock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2024, res.Year)
	assert.Equal(t, 3, res.DayOfWeek)
}

func TestSessionWriteClockBoundaries(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	require.NoError(t, sess.WriteClock(context.Background(), clockMin, -1))
	require.NoError(t, sess.WriteClock(context.Background(), clockMax, -1))

	beforeMin := clockMin.Add(-time.Second)
	err := sess.WriteClock(context.Background(), beforeMin, -1)
	assert.Error(t, err)

	afterMax := clockMax.Add(time.Second)
	err = sess.WriteClock(context.Background(), afterMax, -1)
	assert.Error(t, err)
}

func TestSessionBitRangeBoundaries(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	assert.NoError(t, checkBitRange(0, 1))
	assert.NoError(t, checkBitRange(15, 1))
	assert.Error(t, checkBitRange(16, 1))
	assert.Error(t, checkBitRange(15, 2))
}

func TestSessionAreaCeiling(t *testing.T) {
	sess, srv := newTestSession(t, "CJ2M-CPU31")
	defer srv.close()
	defer sess.close()
	require.NoError(t, sess.Initialize(context.Background()))

	_, _, _, caps := sess.snapshot()
	assert.NoError(t, sess.checkAreaRange(AreaWork, caps, caps.WorkCeiling-1, 1))
	assert.Error(t, sess.checkAreaRange(AreaWork, caps, caps.WorkCeiling, 1))
}
