package fins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractControllerData(t *testing.T) {
	payload := make([]byte, 40+12+40)
	copy(payload[52:], "CJ2M-CPU31")
	copy(payload[72:], "1.10")

	data, err := extractControllerData(payload)
	require.NoError(t, err)
	assert.Equal(t, "CJ2M-CPU31", data.Model)
	assert.Equal(t, "1.10", data.Version)
}

func TestExtractClockYearDisambiguation(t *testing.T) {
	tests := []struct {
		name    string
		yyByte  byte
		wantYr  int
	}{
		{"69 -> 2069", 0x69, 2069},
		{"70 -> 1970", 0x70, 1970},
		{"99 -> 1999", 0x99, 1999},
		{"00 -> 2000", 0x00, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := []byte{tt.yyByte, 0x01, 0x02, 0x03, 0x04, 0x05, 0x03}
			res, err := extractClock(payload)
			require.NoError(t, err)
			assert.Equal(t, tt.wantYr, res.Year)
		})
	}
}

func TestValidateResponseCommandEcho(t *testing.T) {
	req := request{header: header{serviceID: 5}, command: cmdMemoryAreaRead}
	resp := response{header: header{serviceID: 5}, command: cmdMemoryAreaWrite}
	_, err := validateResponse(req, resp)
	require.Error(t, err)
	var echoErr ProtocolEchoError
	require.ErrorAs(t, err, &echoErr)
}

func TestValidateResponseServiceIDMismatchTriggersPurge(t *testing.T) {
	req := request{header: header{serviceID: 5}, command: cmdMemoryAreaRead}
	resp := response{header: header{serviceID: 6}, command: cmdMemoryAreaRead}
	purge, err := validateResponse(req, resp)
	require.Error(t, err)
	assert.True(t, purge)
}

func TestValidateResponseNetworkRelay(t *testing.T) {
	req := request{header: header{serviceID: 1}, command: cmdMemoryAreaRead}
	resp := response{header: header{serviceID: 1}, command: cmdMemoryAreaRead, respCode: [2]byte{0x80, 0x00}}
	_, err := validateResponse(req, resp)
	require.Error(t, err)
	var relayErr NetworkRelayError
	require.ErrorAs(t, err, &relayErr)
}

func TestValidateResponseFinsError(t *testing.T) {
	req := request{header: header{serviceID: 1}, command: cmdMemoryAreaRead}
	resp := response{header: header{serviceID: 1}, command: cmdMemoryAreaRead, respCode: [2]byte{0x11, 0x03}}
	_, err := validateResponse(req, resp)
	require.Error(t, err)
	var finsErr FinsError
	require.ErrorAs(t, err, &finsErr)
	assert.Equal(t, byte(0x11), finsErr.MainCode)
	assert.Equal(t, byte(0x03), finsErr.SubCode)
}

func TestValidateResponseNormal(t *testing.T) {
	req := request{header: header{serviceID: 1}, command: cmdMemoryAreaRead}
	resp := response{header: header{serviceID: 1}, command: cmdMemoryAreaRead, respCode: [2]byte{0x00, 0x00}}
	purge, err := validateResponse(req, resp)
	assert.NoError(t, err)
	assert.False(t, purge)
}

func TestScenarioReadOneWordDM100(t *testing.T) {
	// spec §8 scenario 1: DM100 read, response payload 01 2C -> 300
	payload := buildReadWords(AreaDMWord, 100, 1)
	assert.Equal(t, []byte{0x82, 0x00, 0x64, 0x00, 0x00, 0x01}, payload)

	words, err := extractWords([]byte{0x01, 0x2C}, 1)
	require.NoError(t, err)
	assert.Equal(t, int16(300), words[0])
}

func TestScenarioReadBitD10_3(t *testing.T) {
	payload := buildReadBits(AreaDMBit, 10, 3, 1)
	assert.Equal(t, []byte{0x02, 0x00, 0x0A, 0x03, 0x00, 0x01}, payload)

	bits, err := extractBits([]byte{0x01}, 1)
	require.NoError(t, err)
	assert.True(t, bits[0])
}

func TestScenarioWriteInt32ToD200(t *testing.T) {
	payload := buildWriteWords(AreaDMWord, 200, []uint16{0x1122, 0x3344})
	assert.Equal(t, []byte{0x82, 0x00, 0xC8, 0x00, 0x00, 0x02, 0x11, 0x22, 0x33, 0x44}, payload)
}

func TestScenarioWriteStringToD300(t *testing.T) {
	words, err := encodeValue(KindString, "AB", 4)
	require.NoError(t, err)
	payload := buildWriteWords(AreaDMWord, 300, words)
	assert.Equal(t, []byte{0x82, 0x01, 0x2C, 0x00, 0x00, 0x02, 0x41, 0x42, 0x00, 0x00}, payload)
}
