package fins

// Function codes (spec §4.3). Only Memory Area, Machine Configuration
// (controller data), Time Data, and Status (cycle time) are exercised for
// read/write by this client; the rest are validated at the header/echo
// level only, per spec §1's scope note.
const (
	fnMemoryArea      byte = 0x01
	fnParameterArea   byte = 0x02
	fnProgramArea     byte = 0x03
	fnOperatingMode   byte = 0x04
	fnMachineConfig   byte = 0x05
	fnStatus          byte = 0x06
	fnTimeData        byte = 0x07
	fnMessageDisplay  byte = 0x09
	fnAccessRights    byte = 0x0C
	fnErrorLog        byte = 0x21
	fnFileMemory      byte = 0x22
	fnDebugging       byte = 0x23
	fnSerialGateway   byte = 0x27
)

// Sub-function codes, grouped by function per spec §4.3's closed tables.
const (
	subMemoryRead          byte = 0x01
	subMemoryWrite         byte = 0x02
	subMemoryFill          byte = 0x03
	subMemoryMultipleRead  byte = 0x04
	subMemoryTransfer      byte = 0x05

	subParamRead  byte = 0x01
	subParamWrite byte = 0x02
	subParamFill  byte = 0x03

	subProgramRead  byte = 0x06
	subProgramWrite byte = 0x07
	subProgramClear byte = 0x08

	subOpModeRun  byte = 0x01
	subOpModeStop byte = 0x02

	subMachineReadCPU  byte = 0x01
	subMachineReadConn byte = 0x02

	subStatusCPU       byte = 0x01
	subStatusCycleTime byte = 0x20

	subTimeReadClock  byte = 0x01
	subTimeWriteClock byte = 0x02

	subAccessAcquire       byte = 0x01
	subAccessForcedAcquire byte = 0x02
	subAccessRelease       byte = 0x03

	subErrorLogRead  byte = 0x01
	subErrorLogClear byte = 0x02
	subWriteLogWrite byte = 0x02 // 0x21 is overloaded between error-log and fins-write-log
)

// Command code pairs (function<<8 | sub-function), the two bytes that
// follow the header on the wire.
const (
	cmdMemoryAreaRead   uint16 = uint16(fnMemoryArea)<<8 | uint16(subMemoryRead)
	cmdMemoryAreaWrite  uint16 = uint16(fnMemoryArea)<<8 | uint16(subMemoryWrite)
	cmdReadCPUUnitData  uint16 = uint16(fnMachineConfig)<<8 | uint16(subMachineReadCPU)
	cmdReadClock        uint16 = uint16(fnTimeData)<<8 | uint16(subTimeReadClock)
	cmdWriteClock       uint16 = uint16(fnTimeData)<<8 | uint16(subTimeWriteClock)
	cmdReadCycleTime    uint16 = uint16(fnStatus)<<8 | uint16(subStatusCycleTime)
)

// validSubFunction reports whether sub is a member of fn's closed
// enumeration, per spec §4.3. Function 0x21 is overloaded between the
// error-log and fins-write-log groups, so either group's sub-functions
// are accepted for it.
func validSubFunction(fn, sub byte) bool {
	switch fn {
	case fnMemoryArea:
		switch sub {
		case subMemoryRead, subMemoryWrite, subMemoryFill, subMemoryMultipleRead, subMemoryTransfer:
			return true
		}
	case fnParameterArea:
		switch sub {
		case subParamRead, subParamWrite, subParamFill:
			return true
		}
	case fnProgramArea:
		switch sub {
		case subProgramRead, subProgramWrite, subProgramClear:
			return true
		}
	case fnOperatingMode:
		switch sub {
		case subOpModeRun, subOpModeStop:
			return true
		}
	case fnMachineConfig:
		switch sub {
		case subMachineReadCPU, subMachineReadConn:
			return true
		}
	case fnStatus:
		switch sub {
		case subStatusCPU, subStatusCycleTime:
			return true
		}
	case fnTimeData:
		switch sub {
		case subTimeReadClock, subTimeWriteClock:
			return true
		}
	case fnMessageDisplay:
		return true
	case fnAccessRights:
		switch sub {
		case subAccessAcquire, subAccessForcedAcquire, subAccessRelease:
			return true
		}
	case fnErrorLog:
		// overloaded: error-log {0x01 read, 0x02 clear} or fins-write-log {0x02 write}
		switch sub {
		case subErrorLogRead, subErrorLogClear: // subWriteLogWrite (0x02) is the same value as subErrorLogClear
			return true
		}
	case fnFileMemory, fnDebugging, fnSerialGateway:
		return true
	}
	return false
}

// Memory area byte codes (spec §3). Bit-access and word-access codes are
// distinct even for the same logical area.
const (
	AreaDMBit  byte = 0x02
	AreaCIOBit byte = 0x30
	AreaWRBit  byte = 0x31
	AreaHRBit  byte = 0x32
	AreaARBit  byte = 0x33

	AreaDMWord  byte = 0x82
	AreaCIOWord byte = 0xB0
	AreaWRWord  byte = 0xB1
	AreaHRWord  byte = 0xB2
	AreaARWord  byte = 0xB3
)

// MemoryArea is the closed set of logical memory areas spec §3 names.
type MemoryArea int

const (
	AreaDataMemory MemoryArea = iota
	AreaCommonIO
	AreaWork
	AreaHolding
	AreaAuxiliary
)

func (a MemoryArea) String() string {
	switch a {
	case AreaDataMemory:
		return "DataMemory"
	case AreaCommonIO:
		return "CommonIO"
	case AreaWork:
		return "Work"
	case AreaHolding:
		return "Holding"
	case AreaAuxiliary:
		return "Auxiliary"
	default:
		return "Unknown"
	}
}

// bitCode returns the byte code used for bit-level access to a.
func (a MemoryArea) bitCode() byte {
	switch a {
	case AreaDataMemory:
		return AreaDMBit
	case AreaCommonIO:
		return AreaCIOBit
	case AreaWork:
		return AreaWRBit
	case AreaHolding:
		return AreaHRBit
	case AreaAuxiliary:
		return AreaARBit
	default:
		return 0
	}
}

// wordCode returns the byte code used for word-level access to a.
func (a MemoryArea) wordCode() byte {
	switch a {
	case AreaDataMemory:
		return AreaDMWord
	case AreaCommonIO:
		return AreaCIOWord
	case AreaWork:
		return AreaWRWord
	case AreaHolding:
		return AreaHRWord
	case AreaAuxiliary:
		return AreaARWord
	default:
		return 0
	}
}

// endCodeMessage returns the canonical message for a (main, sub) response
// code pair per spec §4.3. Unlisted sub-codes for a known main code fall
// back to a generic per-main-code message.
func endCodeMessage(main, sub byte) string {
	switch main {
	case 0x00:
		return "normal completion"
	case 0x01:
		switch sub {
		case 0x01:
			return "local node not part of network"
		case 0x02:
			return "token timeout"
		case 0x03:
			return "retries failed"
		case 0x04:
			return "too many send frames"
		case 0x05:
			return "node address range error"
		case 0x06:
			return "node address duplication"
		default:
			return "local node error"
		}
	case 0x02:
		switch sub {
		case 0x01:
			return "destination node not part of network"
		case 0x02:
			return "unit missing"
		case 0x03:
			return "third node missing"
		case 0x04:
			return "destination node busy"
		case 0x05:
			return "response timeout"
		default:
			return "destination node error"
		}
	case 0x03:
		switch sub {
		case 0x01:
			return "communications controller error"
		case 0x02:
			return "CPU unit error"
		case 0x03:
			return "controller error"
		case 0x04:
			return "unit number error"
		default:
			return "controller error"
		}
	case 0x04:
		switch sub {
		case 0x01:
			return "undefined command"
		case 0x02:
			return "not supported by model/version"
		default:
			return "service unsupported"
		}
	case 0x05:
		switch sub {
		case 0x01:
			return "destination node address setting error"
		case 0x02:
			return "no routing tables"
		case 0x03:
			return "routing table error"
		case 0x04:
			return "too many relays"
		default:
			return "routing error"
		}
	case 0x10:
		switch sub {
		case 0x01:
			return "command too long"
		case 0x02:
			return "command too short"
		case 0x03:
			return "elements/data count mismatch"
		case 0x04:
			return "command format error"
		case 0x05:
			return "header error"
		default:
			return "command format error"
		}
	case 0x11:
		switch sub {
		case 0x01:
			return "area classification missing"
		case 0x02:
			return "access size error"
		case 0x03:
			return "address range error"
		case 0x04:
			return "address range exceeded"
		case 0x06:
			return "program missing"
		case 0x09:
			return "relational error"
		case 0x0A:
			return "duplicate data access"
		case 0x0B:
			return "response too long"
		case 0x0C:
			return "parameter error"
		default:
			return "parameter error"
		}
	case 0x20:
		switch sub {
		case 0x02:
			return "not executable in current mode"
		case 0x03:
			return "no protocol executing"
		case 0x06:
			return "program error"
		default:
			return "read not possible"
		}
	case 0x21:
		switch sub {
		case 0x01:
			return "not writable, read only"
		case 0x02:
			return "protected"
		case 0x03:
			return "cannot write to executing program"
		case 0x04:
			return "file write not possible"
		case 0x05:
			return "file/directory names wrong"
		default:
			return "write not possible"
		}
	case 0x22:
		switch sub {
		case 0x01:
			return "not possible during execution"
		case 0x02:
			return "not possible while running"
		case 0x03:
			return "wrong PLC mode (running)"
		case 0x04:
			return "wrong PLC mode (stopped)"
		case 0x05:
			return "wrong PLC mode (idle)"
		case 0x06:
			return "wrong PLC mode (debug)"
		case 0x07:
			return "program does not exist"
		case 0x08:
			return "program is missing"
		case 0x09:
			return "file missing"
		case 0x0A:
			return "program too large"
		default:
			return "mode conflict"
		}
	case 0x23:
		switch sub {
		case 0x01:
			return "file device missing"
		case 0x02:
			return "memory missing"
		case 0x03:
			return "clock missing"
		default:
			return "no device"
		}
	case 0x24:
		switch sub {
		case 0x01:
			return "cannot start/stop, table missing"
		case 0x02:
			return "unit missing"
		case 0x03:
			return "start/stop not possible"
		default:
			return "cannot start/stop"
		}
	default:
		return "unrecognized response code"
	}
}
