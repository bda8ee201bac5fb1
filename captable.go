package fins

import "strings"

// PlcType is the closed set of controller families the session can classify
// a PLC into after reading its controller data (spec §3).
type PlcType int

const (
	PlcUnknown PlcType = iota
	PlcNJ101
	PlcNJ301
	PlcNJ501
	PlcNX1P2
	PlcNX102
	PlcNX701
	PlcNJNXNY
	PlcCJ2
	PlcCP1
	PlcCSeries
)

func (t PlcType) String() string {
	switch t {
	case PlcNJ101:
		return "NJ101"
	case PlcNJ301:
		return "NJ301"
	case PlcNJ501:
		return "NJ501"
	case PlcNX1P2:
		return "NX1P2"
	case PlcNX102:
		return "NX102"
	case PlcNX701:
		return "NX701"
	case PlcNJNXNY:
		return "NJ/NX/NY"
	case PlcCJ2:
		return "CJ2"
	case PlcCP1:
		return "CP1"
	case PlcCSeries:
		return "C-series"
	default:
		return "Unknown"
	}
}

// classifyModel maps a controller-data model string's ASCII prefix to a
// PlcType, most specific prefix first (spec §4.7).
func classifyModel(model string) PlcType {
	m := strings.ToUpper(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "NJ101"):
		return PlcNJ101
	case strings.HasPrefix(m, "NJ301"):
		return PlcNJ301
	case strings.HasPrefix(m, "NJ501"):
		return PlcNJ501
	case strings.HasPrefix(m, "NX1P2"):
		return PlcNX1P2
	case strings.HasPrefix(m, "NX102"):
		return PlcNX102
	case strings.HasPrefix(m, "NX701"):
		return PlcNX701
	case strings.HasPrefix(m, "NJ"), strings.HasPrefix(m, "NX"), strings.HasPrefix(m, "NY"):
		return PlcNJNXNY
	case strings.HasPrefix(m, "CJ2"):
		return PlcCJ2
	case strings.HasPrefix(m, "CP1"):
		return PlcCP1
	case strings.HasPrefix(m, "C"):
		return PlcCSeries
	default:
		return PlcUnknown
	}
}

// capabilities is the read-only, per-model limit table derived once at
// identification time (spec §3).
type capabilities struct {
	MaxReadWords   int
	MaxWriteWords  int
	BitAddressable bool
	AuxSupported   bool
	AuxCeiling     int
	DMCeiling      int
	CIOCeiling     int
	WorkCeiling    int
	HoldingCeiling int
	CycleTimeOK    bool
}

// capabilitiesFor returns the capability table for t, per spec §3's fixed
// per-model figures.
func capabilitiesFor(t PlcType) capabilities {
	c := capabilities{
		MaxReadWords:   999,
		MaxWriteWords:  996,
		BitAddressable: true,
		AuxSupported:   false,
		AuxCeiling:     0,
		DMCeiling:      32768,
		CIOCeiling:     6144,
		WorkCeiling:    512,
		HoldingCeiling: 1536,
		CycleTimeOK:    false,
	}

	switch t {
	case PlcCP1:
		c.MaxReadWords = 499
		c.MaxWriteWords = 496
		c.BitAddressable = false
		c.AuxSupported = true
		c.AuxCeiling = 960
		c.CycleTimeOK = true
	case PlcCJ2:
		c.AuxSupported = true
		c.AuxCeiling = 11536
		c.CycleTimeOK = true
	case PlcCSeries:
		c.AuxSupported = true
		c.AuxCeiling = 960
		c.CycleTimeOK = true
	case PlcNX1P2:
		c.DMCeiling = 16000
	case PlcNJ101, PlcNJ301, PlcNJ501:
		c.CycleTimeOK = true
	case PlcNX102, PlcNX701, PlcNJNXNY:
		c.CycleTimeOK = false
	}
	return c
}

// ceilingFor returns the per-model address ceiling for area, or 0 if the
// area isn't recognized (auxiliary support/ceiling is handled separately by
// callers since it also depends on whether the model supports it at all).
func (c capabilities) ceilingFor(area MemoryArea) int {
	switch area {
	case AreaDataMemory:
		return c.DMCeiling
	case AreaCommonIO:
		return c.CIOCeiling
	case AreaWork:
		return c.WorkCeiling
	case AreaHolding:
		return c.HoldingCeiling
	case AreaAuxiliary:
		return c.AuxCeiling
	default:
		return 0
	}
}
