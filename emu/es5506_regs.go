package emu

// ES5506 register indexes. Pages 0x00-0x1F select a voice's low
// register bank, 0x20-0x3F its high bank, 0x40 the output channels.
const (
	regCR = 0x00

	// low page
	regFC     = 0x01
	regLVOL   = 0x02
	regLVRAMP = 0x03
	regRVOL   = 0x04
	regRVRAMP = 0x05
	regECOUNT = 0x06
	regK2     = 0x07
	regK2RAMP = 0x08
	regK1     = 0x09
	regK1RAMP = 0x0A
	regACTV   = 0x0B
	regMODE   = 0x0C

	// high page
	regSTART  = 0x01
	regEND    = 0x02
	regACCUM  = 0x03
	regO4N1   = 0x04
	regO3N2   = 0x05
	regO3N1   = 0x06
	regO2N2   = 0x07
	regO2N1   = 0x08
	regO1N1   = 0x09
	regWST    = 0x0A
	regWEND   = 0x0B
	regLREND  = 0x0C

	// every page
	regPOT  = 0x0D
	regIRQV = 0x0E
	regPAGE = 0x0F
)

// Page bases.
const (
	pageLow    = 0x00
	pageHigh   = 0x20
	pageOutput = 0x40
)

// crPageMask is the part of PAGE that selects a voice.
const crPageMask = 0x5f

// Control register bits.
const (
	crStop0 = 0x0001
	crStop1 = 0x0002
	crLEI   = 0x0004 // loop end ignore, set when a transwave boundary wraps
	crLPE   = 0x0008
	crBLE   = 0x0010
	crIRQE  = 0x0020
	crDIR   = 0x0040
	crIRQ   = 0x0080
	crLP3   = 0x0100
	crLP4   = 0x0200

	crStop      = crStop0 | crStop1
	crLoopMask  = crLPE | crBLE
	crBankShift = 14
)

// Loop mode bit patterns. Backward starts as a bouncing loop and is turned
// into a plain reverse loop by interrupt service after the first bounce.
const (
	crLoopForward  = crLPE
	crLoopPingPong = crLPE | crBLE
	crLoopBackward = crLPE | crBLE | crIRQE
	crReversed     = crDIR | crIRQE | crBLE | crLPE
	crTransWave    = crIRQE | crLEI
)

// IRQV bits.
const (
	irqvActive    = 0x80
	irqvVoiceMask = 0x1f
)

// regSheetES5506 names every register as page|index for debug views.
var regSheetES5506 = []struct {
	Name string
	Page uint8
	Reg  uint8
}{
	{"CR", pageLow, regCR},
	{"FC", pageLow, regFC},
	{"LVOL", pageLow, regLVOL},
	{"LVRAMP", pageLow, regLVRAMP},
	{"RVOL", pageLow, regRVOL},
	{"RVRAMP", pageLow, regRVRAMP},
	{"ECOUNT", pageLow, regECOUNT},
	{"K2", pageLow, regK2},
	{"K2RAMP", pageLow, regK2RAMP},
	{"K1", pageLow, regK1},
	{"K1RAMP", pageLow, regK1RAMP},
	{"ACTV", pageLow, regACTV},
	{"MODE", pageLow, regMODE},
	{"POT", pageLow, regPOT},
	{"IRQV", pageLow, regIRQV},
	{"PAGE", pageLow, regPAGE},
	{"CR", pageHigh, regCR},
	{"START", pageHigh, regSTART},
	{"END", pageHigh, regEND},
	{"ACCUM", pageHigh, regACCUM},
	{"O4(n-1)", pageHigh, regO4N1},
	{"O3(n-2)", pageHigh, regO3N2},
	{"O3(n-1)", pageHigh, regO3N1},
	{"O2(n-2)", pageHigh, regO2N2},
	{"O2(n-1)", pageHigh, regO2N1},
	{"O1(n-1)", pageHigh, regO1N1},
	{"W_ST", pageHigh, regWST},
	{"W_END", pageHigh, regWEND},
	{"LR_END", pageHigh, regLREND},
	{"POT", pageHigh, regPOT},
	{"IRQV", pageHigh, regIRQV},
	{"PAGE", pageHigh, regPAGE},
	{"CH0L", pageOutput, 0x00},
	{"CH0R", pageOutput, 0x01},
	{"CH1L", pageOutput, 0x02},
	{"CH1R", pageOutput, 0x03},
	{"CH2L", pageOutput, 0x04},
	{"CH2R", pageOutput, 0x05},
	{"CH3L", pageOutput, 0x06},
	{"CH3R", pageOutput, 0x07},
	{"CH4L", pageOutput, 0x08},
	{"CH4R", pageOutput, 0x09},
	{"CH5L", pageOutput, 0x0A},
	{"CH5R", pageOutput, 0x0B},
}

// RegisterName returns the name of a register as seen from page, or "".
func RegisterName(page, reg uint8) string {
	base := page & 0x60
	if page >= pageOutput {
		base = pageOutput
	}
	for _, r := range regSheetES5506 {
		if r.Page == base && r.Reg == reg {
			return r.Name
		}
	}
	return ""
}
