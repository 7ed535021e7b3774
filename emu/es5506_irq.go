package emu

import "github.com/user-none/emes/song"

// irqServiceLimit bounds the interrupt vectors serviced after one output
// sample. Each IRQV read acknowledges a voice, so a well behaved chip
// needs at most one pass per voice.
const irqServiceLimit = 64

// serviceIRQ drains the interrupt vector after an output sample. If the
// line is still asserted after irqServiceLimit vectors, servicing is
// abandoned for this sample and resumes after the next one.
func (d *ES5506Dispatch) serviceIRQ() {
	for range irqServiceLimit {
		irqv := d.readBus(regIRQV)
		d.cycles += busDelay
		if irqv&irqvActive == 0 {
			return
		}
		d.updateIRQ(int(irqv & irqvVoiceMask))
	}
	d.irqOverruns++
}

// loopBits returns the control register loop pattern for a sample.
func loopBits(m song.LoopMode) uint32 {
	switch m {
	case song.LoopPingPong:
		return crLoopPingPong
	case song.LoopBackward:
		return crLoopBackward
	}
	return crLoopForward
}

// updateIRQ handles a loop boundary interrupt raised by voice ch.
func (d *ES5506Dispatch) updateIRQ(ch int) {
	c := &d.chans[ch]
	cr := d.crRefreshImm(ch)

	// First bounce of a backward loop: run backwards as a plain loop.
	if cr&crReversed == crReversed {
		d.crWriteMaskImm(ch, crDIR, 0x00f0)
		cr = (cr &^ 0x00f0) | crDIR
	}

	if !c.PCM.Pending() || cr&crTransWave != crTransWave {
		return
	}

	prev := c.PCM.Curr.Sample
	desc := c.PCM.Commit()
	ncr := cr &^ (crIRQ | crIRQE | crLEI)

	// The voice has just wrapped, so only the boundary ahead of it is live.
	if ncr&crDIR != 0 {
		d.pageWriteImm(pageHigh+ch, regSTART, desc.Loop)
	} else {
		d.pageWriteImm(pageHigh+ch, regEND, desc.End)
	}

	s := d.lib.Sample(desc.Sample)
	switch {
	case s == nil:
	case desc.Sample != prev:
		c.FreqOffs = rateRatio(s.Rate)
		c.Freq = d.calcFreq(c)
		d.pageWriteImm(pageLow+ch, regFC, uint32(c.Freq))
		ncr = (ncr &^ 0xc0fc) | desc.Bank<<crBankShift | loopBits(s.LoopMode)
	case s.LoopMode != song.LoopPingPong:
		lb := uint32(crLPE)
		if s.LoopMode == song.LoopBackward {
			lb |= crDIR
		}
		ncr = (ncr &^ 0x0078) | lb
	}
	d.crWriteMaskImm(ch, ncr, 0xc0fc)
}
