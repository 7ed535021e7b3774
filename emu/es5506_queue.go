package emu

import "github.com/user-none/emes/regdump"

// busDelay is the default cost in output samples of one 8-bit bus access.
const busDelay = 2

const allBits = ^uint32(0)

// QueuedWrite is a pending 32-bit register write. A Mask other than
// all ones makes it a read-modify-write that keeps the unmasked bits.
type QueuedWrite struct {
	Addr  uint8
	Val   uint32
	Mask  uint32
	Delay int
}

func (d *ES5506Dispatch) rWrite(addr uint8, val uint32) {
	d.writes.push(QueuedWrite{Addr: addr, Val: val, Mask: allBits, Delay: busDelay})
}

func (d *ES5506Dispatch) rWriteMask(addr uint8, val, mask uint32) {
	d.writes.push(QueuedWrite{Addr: addr, Val: val, Mask: mask, Delay: busDelay})
}

// pageWrite queues a write to reg in page, preceded by a page select
// only when the page differs from the one last queued.
func (d *ES5506Dispatch) pageWrite(page int, reg uint8, val uint32) {
	d.pageWriteDelay(page, reg, val, busDelay)
}

func (d *ES5506Dispatch) pageWriteDelay(page int, reg uint8, val uint32, delay int) {
	if d.curPage != page {
		d.curPage = page
		d.rWrite(regPAGE, uint32(page))
	}
	d.writes.push(QueuedWrite{Addr: reg, Val: val, Mask: allBits, Delay: delay})
}

// crWriteMask queues a masked control register update for voice ch.
// Nothing is queued when the cached register already holds the bits.
// CR is visible from both of a voice's pages so only the voice bits of
// PAGE are replaced.
func (d *ES5506Dispatch) crWriteMask(ch int, val, mask uint32) {
	c := &d.chans[ch]
	if c.CR&mask == val&mask {
		return
	}
	c.CR = (c.CR &^ mask) | (val & mask)
	if d.curPage&crPageMask != ch&0x1f {
		d.curPage = (d.curPage &^ crPageMask) | (ch & 0x1f)
		d.rWriteMask(regPAGE, uint32(d.curPage), crPageMask)
	}
	d.rWriteMask(regCR, val, mask)
}

// readBus reads a full register through the 8-bit host bus.
func (d *ES5506Dispatch) readBus(reg uint8) uint32 {
	var v uint32
	for b := uint8(0); b < 4; b++ {
		v |= uint32(d.chip.Read(reg<<2|b)) << (24 - 8*uint32(b))
	}
	return v
}

// writeBus writes a full register through the 8-bit host bus.
func (d *ES5506Dispatch) writeBus(reg uint8, val uint32) {
	if d.capture != nil {
		d.capture(regdump.Write{Time: d.samples, Addr: uint32(reg), Val: val})
	}
	for b := uint8(0); b < 4; b++ {
		d.chip.Write(reg<<2|b, uint8(val>>(24-8*uint32(b))))
	}
}

// applyQueued performs one queued write and charges its bus cost.
func (d *ES5506Dispatch) applyQueued(w QueuedWrite) {
	val := w.Val
	if w.Mask != allBits {
		cur := d.readBus(w.Addr)
		d.cycles += w.Delay
		val = (cur &^ w.Mask) | (w.Val & w.Mask)
	}
	d.writeBus(w.Addr, val)
	d.cycles += 4 * w.Delay
}

// withPageImm runs fn with the chip's page register switched to
// target(current) and restores the previous page afterwards, so writes
// still in the queue land on the page they were queued for.
func (d *ES5506Dispatch) withPageImm(target func(cur uint32) uint32, fn func()) {
	prev := d.readBus(regPAGE)
	d.cycles += busDelay
	page := target(prev)
	if page != prev {
		d.writeBus(regPAGE, page)
		d.cycles += 4 * busDelay
	}
	fn()
	if page != prev {
		d.writeBus(regPAGE, prev)
		d.cycles += 4 * busDelay
	}
}

func exactPage(page int) func(uint32) uint32 {
	return func(uint32) uint32 { return uint32(page) }
}

func voicePage(ch int) func(uint32) uint32 {
	return func(cur uint32) uint32 { return (cur &^ crPageMask) | uint32(ch&0x1f) }
}

// pageWriteImm writes a register immediately, bypassing the queue.
func (d *ES5506Dispatch) pageWriteImm(page int, reg uint8, val uint32) {
	d.withPageImm(exactPage(page), func() {
		d.writeBus(reg, val)
		d.cycles += 4 * busDelay
	})
}

// crRefreshImm reads voice ch's control register from the chip.
func (d *ES5506Dispatch) crRefreshImm(ch int) uint32 {
	var cr uint32
	d.withPageImm(voicePage(ch), func() {
		cr = d.readBus(regCR)
		d.cycles += busDelay
	})
	return cr
}

// crWriteMaskImm updates voice ch's control register immediately and
// applies the same change to the cached value.
func (d *ES5506Dispatch) crWriteMaskImm(ch int, val, mask uint32) {
	d.withPageImm(voicePage(ch), func() {
		var cur uint32
		if mask != allBits {
			cur = d.readBus(regCR)
			d.cycles += busDelay
		}
		d.writeBus(regCR, (cur&^mask)|(val&mask))
		d.cycles += 4 * busDelay
	})
	c := &d.chans[ch]
	c.CR = (c.CR &^ mask) | (val & mask)
}
