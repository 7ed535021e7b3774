package macro

// Cursor is the playback state of one curve for one voice.
type Cursor struct {
	curve *Curve

	pos      int
	val      int
	has      bool
	had      bool
	finished bool
	will     bool
}

// Bound reports whether the cursor is attached to a curve for the current note.
func (c *Cursor) Bound() bool { return c.will }

// Has reports whether the next step will produce a value.
// It goes false for good once the curve runs out without looping.
func (c *Cursor) Has() bool { return c.has }

// Had reports whether the latest step produced a value. Consumers apply
// Val only while Had is true.
func (c *Cursor) Had() bool { return c.had }

// Val returns the value produced by the latest step.
func (c *Cursor) Val() int { return c.val }

// Pos returns the index the next step will read.
func (c *Cursor) Pos() int { return c.pos }

// Finished is a one-tick pulse raised when the cursor stops producing values.
func (c *Cursor) Finished() bool { return c.finished }

func (c *Cursor) bind(curve *Curve) {
	*c = Cursor{}
	if curve == nil {
		return
	}
	c.curve = curve
	c.has = true
	c.had = true
	c.finished = true
	c.will = true
}

// step advances the cursor by one tick.
//
// Before release, once pos passes Rel it either jumps back to a loop point
// below Rel or parks on Rel. At the end of the curve it wraps to Loop only
// when the loop sits at or after Rel (or Rel lies outside the curve);
// otherwise the cursor terminates.
func (c *Cursor) step(released bool) {
	cv := c.curve
	if cv == nil {
		return
	}
	if c.finished {
		c.finished = false
	}
	if c.had != c.has {
		c.finished = true
	}
	c.had = c.has
	if !c.has {
		return
	}

	if c.pos < 0 || c.pos >= cv.Len || c.pos >= MaxLen {
		c.has = false
		return
	}
	c.val = cv.Values[c.pos]
	c.pos++

	loopOK := cv.Loop >= 0 && cv.Loop < cv.Len
	if cv.Rel >= 0 && c.pos > cv.Rel && !released {
		if loopOK && cv.Loop < cv.Rel {
			c.pos = cv.Loop
		} else {
			c.pos--
		}
	}
	if c.pos >= cv.Len {
		if loopOK && (cv.Loop >= cv.Rel || cv.Rel >= cv.Len) {
			c.pos = cv.Loop
		} else {
			c.has = false
		}
	}
}

// Interpreter steps every curve of one instrument for one voice.
type Interpreter struct {
	set      *Set
	released bool

	cur [NumKinds]Cursor
	op  [NumOps][NumOpKinds]Cursor
}

// Init binds the interpreter to s, or unbinds it when s is nil.
// Curves with zero length stay unbound.
func (in *Interpreter) Init(s *Set) {
	in.set = s
	in.released = false
	for k := range in.cur {
		in.cur[k].bind(nil)
	}
	for o := range in.op {
		for k := range in.op[o] {
			in.op[o][k].bind(nil)
		}
	}
	if s == nil {
		return
	}
	for k := range s.Curves {
		if s.Curves[k].Len > 0 {
			in.cur[k].bind(&s.Curves[k])
		}
	}
	for o := range s.Op {
		for k := range s.Op[o] {
			if s.Op[o][k].Len > 0 {
				in.op[o][k].bind(&s.Op[o][k])
			}
		}
	}
}

// Next advances every bound cursor by one step. It does nothing while unbound.
func (in *Interpreter) Next() {
	if in.set == nil {
		return
	}
	for k := range in.cur {
		in.cur[k].step(in.released)
	}
	for o := range in.op {
		for k := range in.op[o] {
			in.op[o][k].step(in.released)
		}
	}
}

// Release lets cursors run past their release points on following steps.
func (in *Interpreter) Release() {
	in.released = true
}

// Released reports whether Release was called since the last Init.
func (in *Interpreter) Released() bool { return in.released }

// NotifyDeletion unbinds the interpreter if it is playing s.
func (in *Interpreter) NotifyDeletion(s *Set) {
	if in.set != nil && in.set == s {
		in.Init(nil)
	}
}

// Set returns the bound macro set, or nil.
func (in *Interpreter) Set() *Set { return in.set }

// Get returns the cursor for a channel-level curve.
func (in *Interpreter) Get(k Kind) *Cursor { return &in.cur[k] }

// Op returns the cursor for a per-operator curve.
func (in *Interpreter) Op(op int, k OpKind) *Cursor { return &in.op[op][k] }

// ArpMode returns the bound set's arpeggio mode.
func (in *Interpreter) ArpMode() ArpMode {
	if in.set == nil {
		return ArpRelative
	}
	return in.set.ArpMode
}

// Ex1Mode returns the bound set's mode for the first extension curve.
func (in *Interpreter) Ex1Mode() ValueMode {
	if in.set == nil {
		return ValueAbsolute
	}
	return in.set.Ex1Mode
}

// Ex2Mode returns the bound set's mode for the second extension curve.
func (in *Interpreter) Ex2Mode() ValueMode {
	if in.set == nil {
		return ValueAbsolute
	}
	return in.set.Ex2Mode
}
