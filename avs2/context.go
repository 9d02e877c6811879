/*
DESCRIPTION
  context.go defines the AEC context model and its procedurally generated
  state-transition tables, generalizing the teacher's static CABAC tables
  (statetransxtab.go, rangetablps.go) from H.264's flat 64-state
  pStateIdx/valMPS pair to AVS2's packed (lg_pmps, mps, cycno) tuple and its
  two 16K-entry transition tables, per spec.md section 4.2 and section 3
  ("Arithmetic context").
*/

package avs2dec

import "sync"

// Context is the packed 16-bit arithmetic-context state of spec.md
// section 3: lg_pmps (11 bits), mps (1 bit), cycno (2 bits).
type Context struct {
	LgPmps uint16 // 0..2047
	Mps    uint8  // 0 or 1
	Cycno  uint8  // 0..3
}

// numContextStates is the size of each transition table: 2048 lg_pmps
// values * 2 mps values * 4 cycno values, the "16K-entry" tables of
// spec.md section 4.2.
const numContextStates = 2048 * 2 * 4

func packContextIndex(c Context) int {
	return int(c.LgPmps)*8 + int(c.Cycno)*2 + int(c.Mps)
}

func unpackContext(idx int) Context {
	mps := uint8(idx & 1)
	idx >>= 1
	cycno := uint8(idx & 3)
	idx >>= 2
	return Context{LgPmps: uint16(idx), Mps: mps, Cycno: cycno}
}

// AEC context-transition constants, per spec.md section 4.2.
const (
	lgPmpsShiftNo = 2
	bBits         = 10
	quarter       = 1 << (bBits - 2)
	aecValueBound = 254
)

// cwr and offset are the transition-table constants of spec.md section 4.2.
var (
	cwrTab    = [4]uint{3, 3, 4, 5}
	offsetTab = [6]uint16{0, 0, 0, 197, 95, 46}
)

var (
	transitionMPS [numContextStates]Context
	transitionLPS [numContextStates]Context

	// contextTablesOnce guards lazy, idempotent one-shot initialization of
	// the transition tables, per spec.md section 5: "AEC context tables
	// (16K entries x 2) are initialized lazily once on first use, guarded
	// by an idempotent initialization check -- callers must not assume
	// zero-initialization."
	contextTablesOnce sync.Once
)

func ensureContextTables() {
	contextTablesOnce.Do(buildContextTables)
}

// buildContextTables generates transitionMPS and transitionLPS from the
// cycno-indexed update rule of spec.md section 4.2:
//
//	MPS: cycno' = max(cycno, 1)
//	     lg_pmps' = lg_pmps - (lg_pmps >> cwr[cycno]) - (lg_pmps >> (cwr[cycno]+2))
//	LPS: cycno' = min(cycno+1, 3)
//	     lg_pmps' = lg_pmps + offset[cwr[cycno]]
//	     if lg_pmps' >= 256<<2: lg_pmps' = 2047 - lg_pmps'; flip mps
func buildContextTables() {
	for idx := 0; idx < numContextStates; idx++ {
		c := unpackContext(idx)
		transitionMPS[idx] = mpsUpdate(c)
		transitionLPS[idx] = lpsUpdate(c)
	}
}

func mpsUpdate(c Context) Context {
	cwr := cwrTab[c.Cycno]
	lgPmps := int(c.LgPmps) - (int(c.LgPmps) >> cwr) - (int(c.LgPmps) >> (cwr + 2))
	cycno := c.Cycno
	if cycno < 1 {
		cycno = 1
	}
	return Context{LgPmps: uint16(lgPmps), Mps: c.Mps, Cycno: cycno}
}

func lpsUpdate(c Context) Context {
	cwr := cwrTab[c.Cycno]
	lgPmps := int(c.LgPmps) + int(offsetTab[cwr])
	mps := c.Mps
	if lgPmps >= 256<<lgPmpsShiftNo {
		lgPmps = 2047 - lgPmps
		mps = 1 - mps
	}
	cycno := c.Cycno + 1
	if cycno > 3 {
		cycno = 3
	}
	return Context{LgPmps: uint16(lgPmps), Mps: mps, Cycno: cycno}
}

// next returns the updated context after observing either the MPS or LPS
// branch, via the precomputed transition tables.
func (c Context) next(isMPS bool) Context {
	ensureContextTables()
	idx := packContextIndex(c)
	if isMPS {
		return transitionMPS[idx]
	}
	return transitionLPS[idx]
}

// Syntax-element groups of the flat context array, per spec.md section 3.
// Sizes are representative rather than the standard's exact per-element
// context counts; the array totals roughly 400 contexts as spec.md
// describes.
const (
	ctxSplitFlag = iota
	ctxCUType
	ctxMVD
	ctxCoeffRun
	ctxCoeffLevel
	ctxLastCGPos
	ctxLastPosInCG
	ctxCBP
	ctxSAOMergeFlag
	ctxSAOMode
	ctxSAOOffset
	ctxALFEnable
	ctxIntraPredMode
	ctxIntraPredModeC
	ctxInterDir
	ctxRefIdx
	ctxDMHMode
	ctxDeltaQP
	ctxDirectSkipMode
	ctxNumGroups
)

var ctxGroupSize = [ctxNumGroups]int{
	ctxSplitFlag:       3,
	ctxCUType:          10,
	ctxMVD:             36,
	ctxCoeffRun:        144,
	ctxCoeffLevel:      80,
	ctxLastCGPos:       24,
	ctxLastPosInCG:     24,
	ctxCBP:             10,
	ctxSAOMergeFlag:     3,
	ctxSAOMode:          2,
	ctxSAOOffset:        8,
	ctxALFEnable:        3,
	ctxIntraPredMode:    1,
	ctxIntraPredModeC:   2,
	ctxInterDir:         3,
	ctxRefIdx:           2,
	ctxDMHMode:          8,
	ctxDeltaQP:          4,
	ctxDirectSkipMode:   1,
}

func ctxGroupOffset(group int) int {
	off := 0
	for i := 0; i < group; i++ {
		off += ctxGroupSize[i]
	}
	return off
}

// totalContexts is the size of the flat per-slice context array.
var totalContexts = func() int {
	n := 0
	for _, s := range ctxGroupSize {
		n += s
	}
	return n
}()

// uniformStartState is the starting state every context takes at each
// slice boundary (spec.md section 3: "initialized to a uniform starting
// state at each slice boundary").
var uniformStartState = Context{LgPmps: 1 << (bBits - 1), Mps: 0, Cycno: 0}

// ContextSet is the flat, per-slice array of ~400 contexts of spec.md
// section 3, grouped by syntax element.
type ContextSet struct {
	ctx []Context
}

// NewContextSet allocates a ContextSet with every context at the uniform
// starting state.
func NewContextSet() *ContextSet {
	cs := &ContextSet{ctx: make([]Context, totalContexts)}
	for i := range cs.ctx {
		cs.ctx[i] = uniformStartState
	}
	return cs
}

// Get returns a pointer to the context at (group, offset-within-group) so
// callers can mutate it in place via Update.
func (cs *ContextSet) Get(group, idx int) *Context {
	return &cs.ctx[ctxGroupOffset(group)+idx]
}

// Update replaces *c with its post-bin transition.
func (cs *ContextSet) Update(c *Context, isMPS bool) {
	*c = c.next(isMPS)
}
