// Package bdd holds the reduced ordered binary decision diagram shared
// by the probability and importance analyzers. Vertices carry mutable
// scratch fields (mark, prob, factor) memoising per-traversal results;
// at most one traversal may be in flight at a time.
package bdd

// Vertex is either a terminal or an if-then-else node.
type Vertex interface {
	Terminal() bool
}

// Term is a terminal vertex.
type Term struct {
	Value bool
}

func (t *Term) Terminal() bool { return true }

// Shared terminals. The diagram is a DAG; terminals never carry
// scratch state, so one instance each suffices.
var (
	True  = &Term{Value: true}
	False = &Term{Value: false}
)

// Ite encodes "if var(Index) then High else Low". ComplementEdge
// negates the Low branch. Module marks a vertex whose Index refers to
// a sub-function registered in the diagram's Gates table.
//
// Mark, Prob and Factor are traversal scratch: a vertex's Prob/Factor
// is valid for the current pass iff Mark equals the pass's target.
type Ite struct {
	Index          int
	Order          int
	High           Vertex
	Low            Vertex
	ComplementEdge bool
	Module         bool

	Mark   bool
	Prob   float64
	Factor float64
}

func (v *Ite) Terminal() bool { return false }

// Function is a possibly-complemented reference to a vertex.
type Function struct {
	Vertex     Vertex
	Complement bool
}

// BDD is the top function, its module table, and the variable ordering.
type BDD struct {
	Root         Function
	Gates        map[int]Function
	IndexToOrder map[int]int

	moduleVars map[int]map[int]bool
}

// New assembles a diagram. Gates and IndexToOrder may be nil when the
// function has no modules.
func New(root Function, gates map[int]Function, indexToOrder map[int]int) *BDD {
	if gates == nil {
		gates = map[int]Function{}
	}
	return &BDD{Root: root, Gates: gates, IndexToOrder: indexToOrder}
}

// RootMark reads the current mark of the root vertex. Terminal roots
// report false.
func (b *BDD) RootMark() bool {
	if ite, ok := b.Root.Vertex.(*Ite); ok {
		return ite.Mark
	}
	return false
}

// ClearMarks walks the whole diagram, modules included, setting every
// Ite's mark to restore. Prob/Factor scratch is left as-is; it is
// invalidated by the mark convention alone.
func (b *BDD) ClearMarks(restore bool) {
	b.clearMarks(b.Root.Vertex, restore)
}

func (b *BDD) clearMarks(v Vertex, restore bool) {
	ite, ok := v.(*Ite)
	if !ok || ite.Mark == restore {
		return
	}
	ite.Mark = restore
	if ite.Module {
		if fn, found := b.Gates[ite.Index]; found {
			b.clearMarks(fn.Vertex, restore)
		}
	}
	b.clearMarks(ite.High, restore)
	b.clearMarks(ite.Low, restore)
}

// ModuleContains reports whether the module's sub-graph mentions the
// variable, transitively through nested modules. The containment sets
// are computed once and cached; the computation is mark-free so it is
// safe to call mid-traversal.
func (b *BDD) ModuleContains(moduleIndex, variableIndex int) bool {
	if b.moduleVars == nil {
		b.moduleVars = make(map[int]map[int]bool)
	}
	vars, ok := b.moduleVars[moduleIndex]
	if !ok {
		vars = make(map[int]bool)
		fn, found := b.Gates[moduleIndex]
		if found {
			collectVariables(b, fn.Vertex, vars, make(map[*Ite]bool))
		}
		b.moduleVars[moduleIndex] = vars
	}
	return vars[variableIndex]
}

func collectVariables(b *BDD, v Vertex, vars map[int]bool, seen map[*Ite]bool) {
	ite, ok := v.(*Ite)
	if !ok || seen[ite] {
		return
	}
	seen[ite] = true
	if ite.Module {
		if fn, found := b.Gates[ite.Index]; found {
			collectVariables(b, fn.Vertex, vars, seen)
		}
	} else {
		vars[ite.Index] = true
	}
	collectVariables(b, ite.High, vars, seen)
	collectVariables(b, ite.Low, vars, seen)
}
