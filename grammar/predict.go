package grammar

import "fmt"

// predictEntry is PREDICT(A → α) = FIRST(α)\{ε} ∪ (FOLLOW(A) if ε ∈ FIRST(α) else ∅),
// per spec.md §4.2.
type predictEntry struct {
	symbols map[symbol]struct{}
	eof     bool
}

func newPredictEntry() *predictEntry {
	return &predictEntry{
		symbols: map[symbol]struct{}{},
	}
}

func (e *predictEntry) add(sym symbol) {
	e.symbols[sym] = struct{}{}
}

type predictSet struct {
	set map[productionID]*predictEntry
}

// genPredictSet computes PREDICT(A → α) for every production, grounded on
// the classic Dragon-book construction (see
// other_examples/dekarrin-tunaq__grammar.go's LLParseTable): unlike FIRST and
// FOLLOW, PREDICT requires no fixed-point iteration once FIRST and FOLLOW are
// known, since it is a direct per-production combination of the two.
func genPredictSet(prods *productionSet, first *firstSet, follow *followSet) (*predictSet, error) {
	pred := &predictSet{
		set: map[productionID]*predictEntry{},
	}

	for _, prod := range prods.getAllProductions() {
		fst, err := first.find(prod, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to compute PREDICT for production %v: %w", prod.num, err)
		}

		entry := newPredictEntry()
		for sym := range fst.symbols {
			entry.add(sym)
		}
		if fst.empty {
			flw, err := follow.find(prod.lhs)
			if err != nil {
				return nil, fmt.Errorf("failed to compute PREDICT for production %v: %w", prod.num, err)
			}
			for sym := range flw.symbols {
				entry.add(sym)
			}
			if flw.eof {
				entry.eof = true
			}
		}

		pred.set[prod.id] = entry
	}

	return pred, nil
}

func (p *predictSet) find(prod *production) (*predictEntry, error) {
	e, ok := p.set[prod.id]
	if !ok {
		return nil, fmt.Errorf("an entry of PREDICT was not found; production: %v", prod.num)
	}
	return e, nil
}
