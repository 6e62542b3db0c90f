package grammar

import spec "github.com/gramforge/gramforge/spec/grammar"

// LLTable is the (nonterminal × terminal) → production cell grid described
// in spec.md §4.5/§3 ("LL Table"). Unlike the LR table, a collision here is
// never rescued by operator precedence: the grammar is simply not LL(1).
type LLTable struct {
	cells            map[symbol]map[symbol]productionNum
	eofCells         map[symbol]productionNum
	NonTerminalCount int
	TerminalCount    int
}

// LLConflict records a PREDICT-set collision between two productions of the
// same nonterminal on the same lookahead terminal (or $).
type LLConflict struct {
	LHS      symbol
	Lookhead symbol // symbolNil when the collision is on $
	IsEOF    bool
	Prod1    productionNum
	Prod2    productionNum
}

type ll1TableBuilder struct {
	prods   *productionSet
	first   *firstSet
	follow  *followSet
	predict *predictSet
	symTab  *symbolTableReader
}

// genLL1ParsingTable builds T per spec.md §4.5: for each production A → α,
// for each terminal t ∈ PREDICT(A → α), set T[A, t] = the production's
// number. A second production landing on the same cell is recorded as a
// conflict rather than silently overwritten.
func genLL1ParsingTable(prods *productionSet, first *firstSet, follow *followSet, symTab *symbolTableReader) (*LLTable, []*LLConflict, error) {
	predict, err := genPredictSet(prods, first, follow)
	if err != nil {
		return nil, nil, err
	}

	b := &ll1TableBuilder{
		prods:   prods,
		first:   first,
		follow:  follow,
		predict: predict,
		symTab:  symTab,
	}
	return b.build()
}

func (b *ll1TableBuilder) build() (*LLTable, []*LLConflict, error) {
	tab := &LLTable{
		cells:    map[symbol]map[symbol]productionNum{},
		eofCells: map[symbol]productionNum{},
	}

	var conflicts []*LLConflict
	for _, prod := range b.prods.getAllProductions() {
		if prod.lhs.isStart() {
			// The augmented start production is a driver convenience for
			// the LR family; the LL(1) table is keyed on the user's
			// productions only.
			continue
		}

		entry, err := b.predict.find(prod)
		if err != nil {
			return nil, nil, err
		}

		if tab.cells[prod.lhs] == nil {
			tab.cells[prod.lhs] = map[symbol]productionNum{}
		}

		for t := range entry.symbols {
			if existing, ok := tab.cells[prod.lhs][t]; ok {
				conflicts = append(conflicts, &LLConflict{
					LHS:      prod.lhs,
					Lookhead: t,
					Prod1:    existing,
					Prod2:    prod.num,
				})
				continue
			}
			tab.cells[prod.lhs][t] = prod.num
		}

		if entry.eof {
			if existing, ok := tab.eofCells[prod.lhs]; ok {
				conflicts = append(conflicts, &LLConflict{
					LHS:   prod.lhs,
					IsEOF: true,
					Prod1: existing,
					Prod2: prod.num,
				})
				continue
			}
			tab.eofCells[prod.lhs] = prod.num
		}
	}

	return tab, conflicts, nil
}

// getProduction returns the production number to use when `top` is on the
// symbol stack and `la` is the current lookahead terminal (or $ when eof).
func (t *LLTable) getProduction(top symbol, la symbol, eof bool) (productionNum, bool) {
	if eof {
		p, ok := t.eofCells[top]
		return p, ok
	}
	row, ok := t.cells[top]
	if !ok {
		return productionNumNil, false
	}
	p, ok := row[la]
	return p, ok
}

// genLL1Report renders the LL(1) table and its conflicts into a
// spec.LLReport, a report shape separate from the LR table builder's
// spec.Report: it carries cells and conflicts, not states.
func genLL1Report(tab *LLTable, conflicts []*LLConflict, symTab *symbolTableReader, prods *productionSet) (*spec.LLReport, error) {
	r := &spec.LLReport{}
	for lhs, row := range tab.cells {
		lhsName, _ := symTab.toText(lhs)
		for la, p := range row {
			laName, _ := symTab.toText(la)
			r.Cells = append(r.Cells, &spec.LLCell{
				NonTerminal: lhsName,
				Terminal:    laName,
				Production:  p.Int(),
			})
		}
	}
	for lhs, p := range tab.eofCells {
		lhsName, _ := symTab.toText(lhs)
		r.Cells = append(r.Cells, &spec.LLCell{
			NonTerminal: lhsName,
			Terminal:    "$",
			Production:  p.Int(),
		})
	}
	for _, c := range conflicts {
		lhsName, _ := symTab.toText(c.LHS)
		laName := "$"
		if !c.IsEOF {
			laName, _ = symTab.toText(c.Lookhead)
		}
		r.Conflicts = append(r.Conflicts, &spec.LLConflict{
			NonTerminal: lhsName,
			Terminal:    laName,
			Production1: c.Prod1.Int(),
			Production2: c.Prod2.Int(),
		})
	}
	return r, nil
}
