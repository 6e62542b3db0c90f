package grammar

import (
	"crypto/sha256"
	"fmt"
	"sort"
)

// genCLR1Automaton builds the canonical LR(1) collection (mode CLR1): two
// states whose kernels carry the same (production, dot) cores but different
// look-ahead sets are kept distinct, unlike the LR0/SLR1 automaton where
// state identity ignores look-ahead entirely. The worklist/closure/goto
// shape mirrors genLR0Automaton; only kernel identity and the closure's
// look-ahead computation differ.
func genCLR1Automaton(prods *productionSet, startSym symbol, errSym symbol, first *firstSet) (*lr0Automaton, error) {
	if !startSym.isStart() {
		return nil, fmt.Errorf("passed symbol is not a start symbol")
	}

	automaton := &lr0Automaton{
		states: map[kernelID]*lrState{},
	}

	currentState := stateNumInitial
	knownKernels := map[kernelID]struct{}{}
	uncheckedKernels := []*kernel{}

	{
		ps, _ := prods.findByLHS(startSym)
		iniItem, err := newLR0Item(ps[0], 0)
		if err != nil {
			return nil, err
		}
		iniItem.lookAhead.symbols = map[symbol]struct{}{
			symbolEOF: {},
		}

		k, err := newCLR1Kernel([]*lrItem{iniItem})
		if err != nil {
			return nil, err
		}

		automaton.initialState = k.id
		knownKernels[k.id] = struct{}{}
		uncheckedKernels = append(uncheckedKernels, k)
	}

	for len(uncheckedKernels) > 0 {
		nextUncheckedKernels := []*kernel{}
		for _, k := range uncheckedKernels {
			state, neighbours, err := genCLR1StateAndNeighbourKernels(k, prods, errSym, first)
			if err != nil {
				return nil, err
			}
			state.num = currentState
			currentState = currentState.next()

			automaton.states[state.id] = state

			for _, nk := range neighbours {
				if _, known := knownKernels[nk.id]; known {
					continue
				}
				knownKernels[nk.id] = struct{}{}
				nextUncheckedKernels = append(nextUncheckedKernels, nk)
			}
		}
		uncheckedKernels = nextUncheckedKernels
	}

	return automaton, nil
}

// newCLR1Kernel builds a kernel whose id depends on both the item cores and
// their look-ahead sets, so kernels with equal (production, dot) pairs but
// different look-aheads hash to distinct states.
func newCLR1Kernel(items []*lrItem) (*kernel, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("a kernel needs at least one item")
	}

	merged := map[lrItemID]*lrItem{}
	for _, item := range items {
		if !item.kernel {
			return nil, fmt.Errorf("not a kernel item: %v", item)
		}
		if existing, ok := merged[item.id]; ok {
			for a := range item.lookAhead.symbols {
				existing.lookAhead.symbols[a] = struct{}{}
			}
			continue
		}
		merged[item.id] = item
	}

	sortedItems := make([]*lrItem, 0, len(merged))
	for _, item := range merged {
		sortedItems = append(sortedItems, item)
	}
	sort.Slice(sortedItems, func(i, j int) bool {
		return sortedItems[i].id.num() < sortedItems[j].id.num()
	})

	h := sha256.New()
	for _, item := range sortedItems {
		h.Write(item.id[:])
		las := make([]symbol, 0, len(item.lookAhead.symbols))
		for a := range item.lookAhead.symbols {
			las = append(las, a)
		}
		sort.Slice(las, func(i, j int) bool { return las[i] < las[j] })
		for _, a := range las {
			h.Write(a.byte())
		}
	}

	var id kernelID
	copy(id[:], h.Sum(nil))

	return &kernel{
		id:    id,
		items: sortedItems,
	}, nil
}

func genCLR1StateAndNeighbourKernels(k *kernel, prods *productionSet, errSym symbol, first *firstSet) (*lrState, []*kernel, error) {
	items, err := genCLR1Closure(k, prods, first)
	if err != nil {
		return nil, nil, err
	}

	kItemMap := map[symbol][]*lrItem{}
	for _, item := range items {
		if item.dottedSymbol.isNil() {
			continue
		}
		prod, ok := prods.findByID(item.prod)
		if !ok {
			return nil, nil, fmt.Errorf("a production was not found: %v", item.prod)
		}
		kItem, err := newLR0Item(prod, item.dot+1)
		if err != nil {
			return nil, nil, err
		}
		kItem.lookAhead.symbols = map[symbol]struct{}{}
		for a := range item.lookAhead.symbols {
			kItem.lookAhead.symbols[a] = struct{}{}
		}
		kItemMap[item.dottedSymbol] = append(kItemMap[item.dottedSymbol], kItem)
	}

	nextSyms := make([]symbol, 0, len(kItemMap))
	for sym := range kItemMap {
		nextSyms = append(nextSyms, sym)
	}
	sort.Slice(nextSyms, func(i, j int) bool { return nextSyms[i] < nextSyms[j] })

	next := map[symbol]kernelID{}
	kernels := []*kernel{}
	for _, sym := range nextSyms {
		nk, err := newCLR1Kernel(kItemMap[sym])
		if err != nil {
			return nil, nil, err
		}
		next[sym] = nk.id
		kernels = append(kernels, nk)
	}

	reducible := map[productionID]struct{}{}
	var emptyProdItems []*lrItem
	isErrorTrapper := false
	for _, item := range items {
		if item.dottedSymbol == errSym {
			isErrorTrapper = true
		}
		if item.reducible {
			reducible[item.prod] = struct{}{}

			prod, ok := prods.findByID(item.prod)
			if !ok {
				return nil, nil, fmt.Errorf("reducible production not found: %v", item.prod)
			}
			if prod.isEmpty() {
				emptyProdItems = append(emptyProdItems, item)
			}
		}
	}

	return &lrState{
		kernel:         k,
		next:           next,
		reducible:      reducible,
		emptyProdItems: emptyProdItems,
		isErrorTrapper: isErrorTrapper,
	}, kernels, nil
}

// genCLR1Closure computes the closure of a kernel under full (production,
// dot, look-ahead) item identity. The look-ahead of a generated item
// (B → ・γ, b) where the source item is (A → α・Bβ, a) is FIRST(βa), per
// spec.md §4.3.
func genCLR1Closure(k *kernel, prods *productionSet, first *firstSet) ([]*lrItem, error) {
	items := []*lrItem{}
	knownItems := map[lrItemID]map[symbol]struct{}{}
	uncheckedItems := []*lrItem{}

	for _, item := range k.items {
		items = append(items, item)
		uncheckedItems = append(uncheckedItems, item)
		if knownItems[item.id] == nil {
			knownItems[item.id] = map[symbol]struct{}{}
		}
		for a := range item.lookAhead.symbols {
			knownItems[item.id][a] = struct{}{}
		}
	}

	for len(uncheckedItems) > 0 {
		nextUncheckedItems := []*lrItem{}
		for _, item := range uncheckedItems {
			if item.dottedSymbol.isTerminal() || item.dottedSymbol.isNil() {
				continue
			}

			p, ok := prods.findByID(item.prod)
			if !ok {
				return nil, fmt.Errorf("production not found: %v", item.prod)
			}

			fst, err := first.find(p, item.dot+1)
			if err != nil {
				return nil, err
			}

			lookAhead := map[symbol]struct{}{}
			for a := range fst.symbols {
				lookAhead[a] = struct{}{}
			}
			if fst.empty {
				for a := range item.lookAhead.symbols {
					lookAhead[a] = struct{}{}
				}
			}

			ps, _ := prods.findByLHS(item.dottedSymbol)
			for _, prod := range ps {
				newItem, err := newLR0Item(prod, 0)
				if err != nil {
					return nil, err
				}

				var fresh []symbol
				for a := range lookAhead {
					if _, seen := knownItems[newItem.id][a]; seen {
						continue
					}
					fresh = append(fresh, a)
				}
				if len(fresh) == 0 {
					continue
				}

				if knownItems[newItem.id] == nil {
					knownItems[newItem.id] = map[symbol]struct{}{}
				}
				newItem.lookAhead.symbols = map[symbol]struct{}{}
				for _, a := range fresh {
					knownItems[newItem.id][a] = struct{}{}
					newItem.lookAhead.symbols[a] = struct{}{}
				}

				items = append(items, newItem)
				nextUncheckedItems = append(nextUncheckedItems, newItem)
			}
		}
		uncheckedItems = nextUncheckedItems
	}

	return items, nil
}

// genLALR1ByCLR1Automaton builds the full canonical LR(1) collection and then
// merges states whose kernels agree on (production, dot) while ignoring
// look-ahead, taking the union of per-item look-aheads across merged states,
// per spec.md §4.3's LALR1_BY_CLR1 route.
func genLALR1ByCLR1Automaton(prods *productionSet, startSym symbol, errSym symbol, first *firstSet) (*lr0Automaton, error) {
	clr1, err := genCLR1Automaton(prods, startSym, errSym, first)
	if err != nil {
		return nil, err
	}

	// Group CLR1 states by their look-ahead-free kernel core.
	coreOf := func(st *lrState) kernelID {
		bareItems := make([]*lrItem, len(st.items))
		for i, it := range st.items {
			bare := *it
			bare.lookAhead = lookAhead{}
			bareItems[i] = &bare
		}
		k, err := newKernel(bareItems)
		if err != nil {
			// Every state's kernel items are themselves valid kernel items,
			// so construction cannot fail here.
			panic(err)
		}
		return k.id
	}

	groups := map[kernelID][]*lrState{}
	for _, st := range clr1.states {
		groups[coreOf(st)] = append(groups[coreOf(st)], st)
	}

	merged := &lr0Automaton{
		states: map[kernelID]*lrState{},
	}

	// Map every original CLR1 kernel id to its merged core id so transitions
	// can be rewritten.
	origToCore := map[kernelID]kernelID{}
	for core, group := range groups {
		for _, st := range group {
			origToCore[st.id] = core
		}
	}

	for core, group := range groups {
		itemsByCore := map[lrItemID]*lrItem{}
		reducible := map[productionID]struct{}{}
		var emptyProdItems []*lrItem
		isErrorTrapper := false
		next := map[symbol]kernelID{}
		var num stateNum

		for _, st := range group {
			num = st.num
			isErrorTrapper = isErrorTrapper || st.isErrorTrapper
			for p := range st.reducible {
				reducible[p] = struct{}{}
			}
			for sym, nk := range st.next {
				next[sym] = origToCore[nk]
			}
			for _, it := range st.items {
				existing, ok := itemsByCore[it.id]
				if !ok {
					copyItem := *it
					copyItem.lookAhead.symbols = map[symbol]struct{}{}
					for a := range it.lookAhead.symbols {
						copyItem.lookAhead.symbols[a] = struct{}{}
					}
					itemsByCore[it.id] = &copyItem
					continue
				}
				for a := range it.lookAhead.symbols {
					existing.lookAhead.symbols[a] = struct{}{}
				}
			}
			for _, it := range st.emptyProdItems {
				var found *lrItem
				for _, existing := range emptyProdItems {
					if existing.id == it.id {
						found = existing
						break
					}
				}
				if found == nil {
					copyItem := *it
					copyItem.lookAhead.symbols = map[symbol]struct{}{}
					for a := range it.lookAhead.symbols {
						copyItem.lookAhead.symbols[a] = struct{}{}
					}
					emptyProdItems = append(emptyProdItems, &copyItem)
					continue
				}
				for a := range it.lookAhead.symbols {
					found.lookAhead.symbols[a] = struct{}{}
				}
			}
		}

		mergedItems := make([]*lrItem, 0, len(itemsByCore))
		for _, it := range itemsByCore {
			mergedItems = append(mergedItems, it)
		}
		sort.Slice(mergedItems, func(i, j int) bool { return mergedItems[i].id.num() < mergedItems[j].id.num() })

		merged.states[core] = &lrState{
			kernel: &kernel{
				id:    core,
				items: mergedItems,
			},
			num:            num,
			next:           next,
			reducible:      reducible,
			emptyProdItems: emptyProdItems,
			isErrorTrapper: isErrorTrapper,
		}
	}
	merged.initialState = origToCore[clr1.initialState]

	return merged, nil
}
