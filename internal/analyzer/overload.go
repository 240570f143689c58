package analyzer

import (
	"github.com/funvibe/concepts/internal/symbols"
	"github.com/funvibe/concepts/internal/typesystem"
)

// candidate is a function taking part in overload resolution. Member
// functions carry the implicit object argument; special members point at
// their declared state.
type candidate struct {
	fn      symbols.Function
	object  *Operand
	special *symbols.Special
}

// match is a viable candidate: one conversion rank per argument, the
// implicit object first.
type match struct {
	ranks    []int
	template bool
	result   Operand
	noexcept bool
	usable   bool
	trivial  bool
}

// matchFunction checks viability of c for args, deducing template
// parameters first.
func (a *Analyzer) matchFunction(c candidate, args []Operand, allowUser bool) (match, bool) {
	fn := c.fn
	if len(args) < fn.MinArgs() || len(args) > len(fn.Params) {
		return match{}, false
	}
	if fn.IsTemplate() {
		s, ok := a.deduce(fn, args)
		if !ok {
			return match{}, false
		}
		fn = fn.Apply(s)
		fn.TypeParams = nil
	}
	fn, ok := a.normalizeFunction(fn)
	if !ok {
		return match{}, false
	}

	m := match{template: c.fn.IsTemplate(), noexcept: !fn.MayThrow, usable: true}
	if c.special != nil {
		m.usable = c.special.Usable()
		m.noexcept = !c.special.MayThrow
		m.trivial = c.special.IsTrivial()
	}
	if c.object != nil {
		rank, ok := objectRank(*c.object, fn.Const)
		if !ok {
			return match{}, false
		}
		m.ranks = append(m.ranks, rank)
	}
	for i, arg := range args {
		conv, ok := a.implicitConversion(arg, fn.Params[i], allowUser)
		if !ok {
			return match{}, false
		}
		m.ranks = append(m.ranks, conv.rank)
		m.noexcept = m.noexcept && conv.noexcept
		if conv.rank == rankUserDefined {
			m.trivial = false
		}
	}
	m.result = a.returned(fn.Result)
	return m, true
}

// objectRank binds the implicit object parameter: a const member accepts any
// object, a non-const member only non-const ones.
func objectRank(obj Operand, constMember bool) (int, bool) {
	objConst := typesystem.IsConst(obj.Type)
	switch {
	case constMember && !objConst:
		return rankQualification, true
	case !constMember && objConst:
		return 0, false
	}
	return rankExact, true
}

// deduce infers template parameters from each parameter/argument pair
// independently and merges the results. Parameters that mention no template
// parameter take part in conversions only.
func (a *Analyzer) deduce(fn symbols.Function, args []Operand) (typesystem.Subst, bool) {
	params := make(map[string]bool, len(fn.TypeParams))
	for _, p := range fn.TypeParams {
		params[p] = true
	}
	s := typesystem.Subst{}
	for i, arg := range args {
		pattern, target := deductionPair(a, typesystem.Canonical(fn.Params[i]), arg, params)
		if !mentions(pattern, params) {
			continue
		}
		got, err := typesystem.Match(pattern, target)
		if err != nil {
			return nil, false
		}
		for name, t := range got {
			if prev, ok := s[name]; ok && !typesystem.Equal(prev, t) {
				return nil, false
			}
			s[name] = t
		}
	}
	for _, p := range fn.TypeParams {
		if _, ok := s[p]; !ok {
			return nil, false
		}
	}
	return s, true
}

// deductionPair adjusts P and A the way deduction from a call does:
// reference parameters deduce against the referred type keeping the
// qualifiers the parameter does not supply, value parameters against the
// decayed unqualified argument.
func deductionPair(a *Analyzer, p typesystem.Type, arg Operand, params map[string]bool) (typesystem.Type, typesystem.Type) {
	r, isRef := p.(typesystem.TRef)
	if !isRef {
		return unqualified(p), unqualified(a.valueType(arg.Type))
	}
	if v, ok := r.Elem.(typesystem.TVar); ok && r.RValue && params[v.Name] && arg.Category == LValue {
		// forwarding reference
		return v, typesystem.LRef(arg.Type)
	}
	pu, pc, pv := typesystem.StripQual(r.Elem)
	au, ac, av := typesystem.StripQual(typesystem.Canonical(arg.Type))
	return pu, typesystem.WithQual(au, ac && !pc, av && !pv)
}

func mentions(t typesystem.Type, params map[string]bool) bool {
	for _, v := range t.FreeTypeVariables() {
		if params[v.Name] {
			return true
		}
	}
	return false
}

// normalizeFunction resolves aliases and member types in a signature. A
// signature that names a missing member type is not viable.
func (a *Analyzer) normalizeFunction(fn symbols.Function) (symbols.Function, bool) {
	params := make([]typesystem.Type, len(fn.Params))
	for i, p := range fn.Params {
		n, err := a.u.Normalize(p)
		if err != nil {
			return fn, false
		}
		params[i] = n
	}
	fn.Params = params
	if fn.Result != nil {
		n, err := a.u.Normalize(fn.Result)
		if err != nil {
			return fn, false
		}
		fn.Result = n
	}
	return fn, true
}

// better reports whether x is a better match than y: no argument converts
// worse and at least one converts better, or the ranks tie and only y is a
// template.
func better(x, y match) bool {
	if len(x.ranks) != len(y.ranks) {
		return false
	}
	strictly := false
	for i := range x.ranks {
		if x.ranks[i] > y.ranks[i] {
			return false
		}
		if x.ranks[i] < y.ranks[i] {
			strictly = true
		}
	}
	return strictly || (!x.template && y.template)
}

// selectBest returns the viable match better than every other one. There is
// none when the call is ambiguous.
func selectBest(ms []match) (match, bool) {
	for i, m := range ms {
		best := true
		for j, other := range ms {
			if i != j && !better(m, other) {
				best = false
				break
			}
		}
		if best {
			return m, true
		}
	}
	return match{}, false
}

// resolve runs overload resolution over candidates.
func (a *Analyzer) resolve(cands []candidate, args []Operand, allowUser bool) ([]match, match, bool) {
	var viable []match
	for _, c := range cands {
		if m, ok := a.matchFunction(c, args, allowUser); ok {
			viable = append(viable, m)
		}
	}
	best, ok := selectBest(viable)
	return viable, best, ok
}

// lookupMethods finds the member functions called name in the first class of
// the hierarchy that declares one.
func (a *Analyzer) lookupMethods(inst *symbols.Instance, name string) []symbols.Function {
	if ms := inst.Methods(name); len(ms) > 0 {
		return ms
	}
	for _, b := range inst.Bases() {
		if bi, ok := a.u.Resolve(b); ok {
			if ms := a.lookupMethods(bi, name); len(ms) > 0 {
				return ms
			}
		}
	}
	return nil
}
