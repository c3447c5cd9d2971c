package analysis

import "sort"

// Select picks the analyzers for one run: start from the full registered
// set, drop categories the profile disables, keep only analyzers that are
// universal or match the lead's industry, then sort by effective priority
// (profile override beats the analyzer's own default).
func Select(reg *Registry, profile *DiscoveryProfileView, industry string) []Analyzer {
	var kept []Analyzer
	for _, a := range reg.All() {
		if profile.Disables(a.Category) {
			continue
		}
		if !a.IsUniversal && (industry == "" || a.Industry != industry) {
			continue
		}
		kept = append(kept, a)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return effectivePriority(kept[i], profile) < effectivePriority(kept[j], profile)
	})
	return kept
}

func effectivePriority(a Analyzer, profile *DiscoveryProfileView) int {
	if p, ok := profile.EffectivePriority(a.Category); ok {
		return p
	}
	return a.Priority
}

// DiscoveryProfileView is the subset of domain.DiscoveryProfile the
// selection and execution stages consume; a nil view behaves as "no
// profile attached".
type DiscoveryProfileView struct {
	DisabledCategories []string
	PriorityOverrides  map[string]int
	IgnoreCodes        map[string][]string
}

func (p *DiscoveryProfileView) Disables(category string) bool {
	if p == nil {
		return false
	}
	for _, c := range p.DisabledCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (p *DiscoveryProfileView) EffectivePriority(category string) (int, bool) {
	if p == nil || p.PriorityOverrides == nil {
		return 0, false
	}
	v, ok := p.PriorityOverrides[category]
	return v, ok
}

func (p *DiscoveryProfileView) IgnoredCodes(category string) []string {
	if p == nil || p.IgnoreCodes == nil {
		return nil
	}
	return p.IgnoreCodes[category]
}
