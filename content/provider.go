package content

import "sort"

// ProviderTab returns the sub-provider tab label for a commerce URL.
// The longest matching domain wins so that e.g. "tmall.com" is never
// shadowed by a shorter entry.
func ProviderTab(u string, tabs map[string]string) (string, bool) {
	domains := make([]string, 0, len(tabs))
	for d := range tabs {
		domains = append(domains, d)
	}
	sort.Slice(domains, func(i, j int) bool {
		if len(domains[i]) != len(domains[j]) {
			return len(domains[i]) > len(domains[j])
		}
		return domains[i] < domains[j]
	})

	d := MatchDomain(Host(u), domains)
	if d == "" {
		return "", false
	}
	return tabs[d], true
}
