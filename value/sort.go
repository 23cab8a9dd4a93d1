package value

import (
	"bytes"
	"sort"
)

// SortSet orders members canonically and drops duplicates.
func SortSet(s Set) Set {
	type keyed struct {
		k []byte
		v Value
	}
	ks := make([]keyed, len(s))
	for i, v := range s {
		ks[i] = keyed{Canonical(v), v}
	}
	sort.SliceStable(ks, func(i, j int) bool { return bytes.Compare(ks[i].k, ks[j].k) < 0 })
	out := make(Set, 0, len(ks))
	for i, e := range ks {
		if i > 0 && bytes.Equal(e.k, ks[i-1].k) {
			continue
		}
		out = append(out, e.v)
	}
	return out
}

// SortMapping orders entries by the canonical encoding of their keys.
func SortMapping(m Mapping) Mapping {
	ks := make([][]byte, len(m))
	idx := make([]int, len(m))
	for i, p := range m {
		ks[i] = Canonical(p.Key)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return bytes.Compare(ks[idx[a]], ks[idx[b]]) < 0 })
	out := make(Mapping, len(m))
	for i, j := range idx {
		out[i] = m[j]
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
