package common

import "sort"

// RegisterSnapshot maps register names to their values as captured at the
// start of an analysis run. Values are 64-bit capable to hold RV64 CSRs.
//
// A snapshot is built once by a decoder's register-acquisition step and is
// read-only afterward. Registers that could not be read are simply absent
// from the map; readers that tolerate absence use Value, which defaults to 0.
type RegisterSnapshot map[string]uint64

// Value returns the value of the named register, or 0 if it is absent.
func (s RegisterSnapshot) Value(name string) uint64 {
	return s[name]
}

// Lookup returns the value of the named register and whether it was captured.
func (s RegisterSnapshot) Lookup(name string) (uint64, bool) {
	v, ok := s[name]
	return v, ok
}

// Has reports whether the named register was captured.
func (s RegisterSnapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the captured register names in sorted order.
func (s RegisterSnapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
