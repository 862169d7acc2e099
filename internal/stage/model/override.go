package model

// Override is one sparse patch entry: replace the value of Key under Section.
type Override struct {
	Section string
	Key     string
	// Value is the literal right-hand side, quotes included.
	Value string
}

// OverrideSet is an ordered collection of overrides parsed from an override file.
type OverrideSet []Override

// Lookup returns the first override matching section and key.
func (o OverrideSet) Lookup(section, key string) (string, bool) {
	for _, ov := range o {
		if ov.Section == section && ov.Key == key {
			return ov.Value, true
		}
	}
	return "", false
}

// Empty reports whether the set carries no overrides.
func (o OverrideSet) Empty() bool {
	return len(o) == 0
}
