package item

import "slices"

// FetchHint lets a client ask an engine to omit fields it does not need.
//
// The zero value is the default hint: a full fidelity fetch. Items fetched
// with any other hint may be missing fields, and saving such an item back as
// a full replacement silently drops whatever was omitted. Callers must not
// write back hinted items without a save mask naming only the fields they
// actually fetched.
type FetchHint struct {
	// DetailKeys, when non-empty, limits Details to these keys.
	DetailKeys []string `json:"detail_keys,omitempty"`
	// OmitDescription drops the description.
	OmitDescription bool `json:"omit_description,omitempty"`
	// OmitDetails drops all details.
	OmitDetails bool `json:"omit_details,omitempty"`
}

// IsDefault reports whether the hint asks for a full fidelity fetch.
func (h FetchHint) IsDefault() bool {
	return len(h.DetailKeys) == 0 && !h.OmitDescription && !h.OmitDetails
}

// Clone returns a deep copy.
func (h FetchHint) Clone() FetchHint {
	out := h
	out.DetailKeys = slices.Clone(h.DetailKeys)
	return out
}

// Apply returns a copy of it with the hinted fields removed.
func (h FetchHint) Apply(it Item) Item {
	out := it.Clone()
	if h.IsDefault() {
		return out
	}
	if h.OmitDescription {
		out.Description = ""
	}
	switch {
	case h.OmitDetails:
		out.Details = nil
	case len(h.DetailKeys) > 0 && out.Details != nil:
		for k := range out.Details {
			if !slices.Contains(h.DetailKeys, k) {
				delete(out.Details, k)
			}
		}
	}
	return out
}
