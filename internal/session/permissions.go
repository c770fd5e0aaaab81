package session

import "github.com/nurpe/erp-console/internal/model"

// PermissionSet gates console actions. It mirrors server checks for display
// only; the API enforces them.
type PermissionSet struct {
	codes map[string]struct{}
	all   bool
}

func NewPermissionSet(codes []string) PermissionSet {
	set := PermissionSet{codes: make(map[string]struct{}, len(codes))}
	for _, code := range codes {
		if code == model.PermAll {
			set.all = true
		}
		set.codes[code] = struct{}{}
	}
	return set
}

func (s PermissionSet) Has(code string) bool {
	if s.all {
		return true
	}
	_, ok := s.codes[code]
	return ok
}

// Any reports whether at least one code is granted. No codes grants nothing.
func (s PermissionSet) Any(codes ...string) bool {
	for _, code := range codes {
		if s.Has(code) {
			return true
		}
	}
	return false
}

// All reports whether every code is granted.
func (s PermissionSet) All(codes ...string) bool {
	for _, code := range codes {
		if !s.Has(code) {
			return false
		}
	}
	return true
}

func (s PermissionSet) Len() int {
	return len(s.codes)
}
