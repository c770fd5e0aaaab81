package model

import "github.com/google/uuid"

// Principal is the authenticated caller of an API request.
type Principal struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Username    string
	Permissions map[string]struct{}
}

func NewPrincipal(user User, sessionID uuid.UUID) Principal {
	perms := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		perms[p] = struct{}{}
	}
	return Principal{
		UserID:      user.ID,
		SessionID:   sessionID,
		Username:    user.Username,
		Permissions: perms,
	}
}

func (p Principal) Can(code string) bool {
	if _, ok := p.Permissions[PermAll]; ok {
		return true
	}
	_, ok := p.Permissions[code]
	return ok
}

func (p Principal) CanAny(codes ...string) bool {
	for _, code := range codes {
		if p.Can(code) {
			return true
		}
	}
	return false
}
