package types

// Session binds a role and a wallet address to an active browser visit.
// All three fields are present together or the session is absent.
type Session struct {
	Token   string `json:"token"`
	Role    Role   `json:"role"`
	Address string `json:"address"`
}

// Complete reports whether every session field is populated
func (s Session) Complete() bool {
	return s.Token != "" && s.Role.Valid() && s.Address != ""
}
