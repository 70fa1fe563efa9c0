package domain

// Profile is the public face of a user account.
type Profile struct {
	Entity
	Username string `json:"username"`
	Bio      string `json:"bio,omitempty"`
	Website  string `json:"website,omitempty"`
	Github   string `json:"github,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
}

// DisplayName returns the username, or the anonymous placeholder.
func (p *Profile) DisplayName() string {
	if p == nil || p.Username == "" {
		return AnonymousAuthorName
	}
	return p.Username
}
