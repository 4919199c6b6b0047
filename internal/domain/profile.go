package domain

import "strings"

// UserProfile is the minimal identity needed to run a calculation.
type UserProfile struct {
	Name      string `json:"name"`
	Residence string `json:"residence"`
}

// IsRegistered reports whether both name and residence are set.
func (p UserProfile) IsRegistered() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Residence) != ""
}
