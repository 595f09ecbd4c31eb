package dto

import domainuser "tinyhouse/internal/domain/user"

// Viewer is the login/logout payload. Identity fields are omitted for an
// anonymous viewer and hasWallet only appears when true.
type Viewer struct {
	ID         string `json:"id,omitempty"`
	Token      string `json:"token,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	HasWallet  *bool  `json:"hasWallet,omitempty"`
	DidRequest bool   `json:"didRequest"`
}

func MapViewer(v domainuser.Viewer) Viewer {
	out := Viewer{
		ID:         string(v.ID),
		Token:      v.Token,
		Avatar:     v.Avatar,
		DidRequest: v.DidRequest,
	}
	if v.HasWallet {
		has := true
		out.HasWallet = &has
	}
	return out
}
