package user

// Viewer is the per-request identity projection. It is derived from a User on
// every call and never stored.
type Viewer struct {
	ID         ID
	Token      string
	Avatar     string
	HasWallet  bool
	DidRequest bool
}

// Anonymous is the viewer of a request whose credentials did not resolve.
func Anonymous() Viewer {
	return Viewer{DidRequest: true}
}

// ViewerOf projects u. A nil user yields the anonymous viewer.
func ViewerOf(u *User) Viewer {
	if u == nil {
		return Anonymous()
	}
	return Viewer{
		ID:         u.ID,
		Token:      u.Token,
		Avatar:     u.Avatar,
		HasWallet:  u.HasWallet(),
		DidRequest: true,
	}
}

func (v Viewer) Authenticated() bool {
	return v.ID != ""
}

// Is reports whether the viewer acts as id.
func (v Viewer) Is(id ID) bool {
	return v.ID != "" && v.ID == id
}
