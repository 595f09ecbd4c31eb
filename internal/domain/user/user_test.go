package user

import (
	"errors"
	"testing"
)

func TestProfileValidate(t *testing.T) {
	full := Profile{ID: "g-1", Name: "Ann", Avatar: "https://a/1.png", Contact: "ann@example.com"}
	if err := full.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for name, p := range map[string]Profile{
		"no id":      {Name: "Ann", Avatar: "a", Contact: "c"},
		"no name":    {ID: "g-1", Avatar: "a", Contact: "c"},
		"no avatar":  {ID: "g-1", Name: "Ann", Contact: "c"},
		"no contact": {ID: "g-1", Name: "Ann", Avatar: "a"},
	} {
		if err := p.Validate(); !errors.Is(err, ErrProfileIncomplete) {
			t.Errorf("%s: Validate() error = %v, want ErrProfileIncomplete", name, err)
		}
	}
}

func TestViewerOf(t *testing.T) {
	anon := ViewerOf(nil)
	if anon.Authenticated() || !anon.DidRequest {
		t.Fatalf("ViewerOf(nil) = %+v", anon)
	}

	v := ViewerOf(&User{ID: "g-1", Token: "tok", Avatar: "a", WalletID: "acct_1"})
	if !v.Authenticated() || !v.HasWallet || v.Token != "tok" {
		t.Fatalf("ViewerOf() = %+v", v)
	}
	if !v.Is("g-1") || v.Is("g-2") {
		t.Error("Is() mismatch")
	}
	if (Viewer{}).Is("") {
		t.Error("anonymous viewer must not match the empty id")
	}
}

func TestCloneDetachesSlices(t *testing.T) {
	u := &User{ID: "g-1", Bookings: []string{"b1"}}
	cp := u.Clone()
	cp.Bookings[0] = "changed"
	if u.Bookings[0] != "b1" {
		t.Fatal("Clone shares the bookings slice")
	}
}
