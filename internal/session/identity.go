// Package session manages signed-in identities: verifying Google ID tokens,
// issuing the app's own session tokens, and owning one live UserSession —
// three feature stores plus their document store subscriptions — per user.
package session

// Identity describes one signed-in user. The zero value is the signed-out
// state.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// SignedIn reports whether the identity belongs to an actual user.
func (i Identity) SignedIn() bool {
	return i.ID != ""
}

// Label returns the text shown next to the account indicator: display name
// first, then email, then a generic fallback.
func (i Identity) Label() string {
	switch {
	case !i.SignedIn():
		return ""
	case i.DisplayName != "":
		return i.DisplayName
	case i.Email != "":
		return i.Email
	default:
		return "Signed in"
	}
}
