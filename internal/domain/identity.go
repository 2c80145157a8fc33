package domain

const RoleEducator = "educator"

// Identity is a verified caller as issued by the external identity provider.
type Identity struct {
	UserID   string
	Role     string
	Name     string
	Email    string
	ImageURL string
}

func (id Identity) IsEducator() bool { return id.Role == RoleEducator }

// RequireEducator fails unless the identity's role claim is "educator".
// It holds no state; callers pass a freshly fetched identity.
func RequireEducator(id Identity) error {
	if id.UserID == "" {
		return ErrNotAuthenticated
	}
	if !id.IsEducator() {
		return ErrNotEducator
	}
	return nil
}
