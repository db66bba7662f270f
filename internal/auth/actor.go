package auth

// Actor identifies the caller for a service operation: who they are and what
// their role lets them do. The identity itself comes from the JWT middleware.
type Actor struct {
	UserID int
	Role   string
}

// Can returns the actor's capability set.
func (a Actor) Can() Capabilities {
	return CapabilitiesFor(a.Role)
}
