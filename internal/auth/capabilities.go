package auth

import "textile-backend/internal/models"

// Capabilities is computed once from the caller's role at the service
// boundary. The domain code checks capabilities, never role strings, so
// renaming a role touches exactly this file.
type Capabilities struct {
	ManageLots          bool
	RegisterBales       bool
	Grade               bool
	EditChecklists      bool
	Lock                bool
	RequestModification bool
	ReviewModifications bool
	Dispatch            bool
	ManageUsers         bool
}

// CapabilitiesFor maps a role to its capability set. Unknown roles get
// read-only access.
func CapabilitiesFor(role string) Capabilities {
	switch role {
	case models.RoleAdmin:
		return Capabilities{
			ManageLots:          true,
			RegisterBales:       true,
			Grade:               true,
			EditChecklists:      true,
			Lock:                true,
			RequestModification: true,
			ReviewModifications: true,
			Dispatch:            true,
			ManageUsers:         true,
		}
	case models.RoleWarehouse:
		return Capabilities{
			ManageLots:          true,
			RegisterBales:       true,
			EditChecklists:      true,
			Lock:                true,
			RequestModification: true,
			Dispatch:            true,
		}
	case models.RoleLab:
		return Capabilities{Grade: true}
	default:
		return Capabilities{}
	}
}
