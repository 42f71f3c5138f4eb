package constants

import "fmt"

const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

const ErrOnlyOwnersCanAccess = "only the library owner can access %s"

func RoleErrorOwner(feature string) string {
	return fmt.Sprintf(ErrOnlyOwnersCanAccess, feature)
}

var OwnerOnly = []string{RoleOwner}
