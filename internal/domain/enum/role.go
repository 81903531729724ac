package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Role is the closed set of user roles. It is stored and signed into tokens
// by name.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleSalesManager Role = "sales_manager"
	RoleSalesperson  Role = "salesperson"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleSalesManager, RoleSalesperson}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSalesManager, RoleSalesperson:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsValid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable name.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleSalesManager:
		return "Sales Manager"
	case RoleSalesperson:
		return "Salesperson"
	}
	return "Unknown"
}

// HomePath is the dashboard a user lands on after login.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleSalesManager:
		return "/manager/dashboard"
	case RoleSalesperson:
		return "/sales/dashboard"
	}
	return "/login"
}

// CanApprove reports whether the role reviews sent quotations.
func (r Role) CanApprove() bool {
	switch r {
	case RoleAdmin, RoleSalesManager:
		return true
	}
	return false
}

// SeesAll reports whether the role sees every salesperson's records.
func (r Role) SeesAll() bool {
	switch r {
	case RoleAdmin, RoleSalesManager:
		return true
	}
	return false
}

func (r Role) CanManageCatalog() bool {
	return r == RoleAdmin
}

func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseRole(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r Role) Value() (driver.Value, error) {
	return string(r), nil
}

func (r *Role) Scan(value interface{}) error {
	var str string
	switch v := value.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", value)
	}
	parsed, err := ParseRole(str)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
