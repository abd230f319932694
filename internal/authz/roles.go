package authz

import "fmt"

// Role is the coarse actor category stored on every user.
type Role string

const (
	RoleAdmin             Role = "admin"
	RoleOwner             Role = "owner"
	RoleHotelManager      Role = "hotelManager"
	RoleRestaurantManager Role = "restaurantManager"
	RoleBeveragesManager  Role = "beveragesManager"
	RoleHotelDirector     Role = "hotelDirector"
	RoleZoneAgent         Role = "zoneAgent"
	RoleCityAgent         Role = "cityAgent"
	RoleRegionAgent       Role = "regionAgent"
	RoleNationalAgent     Role = "nationalAgent"
)

var allRoles = []Role{
	RoleAdmin,
	RoleOwner,
	RoleHotelManager,
	RoleRestaurantManager,
	RoleBeveragesManager,
	RoleHotelDirector,
	RoleZoneAgent,
	RoleCityAgent,
	RoleRegionAgent,
	RoleNationalAgent,
}

// Roles returns every known role in declaration order.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole converts a stored string into a Role.
func ParseRole(s string) (Role, error) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("authz: unknown role %q", s)
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}
