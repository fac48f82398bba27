package rbac

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, true},
		{"admin", false},
		{"readonly", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValidRole(tt.role); got != tt.want {
			t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
		}
	}
}

func TestHomePath(t *testing.T) {
	tests := []struct {
		name string
		role string
		want string
	}{
		{"администратор", RoleAdmin, HomeAdmin},
		{"пользователь", RoleUser, HomeUser},
		{"неизвестная роль", "GUEST", HomeUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HomePath(tt.role); got != tt.want {
				t.Errorf("HomePath(%q) = %q, хотели %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{"пустой набор", nil, ""},
		{"только USER", []string{RoleUser}, RoleUser},
		{"USER и ADMIN", []string{RoleUser, RoleAdmin}, RoleAdmin},
		{"неизвестные роли игнорируются", []string{"GUEST", RoleUser}, RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighestRole(tt.roles); got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}
