// Пакет rbac — роли пользователей geoattend и их домашние страницы.
// Ролей две: ADMIN управляет объектами и пользователями,
// USER отмечает посещаемость на назначенных объектах.
package rbac

// Роли в порядке возрастания привилегий.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Домашние страницы ролей.
const (
	HomeAdmin = "/dashboard"
	HomeUser  = "/home"
)

// roleWeight — вес роли для сравнения.
var roleWeight = map[string]int{
	RoleUser:  1,
	RoleAdmin: 2,
}

// IsValidRole проверяет, является ли строка допустимой ролью.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// IsAdmin — true только для роли ADMIN.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}

// HomePath возвращает домашнюю страницу роли.
// Для неизвестной роли — страница пользователя.
func HomePath(role string) string {
	if role == RoleAdmin {
		return HomeAdmin
	}
	return HomeUser
}

// HighestRole возвращает максимальную роль из набора.
// Если набор пуст — возвращает пустую строку.
func HighestRole(roles []string) string {
	highest := ""
	for _, r := range roles {
		if roleWeight[r] > roleWeight[highest] {
			highest = r
		}
	}
	return highest
}
