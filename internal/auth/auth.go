package auth

import "strings"

// роли выдаёт внешний identity-провайдер, мы им доверяем
type Role string

const RoleNone Role = ""
const RoleReader Role = "reader"
const RoleEditor Role = "editor"
const RoleManager Role = "manager"
const RoleAdmin Role = "admin"

var roleRank = map[Role]int{
	RoleNone:    0,
	RoleReader:  1,
	RoleEditor:  2,
	RoleManager: 3,
	RoleAdmin:   4,
}

type User struct {
	ID        string
	Role      Role
	Superuser bool
}

// Capabilities считаются один раз на запрос и передаются явно дальше
type Capabilities struct {
	CanViewAll bool
	CanEdit    bool
	CanDelete  bool
}

// ParseRole выбирает старшую роль из списка групп пользователя
func ParseRole(groups []string) Role {
	role := RoleNone
	for _, g := range groups {
		candidate := Role(strings.ToLower(strings.TrimSpace(g)))
		if _, ok := roleRank[candidate]; !ok {
			continue
		}
		if roleRank[candidate] > roleRank[role] {
			role = candidate
		}
	}
	return role
}

// Classify - чистая функция: роль + superuser -> три флага.
// Fallback по владельцу задачи проверяется вызывающей стороной, не здесь.
func Classify(u User) Capabilities {
	if u.Superuser {
		return Capabilities{CanViewAll: true, CanEdit: true, CanDelete: true}
	}
	rank := roleRank[u.Role]
	return Capabilities{
		CanViewAll: rank >= roleRank[RoleReader],
		CanEdit:    rank >= roleRank[RoleEditor],
		CanDelete:  rank >= roleRank[RoleManager],
	}
}
