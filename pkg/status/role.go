package status

import "fmt"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleWorker   Role = "worker"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleWorker:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleWorker
}
