package model

type ActorRole string

const (
	ActorUser     ActorRole = "user"
	ActorOperator ActorRole = "operator"
)

// Counterparty возвращает роль, которая отвечает на запросы r.
func (r ActorRole) Counterparty() ActorRole {
	if r == ActorUser {
		return ActorOperator
	}
	return ActorUser
}

func (r ActorRole) Valid() bool {
	return r == ActorUser || r == ActorOperator
}

// Actor - тот, кто выполняет операцию. UserID - клиент для ActorUser и
// сотрудник (если известен) для ActorOperator.
type Actor struct {
	Role   ActorRole `json:"role"`
	UserID int64     `json:"user_id"`
}

func UserActor(id int64) Actor {
	return Actor{Role: ActorUser, UserID: id}
}

func Operator(id int64) Actor {
	return Actor{Role: ActorOperator, UserID: id}
}

func (a Actor) IsOperator() bool {
	return a.Role == ActorOperator
}
