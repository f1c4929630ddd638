package domain

// Actor identifies who caused a mutation.
type Actor string

const (
	ActorHuman     Actor = "human"
	ActorSystem    Actor = "system"
	ActorScheduled Actor = "scheduled"
)
