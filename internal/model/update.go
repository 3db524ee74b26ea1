package model

// Update is pushed onto the property update queue on every successful set.
type Update struct {
	ID       Identifier
	Property string
	Value    Value
}
