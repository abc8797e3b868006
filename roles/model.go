package roles

import "time"

// Role is a named role with a unique code.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewRole is the input to Store.Create.
type NewRole struct {
	Name        string
	Code        string
	Description string
}

// Update carries a partial modification; nil fields are left unchanged.
type Update struct {
	Name        *string
	Code        *string
	Description *string
}

// Seed is a role installed at construction with a fixed id.
type Seed struct {
	ID          int64
	Name        string
	Code        string
	Description string
}
