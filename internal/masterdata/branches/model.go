package branches

import "time"

// Branch is an operating location. Journal lines carry an optional
// branch id, so reports can be scoped per branch or consolidated.
type Branch struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code" validate:"required,max=20"`
	Name      string    `json:"name" validate:"required,max=100"`
	Address   string    `json:"address,omitempty" validate:"max=255"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
