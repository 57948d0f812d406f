package store

import "time"

// Operation is the kind of an arithmetic operation.
type Operation string

const (
	OpAdd      Operation = "add"
	OpSubtract Operation = "subtract"
	OpMultiply Operation = "multiply"
	OpDivide   Operation = "divide"
)

// User owns the calculations performed under a username. Users are created
// implicitly the first time a username performs an operation and are never
// updated afterwards.
type User struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Calculations []Calculation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Calculation is one recorded arithmetic operation. Rows are immutable and
// only ever removed by the cascade from a User deletion.
type Calculation struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Operation Operation `gorm:"size:20;not null" json:"operation"`
	OperandA  float64   `gorm:"not null" json:"operand_a"`
	OperandB  float64   `gorm:"not null" json:"operand_b"`
	Result    float64   `gorm:"not null" json:"result"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
}

// UserWithCount is a User row joined with the number of calculations it owns.
type UserWithCount struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"created_at"`
	CalculationCount int64     `json:"calculation_count"`
}
