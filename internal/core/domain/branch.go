package domain

// Branch is a physical store location that owns cash drawers.
type Branch struct {
	BranchID    string `json:"branchID" db:"branch_id"` // Primary Key
	Name        string `json:"name" db:"name"`
	Address     string `json:"address" db:"address"`
	IsActive    bool   `json:"isActive" db:"is_active"` // inactive branches cannot open new sessions
	AuditFields        // Embed common audit fields
}
