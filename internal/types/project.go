package types

// Project mirrors the construction-management CRUD collaborator's projects
// table. The core only writes rows here when a caller asks to persist a
// generated brief.
type Project struct {
	ID          int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string   `gorm:"column:name;not null" json:"name"`
	Description *string  `gorm:"column:description" json:"description,omitempty"`
	Status      string   `gorm:"column:status;default:active" json:"status"`
	StartDate   *string  `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate     *string  `gorm:"column:end_date" json:"end_date,omitempty"`
	Budget      *float64 `gorm:"column:budget" json:"budget,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}
