package types

// Schedule mirrors the CRUD collaborator's schedules table; written only when
// persisting generated tasks.
type Schedule struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID  int64   `gorm:"column:project_id;index" json:"project_id"`
	TaskName   string  `gorm:"column:task_name;not null" json:"task_name"`
	StartDate  *string `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate    *string `gorm:"column:end_date" json:"end_date,omitempty"`
	AssignedTo *int64  `gorm:"column:assigned_to" json:"assigned_to,omitempty"`
	Status     string  `gorm:"column:status;default:pending" json:"status"`
}

func (Schedule) TableName() string {
	return "schedules"
}
