package models

// ProjectUser is a pure junction row assigning a user to a project team.
// It carries no attributes beyond the pair and is fully replaced
// (delete-all-then-reinsert) when a project update carries a member list.
type ProjectUser struct {
	ProjectID uint `json:"project_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    uint `json:"user_id" gorm:"primaryKey;autoIncrement:false"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	User    User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (ProjectUser) TableName() string {
	return "project_users"
}
