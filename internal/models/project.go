package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	WorkspaceID uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	ImageURL    string

	// Relationships
	Workspace Workspace `gorm:"foreignKey:WorkspaceID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks     []Task    `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
