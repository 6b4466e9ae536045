package entity

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	MinClassCapacity = 50
	MaxClassCapacity = 80
)

type Class struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Name            string    `gorm:"size:10;uniqueIndex;not null" json:"name" validate:"notblank,max=10"`
	MaxStudents     int       `gorm:"not null" json:"max_students" validate:"min=50,max=80"`
	CurrentStudents int       `gorm:"not null;default:0;check:chk_classes_current_students,current_students >= 0" json:"current_students" validate:"min=0,ltefield=MaxStudents"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Class) String() string {
	return fmt.Sprintf("%s (%d/%d)", c.Name, c.CurrentStudents, c.MaxStudents)
}

// HasCapacity reports whether one more student fits.
func (c *Class) HasCapacity() bool {
	return c.CurrentStudents < c.MaxStudents
}

func (c *Class) BeforeSave(tx *gorm.DB) error {
	return validateEntity(c)
}
