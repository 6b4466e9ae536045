package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultAvatar is the shared placeholder used when a student has no avatar of their own.
const DefaultAvatar = "students/avatars/default.png"

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "O"
)

type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Avatar      string     `gorm:"size:255" json:"avatar"`
	FullName    string     `gorm:"size:150;not null;index;index:idx_student_class_fullname,priority:2" json:"full_name" validate:"notblank,max=150"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth" validate:"omitempty,notfuture"`
	Gender      Gender     `gorm:"size:1;not null" json:"gender" validate:"oneof=M F O"`
	ClassID     *uint      `gorm:"index:idx_student_class_fullname,priority:1" json:"student_class"`
	Class       *Class     `gorm:"foreignKey:ClassID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	PhoneNumber string     `gorm:"size:20;uniqueIndex;not null;index:idx_phone_email,priority:1;check:phone_number_not_empty,phone_number <> ''" json:"phone_number" validate:"required,vnphone"`
	Email       string     `gorm:"size:254;uniqueIndex;not null;index:idx_phone_email,priority:2;check:email_not_empty,email <> ''" json:"email" validate:"required,email,max=254"`
	Address     string     `gorm:"size:255" json:"address" validate:"max=255"`
	Username    string     `gorm:"size:20;uniqueIndex;not null" json:"username" validate:"notblank,max=20"`
	// PasswordHash holds the bcrypt hash; the plaintext is never stored.
	PasswordHash string    `gorm:"column:password;size:128;not null" json:"-" validate:"required"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s Student) String() string {
	className := "unassigned"
	if s.Class != nil {
		className = s.Class.Name
	}
	return fmt.Sprintf("%s (%s)", s.FullName, className)
}

func (s *Student) BeforeSave(tx *gorm.DB) error {
	return validateEntity(s)
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Avatar == "" {
		s.Avatar = DefaultAvatar
	}
	return nil
}
