package bootstrap

import (
	"log/slog"

	"anoa.com/studentmanager/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Class{},
		&entity.Student{},
		&entity.Book{},
	)
}

var defaultClasses = []entity.Class{
	{Name: "10A1", MaxStudents: 50},
	{Name: "10A2", MaxStudents: 50},
	{Name: "11A1", MaxStudents: 60},
	{Name: "12A1", MaxStudents: 80},
}

// SeedClasses inserts the development class list, skipping names that exist.
func SeedClasses(db *gorm.DB) error {
	for _, class := range defaultClasses {
		var count int64
		if err := db.Model(&entity.Class{}).
			Where("name = ?", class.Name).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&class).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedDemoStudent creates an unassigned student account for local logins.
func SeedDemoStudent(db *gorm.DB) error {
	var count int64
	if err := db.Model(&entity.Student{}).
		Where("username = ?", "demostudent").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		slog.Debug("demo student already exists, skipping seed")
		return nil
	}

	password := "Student@123"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	student := entity.Student{
		FullName:     "Demo Student",
		Gender:       entity.GenderOther,
		PhoneNumber:  "+84900000000",
		Email:        "demo@student.local",
		Username:     "demostudent",
		PasswordHash: string(hashedPasswordBytes),
	}

	if err := db.Create(&student).Error; err != nil {
		return err
	}

	slog.Info("demo student seeded", "username", student.Username, "password", password)
	return nil
}
