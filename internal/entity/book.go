package entity

import (
	"fmt"
	"time"

	"anoa.com/studentmanager/pkg/apperror"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCover is the shared placeholder cover that is never deleted from storage.
const DefaultCover = "books/covers/default.jpg"

const DefaultBookDescription = "Đang cập nhật"

type CoverType string

const (
	CoverHard  CoverType = "H"
	CoverPaper CoverType = "P"
)

// MaxBookPrice bounds price to decimal(10,2).
var MaxBookPrice = decimal.New(1, 8)

type Book struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CoverImage  *string         `gorm:"size:255" json:"cover_image"`
	Title       string          `gorm:"size:255;not null;index" json:"title" validate:"notblank,max=255"`
	Author      string          `gorm:"size:255;not null" json:"author" validate:"notblank,max=255"`
	ISBN        *string         `gorm:"column:isbn;size:13;uniqueIndex" json:"isbn" validate:"omitempty,max=13"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price" validate:"-"`
	Quantity    int             `gorm:"not null;default:0;check:quantity_non_negative,quantity >= 0" json:"quantity" validate:"min=0"`
	CoverType   CoverType       `gorm:"size:1;not null;default:P" json:"cover_type" validate:"oneof=H P"`
	PublishDate time.Time       `gorm:"type:date;not null" json:"publish_date"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b Book) String() string {
	return fmt.Sprintf("%s - %s (%s VNĐ)", b.Title, b.Author, b.Price.StringFixed(2))
}

// CoverRef returns the stored cover reference, or "" when the book has none.
func (b *Book) CoverRef() string {
	if b.CoverImage == nil {
		return ""
	}
	return *b.CoverImage
}

// BeforeSave fills the defaults before validating; gorm runs it ahead of BeforeCreate.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	b.applyDefaults()
	if err := validateEntity(b); err != nil {
		return err
	}
	if problem := PriceProblem(b.Price); problem != "" {
		return apperror.NewValidationError().Add("price", problem)
	}
	return nil
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.applyDefaults()
	return nil
}

func (b *Book) applyDefaults() {
	if b.CoverType == "" {
		b.CoverType = CoverPaper
	}
	if b.PublishDate.IsZero() {
		b.PublishDate = time.Now()
	}
	if b.Description == "" {
		b.Description = DefaultBookDescription
	}
}

// PriceProblem describes why price does not fit decimal(10,2) >= 0, or returns "".
func PriceProblem(price decimal.Decimal) string {
	switch {
	case price.IsNegative():
		return "Price must not be negative"
	case !price.Equal(price.Round(2)):
		return "Price must have at most 2 decimal places"
	case price.GreaterThanOrEqual(MaxBookPrice):
		return "Price must have at most 10 digits"
	}
	return ""
}
