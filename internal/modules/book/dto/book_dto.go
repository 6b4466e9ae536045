package dto

import (
	"time"

	"anoa.com/studentmanager/internal/entity"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/validator"
)

// CreateBookRequest is bound from multipart form or JSON. Price is a decimal
// string such as "120000.50".
type CreateBookRequest struct {
	Title       string `form:"title" json:"title" binding:"required,notblank,max=255"`
	Author      string `form:"author" json:"author" binding:"required,notblank,max=255"`
	ISBN        string `form:"isbn" json:"isbn" binding:"omitempty,max=13"`
	Price       string `form:"price" json:"price" binding:"required"`
	Quantity    int    `form:"quantity" json:"quantity" binding:"min=0"`
	CoverType   string `form:"cover_type" json:"cover_type" binding:"omitempty,oneof=H P"`
	PublishDate string `form:"publish_date" json:"publish_date" binding:"omitempty,datetime=2006-01-02"`
	Description string `form:"description" json:"description"`
}

type UpdateBookRequest struct {
	Title       *string `form:"title" json:"title" binding:"omitempty,notblank,max=255"`
	Author      *string `form:"author" json:"author" binding:"omitempty,notblank,max=255"`
	ISBN        *string `form:"isbn" json:"isbn" binding:"omitempty,max=13"`
	Price       *string `form:"price" json:"price"`
	Quantity    *int    `form:"quantity" json:"quantity" binding:"omitempty,min=0"`
	CoverType   *string `form:"cover_type" json:"cover_type" binding:"omitempty,oneof=H P"`
	PublishDate *string `form:"publish_date" json:"publish_date" binding:"omitempty,datetime=2006-01-02"`
	Description *string `form:"description" json:"description"`
}

type BookFilter struct {
	commonDto.ListFilter
	// IDs restricts results to a search-index hit list when non-nil.
	IDs []string `form:"-"`
}

type BookResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          *string   `json:"isbn"`
	Price         string    `json:"price"`
	Quantity      int       `json:"quantity"`
	CoverType     string    `json:"cover_type"`
	CoverImage    *string   `json:"cover_image"`
	CoverImageURL string    `json:"cover_image_url"`
	PublishDate   string    `json:"publish_date"`
	Description   string    `json:"description"`
	Display       string    `json:"display"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type PaginatedBookResponse struct {
	Data []BookResponse            `json:"data"`
	Meta commonDto.PaginationMeta `json:"meta"`
}

func NewBookResponse(b *entity.Book, coverURL string) BookResponse {
	return BookResponse{
		ID:            b.ID.String(),
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		Price:         b.Price.StringFixed(2),
		Quantity:      b.Quantity,
		CoverType:     string(b.CoverType),
		CoverImage:    b.CoverImage,
		CoverImageURL: coverURL,
		PublishDate:   b.PublishDate.Format(validator.DateLayout),
		Description:   b.Description,
		Display:       b.String(),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
