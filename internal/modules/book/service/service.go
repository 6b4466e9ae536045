package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/internal/modules/book/dto"
	"anoa.com/studentmanager/internal/modules/book/repository"
	search "anoa.com/studentmanager/internal/modules/search/service"
	"anoa.com/studentmanager/pkg/apperror"
	commonDto "anoa.com/studentmanager/pkg/dto"
	"anoa.com/studentmanager/pkg/storage"
	"anoa.com/studentmanager/pkg/textclean"
	"anoa.com/studentmanager/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxSearchHits   = 1000
	coverFolder     = "book"
)

type BookService interface {
	CreateBook(ctx context.Context, req dto.CreateBookRequest, cover *commonDto.ImageFile) (*dto.BookResponse, error)
	GetAllBooks(ctx context.Context, filter dto.BookFilter) (*dto.PaginatedBookResponse, error)
	GetBook(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error)
	UpdateBook(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest, cover *commonDto.ImageFile) (*dto.BookResponse, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

type bookService struct {
	repo         repository.BookRepository
	imageStorage storage.ImageStorage
	assets       *storage.AssetManager
	search       search.SearchService
	logger       *slog.Logger
	now          func() time.Time
}

func NewBookService(
	repo repository.BookRepository,
	imageStorage storage.ImageStorage,
	assets *storage.AssetManager,
	searchService search.SearchService,
	logger *slog.Logger,
) BookService {
	return &bookService{
		repo:         repo,
		imageStorage: imageStorage,
		assets:       assets,
		search:       searchService,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *bookService) CreateBook(ctx context.Context, req dto.CreateBookRequest, cover *commonDto.ImageFile) (*dto.BookResponse, error) {
	verr := apperror.NewValidationError()

	book := &entity.Book{
		Title:       textclean.Plain(req.Title),
		Author:      textclean.Plain(req.Author),
		Quantity:    req.Quantity,
		CoverType:   entity.CoverType(req.CoverType),
		Description: textclean.Multiline(req.Description),
	}
	book.Price = parsePrice(req.Price, verr)
	if isbn := strings.TrimSpace(req.ISBN); isbn != "" {
		book.ISBN = &isbn
	}
	if req.PublishDate != "" {
		book.PublishDate = parseDate(req.PublishDate, verr)
	}

	if err := s.checkISBN(ctx, book, verr); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if cover != nil {
		ref, err := s.uploadCover(ctx, cover)
		if err != nil {
			return nil, err
		}
		book.CoverImage = &ref
	}

	if err := s.repo.Create(ctx, book); err != nil {
		if cover != nil {
			s.assets.Release(ctx, book.CoverRef())
		}
		return nil, mapPersistError(err)
	}

	s.index(book)
	res := s.toResponse(book)
	return &res, nil
}

func (s *bookService) GetAllBooks(ctx context.Context, filter dto.BookFilter) (*dto.PaginatedBookResponse, error) {
	filter.Normalize(defaultPageSize)

	if query := strings.TrimSpace(filter.Search); query != "" && s.search.Enabled() {
		ids, err := s.search.SearchBooks(query, maxSearchHits)
		if err != nil {
			s.logger.Warn("book search failed, falling back to database", "error", err)
		} else {
			filter.IDs = ids
		}
	}

	books, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	data := make([]dto.BookResponse, 0, len(books))
	for _, book := range books {
		data = append(data, s.toResponse(book))
	}

	return &dto.PaginatedBookResponse{
		Data: data,
		Meta: commonDto.NewPaginationMeta(filter.ListFilter, total),
	}, nil
}

func (s *bookService) GetBook(ctx context.Context, id uuid.UUID) (*dto.BookResponse, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}
	res := s.toResponse(book)
	return &res, nil
}

func (s *bookService) UpdateBook(ctx context.Context, id uuid.UUID, req dto.UpdateBookRequest, cover *commonDto.ImageFile) (*dto.BookResponse, error) {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := apperror.NewValidationError()
	if req.Title != nil {
		book.Title = textclean.Plain(*req.Title)
	}
	if req.Author != nil {
		book.Author = textclean.Plain(*req.Author)
	}
	if req.ISBN != nil {
		if isbn := strings.TrimSpace(*req.ISBN); isbn != "" {
			book.ISBN = &isbn
		} else {
			book.ISBN = nil
		}
	}
	if req.Price != nil {
		book.Price = parsePrice(*req.Price, verr)
	}
	if req.Quantity != nil {
		book.Quantity = *req.Quantity
	}
	if req.CoverType != nil {
		book.CoverType = entity.CoverType(*req.CoverType)
	}
	if req.PublishDate != nil {
		book.PublishDate = parseDate(*req.PublishDate, verr)
	}
	if req.Description != nil {
		book.Description = textclean.Multiline(*req.Description)
		if book.Description == "" {
			book.Description = entity.DefaultBookDescription
		}
	}

	if err := s.checkISBN(ctx, book, verr); err != nil {
		return nil, err
	}
	if verr.HasErrors() {
		return nil, verr
	}

	previousCover := book.CoverRef()
	if cover != nil {
		ref, err := s.uploadCover(ctx, cover)
		if err != nil {
			return nil, err
		}
		book.CoverImage = &ref
	}

	if err := s.repo.Update(ctx, book); err != nil {
		if cover != nil {
			s.assets.Release(ctx, book.CoverRef())
		}
		return nil, mapPersistError(err)
	}

	s.assets.Replace(ctx, previousCover, book.CoverRef())

	s.index(book)
	res := s.toResponse(book)
	return &res, nil
}

func (s *bookService) DeleteBook(ctx context.Context, id uuid.UUID) error {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapPersistError(err)
	}

	s.assets.Release(ctx, book.CoverRef())
	if err := s.search.DeleteBook(id.String()); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", id, "error", err)
	}
	return nil
}

func (s *bookService) findBook(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapPersistError(err)
	}
	return book, nil
}

func (s *bookService) checkISBN(ctx context.Context, book *entity.Book, verr *apperror.ValidationError) error {
	if book.ISBN == nil {
		return nil
	}
	existing, err := s.repo.FindByISBN(ctx, *book.ISBN)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != book.ID {
		verr.Add("isbn", "A book with this ISBN already exists")
	}
	return nil
}

func (s *bookService) uploadCover(ctx context.Context, cover *commonDto.ImageFile) (string, error) {
	folder := storage.DatedFolder(coverFolder, s.now())
	ref, err := s.imageStorage.UploadImage(ctx, cover.Reader, folder, cover.FileName)
	if err != nil {
		return "", apperror.New(http.StatusInternalServerError, "failed to store cover image", err)
	}
	return ref, nil
}

func (s *bookService) index(book *entity.Book) {
	if err := s.search.IndexBook(book); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}
}

func (s *bookService) toResponse(book *entity.Book) dto.BookResponse {
	url := ""
	if ref := book.CoverRef(); ref != "" {
		url = s.assets.URL(ref)
	}
	return dto.NewBookResponse(book, url)
}

func parsePrice(raw string, verr *apperror.ValidationError) decimal.Decimal {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		verr.Add("price", "Price must be a number")
		return decimal.Zero
	}
	if problem := entity.PriceProblem(price); problem != "" {
		verr.Add("price", problem)
	}
	return price
}

func parseDate(raw string, verr *apperror.ValidationError) time.Time {
	date, err := time.Parse(validator.DateLayout, raw)
	if err != nil {
		verr.Add("publish_date", "Publish date must be a date in YYYY-MM-DD format")
	}
	return date
}

func mapPersistError(err error) error {
	var verr *apperror.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.New(http.StatusNotFound, "book not found", apperror.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.New(http.StatusConflict, "a book with this ISBN already exists", apperror.ErrConflict)
	}
	return err
}
