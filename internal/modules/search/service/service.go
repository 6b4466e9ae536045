package service

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"anoa.com/studentmanager/internal/entity"
	"anoa.com/studentmanager/pkg/textclean"
	"github.com/meilisearch/meilisearch-go"
)

const (
	studentsIndex = "students"
	booksIndex    = "books"
)

// SearchService keeps the admin search indexes in sync and resolves full-text
// queries to record IDs. The database stays the source of truth.
type SearchService interface {
	IndexStudent(student *entity.Student) error
	DeleteStudent(id string) error
	IndexBook(book *entity.Book) error
	DeleteBook(id string) error
	SearchStudents(query string, limit int) ([]string, error)
	SearchBooks(query string, limit int) ([]string, error)
	Enabled() bool
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
	logger *slog.Logger
}

func NewMeiliSearchService(client meilisearch.ServiceManager, logger *slog.Logger) SearchService {
	s := &meiliSearchService{
		client: client,
		logger: logger,
	}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	studentFilterable := []any{"class_name", "gender"}
	if _, err := s.client.Index(studentsIndex).UpdateFilterableAttributes(&studentFilterable); err != nil {
		s.logger.Warn("failed to update students filterable attributes", "error", err)
	}
	studentSearchable := []string{"full_name", "username", "email", "phone_number", "gender", "class_name", "id"}
	if _, err := s.client.Index(studentsIndex).UpdateSearchableAttributes(&studentSearchable); err != nil {
		s.logger.Warn("failed to update students searchable attributes", "error", err)
	}

	bookFilterable := []any{"cover_type"}
	if _, err := s.client.Index(booksIndex).UpdateFilterableAttributes(&bookFilterable); err != nil {
		s.logger.Warn("failed to update books filterable attributes", "error", err)
	}
	bookSortable := []string{"publish_date", "title"}
	if _, err := s.client.Index(booksIndex).UpdateSortableAttributes(&bookSortable); err != nil {
		s.logger.Warn("failed to update books sortable attributes", "error", err)
	}

	s.logger.Info("meilisearch indexes initialized")
}

type meiliStudentDoc struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Gender      string `json:"gender"`
	ClassName   string `json:"class_name"`
	CreatedAt   int64  `json:"created_at"`
}

type meiliBookDoc struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	ISBN        string `json:"isbn"`
	CoverType   string `json:"cover_type"`
	Price       string `json:"price"`
	Description string `json:"description"`
	PublishDate int64  `json:"publish_date"`
}

func (s *meiliSearchService) IndexStudent(student *entity.Student) error {
	doc := meiliStudentDoc{
		ID:          student.ID.String(),
		FullName:    student.FullName,
		Username:    student.Username,
		Email:       student.Email,
		PhoneNumber: student.PhoneNumber,
		Gender:      string(student.Gender),
		CreatedAt:   student.CreatedAt.Unix(),
	}
	if student.Class != nil {
		doc.ClassName = student.Class.Name
	}

	task, err := s.client.Index(studentsIndex).AddDocuments([]meiliStudentDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	s.logger.Debug("indexed student", "id", doc.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) IndexBook(book *entity.Book) error {
	doc := meiliBookDoc{
		ID:          book.ID.String(),
		Title:       book.Title,
		Author:      book.Author,
		CoverType:   string(book.CoverType),
		Price:       book.Price.StringFixed(2),
		Description: textclean.Plain(book.Description),
		PublishDate: book.PublishDate.Unix(),
	}
	if book.ISBN != nil {
		doc.ISBN = *book.ISBN
	}

	task, err := s.client.Index(booksIndex).AddDocuments([]meiliBookDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	s.logger.Debug("indexed book", "id", doc.ID, "task_uid", task.TaskUID)
	return nil
}

func (s *meiliSearchService) DeleteStudent(id string) error {
	_, err := s.client.Index(studentsIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) DeleteBook(id string) error {
	_, err := s.client.Index(booksIndex).DeleteDocument(id)
	return err
}

func (s *meiliSearchService) SearchStudents(query string, limit int) ([]string, error) {
	return s.searchIDs(studentsIndex, query, limit)
}

func (s *meiliSearchService) SearchBooks(query string, limit int) ([]string, error) {
	return s.searchIDs(booksIndex, query, limit)
}

func (s *meiliSearchService) Enabled() bool { return true }

type idHits struct {
	Hits []struct {
		ID string `json:"id"`
	} `json:"hits"`
}

func (s *meiliSearchService) searchIDs(index, query string, limit int) ([]string, error) {
	raw, err := s.client.Index(index).SearchRaw(query, &meilisearch.SearchRequest{
		Limit:                int64(limit),
		AttributesToRetrieve: []string{"id"},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}

	var result idHits
	if err := json.Unmarshal(*raw, &result); err != nil {
		return nil, fmt.Errorf("decode %s hits: %w", index, err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func strPtr(s string) *string {
	return &s
}

// noopSearchService is used when no meilisearch host is configured; callers
// fall back to SQL search.
type noopSearchService struct{}

func NewNoopSearchService() SearchService { return noopSearchService{} }

func (noopSearchService) IndexStudent(*entity.Student) error { return nil }
func (noopSearchService) DeleteStudent(string) error          { return nil }
func (noopSearchService) IndexBook(*entity.Book) error       { return nil }
func (noopSearchService) DeleteBook(string) error             { return nil }
func (noopSearchService) Enabled() bool                       { return false }

func (noopSearchService) SearchStudents(string, int) ([]string, error) { return nil, nil }
func (noopSearchService) SearchBooks(string, int) ([]string, error)    { return nil, nil }
