package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Students"

var exportHeader = []any{"ID", "Full name", "Username", "Class", "Email", "Phone number", "Gender", "Date of birth"}

// ExportStudents renders every student, in list order, as an xlsx workbook.
func (s *studentService) ExportStudents(ctx context.Context) ([]byte, error) {
	students, err := s.repo.FindAllOrdered(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close export workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, student := range students {
		res := s.toResponse(student)
		dob := ""
		if res.DateOfBirth != nil {
			dob = *res.DateOfBirth
		}
		row := []any{res.ID, res.FullName, res.Username, res.ClassName, res.Email, res.PhoneNumber, res.Gender, dob}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
