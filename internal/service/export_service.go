package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"merlin/internal/models"
)

// RowSink receives one report row at a time. Callers typically plug an
// encoding/csv writer in.
type RowSink func(row []string) error

// ExportService renders engine and aggregation outcomes as row streams
type ExportService struct {
	assignments *AssignmentService
	results     *ResultsService
}

// NewExportService creates a new export service
func NewExportService(assignments *AssignmentService, results *ResultsService) *ExportService {
	return &ExportService{
		assignments: assignments,
		results:     results,
	}
}

// formatAverage renders a nullable average with two decimals; an
// undefined average renders empty
func formatAverage(avg *float64) string {
	if avg == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *avg)
}

// ExportSkipped streams the skipped-users report of one or more forms
// into a single row stream: one header, then one row per user the
// engine would not assign, with the verbatim skip reason. The form
// name column keeps rows of different forms apart.
func (s *ExportService) ExportSkipped(ctx context.Context, formIDs []uuid.UUID, sink RowSink) error {
	if err := sink([]string{"Form Name", "User Email", "User Name", "Reason"}); err != nil {
		return err
	}

	for _, formID := range formIDs {
		result, err := s.assignments.Preview(formID)
		if err != nil {
			return err
		}

		for i := range result.Skipped {
			if err := ctx.Err(); err != nil {
				return err
			}
			skipped := &result.Skipped[i]
			row := []string{result.Form.Name, skipped.User.Email, skipped.User.Name, string(skipped.Reason)}
			if err := sink(row); err != nil {
				return err
			}
		}
	}

	return nil
}

// ExportResults streams the aggregated results of one or more forms
// into a single row stream: one header, then per assessed user,
// category rows in sorted category order followed by question rows in
// question order.
func (s *ExportService) ExportResults(ctx context.Context, formIDs []uuid.UUID, sink RowSink) error {
	if err := sink([]string{"Form Name", "Assessed User", "Type", "Item", "Average"}); err != nil {
		return err
	}

	for _, formID := range formIDs {
		if err := s.exportFormResults(ctx, formID, sink); err != nil {
			return err
		}
	}

	return nil
}

func (s *ExportService) exportFormResults(ctx context.Context, formID uuid.UUID, sink RowSink) error {
	results, err := s.results.Aggregate(ctx, formID)
	if err != nil {
		return err
	}

	for i := range results.Assessed {
		assessed := &results.Assessed[i]

		categories := make([]string, 0, len(assessed.Categories))
		for category := range assessed.Categories {
			categories = append(categories, category)
		}
		sort.Strings(categories)

		for _, category := range categories {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := []string{results.Form.Name, assessed.User.Name, "Category", category, formatAverage(assessed.Categories[category])}
			if err := sink(row); err != nil {
				return err
			}
		}

		for j := range assessed.Questions {
			if err := ctx.Err(); err != nil {
				return err
			}
			question := &assessed.Questions[j]
			row := []string{results.Form.Name, assessed.User.Name, "Question", question.Text, formatAverage(question.Average)}
			if err := sink(row); err != nil {
				return err
			}
		}
	}

	return nil
}
