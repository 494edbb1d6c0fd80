package catalog

import (
	"context"
	"fmt"
	"strings"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/observability"
	"sukesh_education/internal/user"
	"sukesh_education/internal/utils"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const (
	MsgNoSubjects = "No subjects selected"

	// maxSelectionLength is the width of users.hsc_subjects.
	maxSelectionLength = 500
)

// Listing is what /my-subjects shows for one student.
type Listing struct {
	Subjects            []Subject `json:"subjects"`
	Selected            []string  `json:"selected_subjects"`
	ShowSubjectSelector bool      `json:"show_subject_selector"`
}

type CatalogServiceInterface interface {
	ListSubjects(ctx context.Context, userID int) (*Listing, error)
	SaveSubjectSelection(ctx context.Context, userID int, subjects []string) ([]string, error)
}

type CatalogService struct {
	catalog *Catalog
	repo    user.UserRepositoryInterface
	db      *sqlx.DB
	tx      utils.Transactor
	metrics *observability.Metrics
}

func NewCatalogService(
	catalog *Catalog,
	repo user.UserRepositoryInterface,
	db *sqlx.DB,
	tx utils.Transactor,
	metrics *observability.Metrics,
) CatalogServiceInterface {
	return &CatalogService{
		catalog: catalog,
		repo:    repo,
		db:      db,
		tx:      tx,
		metrics: metrics,
	}
}

// ListSubjects returns the full catalog; the selector is shown until the
// student has saved a non-empty selection.
func (s *CatalogService) ListSubjects(ctx context.Context, userID int) (*Listing, error) {
	u, err := s.repo.GetByID(ctx, s.db, userID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("load user %d: %w", userID, err))
	}

	selected := u.SubjectList()
	return &Listing{
		Subjects:            s.catalog.Subjects(),
		Selected:            selected,
		ShowSubjectSelector: len(selected) == 0,
	}, nil
}

// SaveSubjectSelection replaces the stored selection. Names are not checked
// against the catalog.
func (s *CatalogService) SaveSubjectSelection(ctx context.Context, userID int, subjects []string) ([]string, error) {
	selection := normalizeSelection(subjects)
	if len(selection) == 0 {
		return nil, apperror.NewBadRequest(MsgNoSubjects)
	}

	joined := strings.Join(selection, ",")
	if len(joined) > maxSelectionLength {
		return nil, apperror.NewValidationError(apperror.FieldError{
			Field:   "subjects",
			Message: fmt.Sprintf("Too many subjects selected. The combined length cannot exceed %d characters.", maxSelectionLength),
		})
	}

	if err := s.tx.WithinTransaction(ctx, func(tx *sqlx.Tx) error {
		return s.repo.UpdateSubjects(ctx, tx, userID, &joined)
	}); err != nil {
		return nil, apperror.NewPersistenceError(err)
	}

	s.metrics.SubjectSelections.Inc()
	logrus.WithFields(logrus.Fields{
		"user_id":  userID,
		"subjects": joined,
	}).Info("Saved subject selection")
	return selection, nil
}

// normalizeSelection trims names, drops blanks and duplicates and keeps the
// first-seen order. Commas would corrupt the stored list so they are removed.
func normalizeSelection(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, name := range subjects {
		name = strings.TrimSpace(strings.ReplaceAll(name, ",", " "))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
