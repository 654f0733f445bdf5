package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/doroshop/dsadmin/internal/api"
	"github.com/doroshop/dsadmin/internal/domain"
	"github.com/doroshop/dsadmin/internal/modal"
	"github.com/doroshop/dsadmin/internal/notify"
	"github.com/doroshop/dsadmin/internal/store"
	"github.com/doroshop/dsadmin/internal/views"
)

// Categories manages the product category tree.
type Categories struct {
	*screen[domain.Category, domain.CategoryDraft]
}

func NewCategories(backend store.Backend[domain.Category], n notify.Notifier, log zerolog.Logger) *Categories {
	s := &Categories{screen: &screen[domain.Category, domain.CategoryDraft]{
		name:  "categories",
		store: store.New("categories", backend, log),
	}}
	s.modal = modal.New("categories", modal.Handlers[domain.Category, domain.CategoryDraft]{
		NewDraft:  domain.NewCategoryDraft,
		DraftFrom: domain.DraftFromCategory,
		Validate:  s.validate,
		Warn:      s.warn,
		Success: func(sess modal.Session[domain.Category, domain.CategoryDraft]) string {
			switch sess.Mode {
			case modal.Create:
				return "Category created"
			case modal.Edit:
				return "Category updated"
			case modal.DeleteConfirm:
				return "Category deleted"
			}
			return ""
		},
		Create: s.create,
		Update: func(ctx context.Context, c domain.Category, d domain.CategoryDraft) error {
			_, err := s.store.Update(ctx, c.ID, d.Payload())
			return err
		},
		Delete: func(ctx context.Context, c domain.Category) error {
			return s.store.Delete(ctx, c.ID)
		},
		Refresh: s.refresh,
	}, n, log)
	return s
}

func (s *Categories) validate(sess modal.Session[domain.Category, domain.CategoryDraft]) error {
	if sess.Mode != modal.Create && sess.Mode != modal.Edit {
		return nil
	}
	if err := sess.Draft.Validate(); err != nil {
		return err
	}
	parent := strings.TrimSpace(sess.Draft.ParentID)
	if sess.Mode == modal.Edit && parent != "" && parent == sess.Target.ID {
		return &domain.ValidationError{Field: "parentCategory", Message: "A category cannot be its own parent"}
	}
	if sess.Mode == modal.Edit && parent != "" && views.IsDescendant(s.store.Items(), sess.Target.ID, parent) {
		return &domain.ValidationError{Field: "parentCategory", Message: "A category cannot be moved under its own subcategory"}
	}
	if path := strings.TrimSpace(sess.Draft.ImagePath); path != "" && sess.Mode == modal.Create {
		if _, err := os.Stat(path); err != nil {
			return &domain.ValidationError{Field: "image", Message: fmt.Sprintf("Image %s cannot be read", filepath.Base(path))}
		}
	}
	return nil
}

func (s *Categories) warn(sess modal.Session[domain.Category, domain.CategoryDraft]) string {
	if sess.Mode != modal.DeleteConfirm {
		return ""
	}
	switch n := views.SubcategoryCount(s.store.Items(), sess.Target.ID); n {
	case 0:
		return ""
	case 1:
		return "1 subcategory will be orphaned"
	default:
		return fmt.Sprintf("%d subcategories will be orphaned", n)
	}
}

func (s *Categories) create(ctx context.Context, d domain.CategoryDraft) error {
	var up *api.Upload
	if path := strings.TrimSpace(d.ImagePath); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()
		up = &api.Upload{Field: "image", Filename: filepath.Base(path), Content: f}
	}
	_, err := s.store.Create(ctx, d.Payload(), up)
	return err
}

// Tree returns the visible categories with their depth. Without a text
// query the list is in parent-child order; with one it is flat.
func (s *Categories) Tree() ([]domain.Category, []int) {
	visible := s.Visible()
	if strings.TrimSpace(s.filter.Query) == "" {
		return views.TreeOrder(visible)
	}
	return visible, make([]int, len(visible))
}

// ParentOptions lists the categories that may become the parent of id.
func (s *Categories) ParentOptions(id string) []domain.Category {
	var out []domain.Category
	for _, c := range views.Roots(s.store.Items()) {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// ParentName resolves a category's parent for display.
func (s *Categories) ParentName(c domain.Category) string {
	id := domain.RefID(c.Parent)
	if id == "" {
		return ""
	}
	if c.Parent.Populated() {
		return c.Parent.Label()
	}
	if p, ok := s.Find(id); ok {
		return p.Name
	}
	return id
}

func (s *Categories) Stats() views.CategoryStats {
	return views.CategoriesSummary(s.store.Items())
}
