package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrValidation matches every client-side validation failure.
var ErrValidation = errors.New("validation failed")

// ValidationError describes a draft field that failed a pre-dispatch check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func required(field, label, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "%s is required", label)
	}
	return nil
}

// CategoryDraft is the editable form state of a category.
type CategoryDraft struct {
	Name        string
	Description string
	ParentID    string
	IsActive    bool
	ImagePath   string
}

// NewCategoryDraft returns create defaults.
func NewCategoryDraft() CategoryDraft {
	return CategoryDraft{IsActive: true}
}

// DraftFromCategory seeds an edit draft; the parent is reduced to its id.
func DraftFromCategory(c Category) CategoryDraft {
	return CategoryDraft{
		Name:        c.Name,
		Description: c.Description,
		ParentID:    RefID(c.Parent),
		IsActive:    c.IsActive,
	}
}

func (d CategoryDraft) Validate() error {
	return required("name", "Category name", d.Name)
}

// Payload builds the request body. An empty parent is sent as null so an
// edit can move a subcategory back to the root.
func (d CategoryDraft) Payload() map[string]any {
	body := map[string]any{
		"name":           strings.TrimSpace(d.Name),
		"description":    strings.TrimSpace(d.Description),
		"isActive":       d.IsActive,
		"parentCategory": nil,
	}
	if id := strings.TrimSpace(d.ParentID); id != "" {
		body["parentCategory"] = id
	}
	return body
}

// MunicipalityDraft is the editable form state of a municipality.
type MunicipalityDraft struct {
	Name     string
	Province string
	ZipCode  string
	IsActive bool
}

func NewMunicipalityDraft() MunicipalityDraft {
	return MunicipalityDraft{IsActive: true}
}

func DraftFromMunicipality(m Municipality) MunicipalityDraft {
	return MunicipalityDraft{Name: m.Name, Province: m.Province, ZipCode: m.ZipCode, IsActive: m.IsActive}
}

func (d MunicipalityDraft) Validate() error {
	return required("name", "Municipality name", d.Name)
}

func (d MunicipalityDraft) Payload() map[string]any {
	return map[string]any{
		"name":     strings.TrimSpace(d.Name),
		"province": strings.TrimSpace(d.Province),
		"zipCode":  strings.TrimSpace(d.ZipCode),
		"isActive": d.IsActive,
	}
}

// PlanDraft holds plan form state. Numbers stay textual until validation.
type PlanDraft struct {
	Code         string
	Name         string
	Description  string
	Price        string
	BillingCycle string
	Discount     string
	Features     string
	IsActive     bool
}

func NewPlanDraft() PlanDraft {
	return PlanDraft{Price: "0", Discount: "0", BillingCycle: "monthly", IsActive: true}
}

func DraftFromPlan(p Plan) PlanDraft {
	return PlanDraft{
		Code:         p.Code,
		Name:         p.Name,
		Description:  p.Description,
		Price:        formatNumber(p.Price),
		BillingCycle: p.BillingCycle,
		Discount:     formatNumber(p.DiscountPercent),
		Features:     strings.Join(p.Features, ", "),
		IsActive:     p.IsActive,
	}
}

func (d PlanDraft) Validate() error {
	if err := required("name", "Plan name", d.Name); err != nil {
		return err
	}
	if err := required("code", "Plan code", d.Code); err != nil {
		return err
	}
	if _, err := nonNegative("price", "Price", d.Price); err != nil {
		return err
	}
	if _, err := nonNegative("discountPercent", "Discount percent", d.Discount); err != nil {
		return err
	}
	return nil
}

// Payload assumes Validate passed.
func (d PlanDraft) Payload() map[string]any {
	price, _ := nonNegative("price", "Price", d.Price)
	discount, _ := nonNegative("discountPercent", "Discount percent", d.Discount)
	return map[string]any{
		"code":            strings.TrimSpace(d.Code),
		"name":            strings.TrimSpace(d.Name),
		"description":     strings.TrimSpace(d.Description),
		"price":           price,
		"billingCycle":    strings.TrimSpace(d.BillingCycle),
		"discountPercent": discount,
		"features":        SplitList(d.Features),
		"isActive":        d.IsActive,
	}
}

// RefundDecision carries the admin note for approve/reject/process actions.
type RefundDecision struct {
	Note string
}

// Validate requires a note only for rejections.
func (d RefundDecision) Validate(action string) error {
	if action == "reject" {
		return required("note", "A rejection reason", d.Note)
	}
	return nil
}

// PlanAssignment holds the raw plan input typed by the admin: an id or a code.
type PlanAssignment struct {
	Input string
}

func (d PlanAssignment) Validate() error {
	return required("plan", "Plan id or code", d.Input)
}

// SplitList splits a comma separated field, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonNegative(field, label, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, invalid(field, "%s must be a number", label)
	}
	if v < 0 {
		return 0, invalid(field, "%s cannot be negative", label)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
