package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/doroshop/dsadmin/internal/database/repository"
)

const (
	colCategories     = "categories"
	colMunicipalities = "municipalities"
	colRefunds        = "refunds"
	colPlans          = "plans"
	colSubscriptions  = "subscriptions"
	colUsers          = "users"
	colSellers        = "sellers"
)

const maxUpload = 8 << 20

type collection struct {
	name         string
	label        string
	creatable    bool
	statusFilter bool
	required     []string
	unique       string
	numbers      []string
	populate     map[string]string
	// bareList answers GET without the {success,data} envelope.
	bareList bool
}

var collections = []collection{
	{name: colCategories, label: "Category", creatable: true, required: []string{"name"}, bareList: true},
	{name: colMunicipalities, label: "Municipality", creatable: true, required: []string{"name"}, unique: "name"},
	{name: colRefunds, label: "Refund", statusFilter: true, numbers: []string{"amount"},
		populate: map[string]string{"customer": colUsers, "seller": colSellers}},
	{name: colPlans, label: "Plan", creatable: true, required: []string{"code", "name"}, unique: "code",
		numbers: []string{"price", "discountPercent"}},
	{name: colSubscriptions, label: "Subscription", statusFilter: true,
		populate: map[string]string{"seller": colSellers, "plan": colPlans}},
}

func collectionNamed(name string) collection {
	for _, c := range collections {
		if c.name == name {
			return c
		}
	}
	return collection{name: name, label: name}
}

type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var he *httpError
	switch {
	case errors.As(err, &he):
		writeError(w, he.status, he.message)
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) notFound(c collection) error {
	return &httpError{status: http.StatusNotFound, message: c.label + " not found"}
}

func (s *Server) list(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docs, err := s.repo.List(r.Context(), c.name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		status := strings.TrimSpace(r.URL.Query().Get("status"))
		out := make([]repository.Document, 0, len(docs))
		for _, d := range docs {
			if c.statusFilter && status != "" && status != "all" && d["status"] != status {
				continue
			}
			out = append(out, s.populated(r, c, d))
		}
		if c.bareList {
			writeJSON(w, http.StatusOK, out)
			return
		}
		writeData(w, http.StatusOK, out, "")
	}
}

func (s *Server) create(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, upload, err := readBody(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		delete(doc, "_id")
		if err := s.validate(r, c, "", doc); err != nil {
			s.fail(w, r, err)
			return
		}
		id := primitive.NewObjectID().Hex()
		doc["_id"] = id
		doc["createdAt"] = s.opts.Now().UTC().Format(timeLayout)
		if _, ok := doc["isActive"]; !ok {
			doc["isActive"] = true
		}
		if upload != "" {
			doc["image"] = "/uploads/" + id + "/" + upload
		}
		if err := s.repo.Insert(r.Context(), c.name, id, doc); err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, http.StatusCreated, s.populated(r, c, doc), c.label+" created")
	}
}

func (s *Server) update(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		doc, err := s.repo.Get(r.Context(), c.name, id)
		if errors.Is(err, repository.ErrNotFound) {
			s.fail(w, r, s.notFound(c))
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		patch, _, err := readBody(r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		delete(patch, "_id")
		if c.name == colSubscriptions {
			if err := s.resolvePlan(r, patch); err != nil {
				s.fail(w, r, err)
				return
			}
		}
		if err := s.validate(r, c, id, patch); err != nil {
			s.fail(w, r, err)
			return
		}
		for k, v := range patch {
			doc[k] = v
		}
		doc["updatedAt"] = s.opts.Now().UTC().Format(timeLayout)
		if err := s.repo.Replace(r.Context(), c.name, id, doc); err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, s.populated(r, c, doc), c.label+" updated")
	}
}

func (s *Server) remove(c collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := s.repo.Delete(r.Context(), c.name, chi.URLParam(r, "id"))
		if errors.Is(err, repository.ErrNotFound) {
			s.fail(w, r, s.notFound(c))
			return
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, nil, c.label+" deleted")
	}
}

// validate checks a create body (id empty) or an update patch.
func (s *Server) validate(r *http.Request, c collection, id string, doc repository.Document) error {
	for _, f := range c.required {
		v, present := doc[f]
		if !present && id != "" {
			continue
		}
		if str, _ := v.(string); strings.TrimSpace(str) == "" {
			return badRequest("%s is required", f)
		}
	}
	for _, f := range c.numbers {
		v, present := doc[f]
		if !present || v == nil {
			continue
		}
		n, ok := v.(float64)
		if !ok {
			return badRequest("%s must be a number", f)
		}
		if n < 0 {
			return badRequest("%s must not be negative", f)
		}
	}
	if c.unique != "" {
		if v, ok := doc[c.unique].(string); ok {
			if err := s.checkUnique(r, c, id, v); err != nil {
				return err
			}
		}
	}
	if c.name == colCategories {
		if err := s.checkParent(r, id, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) checkUnique(r *http.Request, c collection, id, value string) error {
	docs, err := s.repo.List(r.Context(), c.name)
	if err != nil {
		return err
	}
	for _, d := range docs {
		other, _ := d[c.unique].(string)
		if d["_id"] != id && strings.EqualFold(strings.TrimSpace(other), strings.TrimSpace(value)) {
			return &httpError{status: http.StatusConflict, message: fmt.Sprintf("%s with %s %q already exists", c.label, c.unique, value)}
		}
	}
	return nil
}

func (s *Server) checkParent(r *http.Request, id string, doc repository.Document) error {
	raw, present := doc["parentCategory"]
	if !present {
		return nil
	}
	parent, _ := raw.(string)
	parent = strings.TrimSpace(parent)
	if parent == "" {
		doc["parentCategory"] = nil
		return nil
	}
	if parent == id {
		return badRequest("A category cannot be its own parent")
	}
	if _, err := s.repo.Get(r.Context(), colCategories, parent); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return badRequest("Parent category not found")
		}
		return err
	}
	if id != "" {
		under, err := s.underCategory(r, parent, id)
		if err != nil {
			return err
		}
		if under {
			return badRequest("A category cannot be moved under its own subcategory")
		}
	}
	doc["parentCategory"] = parent
	return nil
}

// underCategory walks up from start and reports whether it reaches id.
func (s *Server) underCategory(r *http.Request, start, id string) (bool, error) {
	seen := map[string]bool{}
	for cur := start; cur != "" && !seen[cur]; {
		if cur == id {
			return true, nil
		}
		seen[cur] = true
		doc, err := s.repo.Get(r.Context(), colCategories, cur)
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		cur, _ = doc["parentCategory"].(string)
	}
	return false, nil
}

// resolvePlan turns a planId or planCode patch into the stored plan
// reference.
func (s *Server) resolvePlan(r *http.Request, patch repository.Document) error {
	planID, _ := patch["planId"].(string)
	planCode, _ := patch["planCode"].(string)
	delete(patch, "planId")
	delete(patch, "planCode")
	switch {
	case planID != "" && planCode != "":
		return badRequest("Send either planId or planCode, not both")
	case planID != "":
		if _, err := s.repo.Get(r.Context(), colPlans, planID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return badRequest("Plan not found")
			}
			return err
		}
		patch["plan"] = planID
	case planCode != "":
		plans, err := s.repo.List(r.Context(), colPlans)
		if err != nil {
			return err
		}
		for _, p := range plans {
			if code, _ := p["code"].(string); strings.EqualFold(code, planCode) {
				patch["plan"] = p["_id"]
				return nil
			}
		}
		return badRequest("Plan with code %q not found", planCode)
	}
	return nil
}

// readBody decodes a JSON object or a multipart form. For multipart it
// returns the uploaded image's file name; the bytes are discarded.
func readBody(r *http.Request) (repository.Document, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, "", badRequest("Invalid form: %v", err)
		}
		doc := repository.Document{}
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				doc[k] = formValue(vs[0])
			}
		}
		var upload string
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			upload = path.Base(files[0].Filename)
		}
		return doc, upload, nil
	}
	doc := repository.Document{}
	if r.Body == nil {
		return doc, "", nil
	}
	err := json.NewDecoder(r.Body).Decode(&doc)
	if errors.Is(err, io.EOF) {
		return repository.Document{}, "", nil
	}
	if err != nil {
		return nil, "", badRequest("Invalid JSON body")
	}
	return doc, "", nil
}

func formValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(v, "[") || strings.HasPrefix(v, "{") {
		var out any
		if json.Unmarshal([]byte(v), &out) == nil {
			return out
		}
	}
	return v
}
