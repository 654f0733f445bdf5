package devserver

import (
	"net/http"
	"time"

	"github.com/doroshop/dsadmin/internal/database/repository"
)

const timeLayout = time.RFC3339

// populated returns a copy of doc with the configured reference fields
// replaced by the referenced documents. Missing references stay bare ids.
func (s *Server) populated(r *http.Request, c collection, doc repository.Document) repository.Document {
	if len(c.populate) == 0 {
		return doc
	}
	out := make(repository.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for field, source := range c.populate {
		id, ok := doc[field].(string)
		if !ok || id == "" {
			continue
		}
		ref, err := s.repo.Get(r.Context(), source, id)
		if err != nil {
			continue
		}
		out[field] = ref
	}
	return out
}
