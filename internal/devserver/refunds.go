package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doroshop/dsadmin/internal/database/repository"
	"github.com/doroshop/dsadmin/internal/domain"
)

// refund transitions: verb -> required current status, resulting status.
var refundTransitions = map[string]struct{ from, to string }{
	"approve": {domain.RefundPending, domain.RefundApproved},
	"reject":  {domain.RefundPending, domain.RefundRejected},
	"process": {domain.RefundApproved, domain.RefundProcessed},
}

func (s *Server) refundAction(w http.ResponseWriter, r *http.Request) {
	verb := chi.URLParam(r, "verb")
	t, ok := refundTransitions[verb]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown refund action")
		return
	}
	refunds := collectionNamed(colRefunds)
	id := chi.URLParam(r, "id")
	doc, err := s.repo.Get(r.Context(), colRefunds, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.refund(verb, "not_found")
		s.fail(w, r, s.notFound(refunds))
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	body, _, err := readBody(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	note, _ := body["note"].(string)
	note = strings.TrimSpace(note)

	if current, _ := doc["status"].(string); current != t.from {
		s.metrics.refund(verb, "conflict")
		writeError(w, http.StatusBadRequest, "Refund is "+current+"; only "+t.from+" refunds can be "+t.to)
		return
	}
	if verb == "reject" && note == "" {
		s.metrics.refund(verb, "invalid")
		writeError(w, http.StatusBadRequest, "A rejection reason is required")
		return
	}
	if verb == "process" && s.opts.FailProcess {
		s.metrics.refund(verb, "failed")
		s.log.Warn().Str("refund", id).Msg("refund disbursement failed (fail_process)")
		writeError(w, http.StatusBadGateway, "Payout provider unavailable")
		return
	}

	doc["status"] = t.to
	now := s.opts.Now().UTC().Format(timeLayout)
	doc["updatedAt"] = now
	if note != "" {
		doc["adminNote"] = note
	}
	if verb == "process" {
		doc["processedAt"] = now
	}
	if err := s.repo.Replace(r.Context(), colRefunds, id, doc); err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.refund(verb, "ok")
	s.log.Info().Str("refund", id).Str("status", t.to).Msg("refund transition")
	writeData(w, http.StatusOK, s.populated(r, refunds, doc), "Refund "+t.to)
}
