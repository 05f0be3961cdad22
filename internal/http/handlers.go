package http

import (
	"net/http"
	"strings"

	"ajo/internal/core"
	"ajo/internal/services"
)

type groupRequest struct {
	Name               string                 `json:"name"`
	ContributionAmount amountField            `json:"contributionAmount"`
	Frequency          string                 `json:"frequency"`
	StartDate          string                 `json:"startDate"`
	TotalCycles        int                    `json:"totalCycles"`
	Members            []services.MemberInput `json:"members"`
}

type groupUpdateRequest struct {
	Name               *string     `json:"name"`
	ContributionAmount amountField `json:"contributionAmount"`
	Frequency          *string     `json:"frequency"`
	StartDate          *string     `json:"startDate"`
	TotalCycles        *int        `json:"totalCycles"`
}

type reorderRequest struct {
	Order int `json:"order"`
}

type paymentRequest struct {
	Cycle    int         `json:"cycle"`
	MemberID string      `json:"memberId"`
	PaidDate dateField   `json:"paidDate"` // absent keeps, null or "" un-pays
	Amount   amountField `json:"amount"`
}

type paymentUpdateRequest struct {
	PaidDate dateField   `json:"paidDate"` // absent keeps, null or "" un-pays
	Amount   amountField `json:"amount"`
}

type reminderRequest struct {
	Cycle     int      `json:"cycle"`
	MemberIDs []string `json:"memberIds"`
	Statuses  []string `json:"statuses"`
	Channel   string   `json:"channel"`
	Message   string   `json:"message"`
	Template  string   `json:"template"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := core.NewValidationError()
	in := services.GroupInput{
		Name:        sanitizeInput(req.Name),
		TotalCycles: req.TotalCycles,
	}
	if req.ContributionAmount.set {
		m, err := req.ContributionAmount.money()
		if err != nil {
			verr.Add("contributionAmount", "Valid contribution amount is required")
		}
		in.ContributionAmount = m
	} else {
		verr.Add("contributionAmount", "Valid contribution amount is required")
	}
	if f, err := core.ParseFrequency(req.Frequency); err != nil {
		verr.Add("frequency", "Frequency is required")
	} else {
		in.Frequency = f
	}
	if d := parseDateField(verr, "startDate", req.StartDate); d != nil {
		in.StartDate = *d
	} else {
		verr.Add("startDate", "Valid start date is required")
	}
	for _, m := range req.Members {
		in.Members = append(in.Members, services.MemberInput{
			Name:    sanitizeInput(m.Name),
			Contact: sanitizeInput(m.Contact),
		})
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.groups.CreateGroup(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupView(g))
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.groups.ListGroups(r.Context(), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]summaryView, 0, len(list))
	for _, g := range list {
		out = append(out, toSummaryView(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := s.groups.GetGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(g))
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := core.NewValidationError()
	upd := services.GroupUpdate{TotalCycles: req.TotalCycles}
	if req.Name != nil {
		name := sanitizeInput(*req.Name)
		upd.Name = &name
	}
	if req.ContributionAmount.set {
		m, err := req.ContributionAmount.money()
		if err != nil {
			verr.Add("contributionAmount", "Valid contribution amount is required")
		}
		upd.ContributionAmount = &m
	}
	if req.Frequency != nil {
		f, err := core.ParseFrequency(*req.Frequency)
		if err != nil {
			verr.Add("frequency", "Frequency is required")
		}
		upd.Frequency = &f
	}
	if req.StartDate != nil {
		upd.StartDate = parseDateField(verr, "startDate", *req.StartDate)
		if upd.StartDate == nil {
			verr.Add("startDate", "Valid start date is required")
		}
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	g, err := s.groups.UpdateGroup(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(g))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.DeleteGroup(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req services.MemberInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.Name = sanitizeInput(req.Name)
	req.Contact = sanitizeInput(req.Contact)

	m, err := s.groups.AddMember(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberView(m))
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.groups.RemoveMember(r.Context(), r.PathValue("id"), r.PathValue("memberId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderMember(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.groups.ReorderMember(r.Context(), r.PathValue("id"), r.PathValue("memberId"), req.Order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupView(g))
}

func (s *Server) handleMemberSummary(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.reports.MemberSummary(r.Context(), r.PathValue("id"), r.PathValue("memberId"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberSummaryView(sum))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := s.reports.Schedule(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleView(view))
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := core.NewValidationError()
	in := services.PaymentInput{
		Cycle:    req.Cycle,
		MemberID: strings.TrimSpace(req.MemberID),
		PaidDate: parseDateField(verr, "paidDate", req.PaidDate.raw),
	}
	if req.Amount.set {
		m, err := req.Amount.money()
		if err != nil {
			verr.Add("amount", "Amount must be positive")
		}
		in.Amount = &m
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.groups.RecordPayment(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordView(rec))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	verr := core.NewValidationError()
	upd := services.PaymentUpdate{
		PaidDate:    parseDateField(verr, "paidDate", req.PaidDate.raw),
		PaidDateSet: req.PaidDate.set,
	}
	if req.Amount.set {
		m, err := req.Amount.money()
		if err != nil {
			verr.Add("amount", "Amount must be positive")
		}
		upd.Amount = &m
	}
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := s.groups.UpdatePayment(r.Context(), r.PathValue("id"), r.PathValue("recordId"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordView(rec))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cycle, err := queryInt(r, "cycle")
	if err != nil {
		writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := services.PaymentFilter{
		Search: sanitizeInput(q.Get("search")),
		Status: core.Status(strings.ToLower(strings.TrimSpace(q.Get("status")))),
		Cycle:  cycle,
	}
	h, err := s.reports.Payments(r.Context(), r.PathValue("id"), f, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryView(h))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.reports.Progress(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgressView(p))
}

func (s *Server) handleCycleReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cycle, err := pathInt(r, "cycle")
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.CycleReport(r.Context(), r.PathValue("id"), cycle, asOf)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycleReportView(rep))
}

func (s *Server) handleGroupReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rep, err := s.reports.GroupReport(r.Context(), r.PathValue("id"), asOf, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupReportView(rep))
}

func (s *Server) handleSendReminders(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in := services.ReminderRequest{
		Cycle:     req.Cycle,
		MemberIDs: req.MemberIDs,
		Channel:   services.Channel(strings.ToLower(strings.TrimSpace(req.Channel))),
		Message:   sanitizeInput(req.Message),
		Template:  services.ReminderTemplate(strings.ToLower(strings.TrimSpace(req.Template))),
	}
	for _, st := range req.Statuses {
		in.Statuses = append(in.Statuses, core.Status(strings.ToLower(strings.TrimSpace(st))))
	}

	res, err := s.groups.SendReminders(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	asOf, err := s.asOf(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := period(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ref, err := s.reports.Export(r.Context(), r.PathValue("id"), asOf, p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"ref": ref})
}
