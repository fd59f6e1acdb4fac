package controllers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rendezvous/internal/delivery/http/helpers"
	"rendezvous/internal/delivery/http/middleware"
	"rendezvous/internal/domain"
	"rendezvous/internal/ics"
)

// SaveRendezVousRequest is the request body for POST /rendez-vous and
// PATCH /rendez-vous/{rdvID}. Days are decimal UNIX timestamp strings and are
// honored on create only.
type SaveRendezVousRequest struct {
	Title       string   `json:"title"`
	Venue       string   `json:"venue"`
	Description string   `json:"description"`
	Duration    string   `json:"duration"`
	Type        string   `json:"type"`
	Privacy     string   `json:"privacy"`
	Status      string   `json:"status"`
	Report      string   `json:"report"`
	GroupID     string   `json:"group_id"`
	Days        []string `json:"days"`
	Attendees   []string `json:"attendees"`
}

// Validate implements Validator.
func (s SaveRendezVousRequest) Validate() []string {
	var errs []string
	if s.Title == "" {
		errs = append(errs, "title is required")
	}
	if s.Status != "" && s.Status != domain.StatusPublish && s.Status != domain.StatusPrivate && s.Status != domain.StatusDraft {
		errs = append(errs, "status must be draft, publish, or private")
	}
	for _, day := range s.Days {
		if _, ok := domain.DayKeyTime(day); !ok {
			errs = append(errs, fmt.Sprintf("day %q is not a valid timestamp", day))
			break
		}
	}
	return errs
}

// SaveRendezVousSuccessResponse is the success response envelope for POST /rendez-vous (201).
type SaveRendezVousSuccessResponse struct {
	Data  *domain.RendezVous `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// ListRendezVousResponse is the data payload for GET /rendez-vous (200).
type ListRendezVousResponse struct {
	Items      []*domain.RendezVous   `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListRendezVousSuccessResponse is the success response envelope for GET /rendez-vous (200).
type ListRendezVousSuccessResponse struct {
	Data  ListRendezVousResponse `json:"data"`
	Error *helpers.APIError      `json:"error"`
}

type RendezVousController struct {
	Logger     *slog.Logger
	Service    domain.RendezVousService
	Types      domain.TypeRepository
	Caps       domain.CapabilityMapper
	Links      domain.LinkResolver
	GroupLinks domain.LinkResolver
}

func NewRendezVousController(
	logger *slog.Logger,
	svc domain.RendezVousService,
	types domain.TypeRepository,
	caps domain.CapabilityMapper,
	links, groupLinks domain.LinkResolver,
) *RendezVousController {
	return &RendezVousController{
		Logger:     logger,
		Service:    svc,
		Types:      types,
		Caps:       caps,
		Links:      links,
		GroupLinks: groupLinks,
	}
}

func (c *RendezVousController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "rendez-vous not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrValidation):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoCandidateDates):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrStateConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}

// canView reports whether the caller may read the rendez-vous. Published
// records are public; drafts and private records are for participants and
// moderators only.
func (c *RendezVousController) canView(r *http.Request, rv *domain.RendezVous, userID string) bool {
	if rv.Status == domain.StatusPublish {
		return true
	}
	if userID == "" {
		return false
	}
	if rv.IsOrganizer(userID) || rv.HasAttendee(userID) {
		return true
	}
	return c.Caps.Can(r.Context(), userID, domain.CapModerate)
}

// Create godoc
// @Summary Create a rendez-vous
// @Description Creates a rendez-vous as a draft owned by the authenticated user. Candidate days seed the availability ledger and cannot be changed later. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SaveRendezVousRequest true "Rendez-vous data"
// @Success 201 {object} controllers.SaveRendezVousSuccessResponse "data contains the created rendez-vous"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous [post]
func (c *RendezVousController) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveRendezVousRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	id, err := c.Service.Save(r.Context(), &domain.SaveParams{
		OrganizerID: userID,
		Title:       req.Title,
		Venue:       req.Venue,
		Description: req.Description,
		Duration:    req.Duration,
		Type:        req.Type,
		Privacy:     req.Privacy,
		Status:      req.Status,
		GroupID:     req.GroupID,
		Days:        req.Days,
		Attendees:   req.Attendees,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	rv, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rv)
}

// GetByID godoc
// @Summary Get a rendez-vous
// @Description Returns the rendez-vous with its attendee list and availability ledger. Published records are public; drafts and private records require being a participant or moderator.
// @Tags rendez-vous
// @Produce json
// @Param rdvID path string true "Rendez-vous ID"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the rendez-vous"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID} [get]
func (c *RendezVousController) GetByID(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	rv, err := c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	if !c.canView(r, rv, userID) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// List godoc
// @Summary List rendez-vous
// @Description Lists rendez-vous with filters (organizer, attendee, group, type, search, exclude) and pagination. Anonymous callers see published records only; authenticated callers also see private ones. Drafts are included only with include_drafts=1 when filtering by your own organizer ID or as a moderator.
// @Tags rendez-vous
// @Produce json
// @Param organizer query string false "Filter by organizer ID"
// @Param attendee query string false "Filter by attendee IDs (comma separated)"
// @Param group query string false "Filter by group ID"
// @Param type query string false "Filter by type slug"
// @Param search query string false "Filter by title substring"
// @Param exclude query string false "Exclude IDs (comma separated)"
// @Param include_drafts query bool false "Include drafts (organizer or moderator only)"
// @Param page query int false "Page number (default 1)"
// @Param per_page query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListRendezVousSuccessResponse "data contains items and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous [get]
func (c *RendezVousController) List(w http.ResponseWriter, r *http.Request) {
	q := helpers.ParseListQuery(r)
	userID, _ := middleware.UserIDFromContext(r.Context())

	statuses := []string{domain.StatusPublish}
	if userID != "" {
		statuses = append(statuses, domain.StatusPrivate)
	}
	if r.URL.Query().Get("include_drafts") == "1" && userID != "" {
		if (q.Organizer != "" && q.Organizer == userID) || c.Caps.Can(r.Context(), userID, domain.CapModerate) {
			statuses = append(statuses, domain.StatusDraft)
		}
	}
	q.Statuses = statuses

	items, total, err := c.Service.List(r.Context(), q)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	n := q.Normalize()
	meta := helpers.NewPaginationMeta(n.Page, n.PerPage, total)
	helpers.WriteJSONSuccess(w, http.StatusOK, ListRendezVousResponse{Items: items, Pagination: meta})
}

// Update godoc
// @Summary Update a rendez-vous
// @Description Updates an existing rendez-vous. Only the organizer or a moderator may edit. The candidate day set, availability ledger, and group association are never modified here; removed attendees lose their availability marks. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Param body body SaveRendezVousRequest true "Fields to save"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the updated rendez-vous"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID} [patch]
func (c *RendezVousController) Update(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	var req SaveRendezVousRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	stored, err := c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if !stored.IsOrganizer(userID) && !c.Caps.Can(r.Context(), userID, domain.CapModerate) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return
	}
	status := req.Status
	if status == "" {
		status = stored.Status
	}
	_, err = c.Service.Save(r.Context(), &domain.SaveParams{
		ID:          rdvID,
		OrganizerID: stored.OrganizerID,
		Title:       req.Title,
		Venue:       req.Venue,
		Description: req.Description,
		Duration:    req.Duration,
		Type:        req.Type,
		Privacy:     req.Privacy,
		Status:      status,
		Report:      req.Report,
		Attendees:   req.Attendees,
	})
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	rv, err := c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// DeleteResponse is the data payload for DELETE /rendez-vous/{rdvID} (200).
type DeleteResponse struct {
	Status string `json:"status"`
}

// DeleteSuccessResponse is the success response envelope for DELETE /rendez-vous/{rdvID} (200).
type DeleteSuccessResponse struct {
	Data  DeleteResponse    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// Delete godoc
// @Summary Delete a rendez-vous
// @Description Deletes a rendez-vous and all of its availability data, attendee links, and notifications. Only the organizer can delete. Requires authentication.
// @Tags rendez-vous
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Success 200 {object} controllers.DeleteSuccessResponse "data contains status"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID} [delete]
func (c *RendezVousController) Delete(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.Delete(r.Context(), rdvID, userID); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteResponse{Status: "deleted"})
}

// SetPreferenceRequest is the request body for PUT /rendez-vous/{rdvID}/preference.
// Days holds the day-keys the caller can attend; the sentinel "none" marks
// that no proposed date works. An empty list withdraws all marks.
type SetPreferenceRequest struct {
	Days []string `json:"days"`
}

// SetPreference godoc
// @Summary Submit availability preference
// @Description Replaces the caller's availability marks with the submitted day-keys. Day-keys not registered on the rendez-vous are ignored. Submitting for a public rendez-vous you are not yet listed on joins you as an attendee. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Param body body SetPreferenceRequest true "Chosen day-keys"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the rendez-vous with the updated ledger"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (no candidate dates)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID}/preference [put]
func (c *RendezVousController) SetPreference(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	var req SetPreferenceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rv, err := c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if !c.canView(r, rv, userID) {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		return
	}
	if err := c.Service.SetAttendeePreference(r.Context(), rdvID, userID, req.Days); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	rv, err = c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// PublishRequest is the request body for POST /rendez-vous/{rdvID}/publish.
type PublishRequest struct {
	Private bool `json:"private"`
}

// Publish godoc
// @Summary Publish a draft
// @Description Moves a draft rendez-vous to publish (or private) and notifies the attendees. Only the organizer can publish. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Param body body PublishRequest true "Publish options"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the published rendez-vous"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not a draft)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID}/publish [post]
func (c *RendezVousController) Publish(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	var req PublishRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rv, err := c.Service.Publish(r.Context(), rdvID, userID, req.Private)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// FixDateRequest is the request body for POST /rendez-vous/{rdvID}/date.
type FixDateRequest struct {
	Day string `json:"day"`
}

// Validate implements Validator.
func (f FixDateRequest) Validate() []string {
	if f.Day == "" {
		return []string{"day is required"}
	}
	return nil
}

// FixDate godoc
// @Summary Fix the definitive date
// @Description Sets the definitive date of a published rendez-vous to one of its candidate day-keys and notifies the attendees. Only the organizer can fix the date. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Param body body FixDateRequest true "Chosen day-key"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the rendez-vous with the fixed date"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (not a candidate day)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (not published)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID}/date [post]
func (c *RendezVousController) FixDate(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	var req FixDateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rv, err := c.Service.FixDate(r.Context(), rdvID, userID, req.Day)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// AttachReportRequest is the request body for POST /rendez-vous/{rdvID}/report.
type AttachReportRequest struct {
	Report string `json:"report"`
}

// Validate implements Validator.
func (a AttachReportRequest) Validate() []string {
	if a.Report == "" {
		return []string{"report is required"}
	}
	return nil
}

// AttachReport godoc
// @Summary Attach the post-event report
// @Description Stores the report once the fixed date has passed; an existing report may be amended. Only the organizer can report. Requires authentication.
// @Tags rendez-vous
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Param body body AttachReportRequest true "Report text"
// @Success 200 {object} controllers.SaveRendezVousSuccessResponse "data contains the rendez-vous with the report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (no past fixed date)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID}/report [post]
func (c *RendezVousController) AttachReport(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	var req AttachReportRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rv, err := c.Service.AttachReport(r.Context(), rdvID, userID, req.Report)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rv)
}

// DownloadICal godoc
// @Summary Download the iCalendar file
// @Description Streams a text/calendar file for a rendez-vous with a fixed date. Only the organizer and attendees can download. Requires authentication.
// @Tags rendez-vous
// @Produce plain
// @Security BearerAuth
// @Param rdvID path string true "Rendez-vous ID"
// @Success 200 {string} string "iCalendar payload"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not a participant)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (no fixed date)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/{rdvID}/ical [get]
func (c *RendezVousController) DownloadICal(w http.ResponseWriter, r *http.Request) {
	rdvID := r.PathValue("rdvID")
	if rdvID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing rdvID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	rv, err := c.Service.GetByID(r.Context(), rdvID)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	links := c.Links
	if rv.GroupID != "" && c.GroupLinks != nil {
		links = c.GroupLinks
	}
	payload, err := ics.Encode(rv, userID, links.SingleLink(rv), time.Now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrExport):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	w.Header().Set("Content-Type", ics.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ics.Filename(rv)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// ListTypesSuccessResponse is the success response envelope for GET /rendez-vous/types (200).
type ListTypesSuccessResponse struct {
	Data  []*domain.RendezVousType `json:"data"`
	Error *helpers.APIError        `json:"error"`
}

// ListTypes godoc
// @Summary List rendez-vous types
// @Description Returns the registered rendez-vous types ordered by name.
// @Tags rendez-vous
// @Produce json
// @Success 200 {object} controllers.ListTypesSuccessResponse "data is an array of types"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /rendez-vous/types [get]
func (c *RendezVousController) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := c.Types.List(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	if types == nil {
		types = []*domain.RendezVousType{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, types)
}
