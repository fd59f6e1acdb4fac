package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rendezvous/internal/delivery/http/helpers"
	"rendezvous/internal/delivery/http/middleware"
	"rendezvous/internal/domain"
	"rendezvous/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeRendezVousService implements domain.RendezVousService for handler tests.
type fakeRendezVousService struct {
	byID map[string]*domain.RendezVous

	saveErr    error
	saveID     string
	lastSave   *domain.SaveParams
	listErr    error
	listResult []*domain.RendezVous
	listTotal  int
	lastQuery  domain.RendezVousQuery

	deleteErr       error
	lastDeleteID    string
	lastDeleteActor string

	publishErr     error
	fixDateErr     error
	reportErr      error
	preferenceErr  error
	lastPreference []string
	lastActorID    string
	lastDayKey     string
	lastReport     string
}

func (f *fakeRendezVousService) Save(ctx context.Context, p *domain.SaveParams) (string, error) {
	f.lastSave = p
	if f.saveErr != nil {
		return "", f.saveErr
	}
	if p.ID != "" {
		return p.ID, nil
	}
	return f.saveID, nil
}

func (f *fakeRendezVousService) GetByID(ctx context.Context, id string) (*domain.RendezVous, error) {
	if rv, ok := f.byID[id]; ok {
		return rv, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRendezVousService) List(ctx context.Context, q domain.RendezVousQuery) ([]*domain.RendezVous, int, error) {
	f.lastQuery = q
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.listResult, f.listTotal, nil
}

func (f *fakeRendezVousService) Delete(ctx context.Context, id, actorID string) error {
	f.lastDeleteID = id
	f.lastDeleteActor = actorID
	return f.deleteErr
}

func (f *fakeRendezVousService) Publish(ctx context.Context, id, actorID string, private bool) (*domain.RendezVous, error) {
	f.lastActorID = actorID
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	return f.byID[id], nil
}

func (f *fakeRendezVousService) FixDate(ctx context.Context, id, actorID, dayKey string) (*domain.RendezVous, error) {
	f.lastActorID = actorID
	f.lastDayKey = dayKey
	if f.fixDateErr != nil {
		return nil, f.fixDateErr
	}
	return f.byID[id], nil
}

func (f *fakeRendezVousService) AttachReport(ctx context.Context, id, actorID, report string) (*domain.RendezVous, error) {
	f.lastActorID = actorID
	f.lastReport = report
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return f.byID[id], nil
}

func (f *fakeRendezVousService) SetAttendeePreference(ctx context.Context, id, attendeeID string, chosen []string) error {
	f.lastActorID = attendeeID
	f.lastPreference = chosen
	return f.preferenceErr
}

func newController(svc *fakeRendezVousService) *RendezVousController {
	return NewRendezVousController(
		testLogger,
		svc,
		nil,
		services.NewCapabilityMapper([]string{"mod-1"}),
		services.NewLinkResolver("https://rdv.example.org"),
		services.NewGroupLinkResolver("https://rdv.example.org"),
	)
}

func authedRequest(method, target string, body string, userID string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), userID))
	}
	return req
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope
}

func TestCreateRendezVous(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		userID       string
		saveErr      error
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "created",
			body:       `{"title":"Sync","days":["1700000000"],"attendees":["u2"]}`,
			userID:     "u1",
			wantStatus: http.StatusCreated,
		},
		{
			name:         "missing title",
			body:         `{"venue":"Cafe"}`,
			userID:       "u1",
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "malformed day key",
			body:         `{"title":"Sync","days":["tomorrow"]}`,
			userID:       "u1",
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "unknown field rejected",
			body:         `{"title":"Sync","bogus":true}`,
			userID:       "u1",
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "unauthenticated",
			body:         `{"title":"Sync"}`,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "service validation error",
			body:         `{"title":"Sync"}`,
			userID:       "u1",
			saveErr:      domain.ErrValidation,
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRendezVousService{
				saveID:  "rv-1",
				saveErr: tt.saveErr,
				byID: map[string]*domain.RendezVous{
					"rv-1": {ID: "rv-1", OrganizerID: "u1", Title: "Sync", Status: domain.StatusDraft},
				},
			}
			ctrl := newController(svc)

			req := authedRequest(http.MethodPost, "http://test/rendez-vous", tt.body, tt.userID)
			rr := httptest.NewRecorder()
			ctrl.Create(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantBodyCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
				return
			}
			require.Nil(t, envelope.Error)
			require.NotNil(t, svc.lastSave)
			assert.Equal(t, "u1", svc.lastSave.OrganizerID, "organizer is the authenticated user")
		})
	}
}

func TestGetRendezVousVisibility(t *testing.T) {
	records := map[string]*domain.RendezVous{
		"rv-pub":   {ID: "rv-pub", OrganizerID: "u1", Title: "Open", Status: domain.StatusPublish},
		"rv-draft": {ID: "rv-draft", OrganizerID: "u1", Title: "Drafting", Status: domain.StatusDraft, Attendees: []string{"u2"}},
	}

	tests := []struct {
		name       string
		rdvID      string
		userID     string
		wantStatus int
	}{
		{"published is public", "rv-pub", "", http.StatusOK},
		{"draft hidden from anonymous", "rv-draft", "", http.StatusForbidden},
		{"draft hidden from strangers", "rv-draft", "u9", http.StatusForbidden},
		{"draft visible to organizer", "rv-draft", "u1", http.StatusOK},
		{"draft visible to attendee", "rv-draft", "u2", http.StatusOK},
		{"draft visible to moderator", "rv-draft", "mod-1", http.StatusOK},
		{"unknown id", "rv-missing", "u1", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newController(&fakeRendezVousService{byID: records})

			req := authedRequest(http.MethodGet, "http://test/rendez-vous/"+tt.rdvID, "", tt.userID)
			req.SetPathValue("rdvID", tt.rdvID)
			rr := httptest.NewRecorder()
			ctrl.GetByID(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestListRendezVousStatuses(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		userID       string
		wantStatuses []string
	}{
		{
			name:         "anonymous sees published only",
			target:       "http://test/rendez-vous",
			wantStatuses: []string{domain.StatusPublish},
		},
		{
			name:         "authenticated adds private",
			target:       "http://test/rendez-vous",
			userID:       "u1",
			wantStatuses: []string{domain.StatusPublish, domain.StatusPrivate},
		},
		{
			name:         "own drafts on request",
			target:       "http://test/rendez-vous?organizer=u1&include_drafts=1",
			userID:       "u1",
			wantStatuses: []string{domain.StatusPublish, domain.StatusPrivate, domain.StatusDraft},
		},
		{
			name:         "foreign drafts denied",
			target:       "http://test/rendez-vous?organizer=u2&include_drafts=1",
			userID:       "u1",
			wantStatuses: []string{domain.StatusPublish, domain.StatusPrivate},
		},
		{
			name:         "moderator sees any drafts",
			target:       "http://test/rendez-vous?organizer=u2&include_drafts=1",
			userID:       "mod-1",
			wantStatuses: []string{domain.StatusPublish, domain.StatusPrivate, domain.StatusDraft},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRendezVousService{listResult: []*domain.RendezVous{}}
			ctrl := newController(svc)

			req := authedRequest(http.MethodGet, tt.target, "", tt.userID)
			rr := httptest.NewRecorder()
			ctrl.List(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantStatuses, svc.lastQuery.Statuses)
		})
	}
}

func TestUpdateRendezVousAuthorization(t *testing.T) {
	records := map[string]*domain.RendezVous{
		"rv-1": {ID: "rv-1", OrganizerID: "u1", Title: "Sync", Status: domain.StatusPublish},
	}

	tests := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"organizer may edit", "u1", http.StatusOK},
		{"moderator may edit", "mod-1", http.StatusOK},
		{"stranger forbidden", "u9", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeRendezVousService{byID: records}
			ctrl := newController(svc)

			req := authedRequest(http.MethodPatch, "http://test/rendez-vous/rv-1", `{"title":"Renamed"}`, tt.userID)
			req.SetPathValue("rdvID", "rv-1")
			rr := httptest.NewRecorder()
			ctrl.Update(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, svc.lastSave)
				assert.Equal(t, "u1", svc.lastSave.OrganizerID, "organizer never changes on edit")
				assert.Equal(t, "rv-1", svc.lastSave.ID)
			}
		})
	}
}

func TestSetPreference(t *testing.T) {
	records := map[string]*domain.RendezVous{
		"rv-1": {ID: "rv-1", OrganizerID: "u1", Title: "Sync", Status: domain.StatusPublish},
	}

	t.Run("passes chosen days through", func(t *testing.T) {
		svc := &fakeRendezVousService{byID: records}
		ctrl := newController(svc)

		req := authedRequest(http.MethodPut, "http://test/rendez-vous/rv-1/preference",
			`{"days":["1700000000","none"]}`, "u2")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.SetPreference(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"1700000000", "none"}, svc.lastPreference)
		assert.Equal(t, "u2", svc.lastActorID)
	})

	t.Run("no candidate dates maps to bad request", func(t *testing.T) {
		svc := &fakeRendezVousService{byID: records, preferenceErr: domain.ErrNoCandidateDates}
		ctrl := newController(svc)

		req := authedRequest(http.MethodPut, "http://test/rendez-vous/rv-1/preference", `{"days":[]}`, "u2")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.SetPreference(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWorkflowEndpoints(t *testing.T) {
	records := map[string]*domain.RendezVous{
		"rv-1": {ID: "rv-1", OrganizerID: "u1", Title: "Sync", Status: domain.StatusPublish},
	}

	t.Run("publish conflict maps to 409", func(t *testing.T) {
		svc := &fakeRendezVousService{byID: records, publishErr: domain.ErrStateConflict}
		ctrl := newController(svc)

		req := authedRequest(http.MethodPost, "http://test/rendez-vous/rv-1/publish", `{"private":false}`, "u1")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.Publish(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
		envelope := decodeEnvelope(t, rr)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, helpers.ErrCodeConflict, envelope.Error.Code)
	})

	t.Run("fix date passes day key", func(t *testing.T) {
		svc := &fakeRendezVousService{byID: records}
		ctrl := newController(svc)

		req := authedRequest(http.MethodPost, "http://test/rendez-vous/rv-1/date", `{"day":"1700000000"}`, "u1")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.FixDate(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "1700000000", svc.lastDayKey)
	})

	t.Run("report requires body", func(t *testing.T) {
		svc := &fakeRendezVousService{byID: records}
		ctrl := newController(svc)

		req := authedRequest(http.MethodPost, "http://test/rendez-vous/rv-1/report", `{"report":""}`, "u1")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.AttachReport(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDownloadICal(t *testing.T) {
	fixed := time.Unix(1700000000, 0).UTC()
	records := map[string]*domain.RendezVous{
		"rv-1": {
			ID:             "rv-1",
			OrganizerID:    "u1",
			Title:          "Sync",
			Duration:       "1:00",
			Status:         domain.StatusPublish,
			Attendees:      []string{"u2"},
			DefinitiveDate: &fixed,
		},
		"rv-nodate": {
			ID:          "rv-nodate",
			OrganizerID: "u1",
			Title:       "Sync",
			Status:      domain.StatusPublish,
		},
	}

	t.Run("participant downloads calendar", func(t *testing.T) {
		ctrl := newController(&fakeRendezVousService{byID: records})

		req := authedRequest(http.MethodGet, "http://test/rendez-vous/rv-1/ical", "", "u2")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.DownloadICal(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, "text/calendar", rr.Header().Get("Content-Type"))
		require.Contains(t, rr.Header().Get("Content-Disposition"), "rendez-vous-rv-1.ics")
		body := rr.Body.String()
		require.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR\r\n"))
		require.Contains(t, body, "DTSTART:20231114T221320Z")
	})

	t.Run("non-participant forbidden", func(t *testing.T) {
		ctrl := newController(&fakeRendezVousService{byID: records})

		req := authedRequest(http.MethodGet, "http://test/rendez-vous/rv-1/ical", "", "u9")
		req.SetPathValue("rdvID", "rv-1")
		rr := httptest.NewRecorder()
		ctrl.DownloadICal(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("no fixed date conflicts", func(t *testing.T) {
		ctrl := newController(&fakeRendezVousService{byID: records})

		req := authedRequest(http.MethodGet, "http://test/rendez-vous/rv-nodate/ical", "", "u1")
		req.SetPathValue("rdvID", "rv-nodate")
		rr := httptest.NewRecorder()
		ctrl.DownloadICal(rr, req)

		require.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestDeleteRendezVous(t *testing.T) {
	svc := &fakeRendezVousService{byID: map[string]*domain.RendezVous{}}
	ctrl := newController(svc)

	req := authedRequest(http.MethodDelete, "http://test/rendez-vous/rv-1", "", "u1")
	req.SetPathValue("rdvID", "rv-1")
	rr := httptest.NewRecorder()
	ctrl.Delete(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "rv-1", svc.lastDeleteID)
	assert.Equal(t, "u1", svc.lastDeleteActor)
}
