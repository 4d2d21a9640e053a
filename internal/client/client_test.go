package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sngm3741/warranty-services/api/internal/evidence"
	"github.com/sngm3741/warranty-services/api/internal/warranty/domain"
)

// ==========================
// Test Helpers
// ==========================

func validSubmission() domain.Submission {
	return domain.Submission{
		FullName:     "Somchai Jaidee",
		Phone:        "0812345678",
		Email:        "somchai@example.com",
		PurchaseDate: "2024-05-01",
		Evidence: &domain.FilePayload{
			Name:     "receipt.pdf",
			MimeType: "application/pdf",
			Content:  "JVBERi0xLjc=",
		},
		AgreeToTerms: true,
	}
}

func newTestSubmitter(t *testing.T, url string, opts ...SubmitterOption) *Submitter {
	t.Helper()
	opts = append([]SubmitterOption{WithSubmitLogger(zaptest.NewLogger(t))}, opts...)
	return NewSubmitter(url, opts...)
}

// ==========================
// Validation Tests
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*domain.Submission)
		agreed         bool
		expectedErr    error
		expectedFields []string
	}{
		{
			name:   "complete submission",
			mutate: func(*domain.Submission) {},
			agreed: true,
		},
		{
			name:        "terms checked before fields",
			mutate:      func(s *domain.Submission) { *s = domain.Submission{} },
			agreed:      false,
			expectedErr: ErrTermsNotAccepted,
		},
		{
			name:           "everything missing",
			mutate:         func(s *domain.Submission) { *s = domain.Submission{} },
			agreed:         true,
			expectedFields: domain.RequiredFields,
		},
		{
			name: "email and evidence missing",
			mutate: func(s *domain.Submission) {
				s.Email = ""
				s.Evidence = nil
			},
			agreed:         true,
			expectedFields: []string{"email", "evidence"},
		},
		{
			name:           "evidence without content",
			mutate:         func(s *domain.Submission) { s.Evidence.Content = "" },
			agreed:         true,
			expectedFields: []string{"evidence"},
		},
		{
			name:   "optional fields may stay empty",
			mutate: func(s *domain.Submission) { s.Address, s.Store, s.Gender, s.Birthday = "", "", "", "" },
			agreed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			sub.AgreeToTerms = tt.agreed

			err := Validate(sub)

			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
			case tt.expectedFields != nil:
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.expectedFields, verr.Fields)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildSubmission(t *testing.T) {
	pdf := []byte("%PDF-1.7")
	form := Form{
		FullName:     "  Somchai Jaidee ",
		Address:      " 99 Sukhumvit ",
		Phone:        " 0812345678",
		Email:        "somchai@example.com ",
		Gender:       "ชาย",
		Birthday:     "1990-01-02",
		PurchaseDate: "2024-05-01",
		Store:        " Shopee ",
		Evidence:     &evidence.File{Name: "receipt.pdf", MimeType: "application/pdf", Data: pdf},
		AgreeToTerms: true,
	}

	sub := BuildSubmission(form, nil, evidence.DefaultProfile)

	assert.Equal(t, "Somchai Jaidee", sub.FullName)
	assert.Equal(t, "99 Sukhumvit", sub.Address)
	assert.Equal(t, "0812345678", sub.Phone)
	assert.Equal(t, "somchai@example.com", sub.Email)
	assert.Equal(t, "Shopee", sub.Store)
	assert.True(t, sub.AgreeToTerms)
	require.NotNil(t, sub.Evidence)
	assert.Equal(t, "application/pdf", sub.Evidence.MimeType)
	assert.Equal(t, "JVBERi0xLjc=", sub.Evidence.Content)
	assert.NoError(t, Validate(sub))

	form.Evidence = &evidence.File{Name: "empty.png", MimeType: "image/png"}
	sub = BuildSubmission(form, evidence.NewNormalizer(), evidence.CompactProfile)
	assert.Nil(t, sub.Evidence)
}

// ==========================
// Submit Tests
// ==========================

func TestSubmit_Success(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"upstream":{"row":42}}`))
	}))
	defer srv.Close()

	res, err := newTestSubmitter(t, Endpoint(srv.URL+"/")).Submit(context.Background(), validSubmission())

	require.NoError(t, err)
	assert.NotEmpty(t, res.RequestID)
	assert.JSONEq(t, `{"row":42}`, string(res.Upstream))
	assert.Equal(t, "Somchai Jaidee", received["fullName"])
	assert.NotContains(t, received, "agreeToTerms")
	assert.Contains(t, received, "evidence")
}

func TestSubmit_InvalidInputMakesNoNetworkCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := newTestSubmitter(t, srv.URL)

	notAgreed := validSubmission()
	notAgreed.AgreeToTerms = false
	_, err := s.Submit(context.Background(), notAgreed)
	assert.ErrorIs(t, err, ErrTermsNotAccepted)

	missing := validSubmission()
	missing.Evidence = nil
	_, err = s.Submit(context.Background(), missing)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	assert.Zero(t, calls.Load())
}

func TestSubmit_RelayFailures(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		body            string
		expectedErr     error
		expectedStatus  int
		expectedMessage string
	}{
		{name: "upstream rejected", status: http.StatusBadGateway, body: `{"ok":false,"error":"Sheet is full"}`, expectedStatus: 502, expectedMessage: "Sheet is full"},
		{name: "missing config", status: http.StatusInternalServerError, body: `{"ok":false,"error":"Missing APPSCRIPT_WEB_APP_URL"}`, expectedStatus: 500, expectedMessage: "Missing APPSCRIPT_WEB_APP_URL"},
		{name: "not ok without reason", status: http.StatusOK, body: `{"ok":false}`, expectedStatus: 200, expectedMessage: fallbackFailure},
		{name: "error status with ok body", status: http.StatusTeapot, body: `{"ok":true}`, expectedStatus: 418, expectedMessage: fallbackFailure},
		{name: "html reply", status: http.StatusOK, body: `<html>gateway</html>`, expectedErr: ErrBadServerResponse},
		{name: "html error page", status: http.StatusBadGateway, body: `Bad Gateway`, expectedErr: ErrBadServerResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestSubmitter(t, srv.URL).Submit(context.Background(), validSubmission())

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			var rerr *RelayError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.expectedStatus, rerr.Status)
			assert.Equal(t, tt.expectedMessage, rerr.Message)
		})
	}
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestSubmitter(t, srv.URL, WithTimeout(50*time.Millisecond)).Submit(context.Background(), validSubmission())

	assert.ErrorIs(t, err, ErrTimeout)
	var nerr *NetworkError
	assert.False(t, errors.As(err, &nerr))
}

func TestSubmit_CancelledByCallerIsNotTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestSubmitter(t, srv.URL).Submit(ctx, validSubmission())

	assert.NotErrorIs(t, err, ErrTimeout)
	var nerr *NetworkError
	assert.ErrorAs(t, err, &nerr)
}

func TestSubmit_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestSubmitter(t, url).Submit(context.Background(), validSubmission())

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestSubmit_OneInFlight(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		_, _ = w.Write([]byte(`{"ok":true,"upstream":{}}`))
	}))
	defer srv.Close()

	s := newTestSubmitter(t, srv.URL)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), validSubmission())
		done <- err
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first submission never reached the relay")
	}

	_, err := s.Submit(context.Background(), validSubmission())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	close(release)
	require.NoError(t, <-done)

	_, err = s.Submit(context.Background(), validSubmission())
	assert.NoError(t, err)
}
