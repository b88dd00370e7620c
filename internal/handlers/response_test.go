package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/notabene-app/notabene-backend/internal/platform/apierr"
	"github.com/notabene-app/notabene-backend/internal/services"
)

func respond(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	RespondServiceError(c, err)
	return rec
}

func TestRespondServiceErrorHonorsTypedErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "clip_too_long", err: services.ErrClipTooLong, wantStatus: http.StatusBadRequest, wantCode: "clip_too_long"},
		{name: "wrapped_by_service", err: fmt.Errorf("create highlight: %w", services.ErrNoTranscript), wantStatus: http.StatusConflict, wantCode: "no_transcript"},
		{name: "analysis_running", err: services.ErrAnalysisRunning, wantStatus: http.StatusConflict, wantCode: "analysis_running"},
		{name: "unsupported_filetype", err: services.ErrUnsupportedFiletype, wantStatus: http.StatusUnsupportedMediaType, wantCode: "unsupported_filetype"},
		{name: "custom", err: apierr.New(http.StatusPaymentRequired, "billing_hold", errors.New("workspace suspended")), wantStatus: http.StatusPaymentRequired, wantCode: "billing_hold"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := respond(t, tc.err)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if want := fmt.Sprintf("%q:%q", "code", tc.wantCode); !strings.Contains(rec.Body.String(), want) {
				t.Fatalf("body = %s, want %s", rec.Body.String(), want)
			}
		})
	}
}

func TestRespondServiceErrorDefaultsToInternal(t *testing.T) {
	rec := respond(t, errors.New("connection reset"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal_error") {
		t.Fatalf("body = %s, want internal_error code", rec.Body.String())
	}
}
