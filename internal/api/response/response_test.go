package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/internal/models"

	"github.com/gin-gonic/gin"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", models.ErrWalletNotConfigured), http.StatusNotFound},
		{models.ErrTaskAlreadyCompleted, http.StatusConflict},
		{models.ErrInvalidToken, http.StatusUnauthorized},
		{models.ErrWithdrawalClosed, http.StatusForbidden},
		{models.ErrInvalidAmount, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"reason", models.ErrVipInUse, http.StatusConflict, "errorVipInUse"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, MESSAGE_INTERNAL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			Error(c, tc.err)

			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var res Response
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if res.Code != tc.status || res.Message != tc.message {
				t.Errorf("body = %+v", res)
			}
		})
	}
}

func TestSuccessEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Paginated(c, []int{1, 2}, 7)

	var res struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    Page   `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Code != CODE_SUCCESS || res.Message != MESSAGE_SUCCESS || res.Data.Total != 7 {
		t.Errorf("body = %+v", res)
	}
}
