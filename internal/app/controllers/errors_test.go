package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel-lockup-service/internal/domain/services"
	"sentinel-lockup-service/internal/error/code"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFailWithServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		table  []errorCode
		code   int
		status int
	}{
		{"lockup conflict", fmt.Errorf("%w: stale version", services.ErrConflict), lockupErrorCodes, code.ErrLockupConflict, http.StatusConflict},
		{"lockup invalid state", fmt.Errorf("%w: nobody holds lockup", services.ErrInvalidState), lockupErrorCodes, code.ErrLockupInvalidState, http.StatusConflict},
		{"not eligible", fmt.Errorf("%w: member 3", services.ErrNotEligible), lockupErrorCodes, code.ErrLockupNotEligible, http.StatusUnprocessableEntity},
		{"not present", fmt.Errorf("%w: member 3", services.ErrNotPresent), lockupErrorCodes, code.ErrLockupNotPresent, http.StatusUnprocessableEntity},
		{"presence not present", fmt.Errorf("%w: member 3", services.ErrNotPresent), presenceErrorCodes, code.ErrPresenceNotPresent, http.StatusConflict},
		{"holder checkout", fmt.Errorf("%w: member 3", services.ErrHolderCheckout), presenceErrorCodes, code.ErrPresenceHolderCheckout, http.StatusConflict},
		{"qualification in use", fmt.Errorf("%w: 2 grants", services.ErrInUse), qualificationErrorCodes, code.ErrQualificationInUse, http.StatusConflict},
		{"member exists", fmt.Errorf("%w: SN1", services.ErrAlreadyExists), memberErrorCodes, code.ErrMemberAlreadyExist, http.StatusBadRequest},
		{"invalid input wins", fmt.Errorf("%w: bad reason", services.ErrInvalidInput), lockupErrorCodes, code.ErrValidation, http.StatusBadRequest},
		{"unknown error", errors.New("disk on fire"), lockupErrorCodes, code.ErrDatabase, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ctx, _ := gin.CreateTestContext(w)
			failWithServiceError(ctx, tt.err, tt.table, "测试")

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			if tt.code == code.ErrDatabase {
				assert.NotContains(t, body.Message, "disk on fire")
			} else {
				assert.Contains(t, body.Message, tt.err.Error())
			}
		})
	}
}

func TestParseDateQuery(t *testing.T) {
	newCtx := func(query string) *gin.Context {
		ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
		ctx.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		return ctx
	}

	got, err := parseDateQuery(newCtx(""), "start_date", false)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseDateQuery(newCtx("end_date=2026-03-01"), "end_date", true)
	require.NoError(t, err)
	want := time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.Local)
	assert.True(t, want.Equal(*got), "got %s", got)

	got, err = parseDateQuery(newCtx("start_date=2026-03-01T08:00:00Z"), "start_date", false)
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC).Equal(*got))

	_, err = parseDateQuery(newCtx("start_date=yesterday"), "start_date", false)
	assert.Error(t, err)
}

func TestParseIDParam(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := parseIDParam(ctx, "id")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	ctx.Params = gin.Params{{Key: "id", Value: "0"}}
	_, ok = parseIDParam(ctx, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
