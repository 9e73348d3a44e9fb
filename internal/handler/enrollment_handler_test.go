package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanutri/seanutri-api/internal/middleware"
	"github.com/seanutri/seanutri-api/internal/models"
)

func performBulkEnroll(t *testing.T, claims *models.JWTClaims, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewEnrollmentHandler(nil, nil, nil)
	router := gin.New()
	router.POST("/enrollments/bulk", func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		h.BulkEnroll(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/enrollments/bulk", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func managerClaims(companyID *string) *models.JWTClaims {
	return &models.JWTClaims{
		UserID:    "mgr-1",
		Role:      models.RoleCompanyManager,
		Email:     "m@oceanica.com",
		CompanyID: companyID,
	}
}

func TestBulkEnrollRejectsOtherCompany(t *testing.T) {
	own := "cmp-a"
	body := `{"company_id":"cmp-b","class_id":"cls-1","student_ids":["stu-1"]}`

	recorder := performBulkEnroll(t, managerClaims(&own), body)

	assert.Equal(t, http.StatusForbidden, recorder.Code)

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "company access denied", envelope.Error.Message)
}

func TestBulkEnrollRejectsManagerWithoutCompany(t *testing.T) {
	body := `{"company_id":"cmp-b","class_id":"cls-1","student_ids":["stu-1"]}`

	recorder := performBulkEnroll(t, managerClaims(nil), body)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
