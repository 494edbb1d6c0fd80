package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogService is a mock implementation of CatalogServiceInterface
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListSubjects(ctx context.Context, userID int) (*Listing, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockCatalogService) SaveSubjectSelection(ctx context.Context, userID int, subjects []string) ([]string, error) {
	args := m.Called(userID, subjects)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func setupTestRouter(t *testing.T, service CatalogServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	router.HTMLRender = renderer

	router.Use(func(c *gin.Context) {
		c.Set(auth.UserIDKey, 3)
		c.Next()
	})

	controller := NewCatalogController(service)
	router.GET("/my-subjects", controller.MySubjects)
	router.POST("/save-subjects", controller.SaveSubjects)
	return router
}

func TestMySubjects_HTMLSelector(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)
	mockService.On("ListSubjects", 3).Return(&Listing{
		Subjects:            Default().Subjects(),
		Selected:            []string{},
		ShowSubjectSelector: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/my-subjects", nil)
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="subject-selector"`)
	assert.Contains(t, w.Body.String(), "Mathematics Advanced")
}

func TestMySubjects_HTMLSelected(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)
	mockService.On("ListSubjects", 3).Return(&Listing{
		Subjects: Default().Subjects(),
		Selected: []string{"Physics"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/my-subjects", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `id="subject-selector"`)
	assert.Contains(t, w.Body.String(), "Electromagnetism")
	assert.NotContains(t, w.Body.String(), "Organic Chemistry")
}

func TestMySubjects_JSON(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)
	mockService.On("ListSubjects", 3).Return(&Listing{
		Subjects:            Default().Subjects()[:1],
		Selected:            []string{},
		ShowSubjectSelector: true,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/my-subjects", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["show_subject_selector"])
	assert.Len(t, body["subjects"], 1)
	assert.Equal(t, []any{}, body["selected_subjects"])
}

func TestSaveSubjects(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)
	mockService.On("SaveSubjectSelection", 3, []string{"Physics", "Biology"}).Return([]string{"Physics", "Biology"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/save-subjects", strings.NewReader(`{"subjects":["Physics","Biology"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
}

func TestSaveSubjects_Empty(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)
	mockService.On("SaveSubjectSelection", 3, []string{}).Return(nil, apperror.NewBadRequest(MsgNoSubjects))

	req := httptest.NewRequest(http.MethodPost, "/save-subjects", strings.NewReader(`{"subjects":[]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"No subjects selected"}`, w.Body.String())
}

func TestSaveSubjects_MalformedBody(t *testing.T) {
	mockService := new(MockCatalogService)
	router := setupTestRouter(t, mockService)

	req := httptest.NewRequest(http.MethodPost, "/save-subjects", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SaveSubjectSelection", mock.Anything, mock.Anything)
}
