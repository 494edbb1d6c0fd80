package profile

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/user"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testMaxUpload = 1024

func setupTestRouter(t *testing.T, service ProfileServiceInterface) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	renderer, err := web.NewRenderer()
	require.NoError(t, err)
	router.HTMLRender = renderer

	name := "Jane"
	router.Use(func(c *gin.Context) {
		c.Set(auth.UserIDKey, 7)
		c.Set(web.CurrentUserKey, &user.User{ID: 7, Email: "jane@example.com", Name: &name})
		c.Next()
	})

	controller := NewProfileController(service, testMaxUpload)
	router.GET("/profile", controller.ProfilePage)
	router.POST("/profile", controller.UpdateProfile)
	router.POST("/upload_profile_picture", controller.UploadPicture)
	router.POST("/save-profile", controller.SaveProfile)
	router.POST("/save_notification_preferences", controller.SaveNotificationPreferences)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestProfilePage_PrefillsCurrentUser(t *testing.T) {
	router := setupTestRouter(t, new(MockProfileService))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="Jane"`)
	assert.Contains(t, w.Body.String(), "jane@example.com")
}

func TestUpdateProfile_Success(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	form := ProfileForm{Name: "Jane Doe", PhoneNumber: "+1 (123) 456-7890"}
	mockService.On("UpdateProfile", 7, form).Return(nil)

	values := url.Values{"name": {form.Name}, "phone_number": {form.PhoneNumber}, "submit": {"Save Changes"}}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile", w.Header().Get("Location"))
	mockService.AssertExpectations(t)
	mockService.AssertNotCalled(t, "UploadProfilePicture", mock.Anything, mock.Anything)
}

func TestUpdateProfile_ValidationErrorRerenders(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	mockService.On("UpdateProfile", 7, mock.Anything).Return(apperror.NewValidationError(
		apperror.FieldError{Field: "phone_number", Message: "Invalid phone number format"},
	))

	values := url.Values{"phone_number": {"12345"}, "submit": {"Save Changes"}}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid phone number format")
	assert.Contains(t, w.Body.String(), `value="12345"`)
}

func TestUpdateProfile_ChangePasswordWrongCurrent(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	form := PasswordForm{CurrentPassword: "wrong", NewPassword: "newpassword456", ConfirmPassword: "newpassword456"}
	mockService.On("ChangePassword", 7, form).Return(apperror.NewAuthError(MsgIncorrectPassword))

	values := url.Values{
		"current_password": {form.CurrentPassword},
		"new_password":     {form.NewPassword},
		"confirm_password": {form.ConfirmPassword},
		"submit_password":  {"Change Password"},
	}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), MsgIncorrectPassword)
	mockService.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadPicture_Success(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	mockService.On("UploadProfilePicture", 7, mock.MatchedBy(func(u *Upload) bool {
		return u != nil && u.Filename == "me.png" && u.Size == int64(len(pngHeader))
	})).Return("/static/uploads/profile_pictures/7_me.png", nil)

	body, contentType := multipartUpload(t, "profile_picture", "me.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/upload_profile_picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Profile picture uploaded successfully", resp["message"])
	assert.Equal(t, "/static/uploads/profile_pictures/7_me.png", resp["picture_url"])
}

func TestUploadPicture_NoFilePart(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	mockService.On("UploadProfilePicture", 7, (*Upload)(nil)).Return("", apperror.NewBadRequest(MsgNoFilePart))

	body, contentType := multipartUpload(t, "other_field", "me.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/upload_profile_picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, MsgNoFilePart, resp["message"])
}

func TestUploadPicture_BodyTooLarge(t *testing.T) {
	oversized := make([]byte, testMaxUpload+formOverheadBytes+1)

	for _, declared := range []bool{true, false} {
		name := "declared length"
		if !declared {
			name = "chunked"
		}
		t.Run(name, func(t *testing.T) {
			mockService := new(MockProfileService)
			router := setupTestRouter(t, mockService)

			body, contentType := multipartUpload(t, "profile_picture", "huge.png", oversized)
			req := httptest.NewRequest(http.MethodPost, "/upload_profile_picture", body)
			req.Header.Set("Content-Type", contentType)
			if !declared {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeBody(t, w)
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, "File is too large. The limit is 1 KB.", resp["message"])
			mockService.AssertNotCalled(t, "UploadProfilePicture", mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateProfile_BodyTooLarge(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)

	body, contentType := multipartUpload(t, "profile_picture", "huge.png", make([]byte, testMaxUpload+formOverheadBytes+1))
	req := httptest.NewRequest(http.MethodPost, "/profile", body)
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "File is too large. The limit is 1 KB.")
	mockService.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything)
}

func TestSaveProfile(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		expectCall *Basics
		status     int
		message    string
	}{
		{name: "empty body", body: "", status: http.StatusBadRequest, message: MsgNoData},
		{name: "empty object", body: "{}", status: http.StatusBadRequest, message: MsgNoData},
		{name: "bad subjects", body: `{"year_level":"12","hsc_subjects":42}`, status: http.StatusBadRequest, message: "hsc_subjects must be a list of subject names"},
		{name: "year only", body: `{"year_level":"12"}`, expectCall: &Basics{YearLevel: "12"}, status: http.StatusOK},
		{name: "numeric year", body: `{"year_level":11}`, expectCall: &Basics{YearLevel: "11"}, status: http.StatusOK},
		{name: "subject list", body: `{"year_level":"12","hsc_subjects":["Physics"," Chemistry "]}`,
			expectCall: &Basics{YearLevel: "12", Subjects: &[]string{"Physics", "Chemistry"}}, status: http.StatusOK},
		{name: "subject string", body: `{"year_level":"12","hsc_subjects":"Physics, Chemistry"}`,
			expectCall: &Basics{YearLevel: "12", Subjects: &[]string{"Physics", "Chemistry"}}, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockProfileService)
			router := setupTestRouter(t, mockService)
			if tt.expectCall != nil {
				mockService.On("SaveProfileBasics", 7, *tt.expectCall).Return(nil)
			}

			w := postJSON(router, "/save-profile", tt.body)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeBody(t, w)
			assert.Equal(t, tt.status == http.StatusOK, resp["success"])
			if tt.message != "" {
				assert.Equal(t, tt.message, resp["message"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestSaveProfile_YearLevelRequired(t *testing.T) {
	mockService := new(MockProfileService)
	router := setupTestRouter(t, mockService)
	mockService.On("SaveProfileBasics", 7, Basics{}).Return(apperror.NewBadRequest(MsgYearLevelRequired))

	w := postJSON(router, "/save-profile", `{"year_level":null}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, MsgYearLevelRequired, decodeBody(t, w)["message"])
}

func TestSaveNotificationPreferences(t *testing.T) {
	router := setupTestRouter(t, new(MockProfileService))

	w := postJSON(router, "/save_notification_preferences", `{"email_notifications":true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notification preferences saved successfully", decodeBody(t, w)["message"])

	w = postJSON(router, "/save_notification_preferences", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
