package profile

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/user"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
)

const (
	pictureField = "profile_picture"
	pageTitle    = "Profile Settings"

	// Room for the other form fields and multipart framing around the picture.
	formOverheadBytes = 64 << 10
)

type ProfileController struct {
	profileService ProfileServiceInterface
	maxUpload      int64
}

func NewProfileController(profileService ProfileServiceInterface, maxUploadBytes int64) *ProfileController {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ProfileController{profileService: profileService, maxUpload: maxUploadBytes}
}

// readForm caps the request body and parses it in memory, so an oversized
// upload is refused before anything is buffered to disk.
func (p *ProfileController) readForm(c *gin.Context) error {
	limit := p.maxUpload + formOverheadBytes
	if c.Request.ContentLength > limit {
		return errTooLarge(p.maxUpload)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var err error
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		err = c.Request.ParseMultipartForm(limit)
	} else {
		err = c.Request.ParseForm()
	}

	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return errTooLarge(p.maxUpload)
	}
	// Anything else is reported by the binding that follows.
	return nil
}

// ProfilePage shows both the details form and the password form.
func (p *ProfileController) ProfilePage(c *gin.Context) {
	data := web.NewPage(c, pageTitle)
	if u, ok := c.Get(web.CurrentUserKey); ok {
		if u, ok := u.(*user.User); ok {
			data.Form = formFromUser(u)
		}
	}
	web.Render(c, http.StatusOK, web.PageProfile, data)
}

// UpdateProfile dispatches on the submit button that was pressed.
func (p *ProfileController) UpdateProfile(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		web.Redirect(c, "/auth/login")
		return
	}

	if err := p.readForm(c); err != nil {
		web.RenderFormError(c, web.PageProfile, pageTitle, nil, err)
		return
	}

	if c.PostForm("submit_password") != "" {
		p.changePassword(c, userID)
		return
	}
	p.updateDetails(c, userID)
}

func (p *ProfileController) updateDetails(c *gin.Context, userID int) {
	var form ProfileForm
	if err := c.ShouldBind(&form); err != nil {
		web.RenderFormError(c, web.PageProfile, pageTitle, nil, apperror.NewBadRequest("Invalid form submission."))
		return
	}

	values := formValues(form)
	if err := p.profileService.UpdateProfile(c.Request.Context(), userID, form); err != nil {
		web.RenderFormError(c, web.PageProfile, pageTitle, values, err)
		return
	}

	// The picture field is optional on this form
	if upload, cleanup := pictureFromRequest(c); upload != nil && upload.Filename != "" {
		defer cleanup()
		if _, err := p.profileService.UploadProfilePicture(c.Request.Context(), userID, upload); err != nil {
			web.RenderFormError(c, web.PageProfile, pageTitle, values, err)
			return
		}
	}

	web.SetFlash(c, web.FlashSuccess, "Your profile has been updated successfully!")
	web.Redirect(c, "/profile")
}

func (p *ProfileController) changePassword(c *gin.Context, userID int) {
	form := PasswordForm{
		CurrentPassword: c.PostForm("current_password"),
		NewPassword:     c.PostForm("new_password"),
		ConfirmPassword: c.PostForm("confirm_password"),
	}

	if err := p.profileService.ChangePassword(c.Request.Context(), userID, form); err != nil {
		values := map[string]string{}
		if u, ok := c.Get(web.CurrentUserKey); ok {
			if u, ok := u.(*user.User); ok {
				values = formFromUser(u)
			}
		}
		web.RenderFormError(c, web.PageProfile, pageTitle, values, err)
		return
	}

	web.SetFlash(c, web.FlashSuccess, "Your password has been changed successfully!")
	web.Redirect(c, "/profile")
}

// UploadPicture handles the AJAX upload from the profile page.
func (p *ProfileController) UploadPicture(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		web.RespondError(c, apperror.NewAuthError("Please log in to access this page."))
		return
	}

	if err := p.readForm(c); err != nil {
		web.RespondError(c, err)
		return
	}

	upload, cleanup := pictureFromRequest(c)
	defer cleanup()

	pictureURL, err := p.profileService.UploadProfilePicture(c.Request.Context(), userID, upload)
	if err != nil {
		web.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Profile picture uploaded successfully",
		"picture_url": pictureURL,
	})
}

// SaveProfile stores the year level and optional subject list from the onboarding modal.
func (p *ProfileController) SaveProfile(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		web.RespondError(c, apperror.NewAuthError("Please log in to access this page."))
		return
	}

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil || len(raw) == 0 {
		web.RespondError(c, apperror.NewBadRequest(MsgNoData))
		return
	}

	basics, err := decodeBasics(raw)
	if err != nil {
		web.RespondError(c, err)
		return
	}

	if err := p.profileService.SaveProfileBasics(c.Request.Context(), userID, basics); err != nil {
		web.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveNotificationPreferences acknowledges the settings without storing them.
func (p *ProfileController) SaveNotificationPreferences(c *gin.Context) {
	var prefs map[string]any
	if err := c.ShouldBindJSON(&prefs); err != nil || len(prefs) == 0 {
		web.RespondError(c, apperror.NewBadRequest(MsgNoData))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification preferences saved successfully",
	})
}

// pictureFromRequest returns nil when the form carried no picture field and
// an Upload with an empty Filename when the field was sent without a file.
func pictureFromRequest(c *gin.Context) (*Upload, func()) {
	noop := func() {}

	file, header, err := c.Request.FormFile(pictureField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && c.Request.MultipartForm != nil {
			if _, sent := c.Request.MultipartForm.Value[pictureField]; sent {
				return &Upload{}, noop
			}
		}
		return nil, noop
	}

	return uploadFromHeader(file, header), func() { _ = file.Close() }
}

func uploadFromHeader(file multipart.File, header *multipart.FileHeader) *Upload {
	return &Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}
}

func decodeBasics(raw map[string]json.RawMessage) (Basics, error) {
	var basics Basics

	if v, ok := raw["year_level"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			basics.YearLevel = s
		} else {
			var n json.Number
			if err := json.Unmarshal(v, &n); err == nil {
				basics.YearLevel = n.String()
			}
		}
	}

	if v, ok := raw["hsc_subjects"]; ok {
		subjects, err := decodeSubjects(v)
		if err != nil {
			return basics, err
		}
		basics.Subjects = &subjects
	}

	return basics, nil
}

// decodeSubjects accepts a list of names, a comma-joined string or null.
func decodeSubjects(v json.RawMessage) ([]string, error) {
	var list []string
	if err := json.Unmarshal(v, &list); err == nil {
		return cleanSubjects(list), nil
	}

	var joined string
	if err := json.Unmarshal(v, &joined); err == nil {
		return cleanSubjects(strings.Split(joined, ",")), nil
	}

	return nil, apperror.NewBadRequest("hsc_subjects must be a list of subject names")
}

func cleanSubjects(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func formFromUser(u *user.User) map[string]string {
	form := map[string]string{
		"name":         user.StringValue(u.Name),
		"address":      user.StringValue(u.Address),
		"phone_number": user.StringValue(u.PhoneNumber),
		"bio":          user.StringValue(u.Bio),
	}
	if u.DateOfBirth != nil {
		form["date_of_birth"] = u.DateOfBirth.Format("2006-01-02")
	}
	return form
}

func formValues(f ProfileForm) map[string]string {
	return map[string]string{
		"name":          f.Name,
		"address":       f.Address,
		"phone_number":  f.PhoneNumber,
		"date_of_birth": f.DateOfBirth,
		"bio":           f.Bio,
	}
}
