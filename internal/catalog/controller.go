package catalog

import (
	"net/http"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	catalogService CatalogServiceInterface
}

func NewCatalogController(catalogService CatalogServiceInterface) *CatalogController {
	return &CatalogController{catalogService: catalogService}
}

type saveSubjectsRequest struct {
	Subjects []string `json:"subjects"`
}

// MySubjects renders the catalog page, or JSON when the client asks for it.
func (cc *CatalogController) MySubjects(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		web.RespondError(c, apperror.NewAuthError("Please log in to access this page."))
		return
	}

	listing, err := cc.catalogService.ListSubjects(c.Request.Context(), userID)

	switch c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) {
	case gin.MIMEJSON:
		if err != nil {
			web.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, listing)
	default:
		if err != nil {
			data := web.NewPage(c, "Error")
			data.Data["message"] = "We could not load your subjects. Please try again."
			web.Render(c, http.StatusInternalServerError, web.PageError, data)
			return
		}
		data := web.NewPage(c, "My Subjects")
		data.Data["subjects"] = listing.Subjects
		data.Data["selected"] = listing.Selected
		data.Data["show_subject_selector"] = listing.ShowSubjectSelector
		web.Render(c, http.StatusOK, web.PageMySubjects, data)
	}
}

// SaveSubjects stores the selection posted by the first-run selector.
func (cc *CatalogController) SaveSubjects(c *gin.Context) {
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		web.RespondError(c, apperror.NewAuthError("Please log in to access this page."))
		return
	}

	var req saveSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.RespondError(c, apperror.NewBadRequest(MsgNoSubjects))
		return
	}

	saved, err := cc.catalogService.SaveSubjectSelection(c.Request.Context(), userID, req.Subjects)
	if err != nil {
		web.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Subjects saved successfully",
		"subjects": saved,
	})
}
