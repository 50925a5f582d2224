package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"marketplace_console_go/middleware"
	"marketplace_console_go/models"
	"marketplace_console_go/services"

	"github.com/labstack/echo/v4"
)

// categoryEndpoint hides the level's model type from the HTTP layer
type categoryEndpoint interface {
	List(ctx context.Context, parentID string, activeOnly bool) (any, error)
	Get(ctx context.Context, id string) (any, error)
	Create(ctx context.Context, parentID string, fields services.CategoryFields) (any, error)
	Update(ctx context.Context, id string, fields services.CategoryFields) (any, error)
	Delete(ctx context.Context, id string) error
	ChildCount(ctx context.Context, id string) (int64, error)
}

type categoryAPI[T services.CategoryRecord] struct {
	m *services.CategoryManager[T]
}

func (a categoryAPI[T]) List(ctx context.Context, parentID string, activeOnly bool) (any, error) {
	if activeOnly {
		return a.m.ListActive(ctx, parentID)
	}
	return a.m.List(ctx, parentID)
}

func (a categoryAPI[T]) Get(ctx context.Context, id string) (any, error) {
	return a.m.Get(ctx, id)
}

func (a categoryAPI[T]) Create(ctx context.Context, parentID string, fields services.CategoryFields) (any, error) {
	return a.m.Create(ctx, parentID, fields)
}

func (a categoryAPI[T]) Update(ctx context.Context, id string, fields services.CategoryFields) (any, error) {
	updatedID, err := a.m.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	return a.m.Get(ctx, updatedID)
}

func (a categoryAPI[T]) Delete(ctx context.Context, id string) error {
	return a.m.Delete(ctx, id)
}

func (a categoryAPI[T]) ChildCount(ctx context.Context, id string) (int64, error) {
	return a.m.ChildCount(ctx, id)
}

// categoryForm is the create/update body, as JSON or as a (multipart) form
type categoryForm struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ParentID    string `json:"parent_id"`
	ImageURL    string `json:"image_url"`
	RemoveImage bool   `json:"remove_image"`
	IsActive    *bool  `json:"is_active"`
}

func (h *Handler) categoryEndpoint(c echo.Context) (services.CategoryLevel, categoryEndpoint, error) {
	level, err := services.ParseCategoryLevel(c.Param("level"))
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return level, h.categories[level], nil
}

// parseFormBool accepts checkbox and boolean spellings; blank means "not submitted"
func parseFormBool(value string) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return nil, nil
	case "true", "on", "1", "yes":
		v := true
		return &v, nil
	case "false", "off", "0", "no":
		v := false
		return &v, nil
	}
	return nil, fmt.Errorf("invalid boolean %q", value)
}

// bindCategoryForm reads the submitted category fields and the optional "image" file
func bindCategoryForm(c echo.Context) (string, services.CategoryFields, error) {
	var form categoryForm

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if err := json.NewDecoder(c.Request().Body).Decode(&form); err != nil {
			return "", services.CategoryFields{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body")
		}
	} else {
		form.Name = c.FormValue("name")
		form.Slug = c.FormValue("slug")
		form.Description = c.FormValue("description")
		form.ParentID = c.FormValue("parent_id")
		form.ImageURL = c.FormValue("image_url")

		remove, err := parseFormBool(c.FormValue("remove_image"))
		if err != nil {
			return "", services.CategoryFields{}, services.NewValidationError("remove_image", err.Error())
		}
		form.RemoveImage = remove != nil && *remove

		active, err := parseFormBool(c.FormValue("is_active"))
		if err != nil {
			return "", services.CategoryFields{}, services.NewValidationError("is_active", err.Error())
		}
		form.IsActive = active
	}

	fields := services.CategoryFields{
		Name:        form.Name,
		Slug:        form.Slug,
		Description: form.Description,
		IsActive:    form.IsActive,
		Image: services.ImageChoice{
			URL:    form.ImageURL,
			Remove: form.RemoveImage,
		},
	}

	fileHeader, err := c.FormFile("image")
	switch {
	case err == nil:
		file, err := readImageFile(fileHeader)
		if err != nil {
			return "", services.CategoryFields{}, err
		}
		fields.Image.File = file
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		return "", services.CategoryFields{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}

	return form.ParentID, fields, nil
}

// readImageFile loads an uploaded file, refusing obviously bad files before reading them
func readImageFile(fh *multipart.FileHeader) (*services.ImageFile, error) {
	contentType := fh.Header.Get(echo.HeaderContentType)
	if err := services.ValidateImage(contentType, fh.Size); err != nil {
		return nil, &services.ValidationError{Field: "image", Message: err.Error(), Err: err}
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, services.MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded image: %w", err)
	}
	return &services.ImageFile{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}

// ListCategories returns the categories of a level ordered by name
// GET /categories/:level?parent_id=&active=true
func (h *Handler) ListCategories(c echo.Context) error {
	_, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}

	activeOnly, err := parseFormBool(c.QueryParam("active"))
	if err != nil {
		return services.NewValidationError("active", err.Error())
	}

	rows, err := endpoint.List(c.Request().Context(), c.QueryParam("parent_id"), activeOnly != nil && *activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rows)
}

// GetCategory returns one category
// GET /categories/:level/:id
func (h *Handler) GetCategory(c echo.Context) error {
	_, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}
	row, err := endpoint.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, row)
}

// CreateCategory creates a category, uploading its image first when one is attached
// POST /categories/:level
func (h *Handler) CreateCategory(c echo.Context) error {
	level, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}

	parentID, fields, err := bindCategoryForm(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	row, err := endpoint.Create(ctx, parentID, fields)
	if err != nil {
		return err
	}

	id, name := categoryIdentity(row)
	h.audit.Log(ctx, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionCreate,
		ResourceType: string(level) + "_category",
		ResourceID:   id,
		ResourceName: name,
		Description:  fmt.Sprintf("Created %s category %q", level, name),
		NewValues:    row,
	})
	return c.JSON(http.StatusCreated, row)
}

// UpdateCategory applies a form to an existing category
// PUT /categories/:level/:id
func (h *Handler) UpdateCategory(c echo.Context) error {
	level, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}

	_, fields, err := bindCategoryForm(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := endpoint.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	row, err := endpoint.Update(ctx, c.Param("id"), fields)
	if err != nil {
		return err
	}

	id, name := categoryIdentity(row)
	h.audit.Log(ctx, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionUpdate,
		ResourceType: string(level) + "_category",
		ResourceID:   id,
		ResourceName: name,
		Description:  fmt.Sprintf("Updated %s category %q", level, name),
		OldValues:    before,
		NewValues:    row,
	})
	return c.JSON(http.StatusOK, row)
}

// DeleteCategory removes a category that has no children
// DELETE /categories/:level/:id
func (h *Handler) DeleteCategory(c echo.Context) error {
	level, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	before, err := endpoint.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	if err := endpoint.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	id, name := categoryIdentity(before)
	h.audit.Log(ctx, middleware.GetAuditContext(c), services.AuditEntry{
		Action:       models.AuditActionDelete,
		ResourceType: string(level) + "_category",
		ResourceID:   id,
		ResourceName: name,
		Description:  fmt.Sprintf("Deleted %s category %q", level, name),
		OldValues:    before,
	})
	return c.NoContent(http.StatusNoContent)
}

// CountCategoryChildren returns how many direct children block a delete
// GET /categories/:level/:id/children/count
func (h *Handler) CountCategoryChildren(c echo.Context) error {
	_, endpoint, err := h.categoryEndpoint(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := endpoint.Get(ctx, c.Param("id")); err != nil {
		return err
	}
	count, err := endpoint.ChildCount(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": count})
}

// UploadCategoryImage stores one base64 image and returns its public URL
// POST /category-image-upload
func (h *Handler) UploadCategoryImage(c echo.Context) error {
	var req services.ImageUploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.uploads.UploadCategoryImage(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func categoryIdentity(row any) (id, name string) {
	switch r := row.(type) {
	case *models.HeadCategory:
		return r.ID, r.Name
	case *models.SubCategory:
		return r.ID, r.Name
	case *models.MicroCategory:
		return r.ID, r.Name
	}
	return "", ""
}
