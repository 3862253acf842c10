package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/keramy/formulapmv2-sub007/internal/pm/service"
)

// ProjectHandler projects and team assignments.
// Out-of-scope projects respond 404 rather than 403 so their existence
// is not disclosed.
type ProjectHandler struct {
	svc    *service.ProjectService
	access *service.AccessService
}

func NewProjectHandler(svc *service.ProjectService, access *service.AccessService) *ProjectHandler {
	return &ProjectHandler{svc: svc, access: access}
}

// ListProjects
// GET /api/v1/projects?status=xxx&search=xxx
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	ids, restrict := h.access.ListAccessibleProjects(c.Request.Context(), GetUserID(c), GetUserRole(c))
	items, total, err := h.svc.ListProjects(c.Request.Context(), page, pageSize, filters, ids, restrict)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, NewListResponse(items, page, pageSize, total))
}

// GetProject
// GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id := c.Param("id")
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), id) {
		NotFound(c, "resource not found")
		return
	}

	project, err := h.svc.GetProject(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// CreateProject
// POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	if !h.access.Can(GetUserRole(c), service.CapProjectCreate) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	project, err := h.svc.CreateProject(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, project)
}

// UpdateProject
// PUT /api/v1/projects/:id
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	id := c.Param("id")
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), id) {
		NotFound(c, "resource not found")
		return
	}
	if !h.access.Can(GetUserRole(c), service.CapProjectUpdate) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	project, err := h.svc.UpdateProject(c.Request.Context(), id, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, project)
}

// ListAssignments
// GET /api/v1/projects/:id/assignments
func (h *ProjectHandler) ListAssignments(c *gin.Context) {
	id := c.Param("id")
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), id) {
		NotFound(c, "resource not found")
		return
	}

	items, err := h.svc.ListAssignments(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}

// AssignUser
// POST /api/v1/projects/:id/assignments
func (h *ProjectHandler) AssignUser(c *gin.Context) {
	id := c.Param("id")
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), id) {
		NotFound(c, "resource not found")
		return
	}
	if !h.access.Can(GetUserRole(c), service.CapProjectAssign) {
		Forbidden(c, "operation not permitted")
		return
	}

	var req service.AssignUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	assignment, err := h.svc.AssignUser(c.Request.Context(), id, GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, assignment)
}

// RemoveUser
// DELETE /api/v1/projects/:id/assignments/:userId
func (h *ProjectHandler) RemoveUser(c *gin.Context) {
	id := c.Param("id")
	if !h.access.CanAccessProject(c.Request.Context(), GetUserID(c), GetUserRole(c), id) {
		NotFound(c, "resource not found")
		return
	}
	if !h.access.Can(GetUserRole(c), service.CapProjectAssign) {
		Forbidden(c, "operation not permitted")
		return
	}

	if err := h.svc.RemoveUser(c.Request.Context(), id, c.Param("userId")); err != nil {
		RespondError(c, err)
		return
	}
	Success(c, gin.H{"removed": true})
}
