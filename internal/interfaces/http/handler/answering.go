package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appanswering "github.com/skillbase/backend/internal/application/answering"
	"github.com/skillbase/backend/internal/domain/answering"
	"github.com/skillbase/backend/internal/domain/shared"
	"github.com/skillbase/backend/internal/interfaces/http/dto"
)

// AnsweringHandler serves the batch answering pipeline endpoints
type AnsweringHandler struct {
	BaseHandler
	dispatch *appanswering.DispatchService
	status   *appanswering.StatusService
	review   *appanswering.ReviewService
}

// NewAnsweringHandler creates a new answering handler
func NewAnsweringHandler(
	dispatch *appanswering.DispatchService,
	status *appanswering.StatusService,
	review *appanswering.ReviewService,
) *AnsweringHandler {
	return &AnsweringHandler{
		dispatch: dispatch,
		status:   status,
		review:   review,
	}
}

// RegisterRoutes registers the answering routes
func (h *AnsweringHandler) RegisterRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/projects")
	{
		projects.POST("/:id/dispatch", h.Dispatch)
		projects.GET("/:id/status", h.GetStatus)
		projects.GET("/:id/rows", h.ListRows)
		projects.GET("/:id/history", h.ListHistory)
	}

	rows := rg.Group("/rows")
	{
		rows.PATCH("/:id/review", h.Review)
	}
}

// Dispatch launches a processing run for a project
func (h *AnsweringHandler) Dispatch(c *gin.Context) {
	projectID, ok := h.uriID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.DispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	skillIDs, err := req.SkillUUIDs()
	if err != nil {
		h.BadRequest(c, "Invalid skill id")
		return
	}

	result, err := h.dispatch.Dispatch(c.Request.Context(), appanswering.DispatchInput{
		ProjectID:   projectID,
		RequestedBy: userID,
		Mode:        appanswering.SelectionMode(req.Mode),
		SkillIDs:    skillIDs,
		BatchSize:   req.BatchSize,
		ModelSpeed:  answering.ModelSpeed(req.ModelSpeed),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, dto.DispatchResponse{
		Mode:           result.Mode,
		JobID:          result.JobID,
		TotalQuestions: result.TotalQuestions,
		BatchSize:      result.BatchSize,
		SkillCount:     result.SkillCount,
		SkillIDs:       uuidsToStrings(result.SkillIDs),
	})
}

// GetStatus returns the project status and aggregated row counts
func (h *AnsweringHandler) GetStatus(c *gin.Context) {
	projectID, ok := h.uriID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	result, err := h.status.GetStatus(c.Request.Context(), userID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.ProjectStatusResponse{
		ProjectID: result.ProjectID.String(),
		Status:    string(result.Status),
		RowStats: dto.RowStatsResponse{
			Pending:    result.RowStats.Pending,
			Processing: result.RowStats.Processing,
			Completed:  result.RowStats.Completed,
			Error:      result.RowStats.Error,
			Total:      result.RowStats.Total(),
		},
	})
}

// ListRows returns a page of the project's rows
func (h *AnsweringHandler) ListRows(c *gin.Context) {
	projectID, ok := h.uriID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.ValidationError(c, err)
		return
	}

	page, err := h.status.ListRows(c.Request.Context(), userID, projectID, filterFromList(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	rows := make([]dto.RowResponse, len(page.Items))
	for i, row := range page.Items {
		rows[i] = dto.RowFromDomain(row)
	}
	h.SuccessWithMeta(c, rows, page.Total, page.Page, page.PageSize)
}

// ListHistory returns a page of the project's answer history log
func (h *AnsweringHandler) ListHistory(c *gin.Context) {
	projectID, ok := h.uriID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.ValidationError(c, err)
		return
	}

	page, err := h.status.ListHistory(c.Request.Context(), userID, projectID, filterFromList(listReq))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	records := make([]dto.AnswerHistoryResponse, len(page.Items))
	for i, record := range page.Items {
		records[i] = dto.AnswerHistoryFromDomain(record)
	}
	h.SuccessWithMeta(c, records, page.Total, page.Page, page.PageSize)
}

// Review applies a review or flag transition to a row
func (h *AnsweringHandler) Review(c *gin.Context) {
	rowID, ok := h.uriID(c)
	if !ok {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	row, err := h.review.Apply(c.Request.Context(), appanswering.ReviewInput{
		RowID:           rowID,
		ActorID:         userID,
		Action:          appanswering.ReviewAction(req.Action),
		Note:            req.Note,
		CorrectedAnswer: req.CorrectedAnswer,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.RowFromDomain(row))
}

// uriID binds and parses the :id path parameter
func (h *AnsweringHandler) uriID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func filterFromList(req dto.ListRequest) shared.Filter {
	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	return filter
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
