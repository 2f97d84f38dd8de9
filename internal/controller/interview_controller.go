package controller

import (
	"errors"
	"interview_trainer_backend/internal/service"
	"interview_trainer_backend/internal/util"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

type InterviewController struct {
	InterviewService *service.InterviewService
	AIService        *service.AIService
}

func NewInterviewController(interviewService *service.InterviewService, aiService *service.AIService) *InterviewController {
	return &InterviewController{
		InterviewService: interviewService,
		AIService:        aiService,
	}
}

// @Summary 开始面试
// @Description 创建新面试会话并摄入随附的简历文件
// @Tags 面试
// @Accept multipart/form-data
// @Produce json
// @Param userId formData int true "用户ID"
// @Param files formData file false "简历文件（pdf/docx/txt，可多个）"
// @Success 200 {object} service.StartResult
// @Router /api/upload [post]
func (c *InterviewController) Upload(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.PostForm("userId"))
	if userID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	// 没带文件也允许开场（无简历面试）
	var files []*multipart.FileHeader
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	result, err := c.InterviewService.Start(ctx.Request.Context(), userID, files)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

type jobRequest struct {
	Job    string `json:"job"`
	UserID uint   `json:"userId"`
}

// @Summary 设置岗位描述
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body jobRequest true "岗位描述"
// @Success 200 {object} map[string]string
// @Router /api/job [post]
func (c *InterviewController) SetJob(ctx *gin.Context) {
	var req jobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	if err := c.InterviewService.SetJob(req.UserID, req.Job); err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reply": "Job set."})
}

type settingsRequest struct {
	Difficulty string `json:"difficulty"`
	UserID     uint   `json:"userId"`
}

// @Summary 设置面试难度
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body settingsRequest true "难度档位"
// @Success 200 {object} map[string]string
// @Router /api/settings [post]
func (c *InterviewController) SetSettings(ctx *gin.Context) {
	var req settingsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	}

	if err := c.InterviewService.SetDifficulty(req.UserID, req.Difficulty); err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reply": "Settings saved"})
}

type personaRequest struct {
	Gender      string `json:"gender"`
	Personality string `json:"personality"`
	Tone        string `json:"tone"`
	UserID      uint   `json:"userId"`
}

// @Summary 设置面试官人设
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body personaRequest true "人设"
// @Success 200 {object} map[string]string
// @Router /api/persona [post]
func (c *InterviewController) SetPersona(ctx *gin.Context) {
	var req personaRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	if err := c.InterviewService.SetPersona(req.UserID, req.Gender, req.Personality, req.Tone); err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reply": "Persona set"})
}

type metricsRequest struct {
	UserID     uint   `json:"userId"`
	EyeContact string `json:"eye_contact"`
	Posture    string `json:"posture_alert"`
	Emotion    string `json:"emotion"`
}

// @Summary 上报行为快照
// @Description 摄像头分析出的眼神、坐姿、情绪标签，原样入库
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body metricsRequest true "行为标签"
// @Success 200 {object} service.MetricResult
// @Router /api/metrics [post]
func (c *InterviewController) RecordMetrics(ctx *gin.Context) {
	var req metricsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	result, err := c.InterviewService.RecordMetric(req.UserID, req.EyeContact, req.Posture, req.Emotion)
	if err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  uint   `json:"userId"`
}

// @Summary 面试问答
// @Description 提交候选人回答，返回评分与下一问
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body chatRequest true "候选人回答"
// @Success 200 {object} service.TurnResult
// @Router /api/chat [post]
func (c *InterviewController) Chat(ctx *gin.Context) {
	var req chatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.Message == "" {
		util.BadRequest(ctx, "Message required")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	result, err := c.InterviewService.AdvanceTurn(ctx.Request.Context(), req.UserID, req.Message)
	if err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

type reportRequest struct {
	UserID uint `json:"userId"`
}

// @Summary 结束面试并生成报告
// @Tags 面试
// @Accept json
// @Produce json
// @Param request body reportRequest true "用户ID"
// @Success 200 {object} service.ReportResult
// @Router /api/report [post]
func (c *InterviewController) Report(ctx *gin.Context) {
	var req reportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, "Invalid request")
		return
	}
	if req.UserID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	result, err := c.InterviewService.Finalize(ctx.Request.Context(), req.UserID)
	if err != nil {
		c.respondServiceError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// @Summary 面试历史
// @Tags 面试
// @Produce json
// @Param userId path int true "用户ID"
// @Success 200 {object} service.HistoryResult
// @Router /api/history/{userId} [get]
func (c *InterviewController) History(ctx *gin.Context) {
	userID := util.MustParseUint(ctx.Param("userId"))
	if userID == 0 {
		util.BadRequest(ctx, "Invalid user id")
		return
	}

	result, err := c.InterviewService.History(userID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// @Summary 列出可用模型
// @Description 诊断接口，列出当前 API Key 可用的 Gemini 模型
// @Tags 系统
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/list-models [get]
func (c *InterviewController) ListModels(ctx *gin.Context) {
	models, err := c.AIService.ListModels(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"models": models})
}

func (c *InterviewController) respondServiceError(ctx *gin.Context, err error) {
	if errors.Is(err, util.ErrNoActiveInterview) {
		util.NotFound(ctx, "No active interview")
		return
	}
	util.LogInternalError(ctx, err)
}
