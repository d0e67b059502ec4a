package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"ai_recommendation/config"
	_ "ai_recommendation/docs" // 导入 swagger 文档
	"ai_recommendation/logger"
	"ai_recommendation/models"
	"ai_recommendation/services"
	"ai_recommendation/utils"
)

// Pinger 健康检查依赖（数据库、Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler HTTP 接口
type Handler struct {
	cfg    *config.Config
	svc    *services.RecommendationService
	checks map[string]Pinger
}

// NewHandler checks 为健康检查项，名称 -> 依赖
func NewHandler(cfg *config.Config, svc *services.RecommendationService, checks map[string]Pinger) *Handler {
	return &Handler{
		cfg:    cfg,
		svc:    svc,
		checks: checks,
	}
}

// Health godoc
// @Summary 健康检查
// @Description 检查数据库和缓存连接
// @Tags 系统
// @Produce json
// @Success 200 {object} models.APIResponse "成功"
// @Failure 503 {object} models.APIResponse "依赖不可用"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		utils.WriteErrorResponse(w, http.StatusServiceUnavailable, models.CodeDatabaseError, status)
		return
	}
	utils.WriteSuccessResponse(w, status)
}

// GetRecommendation godoc
// @Summary 获取用户推荐帖子
// @Description 混合推荐（协同过滤 + 内容推荐）。默认优先返回缓存结果，refresh=true 时重新计算
// @Tags 推荐内容
// @Produce json
// @Param userID path int true "用户ID"
// @Param limit query int false "推荐数量（1-100）"
// @Param refresh query bool false "跳过缓存"
// @Success 200 {object} models.RecommendationResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/recommendation/{userID} [get]
func (h *Handler) GetRecommendation(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	rc := h.cfg.Recommendation
	limit, err := utils.ParseLimit(r.URL.Query().Get("limit"), rc.DefaultLimit, rc.MaxLimit)
	if err != nil {
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
		return
	}

	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		refresh, err = strconv.ParseBool(raw)
		if err != nil {
			utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, "refresh must be a boolean", map[string]interface{}{})
			return
		}
	}

	result, err := h.svc.Get(r.Context(), userID, limit, refresh)
	if err != nil {
		handleServiceError(w, err, models.CodeRecommendGenError)
		return
	}
	utils.WriteSuccessResponse(w, result)
}

// GetProfile godoc
// @Summary 获取用户偏好画像
// @Description 根据最近的行为日志和主动选择的分类计算偏好画像
// @Tags 用户画像
// @Produce json
// @Param userID path int true "用户ID"
// @Success 200 {object} models.ProfileResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "服务器错误"
// @Router /api/profile/{userID} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, models.CodeProfileGenError)
		return
	}
	utils.WriteSuccessResponse(w, profile)
}

// InferCategory godoc
// @Summary 文本分类推断
// @Description 按关键词词典推断文本所属分类
// @Tags 分类
// @Accept json
// @Produce json
// @Param request body models.CategoryInferRequest true "待推断文本"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Router /api/category/infer [post]
func (h *Handler) InferCategory(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryInferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, "invalid request body", map[string]interface{}{})
		return
	}
	if req.Text == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, models.CodeMissingParams, map[string]interface{}{})
		return
	}
	utils.WriteSuccessResponse(w, h.svc.InferCategory(req.Text))
}

// RegisterRoutes 注册所有路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"), // Swagger JSON 的 URL
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Get("/api/recommendation/{userID}", h.GetRecommendation)
	r.Get("/api/profile/{userID}", h.GetProfile)
	r.Post("/api/category/infer", h.InferCategory)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := utils.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
		return 0, false
	}
	return userID, true
}

// handleServiceError 按错误类型映射响应码
func handleServiceError(w http.ResponseWriter, err error, fallbackCode int) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, err.Error(), map[string]interface{}{})
	case errors.Is(err, services.ErrStoreUnavailable):
		logger.Error("数据库访问失败", "error", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, models.CodeDatabaseError, map[string]interface{}{})
	default:
		logger.Error("请求处理失败", "error", err)
		utils.WriteCustomErrorResponse(w, http.StatusInternalServerError, fallbackCode, err.Error(), map[string]interface{}{})
	}
}
