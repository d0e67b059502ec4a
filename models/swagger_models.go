package models

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// RecommendationResponse 推荐结果响应
type RecommendationResponse struct {
	Code    int                  `json:"code" example:"0"`
	Message string               `json:"message" example:"success"`
	Data    RecommendationResult `json:"data"`
}

// ProfileResponse 用户偏好画像响应
type ProfileResponse struct {
	Code    int               `json:"code" example:"0"`
	Message string            `json:"message" example:"success"`
	Data    PreferenceProfile `json:"data"`
}

// CategoryInferRequest 分类推断请求体
type CategoryInferRequest struct {
	Text string `json:"text" example:"스프링 부트로 백엔드 API 만들기"`
}
