package docs

// @title 帖子推荐服务 API
// @version 1.0
// @description 基于行为日志与主动偏好的混合帖子推荐服务（协同过滤 + 内容推荐）
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /
// @schemes http https
