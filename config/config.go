package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port" validate:"gte=0,lte=65535"`
		Addr string `yaml:"-"` // 不从配置文件读取，而是在加载后计算
	} `yaml:"server"`
	Log struct {
		Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
		Format   string `yaml:"format" validate:"omitempty,oneof=text json"`
		Output   string `yaml:"output" validate:"omitempty,oneof=stdout stderr file both"`
		FilePath string `yaml:"file_path" validate:"required_if=Output file,required_if=Output both"`
	} `yaml:"log"`

	DB struct {
		Driver          string `yaml:"driver" validate:"oneof=mysql sqlite"`
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		Username        string `yaml:"username"`
		Password        string `yaml:"password"`
		Database        string `yaml:"database"`
		Charset         string `yaml:"charset"`
		Path            string `yaml:"path"`                  // sqlite 数据库文件
		DSN             string `yaml:"-" validate:"required"` // 不从配置文件读取，而是在加载后计算
		MaxOpenConns    int    `yaml:"max_open_conns"`        // 最大打开连接数
		MaxIdleConns    int    `yaml:"max_idle_conns"`        // 最大空闲连接数
		ConnMaxLifetime int    `yaml:"conn_max_lifetime"`     // 连接最大生命周期（分钟）
	} `yaml:"database"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" validate:"required_if=Enabled true"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLSec   int    `yaml:"ttl_sec" validate:"gte=0"` // 推荐结果缓存时间
	} `yaml:"redis"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	CircuitBreaker struct {
		MaxRequests      uint32 `yaml:"max_requests"`
		IntervalSec      int    `yaml:"interval_sec"`
		TimeoutSec       int    `yaml:"timeout_sec"`
		FailureThreshold uint32 `yaml:"failure_threshold"` // 连续失败次数达到后熔断
	} `yaml:"circuit_breaker"`
	Timeouts struct {
		RequestSec  int `yaml:"request_sec"`  // 请求超时，单位：秒
		ResponseSec int `yaml:"response_sec"` // 响应超时，单位：秒
		IdleSec     int `yaml:"idle_sec"`     // 空闲超时，单位：秒
	} `yaml:"timeouts"`
	Scheduler struct {
		Enabled          bool `yaml:"enabled"`
		CheckIntervalSec int  `yaml:"check_interval_sec"` // 调度器检查间隔（秒）
		WarmIntervalSec  int  `yaml:"warm_interval_sec"`  // 缓存预热间隔（秒）
		LookbackDays     int  `yaml:"lookback_days"`      // 活跃用户回溯天数
		Concurrency      int  `yaml:"concurrency"`        // 预热并发数
	} `yaml:"scheduler"`
	Categories CategoriesConfig `yaml:"categories"`
}

// RecommendationConfig 推荐算法参数
type RecommendationConfig struct {
	ActivityDays int `yaml:"activity_days" validate:"gt=0"` // 偏好分析窗口
	MatrixDays   int `yaml:"matrix_days" validate:"gt=0"`   // 协同过滤矩阵窗口
	ExcludeDays  int `yaml:"exclude_days" validate:"gt=0"`  // 已看过帖子排除窗口
	DefaultLimit int `yaml:"default_limit" validate:"gt=0,ltefield=MaxLimit"`
	MaxLimit     int `yaml:"max_limit" validate:"gt=0"`

	Similarity    string  `yaml:"similarity" validate:"oneof=cosine pearson"`
	UserNeighbors int     `yaml:"user_neighbors" validate:"gt=0"`
	ItemNeighbors int     `yaml:"item_neighbors" validate:"gt=0"`
	MinSimilarity float64 `yaml:"min_similarity" validate:"gte=0,lte=1"`

	UserBasedWeight    float64 `yaml:"user_based_weight" validate:"gte=0"`
	ItemBasedWeight    float64 `yaml:"item_based_weight" validate:"gte=0"`
	CFBlendWeight      float64 `yaml:"cf_blend_weight" validate:"gte=0"`
	ContentBlendWeight float64 `yaml:"content_blend_weight" validate:"gte=0"`

	SimilarityWeight  float64 `yaml:"similarity_weight"`
	FullMatchBonus    float64 `yaml:"full_match_bonus"`    // 分类字段与推断一致
	InferMatchBonus   float64 `yaml:"infer_match_bonus"`   // 仅推断命中
	KeywordMatchBonus float64 `yaml:"keyword_match_bonus"` // 仅分类字段或关键词命中
	MismatchPenalty   float64 `yaml:"mismatch_penalty"`
	LikeWeight        float64 `yaml:"like_weight"`
	ViewWeight        float64 `yaml:"view_weight"`
	FreshBonus        float64 `yaml:"fresh_bonus"`
	FreshDays         int     `yaml:"fresh_days"`
	SharedTagBonus    float64 `yaml:"shared_tag_bonus"`

	SearchKeywordFactor      float64 `yaml:"search_keyword_factor"`
	ExplicitPreferenceFactor float64 `yaml:"explicit_preference_factor"`
	TopCategories            int     `yaml:"top_categories" validate:"gt=0"`
	TopTags                  int     `yaml:"top_tags" validate:"gt=0"`
	CandidatePoolSize        int     `yaml:"candidate_pool_size" validate:"gt=0"` // 内容路径候选帖子数

	Seed int64 `yaml:"seed"` // 0 表示按时间随机
}

// CategoriesConfig 分类词典覆盖，留空使用内置词典
type CategoriesConfig struct {
	Priority []string            `yaml:"priority"`
	Keywords map[string][]string `yaml:"keywords"`
	Synonyms map[string]string   `yaml:"synonyms"`
	TechTags []string            `yaml:"tech_tags"`
}

// Load 加载 .env、config.yaml 和环境变量，并校验
func Load() (*Config, error) {
	// 首先尝试加载.env文件中的环境变量
	_ = godotenv.Load() // 忽略错误，如果.env文件不存在，继续使用系统环境变量

	path := getenv("CONFIG_FILE", defaultConfigFile)
	cfg, err := LoadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		// 如果config.yaml不存在，则完全从环境变量加载配置
		log.Printf("%s not found, loading configuration from environment", path)
		cfg = newConfig()
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile 读取 yaml 文件，不处理环境变量。推荐参数先填默认值再解码，文件中显式写 0 会保留
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Default 全部使用默认值的配置
func Default() *Config {
	cfg := newConfig()
	cfg.ApplyDefaults()
	return cfg
}

func newConfig() *Config {
	return &Config{Recommendation: DefaultRecommendationConfig()}
}

// DefaultRecommendationConfig 推荐参数默认值。权重、加分和阈值允许配置为 0，不在 ApplyDefaults 中补齐
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		Similarity:               "cosine",
		MinSimilarity:            0.1,
		UserBasedWeight:          0.6,
		ItemBasedWeight:          0.4,
		CFBlendWeight:            0.6,
		ContentBlendWeight:       0.4,
		SimilarityWeight:         0.8,
		FullMatchBonus:           600,
		InferMatchBonus:          500,
		KeywordMatchBonus:        400,
		MismatchPenalty:          -1000,
		LikeWeight:               2,
		ViewWeight:               0.1,
		FreshBonus:               10,
		SharedTagBonus:           10,
		SearchKeywordFactor:      0.8,
		ExplicitPreferenceFactor: 5.0,
	}
}

func (c *Config) applyEnv() {
	setString(&c.DB.Driver, "DB_DRIVER")
	setString(&c.DB.Host, "DB_HOST")
	setInt(&c.DB.Port, "DB_PORT")
	setString(&c.DB.Username, "DB_USER")
	setString(&c.DB.Password, "DB_PASSWORD")
	setString(&c.DB.Database, "DB_NAME")
	setString(&c.DB.Path, "DB_PATH")
	setString(&c.DB.DSN, "DB_DSN")

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
		c.Redis.Enabled = true
	}
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Log.Level, "LOG_LEVEL")
	setInt(&c.Server.Port, "SERVER_PORT")
	setInt(&c.Recommendation.ActivityDays, "RECOMMENDATION_DAYS")
	setInt(&c.Recommendation.DefaultLimit, "DEFAULT_RECOMMENDATION_LIMIT")
}

// ApplyDefaults 为未配置的字段填充默认值
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	c.Server.Addr = fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stderr" // stdout 留给 CLI 的 JSON 输出
	}

	if c.DB.Driver == "" {
		c.DB.Driver = "mysql"
	}
	if c.DB.Charset == "" {
		c.DB.Charset = "utf8mb4"
	}
	if c.DB.Host == "" {
		c.DB.Host = "localhost"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.DSN == "" {
		c.DB.DSN = c.buildDSN()
	}

	if c.Redis.TTLSec == 0 {
		c.Redis.TTLSec = 300
	}

	r := &c.Recommendation
	setDefaultInt(&r.ActivityDays, 30)
	setDefaultInt(&r.MatrixDays, 90)
	setDefaultInt(&r.ExcludeDays, 30)
	setDefaultInt(&r.MaxLimit, 100)
	setDefaultInt(&r.DefaultLimit, 20)
	if r.Similarity == "" {
		r.Similarity = "cosine"
	}
	setDefaultInt(&r.UserNeighbors, 50)
	setDefaultInt(&r.ItemNeighbors, 20)
	setDefaultInt(&r.FreshDays, 7)
	setDefaultInt(&r.TopCategories, 10)
	setDefaultInt(&r.TopTags, 20)
	setDefaultInt(&r.CandidatePoolSize, 200)

	cb := &c.CircuitBreaker
	if cb.MaxRequests == 0 {
		cb.MaxRequests = 1
	}
	setDefaultInt(&cb.IntervalSec, 60)
	setDefaultInt(&cb.TimeoutSec, 30)
	if cb.FailureThreshold == 0 {
		cb.FailureThreshold = 5
	}

	setDefaultInt(&c.Timeouts.RequestSec, 30)
	setDefaultInt(&c.Timeouts.ResponseSec, 30)
	setDefaultInt(&c.Timeouts.IdleSec, 120)

	s := &c.Scheduler
	setDefaultInt(&s.CheckIntervalSec, 60)
	setDefaultInt(&s.WarmIntervalSec, 1800)
	setDefaultInt(&s.LookbackDays, 1)
	setDefaultInt(&s.Concurrency, 10)
}

// Validate 使用 validator 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) buildDSN() string {
	if c.DB.Driver == "sqlite" {
		if c.DB.Path == "" {
			return "file:recommendation.db?_pragma=busy_timeout(5000)"
		}
		return c.DB.Path
	}

	if c.DB.Database == "" {
		return ""
	}
	// 推荐计算依赖 created_at 的时间比较，始终开启 parseTime
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
		c.DB.Username,
		c.DB.Password,
		c.DB.Host,
		c.DB.Port,
		c.DB.Database,
		c.DB.Charset)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring invalid %s=%q: %v", key, v, err)
		return
	}
	*dst = n
}

func setDefaultInt(dst *int, def int) {
	if *dst == 0 {
		*dst = def
	}
}

