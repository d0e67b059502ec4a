package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai_recommendation/config"
	"ai_recommendation/logger"
	"ai_recommendation/services"
)

// 将秒数转换为时间间隔，非正数使用默认值
func secondsToDuration(seconds, def int) time.Duration {
	if seconds <= 0 {
		seconds = def
	}
	return time.Duration(seconds) * time.Second
}

// Warmer 缓存预热
type Warmer interface {
	WarmCache(ctx context.Context, userIDs []int64, limit, concurrency int) services.WarmStats
}

// 任务类型
type TaskType int

const (
	TaskCacheWarm TaskType = iota
)

// 任务状态
type TaskStatus struct {
	LastRun     time.Time
	NextRun     time.Time
	IsRunning   bool
	Description string
	LastStats   services.WarmStats
}

// 任务调度器
type Scheduler struct {
	cfg         *config.Config
	users       services.ActiveUserLister
	warmer      Warmer
	concurrency int
	interval    time.Duration
	tasks       map[TaskType]*TaskStatus
	mutex       sync.Mutex
	wg          sync.WaitGroup
}

// 创建新的调度器
func NewScheduler(cfg *config.Config, users services.ActiveUserLister, warmer Warmer) *Scheduler {
	concurrency := cfg.Scheduler.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	return &Scheduler{
		cfg:         cfg,
		users:       users,
		warmer:      warmer,
		concurrency: concurrency,
		interval:    secondsToDuration(cfg.Scheduler.WarmIntervalSec, 1800),
		tasks:       make(map[TaskType]*TaskStatus),
	}
}

// Start 启动调度器，ctx 取消后主循环退出
func (s *Scheduler) Start(ctx context.Context) {
	s.initTasks(time.Now())

	checkInterval := secondsToDuration(s.cfg.Scheduler.CheckIntervalSec, 60)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, checkInterval)
	}()

	logger.Info("调度器已启动", "check_interval_sec", int(checkInterval.Seconds()))
}

// Wait 等待主循环和正在运行的任务结束
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Status 返回任务状态快照
func (s *Scheduler) Status(taskType TaskType) (TaskStatus, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	status, ok := s.tasks[taskType]
	if !ok {
		return TaskStatus{}, false
	}
	return *status, true
}

// 初始化任务
func (s *Scheduler) initTasks(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tasks[TaskCacheWarm] = &TaskStatus{
		LastRun:     now.Add(-s.interval),
		NextRun:     now.Add(s.interval),
		Description: fmt.Sprintf("推荐缓存预热 (每%d秒)", int(s.interval.Seconds())),
	}
	logger.Info("定时任务初始化完成", "task_count", len(s.tasks), "warm_interval_sec", int(s.interval.Seconds()))
}

// 主循环
func (s *Scheduler) run(ctx context.Context, checkInterval time.Duration) {
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("调度器已停止")
			return
		case now := <-ticker.C:
			s.checkTasks(ctx, now)
		}
	}
}

// 检查任务
func (s *Scheduler) checkTasks(ctx context.Context, now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for taskType, status := range s.tasks {
		// 如果任务正在运行，跳过
		if status.IsRunning {
			continue
		}

		// 如果任务的NextRun为零值，跳过（表示不需要定期调度）
		if status.NextRun.IsZero() {
			continue
		}

		// 如果到达或超过下次运行时间，执行任务
		if !now.Before(status.NextRun) {
			status.IsRunning = true
			s.wg.Add(1)
			go func(taskType TaskType) {
				defer s.wg.Done()
				s.runTask(ctx, taskType, now)
			}(taskType)
		}
	}
}

// 运行任务
func (s *Scheduler) runTask(ctx context.Context, taskType TaskType, now time.Time) {
	var stats services.WarmStats
	defer func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		status := s.tasks[taskType]
		status.IsRunning = false
		status.LastRun = now
		status.LastStats = stats
		status.NextRun = now.Add(s.interval)

		logger.Info("任务执行完成", "task", status.Description, "next_run", status.NextRun.Format("2006-01-02 15:04:05"))
	}()

	switch taskType {
	case TaskCacheWarm:
		userIDs, err := s.users.ListActiveUsers(ctx, s.cfg.Scheduler.LookbackDays)
		if err != nil {
			logger.Error("获取活跃用户列表失败", "error", err)
			return
		}

		logger.Info("开始预热推荐缓存", "users", len(userIDs), "concurrency", s.concurrency)
		stats = s.warmer.WarmCache(ctx, userIDs, s.cfg.Recommendation.DefaultLimit, s.concurrency)
	}
}
