package models

import (
	"bytes"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// ProfileMode 画像模式
type ProfileMode string

const (
	ModeFixedProfile  ProfileMode = "FIXED_PROFILE"
	ModeActivityBased ProfileMode = "ACTIVITY_BASED"
)

// WeightedItem 带权重的分类或标签
type WeightedItem struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// WeightedList 按权重降序排列的列表，JSON 序列化为有序对象 {"name": weight}
type WeightedList []WeightedItem

// NewWeightedList 由分数表构建列表：去掉非正权重，按权重降序（同分按名称升序），截取前 n 个
func NewWeightedList(scores map[string]float64, n int) WeightedList {
	list := make(WeightedList, 0, len(scores))
	for name, w := range scores {
		if name == "" || w <= 0 {
			continue
		}
		list = append(list, WeightedItem{Name: name, Weight: w})
	}
	list.sort()
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

func (l WeightedList) sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Weight != l[j].Weight {
			return l[i].Weight > l[j].Weight
		}
		return l[i].Name < l[j].Name
	})
}

// Names 按顺序返回名称
func (l WeightedList) Names() []string {
	names := make([]string, len(l))
	for i, item := range l {
		names[i] = item.Name
	}
	return names
}

// Get 返回指定名称的权重
func (l WeightedList) Get(name string) (float64, bool) {
	for _, item := range l {
		if item.Name == name {
			return item.Weight, true
		}
	}
	return 0, false
}

func (l WeightedList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(item.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(item.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (l *WeightedList) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	list := make(WeightedList, 0, len(m))
	for name, w := range m {
		list = append(list, WeightedItem{Name: name, Weight: w})
	}
	list.sort()
	*l = list
	return nil
}

// PreferenceProfile 用户偏好画像，每次请求重新计算，不落库
type PreferenceProfile struct {
	Categories             WeightedList       `json:"categories"`
	Tags                   WeightedList       `json:"tags"`
	Mode                   ProfileMode        `json:"mode"`
	TotalActivities        int                `json:"total_activities"` // 真实互动次数
	UserSelectedCategories []string           `json:"user_selected_categories"`
	ActionCounts           map[ActionType]int `json:"action_counts"`
	ProfileResetTime       *time.Time         `json:"profile_reset_time,omitempty"`
}

// IsEmpty 既无分类也无标签
func (p *PreferenceProfile) IsEmpty() bool {
	return len(p.Categories) == 0 && len(p.Tags) == 0
}
