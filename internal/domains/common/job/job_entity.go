package job

import (
	"encoding/json"
	"fmt"
)

// 动作类型（路由键）
const (
	ActionShelfCheck   = "shelf_check"   // 抓图、检测、分析
	ActionShelfAnalyze = "shelf_analyze" // 对已有检测结果做分析
)

// Job 标准 Job 结构
type Job struct {
	Payload *JobPayload `json:"payload"`
}

// JobPayload Job 负载
type JobPayload struct {
	Data *JobPayloadData `json:"data"`
}

// JobPayloadData Job 数据
type JobPayloadData struct {
	// 元信息
	RequestID  string `json:"request_id"`  // 请求 ID（TraceID）
	ActionType string `json:"action_type"` // 动作类型（路由键）
	ID         string `json:"id"`          // 巡检批次 ID

	// 业务数据
	Data interface{} `json:"data"`

	// 扩展
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Meta 元数据
type Meta struct {
	RequestID  string // 请求 ID
	ActionType string // 动作类型
	ID         string // 巡检批次 ID
}

// NewJob 构造标准 Job
func NewJob(requestID, actionType, id string, data interface{}) *Job {
	return &Job{
		Payload: &JobPayload{
			Data: &JobPayloadData{
				RequestID:  requestID,
				ActionType: actionType,
				ID:         id,
				Data:       data,
			},
		},
	}
}

// NewJobData 构造并序列化标准 Job
func NewJobData(requestID, actionType, id string, data interface{}) ([]byte, error) {
	b, err := json.Marshal(NewJob(requestID, actionType, id, data))
	if err != nil {
		return nil, fmt.Errorf("marshal job failed: %w", err)
	}
	return b, nil
}
