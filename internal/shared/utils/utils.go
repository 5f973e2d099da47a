package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// MarshalTask đóng gói payload thành asynq task
func MarshalTask(taskType string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, data), nil
}

func UnmarshalTask(t *asynq.Task, dest interface{}) error {
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", t.Type(), err)
	}
	return nil
}

func GetEnvVariable(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ParseUUIDParam trả về uuid.Nil khi chuỗi rỗng hoặc sai format
func ParseUUIDParam(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
