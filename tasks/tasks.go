package tasks

import (
	"labflux.com/lfx/redis"
	"labflux.com/lfx/utils/maps"
)

const ExtractionsDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// ExtractionTask is one extraction request: the S3 keys of the document texts
// to read and how the result should be shaped.
type ExtractionTask struct {
	maps.BaseDocument
	JobID        string                 `json:"job_id"`
	DocumentKeys []string               `json:"document_keys"`
	Keyed        bool                   `json:"keyed"`
	Emphasis     bool                   `json:"emphasis"`
	TaskStatuses ExtractionTaskStatuses `json:"task_statuses"`
}

type ExtractionTaskStatuses struct {
	LFX TaskInfo `json:"lfx"`
}

type TaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	Documents      int        `json:"documents"`
	Records        int        `json:"records"`
	ErrorMessages  []string   `json:"error_messages"`
}

type ExtractionTasks struct {
	client redis.Client
}

func (tasks ExtractionTasks) Get(redisKey string) (*ExtractionTask, error) {
	var task ExtractionTask
	err := tasks.client.GetPartialDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks ExtractionTasks) Update(redisKey string, updateFunc func(task *ExtractionTask)) error {
	var task ExtractionTask
	return tasks.client.UpdatePartialDocument(redisKey, &task, updateFunc)
}
