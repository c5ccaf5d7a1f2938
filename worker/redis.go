package worker

import (
	"labflux.com/lfx/tasks"
	"fmt"
)

const workerName = "lfx"

type redisTransactions interface {
	getExtractionTask(redisKey string) (*tasks.ExtractionTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Extractions.Update(task.redisKey, func(extraction *tasks.ExtractionTask) {
		info := &extraction.TaskStatuses.LFX
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Extractions.Update(task.redisKey, func(extraction *tasks.ExtractionTask) {
		info := &extraction.TaskStatuses.LFX
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

// onTaskExceededRetries marks the job as failed by this worker before closing
// the task, so that sibling tasks of a stop-on-failure job are cancelled.
func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	if jobID := task.extractionTask.JobID; jobID != "" {
		err := wrapper.tasksClient.Jobs.Update(jobID, func(job *tasks.JobTask) {
			job.FailedTasks = append(job.FailedTasks, workerName)
			job.FailedDocuments = append(job.FailedDocuments, task.redisKey)
		})
		if err != nil {
			return err
		}
	}
	return wrapper.tasksClient.Extractions.Update(task.redisKey, func(extraction *tasks.ExtractionTask) {
		info := &extraction.TaskStatuses.LFX
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				info.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Extractions.Update(task.redisKey, func(extraction *tasks.ExtractionTask) {
		info := &extraction.TaskStatuses.LFX
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Extractions.Update(task.redisKey, func(extraction *tasks.ExtractionTask) {
		info := &extraction.TaskStatuses.LFX
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		info.Documents = task.summary.documents
		info.Records = task.summary.records
	})
}

func (wrapper *redisClientWrapper) getExtractionTask(redisKey string) (*tasks.ExtractionTask, error) {
	return wrapper.tasksClient.Extractions.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	if task.extractionTask.JobID == "" {
		return &tasks.JobTask{}, nil
	}
	return wrapper.tasksClient.Jobs.GetCached(task.extractionTask.JobID)
}
