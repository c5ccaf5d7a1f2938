package worker

import (
	"labflux.com/lfx/pipeline"
	"labflux.com/lfx/tasks"
	"labflux.com/lfx/utils"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type taskSummary struct {
	documents int
	records   int
}

type Task struct {
	delivery       *amqp.Delivery
	extractionTask *tasks.ExtractionTask
	message        *Message
	redisKey       string
	summary        taskSummary
	lfxLogger      *zerolog.Logger
}

var errNoDocuments = errors.New("extraction task has no documents")

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.lfxLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.lfxLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.lfxLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.lfxLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.lfxLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	extractionTask, err := worker.redis.getExtractionTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query extraction task for message, got error %w", err)
	}
	taskLogger := worker.lfxLogger.With().
		Str("tid", message.RedisKey).
		Str("job_id", extractionTask.JobID).
		Logger()
	task := Task{
		delivery:       delivery,
		extractionTask: extractionTask,
		redisKey:       message.RedisKey,
		message:        &message,
		lfxLogger:      &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.lfxLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.lfxLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.lfxLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.lfxLogger.Info().
		Int("documents", task.summary.documents).
		Int("records", task.summary.records).
		Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.lfxLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) fetchDocuments(task *Task) ([]string, error) {
	keys := task.extractionTask.DocumentKeys
	if len(keys) == 0 {
		return nil, errNoDocuments
	}
	documents := make([]string, 0, len(keys))
	for _, key := range keys {
		data, err := worker.s3.getDocument(key)
		if err != nil {
			task.lfxLogger.Err(err).Caller().Str("document_key", key).Msg("Could not fetch document text from s3")
			return nil, fmt.Errorf("failed fetch document %s from s3: %w", key, err)
		}
		documents = append(documents, string(data))
	}
	return documents, nil
}

func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.lfxLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.extractionTask.TaskStatuses.LFX.Attempts)
	documents, err := worker.fetchDocuments(task)
	if err != nil {
		return err
	}
	request := pipeline.Request{
		Tid:       task.redisKey,
		Documents: documents,
		Keyed:     task.extractionTask.Keyed,
		Emphasis:  task.extractionTask.Emphasis,
	}
	result, ok := <-worker.ppln(request)
	if !ok {
		task.lfxLogger.Error().Msg("Pipeline channel was closed before returning anything")
		return errors.New("pipeline channel was closed before returning anything")
	}
	task.summary = summarize(result, len(documents))
	task.lfxLogger.Info().Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResultsFile(task, result); err != nil {
		task.lfxLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

// summarize counts the records of a pipeline response. Keyed responses and
// unreadable ones only report the document count.
func summarize(result string, documents int) taskSummary {
	summary := taskSummary{documents: documents}
	var response pipeline.Response
	if err := json.Unmarshal([]byte(result), &response); err != nil || response.Records == nil {
		return summary
	}
	summary.records = response.Records.Len()
	return summary
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.extractionTask.TaskStatuses.LFX
	taskLogger := task.lfxLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for extraction task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if taskJob.StopOnFailure && len(taskJob.FailedTasks) > 0 {
		failedTask := taskJob.FailedTasks[0]
		taskLogger.Info().Msgf("Task is not required because the \"%s\" already completed failure "+
			"and the job won't be processed successfully. Sending back to Sequencer.", failedTask)
		err := worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because the current job has failed "+
					"in the \"%s\" worker and won't be processed successfully.",
				tasks.TaskStatusCanceled,
				failedTask,
			),
		)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Extraction task has exceeded retries. Sending back to Sequencer.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
