package tasks

import (
	"labflux.com/lfx/redis"
	"labflux.com/lfx/utils/maps"
	"sync"
)

const JobsDB redis.DB = 1

// JobTask groups extraction tasks submitted together. Workers read the cached
// copy; updates write both copies under the job's lock.
type JobTask struct {
	maps.BaseDocument
	UserCanceled    bool     `json:"user_canceled"`
	StopOnFailure   bool     `json:"stop_documents_on_failure"`
	FailedTasks     []string `json:"failed_tasks"`
	FailedDocuments []string `json:"failed_documents"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetPartialDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks JobTasks) Update(redisKey string, updateFunc func(task *JobTask)) (err error) {
	releaseLock, err := tasks.client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = releaseLock()
			return
		}
		err = releaseLock()
	}()

	keys := []string{redisKey, cachedPropertiesKey(redisKey)}
	docs := make([]JobTask, len(keys))
	for i, key := range keys {
		if err = tasks.client.GetPartialDocument(key, &docs[i]); err != nil {
			return err
		}
		if err = maps.ApplyUpdates(&docs[i], updateFunc); err != nil {
			return err
		}
	}

	errChan := make(chan error, len(keys))
	var wg sync.WaitGroup
	wg.Add(len(keys))
	for i, key := range keys {
		go func(key string, doc *JobTask) {
			errChan <- tasks.client.SaveDoc(key, doc)
			wg.Done()
		}(key, &docs[i])
	}
	wg.Wait()
	close(errChan)
	for err = range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
