package worker

import (
	"labflux.com/lfx/logger"
	"labflux.com/lfx/pipeline"
	"labflux.com/lfx/tasks"
	"context"
	"encoding/json"
	"errors"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reflect"
	"testing"
)

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	pipelineMockConfig
}

type mockedClients struct {
	redis    *redisMock
	rmq      *rmqMock
	s3       *s3Mock
	pipeline *pipelineMock
}

type methodsCalls struct {
	redis    redisMockCalls
	rmq      rmqMockCalls
	s3       s3MockCalls
	pipeline pipelineCall
}

func testConfiguration(t *testing.T, config mockedClientsConfig, expectedCalls methodsCalls) {
	worker, mocks := configureWorker(config)
	worker.processMessage(&amqp.Delivery{
		Body: []byte("{}"),
	})
	calls := methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
	if !reflect.DeepEqual(calls, expectedCalls) {
		t.Errorf("Got unexpected called methods set.\nExpected:\n%+v\nGot:\n%+v", expectedCalls, calls)
	}
}

func configureWorker(config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	pplnMock := getPipelineMock(config.pipelineMockConfig)

	lfxLogger := logger.NewLogger("Test Worker")

	return &Worker{
			config:    Config{3},
			redis:     redis,
			s3:        s3,
			rmq:       rmq,
			lfxLogger: &lfxLogger,
			ppln:      pplnMock.ppln,
		}, &mockedClients{
			redis:    redis,
			rmq:      rmq,
			s3:       s3,
			pipeline: pplnMock,
		}
}

func TestWorker(t *testing.T) {
	t.Run("Successful", testSuccessfulTask)
	t.Run("Successful with job_task.stop_documents_on_failure == True", testSuccessfulTaskWithStopOnFailure)
	t.Run("Failed to get Extraction task", testGetExtractionTaskFailed)
	t.Run("Failed to get Job task", testGetJobTaskFailed)
	t.Run("Already complete with success", testAlreadyCompletedSuccessfully)
	t.Run("Already complete with failure", testAlreadyCompletedWithFailure)
	t.Run("User cancelled", testUserCancelled)
	t.Run("Exceeded attempts", testExceededAttempts)
	t.Run("Cancelled because other worker already failed", testCancelledBecauseOfOtherWorkerFailure)
	t.Run("Failed to update task in onTaskStarted", testFailedToUpdateOnTaskStarted)
	t.Run("Failed to load data from S3", testFailedToFetchFromS3)
	t.Run("Failed due to pipeline error", testPipelineError)
	t.Run("Failed to update task in onTaskFailedWithError", testFailedToUpdateOnTaskFailedWithError)
	t.Run("Failed to update task in onTaskComplete", testFailedToUpdateOnTaskComplete)
	t.Run("Failed to save result to S3", testFailedToSaveToS3)
	t.Run("Failed to acknowledge delivery", testFailedAckDelivery)
	t.Run("Failed to ping sequencer", testFailedPingSequencer)
	t.Run("Task without documents", testNoDocuments)
	t.Run("Malformed message", testMalformedMessage)
}

func testSuccessfulTask(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testSuccessfulTaskWithStopOnFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{StopOnFailure: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testAlreadyCompletedSuccessfully(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getExtractionTask: withValue{
					returnedValue: tasks.ExtractionTask{
						TaskStatuses: tasks.ExtractionTaskStatuses{LFX: tasks.TaskInfo{Status: tasks.TaskStatusCompletedSuccess}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getExtractionTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testAlreadyCompletedWithFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getExtractionTask: withValue{
					returnedValue: tasks.ExtractionTask{
						TaskStatuses: tasks.ExtractionTaskStatuses{LFX: tasks.TaskInfo{Status: tasks.TaskStatusCompletedFailure}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getExtractionTask: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testUserCancelled(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getExtractionTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testExceededAttempts(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getExtractionTask: withValue{
					returnedValue: tasks.ExtractionTask{
						TaskStatuses: tasks.ExtractionTaskStatuses{LFX: tasks.TaskInfo{Attempts: 3}},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getExtractionTask: true, getJobTask: true, onTaskExceededRetries: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testCancelledBecauseOfOtherWorkerFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{
					returnedValue: tasks.JobTask{
						StopOnFailure: true,
						FailedTasks:   []string{"some other task"},
					},
				},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getExtractionTask: true, getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskStarted(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testFailedToUpdateOnTaskComplete(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{pipeline: true},
		},
	)
}

func testFailedToFetchFromS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{getDocument: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument: true,
			},
		},
	)
}

func testPipelineError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedToUpdateOnTaskFailedWithError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			pipelineMockConfig: pipelineMockConfig{fail: true},
			redisMockConfig:    redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
			s3: s3MockCalls{
				getDocument: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedToSaveToS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{saveResultsFile: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedAckDelivery(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testFailedPingSequencer(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{pingSequencer: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskComplete: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, rejectDelivery: true},
			s3: s3MockCalls{
				getDocument:     true,
				saveResultsFile: true,
			},
			pipeline: pipelineCall{true},
		},
	)
}

func testGetExtractionTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getExtractionTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testGetJobTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true,
			},
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testNoDocuments(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getExtractionTask: withValue{returnedValue: tasks.ExtractionTask{}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{
				getExtractionTask: true, getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true,
			},
			rmq: rmqMockCalls{pingSequencer: true, acknowledgeDelivery: true},
		},
	)
}

func testMalformedMessage(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	worker.processMessage(&amqp.Delivery{Body: []byte("not json")})
	expected := methodsCalls{rmq: rmqMockCalls{rejectDelivery: true}}
	calls := methodsCalls{
		redis:    mocks.redis.calls,
		rmq:      mocks.rmq.calls,
		s3:       mocks.s3.calls,
		pipeline: mocks.pipeline.calls,
	}
	if !reflect.DeepEqual(calls, expected) {
		t.Errorf("Got unexpected called methods set.\nExpected:\n%+v\nGot:\n%+v", expected, calls)
	}
}

const workerReport = `Nombre: JUAN SOTO
Sexo: M   Edad: 40
Fecha de Recepción: 10/03/2025 07:30
Glucosa 101 mg/dL
Creatinina 1,0 mg/dL
`

func TestWorkerWithExtractionPipeline(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{
		s3MockConfig: s3MockConfig{getDocument: withValue{returnedValue: []byte(workerReport)}},
	})
	worker.ppln = pipeline.New(pipeline.Params{})

	task := &Task{
		delivery: &amqp.Delivery{},
		extractionTask: &tasks.ExtractionTask{
			DocumentKeys: []string{"texts/a.txt", "texts/b.txt"},
		},
		message:   &Message{RedisKey: "extraction-7"},
		redisKey:  "extraction-7",
		lfxLogger: worker.lfxLogger,
	}
	require.NoError(t, worker.processTask(task))
	assert.True(t, mocks.redis.calls.onTaskComplete)
	assert.False(t, mocks.redis.calls.onTaskFailedWithError)

	assert.Equal(t, "processed/extractions/extraction-7/extraction-7.lfx_results.json", mocks.s3.savedKey)
	assert.Equal(t, taskSummary{documents: 2, records: 2}, task.summary)

	var response pipeline.Response
	require.NoError(t, json.Unmarshal([]byte(mocks.s3.savedData), &response))
	require.NotNil(t, response.Records)
	require.Len(t, response.Records.General, 2)
	record := response.Records.General[0].Record
	assert.Equal(t, "JUAN SOTO", record.Identity.Name)
	assert.Equal(t, "MASCULINO", record.Identity.Sex)
	assert.Equal(t, "101", record.Fields["glucosa"])
	assert.Equal(t, "98", record.Fields["vfg"])
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, taskSummary{documents: 3}, summarize("", 3))
	assert.Equal(t, taskSummary{documents: 1}, summarize(`{"tid":"x","documents":1,"keyed":{"glucosa_1":"95"}}`, 1))
	assert.Equal(t,
		taskSummary{documents: 1, records: 2},
		summarize(`{"tid":"x","documents":1,"records":{"general":[{"index":1,"type":"general"}],"orina":[{"index":1,"type":"orina"}],"cultivo":[]}}`, 1),
	)
}

func TestStartWorkerStopsOnCancel(t *testing.T) {
	worker, _ := configureWorker(mockedClientsConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, worker.StartWorker(ctx))
}

func TestStartWorkerReconnectsWhenDeliveriesClose(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	mocks.rmq.deliveries = make(chan amqp.Delivery)
	close(mocks.rmq.deliveries)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	next := &rmqMock{}
	dials := 0
	worker.dialRMQ = func() (rmqTransactions, error) {
		dials++
		cancel()
		return next, nil
	}

	assert.NoError(t, worker.StartWorker(ctx))
	assert.Equal(t, 1, dials)
	assert.True(t, mocks.rmq.closed)
	assert.True(t, next.closed)
	assert.Same(t, next, worker.rmq)
}

func TestStartWorkerFailsWhenReconnectFails(t *testing.T) {
	worker, mocks := configureWorker(mockedClientsConfig{})
	mocks.rmq.deliveries = make(chan amqp.Delivery)
	close(mocks.rmq.deliveries)
	worker.dialRMQ = func() (rmqTransactions, error) {
		return nil, errors.New("connection refused")
	}

	err := worker.StartWorker(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDeliveriesClosed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, mocks.rmq.closed)
}
