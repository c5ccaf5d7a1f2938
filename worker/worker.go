package worker

import (
	"labflux.com/lfx/logger"
	"labflux.com/lfx/pipeline"
	"labflux.com/lfx/rmq"
	"labflux.com/lfx/s3client"
	"labflux.com/lfx/tasks"
	"context"
	"errors"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"sync"
)

type Config struct {
	TaskMaxRetries int `envconfig:"LFX_RETRY_TASK_COUNT_MAX" default:"3"`
}

type Worker struct {
	config    Config
	redis     redisTransactions
	s3        s3Transactions
	rmq       rmqTransactions
	dialRMQ   func() (rmqTransactions, error)
	lfxLogger *zerolog.Logger
	ppln      pipeline.Pipeline
	inFlight  sync.WaitGroup
}

var errDeliveriesClosed = errors.New("deliveries channel closed")

func New(ppln pipeline.Pipeline) (*Worker, error) {
	lfxLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		lfxLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := &Worker{
		config:    config,
		dialRMQ:   dialRMQ,
		lfxLogger: &lfxLogger,
		ppln:      ppln,
	}
	var err error
	if worker.rmq, err = worker.dialRMQ(); err != nil {
		lfxLogger.Error().Err(err).Msg("Could not connect to RMQ")
		return nil, err
	}
	if worker.s3, err = dialS3(); err != nil {
		lfxLogger.Error().Err(err).Msg("Could not create S3 client")
		worker.rmq.close()
		return nil, err
	}
	if worker.redis, err = dialRedis(); err != nil {
		lfxLogger.Error().Err(err).Msg("Could not connect to Redis")
		worker.rmq.close()
		worker.s3.close()
		return nil, err
	}
	return worker, nil
}

func dialRMQ() (rmqTransactions, error) {
	client, err := rmq.NewClient()
	if err != nil {
		return nil, err
	}
	return &rmqClientWrapper{client}, nil
}

func dialS3() (s3Transactions, error) {
	client, err := s3client.New()
	if err != nil {
		return nil, err
	}
	return &s3ClientWrapper{client}, nil
}

func dialRedis() (redisTransactions, error) {
	client, err := tasks.NewClient()
	if err != nil {
		return nil, err
	}
	return &redisClientWrapper{&client}, nil
}

// StartWorker consumes deliveries until ctx is done. A closed deliveries
// channel or a channel error triggers one reconnect; if that fails the worker
// stops with the error. Messages in flight are finished before the clients are
// closed.
func (worker *Worker) StartWorker(ctx context.Context) error {
	defer worker.Close()
	defer worker.inFlight.Wait()
	for {
		var lost error
		select {
		case <-ctx.Done():
			worker.lfxLogger.Info().Msg("Stopping worker, waiting for messages in flight")
			return nil
		case delivery, ok := <-worker.rmq.getDeliveriesCh():
			if ok {
				worker.dispatch(delivery)
				continue
			}
			lost = errDeliveriesClosed
		case rmqErr := <-worker.rmq.getRespChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			lost = fmt.Errorf("response channel: %w", rmqErr)
		case rmqErr := <-worker.rmq.getReqChanErrorsCh():
			if rmqErr == nil {
				continue
			}
			lost = fmt.Errorf("request channel: %w", rmqErr)
		}
		if err := worker.reconnectRMQ(lost); err != nil {
			return err
		}
	}
}

func (worker *Worker) dispatch(delivery amqp.Delivery) {
	worker.inFlight.Add(1)
	go func() {
		defer worker.inFlight.Done()
		worker.processMessage(&delivery)
	}()
}

// reconnectRMQ swaps in a fresh RMQ client. The old one is closed only once
// the new one is up, so a failed attempt leaves Close with something to close.
func (worker *Worker) reconnectRMQ(cause error) error {
	worker.lfxLogger.Err(cause).Msg("Lost RMQ connection, reconnecting")
	client, err := worker.dialRMQ()
	if err != nil {
		worker.lfxLogger.Err(err).Msg("Could not reconnect to RMQ")
		return fmt.Errorf("%w; reconnect failed: %w", cause, err)
	}
	worker.rmq.close()
	worker.rmq = client
	worker.lfxLogger.Info().Msg("Reconnected to RMQ")
	return nil
}

func (worker *Worker) Close() {
	worker.redis.close()
	worker.s3.close()
	worker.rmq.close()
}
