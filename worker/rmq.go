package worker

import (
	"labflux.com/lfx/rmq"
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"time"
)

type rmqTransactions interface {
	pingSequencer(task *Task, message Message) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, lfxLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	*rmq.Client
}

func (wrapper *rmqClientWrapper) close()                                 { wrapper.Close() }
func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery  { return wrapper.Deliveries }
func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error { return wrapper.ReqChanErrors }
func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.RespChanErrors
}

// pingSequencer reports the extraction state back to the sequencer, correlated
// with the delivery that started the task.
func (wrapper *rmqClientWrapper) pingSequencer(task *Task, message Message) error {
	message.Sender = workerName
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode sequencer message: %w", err)
	}
	return wrapper.SendMessageToSequencer(amqp.Publishing{
		ContentType:   task.delivery.ContentType,
		CorrelationId: task.delivery.CorrelationId,
		MessageId:     task.redisKey,
		Timestamp:     time.Now().UTC(),
		Body:          body,
	})
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery requeues a delivery the first time it fails and drops it the
// second time.
func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, lfxLogger *zerolog.Logger) {
	requeue := !delivery.Redelivered
	lfxLogger.Info().Bool("requeue", requeue).Msg("Rejecting delivery")
	if err := delivery.Reject(requeue); err != nil {
		lfxLogger.Err(err).Bool("requeue", requeue).Msg("Failed to reject delivery")
	}
}
