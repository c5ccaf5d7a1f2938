package rmq

import (
	"labflux.com/lfx/logger"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"net/url"
)

type Config struct {
	Host                    string `envconfig:"LFX_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"LFX_RMQ_PORT" required:"true"`
	Username                string `envconfig:"LFX_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"LFX_RMQ_PASSWORD" required:"true"`
	VHost                   string `envconfig:"LFX_RMQ_VHOST" default:""`
	Exchange                string `envconfig:"LFX_RMQ_DEFAULT_EXCHANGE" default:"labflux-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"LFX_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	ExtractionTaskQueue     string `envconfig:"LFX_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"LFX_SEQUENCER_TASK_QUEUE" required:"true"`
}

// Client holds two connections: deliveries are consumed on the request
// connection, sequencer notifications are published on the response one.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	lfxLogger      *zerolog.Logger
}

func NewClient() (*Client, error) {
	lfxLogger := logger.NewLogger("RMQ client")
	config, err := readEnvironment()
	if err != nil {
		lfxLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	address := getURL(config)
	respConn, respChannel, err := setup(address)
	if err != nil {
		return nil, fmt.Errorf("failed response connection: %w", err)
	}
	reqConn, reqChannel, err := setup(address)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed request connection: %w", err)
	}
	client := &Client{
		config:      config,
		reqConn:     reqConn,
		respConn:    respConn,
		respChannel: respChannel,
		lfxLogger:   &lfxLogger,
	}

	q, err := reqChannel.QueueDeclarePassive(
		config.ExtractionTaskQueue, // name
		true,                       // durable
		false,                      // delete when unused
		false,                      // exclusive
		false,                      // no-wait
		nil,                        // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("declare %s: %w", config.ExtractionTaskQueue, err)
	}
	if err := reqChannel.QueueBind(
		config.ExtractionTaskQueue,
		config.ExtractionTaskQueue,
		config.Exchange,
		false,
		nil); err != nil {
		client.Close()
		return nil, fmt.Errorf("bind %s: %w", config.ExtractionTaskQueue, err)
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	client.Deliveries = deliveries
	client.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error))
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error))

	lfxLogger.Info().
		Str("queue", q.Name).
		Int("prefetch", config.MaxParallelRequestCount).
		Msg("Consuming extraction tasks")
	return client, nil
}

func (c *Client) SendMessageToSequencer(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func readEnvironment() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

func getURL(config Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(config.Username, config.Password),
		Host:   fmt.Sprintf("%s:%s", config.Host, config.Port),
	}
	if config.VHost != "" {
		u.Path = "/" + config.VHost
	}
	return u.String()
}

func setup(address string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(address)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
