package s3client

import (
	"labflux.com/lfx/logger"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"strings"
	"sync"
)

// Client moves report texts and extraction results in and out of one bucket.
type Client struct {
	env EnvironmentConfig

	mu   sync.Mutex
	sess *session.Session
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"LFX_STORAGE_BUCKET" required:"true"`
	Env         string `envconfig:"LFX_ENV" default:"prod"`
	Region      string `envconfig:"LFX_AWS_REGION" required:"true"`
	AwsEndpoint string `envconfig:"LFX_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"LFX_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"LFX_AWS_ACCESS_KEY" default:""`
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := readEnvironment(&errLogger)
	if err != nil {
		return nil, err
	}
	client := &Client{env: env}
	if _, err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func readEnvironment(errLogger *zerolog.Logger) (EnvironmentConfig, error) {
	var config EnvironmentConfig
	if err := envconfig.Process("", &config); err != nil {
		errLogger.Err(err).Msg("Got error while processing environment")
		return config, err
	}
	return config, nil
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Upload(data string, key string) (*s3manager.UploadOutput, error) {
	var output *s3manager.UploadOutput
	err := client.withSession(key, func(sess *session.Session) error {
		var err error
		output, err = s3manager.NewUploader(sess).Upload(&s3manager.UploadInput{
			Bucket: aws.String(client.env.BucketName),
			Key:    aws.String(key),
			Body:   strings.NewReader(data),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return output, nil
}

func (client *Client) Download(key string) ([]byte, error) {
	var buf *aws.WriteAtBuffer
	err := client.withSession(key, func(sess *session.Session) error {
		buf = aws.NewWriteAtBuffer(nil)
		_, err := s3manager.NewDownloader(sess).Download(buf, &s3.GetObjectInput{
			Bucket: aws.String(client.env.BucketName),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// Close drops the session; the next call opens a new one.
func (client *Client) Close() {
	client.mu.Lock()
	client.sess = nil
	client.mu.Unlock()
}

// withSession runs op against the current session and, when it fails, once
// more against a renewed one. Expired instance credentials surface this way.
func (client *Client) withSession(key string, op func(*session.Session) error) error {
	objLogger := clientLogger.With().Str("key", key).Str("bucket", client.env.BucketName).Logger()
	sdkConfig := &aws.Config{Logger: getLogger(sdkLogger.With().Str("key", key).Logger())}

	client.mu.Lock()
	sess := client.sess
	client.mu.Unlock()

	var err error
	if sess != nil {
		objLogger.Debug().Msg("Calling S3")
		if err = op(sess.Copy(sdkConfig)); err == nil {
			return nil
		}
		objLogger.Warn().Err(err).Msg("S3 call failed, renewing session")
	}
	if sess, err = client.connect(); err != nil {
		return err
	}
	if err = op(sess.Copy(sdkConfig)); err != nil {
		objLogger.Error().Err(err).Msg("S3 call failed on renewed session")
	}
	return err
}

// connect opens a session with the instance role, falling back to the static
// credentials from the environment, and stores it on success.
func (client *Client) connect() (*session.Session, error) {
	sess, err := verifiedSession(&aws.Config{
		Region:     aws.String(client.env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	})
	if err == nil {
		clientLogger.Info().Msg("S3 session initialized with instance credentials")
	} else {
		clientLogger.Info().Err(err).Msg("No instance credentials, trying environment credentials")
		cfg, cfgErr := client.createEnvConfig()
		if cfgErr != nil {
			clientLogger.Error().Err(cfgErr).Msg("Error with credentials from environment")
			return nil, cfgErr
		}
		if sess, err = verifiedSession(cfg); err != nil {
			clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
			return nil, fmt.Errorf("could not initialize S3 session: %w", err)
		}
		clientLogger.Info().Msg("S3 session initialized with environment credentials")
	}
	client.mu.Lock()
	client.sess = sess
	client.mu.Unlock()
	return sess, nil
}

// verifiedSession opens a session and asks STS who it is, which fails fast on
// missing or expired credentials.
func verifiedSession(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (client *Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	// local stacks (minio, localstack) only answer path-style requests
	if client.env.Env == "dev" && client.env.AwsEndpoint != "" {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

// s3Logger forwards SDK debug output to zerolog.
type s3Logger struct {
	sdkLogger zerolog.Logger
}

func getLogger(sdkLogger zerolog.Logger) *s3Logger {
	return &s3Logger{sdkLogger}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.sdkLogger.Debug().Msg(fmt.Sprint(v...))
}
