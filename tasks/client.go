package tasks

import (
	"labflux.com/lfx/redis"
	"fmt"
)

type Client struct {
	Extractions ExtractionTasks
	Jobs        JobTasks
}

// NewClient is a preferred way for working with TaskInfos
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	extractionsRedisClient, err := redis.NewClient(ExtractionsDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Jobs:        JobTasks{client: jobsRedisClient},
		Extractions: ExtractionTasks{client: extractionsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Extractions.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
