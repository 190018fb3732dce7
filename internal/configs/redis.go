package config

import (
	"github.com/redis/rueidis"
	"github.com/sirupsen/logrus"
)

func NewRedisClient(addr string) rueidis.Client {
	redisClient, err := rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress: []string{addr},
		},
	)
	if err != nil {
		logrus.Fatalf("failed to create redis client: %v", err)
	}

	return redisClient
}
