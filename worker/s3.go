package worker

import (
	"labflux.com/lfx/s3client"
)

type s3Transactions interface {
	saveResultsFile(task *Task, result string) error
	getDocument(key string) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result string) error {
	_, err := wrapper.s3Client.Upload(result, getResultsFileKey(task))
	return err
}

func (wrapper *s3ClientWrapper) getDocument(key string) ([]byte, error) {
	return wrapper.s3Client.Download(key)
}
