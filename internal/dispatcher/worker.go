package dispatcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/sqs"

	"paper-press-app/config"
	"paper-press-app/internal/helpers"
	"paper-press-app/internal/paper"
	"paper-press-app/internal/render"
	"paper-press-app/internal/store"
)

// WorkerDeps bundles what a worker needs to process render jobs.
type WorkerDeps struct {
	S3          *s3.S3
	Bucket      string
	Store       *store.Store
	Attempts    *helpers.AttemptCache
	MaxAttempts int
	Page        config.PageConfig
}

// Worker pulls render jobs off the shared channel, renders the paper and
// uploads the artifact. Each job gets a fresh builder, so figure/table/equation
// counters stay local to one render.
func Worker(id int, messageQueue <-chan *sqs.Message, svc *sqs.SQS, sqsURL string, deps WorkerDeps) {
	log.Printf("Starting worker %d...\n", id)

	for {
		message := <-messageQueue
		processMessage(id, message, svc, sqsURL, deps)
	}
}

func processMessage(id int, message *sqs.Message, svc *sqs.SQS, sqsURL string, deps WorkerDeps) {
	var work Work
	if err := json.Unmarshal([]byte(*message.Body), &work); err != nil {
		log.Println("Error decoding JSON message:", err)
		deleteMessage(svc, sqsURL, message)
		return
	}
	if !work.IsValid() {
		log.Printf("Worker %d dropping malformed message: %+v\n", id, work)
		deleteMessage(svc, sqsURL, message)
		return
	}

	log.Printf("Worker %d received job %s. Key: %s. Operation: %s\n", id, work.Slug, work.RequestKey, work.Operation)

	if err := deps.Attempts.Increment(work.Slug); err != nil {
		log.Println("Error recording render attempt:", err)
	}
	attempts, err := deps.Attempts.Count(work.Slug)
	if err != nil {
		log.Println("Error reading render attempts:", err)
	}
	if deps.MaxAttempts > 0 && attempts > deps.MaxAttempts {
		failJob(deps, work.Slug, fmt.Sprintf("gave up after %d attempts", attempts))
		deleteMessage(svc, sqsURL, message)
		return
	}

	requestJSON, err := downloadFromS3(deps.S3, deps.Bucket, work.RequestKey)
	if err != nil {
		log.Println("Error downloading request from S3:", err)
		log.Printf("Bucket: %s, Key: %s\n", deps.Bucket, work.RequestKey)
		retryLater(svc, sqsURL, message)
		return
	}

	var req paper.PaperRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		failJob(deps, work.Slug, "invalid request body: "+err.Error())
		deleteMessage(svc, sqsURL, message)
		return
	}
	validated, err := paper.Validate(&req)
	if err != nil {
		failJob(deps, work.Slug, err.Error())
		deleteMessage(svc, sqsURL, message)
		return
	}

	builder := render.NewBuilder(deps.Page, render.NewMathRenderer())
	artifact, err := builder.Render(validated)
	if err != nil {
		failJob(deps, work.Slug, err.Error())
		deleteMessage(svc, sqsURL, message)
		return
	}

	artifactKey := "renders/" + work.Slug + ".docx"
	_, err = deps.S3.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(deps.Bucket),
		Key:    aws.String(artifactKey),
		Body:   bytes.NewReader(artifact),
	})
	if err != nil {
		log.Println("Error uploading artifact to S3:", err)
		retryLater(svc, sqsURL, message)
		return
	}

	if err := deps.Store.MarkRenderJobDone(work.Slug, artifactKey); err != nil {
		log.Println("Error marking job done:", err)
	}
	if err := deps.Attempts.Clear(work.Slug); err != nil {
		log.Println("Error clearing render attempts:", err)
	}
	deleteMessage(svc, sqsURL, message)

	log.Printf("Worker %d finished job %s (%d bytes)\n", id, work.Slug, len(artifact))
}

func downloadFromS3(s3Svc *s3.S3, bucket, key string) ([]byte, error) {
	output, err := s3Svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			fmt.Println("Error closing S3 response body:", err)
		}
	}(output.Body)

	return io.ReadAll(output.Body)
}

func failJob(deps WorkerDeps, slug, detail string) {
	log.Printf("Job %s failed: %s\n", slug, detail)
	if err := deps.Store.MarkRenderJobFailed(slug, detail); err != nil {
		log.Println("Error marking job failed:", err)
	}
}

func deleteMessage(svc *sqs.SQS, sqsURL string, message *sqs.Message) {
	_, err := svc.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      aws.String(sqsURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		log.Println("Error deleting message from the queue:", err)
	}
}

// retryLater shortens the message's visibility timeout so another worker picks
// the job up again soon.
func retryLater(svc *sqs.SQS, sqsURL string, message *sqs.Message) {
	_, err := svc.ChangeMessageVisibility(&sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(sqsURL),
		ReceiptHandle:     message.ReceiptHandle,
		VisibilityTimeout: aws.Int64(30),
	})
	if err != nil {
		log.Println("Error putting message back to the queue:", err)
	}
}
