package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/gin-gonic/gin"

	"paper-press-app/config"
	"paper-press-app/internal/dispatcher"
	"paper-press-app/internal/envHelper"
	"paper-press-app/internal/helpers"
	"paper-press-app/internal/server"
	"paper-press-app/internal/store"
)

var (
	healthStatus bool
	healthMutex  sync.Mutex
)

func main() {
	// Load environment variables
	envHelper.LoadEnv()
	log.Println("app env: " + envHelper.GetEnvVariable("APP_ENV"))

	// Get environment variables
	sqsPrefix := envHelper.GetEnvVariable("SQS_PREFIX")
	requestsQueueName := envHelper.GetEnvVariable("REQUESTS_QUEUE")
	sqsURL := fmt.Sprintf("%s/%s", sqsPrefix, requestsQueueName)
	awsSecretKey := envHelper.GetEnvVariable("AWS_SECRET_ACCESS_KEY")
	awsAccessKey := envHelper.GetEnvVariable("AWS_ACCESS_KEY_ID")
	awsRegion := envHelper.GetEnvVariable("AWS_REGION")
	awsBucket := envHelper.GetEnvVariable("AWS_BUCKET")
	attemptsTable := envHelper.GetEnvVariable("ATTEMPTS_TABLE")
	dbHost := envHelper.GetEnvVariable("DB_HOST")
	dbPort := envHelper.GetEnvVariable("DB_PORT")
	dbUser := envHelper.GetEnvVariable("DB_USERNAME")
	dbPassword := envHelper.GetEnvVariable("DB_PASSWORD")
	dbName := envHelper.GetEnvVariable("DB_DATABASE")
	log.Println("Environment variables loaded successfully.")

	// Set up mysql connection
	db, err := sql.Open("mysql", dbUser+":"+dbPassword+"@tcp("+dbHost+":"+dbPort+")/"+dbName)
	if err != nil {
		log.Fatal("Error opening database:", err)
	}
	s := store.New(db)
	// ping database
	err = s.GetDB().Ping()
	if err != nil {
		log.Fatal("Error pinging database:", err)
	} else {
		log.Println("Database pinged successfully.")
	}

	// Set up AWS session
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(awsRegion),
		Credentials: credentials.NewStaticCredentials(awsAccessKey, awsSecretKey, ""),
	})
	if err != nil {
		log.Fatal("Error creating AWS session:", err)
	}

	sqsSvc := sqs.New(sess)
	s3Svc := s3.New(sess)
	attempts := helpers.NewAttemptCache(sess, attemptsTable)

	page := config.DefaultPage()

	// Create a channel for communication between dispatcher and workers
	messageQueue := make(chan *sqs.Message, 10) // Adjust the buffer size as needed

	// Start dispatcher
	go dispatcher.Dispatcher(sqsSvc, sqsURL, messageQueue)

	// Start workers
	numWorkers, _ := strconv.Atoi(envHelper.GetEnvVariableWithDefault("WORKER_COUNT", "3"))
	maxAttempts, _ := strconv.Atoi(envHelper.GetEnvVariableWithDefault("MAX_RENDER_ATTEMPTS", "3"))
	deps := dispatcher.WorkerDeps{
		S3:          s3Svc,
		Bucket:      awsBucket,
		Store:       s,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
		Page:        page,
	}
	for i := 1; i <= numWorkers; i++ {
		go dispatcher.Worker(i, messageQueue, sqsSvc, sqsURL, deps)
	}

	// Start a timer for periodic health checks
	go func() {
		s.CheckHealth(&healthStatus, &healthMutex)
		for {
			time.Sleep(1 * time.Minute) // Adjust the interval as needed
			s.CheckHealth(&healthStatus, &healthMutex)
		}
	}()

	r := gin.Default()

	srv := &server.Server{
		Store:    s,
		S3:       s3Svc,
		SQS:      sqsSvc,
		Bucket:   awsBucket,
		QueueURL: sqsURL,
		Page:     page,
	}
	srv.Register(r)

	r.GET("/", func(c *gin.Context) {
		host, _ := os.Hostname()
		c.JSON(http.StatusOK, gin.H{"hostname": host})
	})

	r.GET("/health", func(c *gin.Context) {
		// Return the global health status
		healthMutex.Lock()
		healthy := healthStatus
		healthMutex.Unlock()
		c.JSON(http.StatusOK, gin.H{"healthy": healthy})
	})

	r.Run()
}
