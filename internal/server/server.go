// Package server holds the HTTP boundary: request binding, validation and the
// streaming of rendered documents. The render core never sees an unvalidated
// request.
package server

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"image"
	_ "image/gif" // accepted upload formats
	_ "image/jpeg"
	"image/png"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"paper-press-app/config"
	"paper-press-app/internal/dispatcher"
	"paper-press-app/internal/helpers"
	"paper-press-app/internal/paper"
	"paper-press-app/internal/render"
	"paper-press-app/internal/store"
)

const wordMediaType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Server wires the HTTP handlers to their collaborators. S3, SQS and Store are
// only needed for the async endpoints; the synchronous /generate path works
// without them.
type Server struct {
	Store    *store.Store
	S3       *s3.S3
	SQS      *sqs.SQS
	Bucket   string
	QueueURL string
	Page     config.PageConfig

	flight singleflight.Group
}

// Register attaches all routes and the CORS policy to the router.
func (s *Server) Register(r *gin.Engine) {
	r.Use(CORSMiddleware())
	r.POST("/generate", s.Generate)
	r.POST("/upload-image", s.UploadImage)
	r.POST("/papers", s.CreateRenderJob)
	r.GET("/papers/:slug", s.GetRenderJob)
}

// CORSMiddleware allows any origin. Tighten the origin list in production.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Generate renders a paper synchronously and streams the DOCX back as an
// attachment. Identical concurrent payloads are coalesced into one render.
func (s *Server) Generate(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])

	result, err, _ := s.flight.Do(key, func() (interface{}, error) {
		validated, err := decodeAndValidate(raw)
		if err != nil {
			return nil, err
		}
		builder := render.NewBuilder(s.Page, render.NewMathRenderer())
		return builder.Render(validated)
	})
	if err != nil {
		var fieldErr *paper.FieldError
		if errors.As(err, &fieldErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Println("Error generating document:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=ieee_paper.docx")
	c.Data(http.StatusOK, wordMediaType, result.([]byte))
}

// UploadImage normalizes an uploaded image to base64-encoded PNG so the client
// can drop it straight into a render request.
func (s *Server) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": fileHeader.Filename,
		"format":   "PNG",
		"base64":   base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// CreateRenderJob validates the request, stores it in S3 and enqueues it for a
// worker. Returns the slug the client polls.
func (s *Server) CreateRenderJob(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject bad requests at the door; workers re-validate before rendering.
	var req paper.PaperRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if _, err := paper.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := helpers.GenerateRandomString(14)
	requestKey := "requests/" + slug + ".json"

	_, err = s.S3.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(requestKey),
		Body:   bytes.NewReader(raw),
	})
	if err != nil {
		log.Println("Error storing request in S3:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store request"})
		return
	}

	job, err := s.Store.CreateRenderJob(slug, req.Title, requestKey)
	if err != nil {
		log.Println("Error creating render job:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create job"})
		return
	}

	body, err := json.Marshal(dispatcher.Work{
		RequestKey: requestKey,
		Operation:  dispatcher.OperationRender,
		Slug:       slug,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not enqueue job"})
		return
	}
	_, err = s.SQS.SendMessage(&sqs.SendMessageInput{
		QueueUrl:    aws.String(s.QueueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		log.Println("Error enqueueing render job:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not enqueue job"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"slug": slug, "status": job.Status})
}

// GetRenderJob reports the status of an async render job.
func (s *Server) GetRenderJob(c *gin.Context) {
	slug := c.Param("slug")
	job, err := s.Store.FindRenderJobBySlug(slug)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		log.Println("Error finding render job:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not look up job"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func decodeAndValidate(raw []byte) (*paper.Paper, error) {
	var req paper.PaperRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, paper.Invalidf("invalid request body: %v", err)
	}
	return paper.Validate(&req)
}
