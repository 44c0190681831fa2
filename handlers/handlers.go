package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ai-visibility-service/guard"
	"ai-visibility-service/metrics"
	"ai-visibility-service/models"
	"ai-visibility-service/report"
	"ai-visibility-service/service"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// JobSubmitter enqueues accepted uploads for background processing.
type JobSubmitter interface {
	Submit(job service.Job) error
}

// Handlers represents the HTTP handlers
type Handlers struct {
	guard     *guard.Guard
	submitter JobSubmitter
}

// NewHandlers creates new HTTP handlers
func NewHandlers(g *guard.Guard, submitter JobSubmitter) *Handlers {
	return &Handlers{guard: g, submitter: submitter}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ai-visibility-service",
	})
}

// DownloadTemplate serves the sample upload spreadsheet as an attachment.
func (h *Handlers) DownloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename=ai_visibility_template.csv")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", report.Template())
}

// Submit validates an upload, runs it through the access guard, stages the
// file and enqueues the background job. The response returns as soon as the
// job is accepted; processing outcome is only observable via email.
func (h *Handlers) Submit(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	if !emailRegex.MatchString(email) {
		metrics.SubmissionsRejectedTotal.WithLabelValues("bad_email").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid email format"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "failed to read file"})
		return
	}

	if err := h.guard.CheckSize(fileHeader.Size); err != nil {
		metrics.SubmissionsRejectedTotal.WithLabelValues("too_large").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "failed to read file"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "failed to read file"})
		return
	}

	ip := clientIP(c)
	fileHash := guard.Fingerprint(content)

	if err := h.guard.Admit(c.Request.Context(), ip, fileHash); err != nil {
		metrics.SubmissionsRejectedTotal.WithLabelValues("throttled").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": err.Error()})
		return
	}

	tempPath, err := stageUpload(content, fileHeader.Filename)
	if err != nil {
		log.Errorf("failed to stage upload from %s: %v", ip, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to save file"})
		return
	}

	job := service.Job{
		ID:       uuid.NewString(),
		FilePath: tempPath,
		FileName: fileHeader.Filename,
		Email:    email,
		IP:       ip,
	}

	if err := h.submitter.Submit(job); err != nil {
		os.Remove(tempPath)
		metrics.SubmissionsRejectedTotal.WithLabelValues("queue_full").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": err.Error()})
		return
	}

	// Record only after the job is queued: a queue-full rejection must not
	// start the cooldown window, or the advertised retry would be refused.
	h.guard.Record(c.Request.Context(), ip, fileHash)

	log.Infof("accepted upload %s from %s (%s, %d bytes)", job.ID, ip, fileHeader.Filename, fileHeader.Size)

	c.JSON(http.StatusAccepted, models.SubmitResponse{
		OK:      true,
		Email:   email,
		Status:  "processing",
		Message: "File accepted for processing. The report will be emailed to you.",
	})
}

// stageUpload writes the upload to a temp file owned by the job. The
// original extension is preserved so the worker picks the right parser.
func stageUpload(content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))

	tempFile, err := os.CreateTemp("", "aiv-upload-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return "", err
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFile.Name())
		return "", err
	}

	return tempFile.Name(), nil
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection address.
func clientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	return c.ClientIP()
}
