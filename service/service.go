package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"ai-visibility-service/config"
	"ai-visibility-service/email"
	"ai-visibility-service/geoprompt"
	"ai-visibility-service/metrics"
	"ai-visibility-service/models"
	"ai-visibility-service/parser"
	"ai-visibility-service/report"
	"ai-visibility-service/search"
	"ai-visibility-service/visibility"

	"github.com/apex/log"
)

// ErrQueueFull is returned by Submit when the job queue is at capacity.
var ErrQueueFull = errors.New("too many reports in progress, please try again later")

// Job is one accepted upload queued for background processing. FilePath
// points at the staged temp copy of the upload; the job owns it and removes
// it when done.
type Job struct {
	ID       string
	FilePath string
	FileName string
	Email    string
	IP       string
}

// EmailStore records submitter emails after successful delivery.
type EmailStore interface {
	SaveEmail(ctx context.Context, email, ip string) error
}

// Service runs the ingestion-to-report pipeline over a bounded worker pool.
type Service struct {
	config *config.Config
	store  EmailStore
	search search.Client
	sender email.Sender

	jobs     chan Job
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewService creates a new report pipeline service. store may be nil when
// the database is unavailable; email logging is then skipped.
func NewService(cfg *config.Config, store EmailStore, searchClient search.Client, sender email.Sender) *Service {
	return &Service{
		config: cfg,
		store:  store,
		search: searchClient,
		sender: sender,
		jobs:   make(chan Job, cfg.JobQueueSize),
	}
}

// Start launches the worker pool.
func (s *Service) Start() {
	log.Infof("Starting report pipeline: %d workers, queue size %d, provider %s",
		s.config.JobWorkers, s.config.JobQueueSize, s.search.SourceName())

	for i := 0; i < s.config.JobWorkers; i++ {
		s.wg.Add(1)
		go s.workerLoop()
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		log.Info("Stopping report pipeline, draining queue...")
		close(s.jobs)
		s.wg.Wait()
		log.Info("Report pipeline stopped")
	})
}

// Submit enqueues a job for background processing and returns immediately.
// A full queue rejects the job rather than blocking the request path.
func (s *Service) Submit(job Job) error {
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Service) workerLoop() {
	defer s.wg.Done()
	for job := range s.jobs {
		s.runJob(job)
	}
}

// runJob executes one job end to end. The temp upload file is removed
// exactly once regardless of outcome, including panics.
func (s *Service) runJob(job Job) {
	started := time.Now()
	result := "failed"

	metrics.JobsInFlight.Inc()
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("job %s: panic during processing: %v", job.ID, r)
			result = "failed"
		}
		removeUploadFile(job.ID, job.FilePath)
		metrics.JobsInFlight.Dec()
		metrics.JobsTotal.WithLabelValues(result).Inc()
		metrics.JobDurationSeconds.WithLabelValues(result).Observe(time.Since(started).Seconds())
	}()

	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		log.Errorf("job %s: failed to read staged upload: %v", job.ID, err)
		return
	}

	rows, skipped, err := parser.Parse(data, job.FileName)
	if err != nil {
		log.Errorf("job %s: failed to parse upload %s: %v", job.ID, job.FileName, err)
		return
	}
	if skipped > 0 {
		log.Warnf("job %s: skipped %d invalid rows in %s", job.ID, skipped, job.FileName)
	}

	records := s.processRows(job, rows)

	reportCSV := report.Assemble(records)
	if err := s.sender.SendReport(job.Email, reportCSV, len(records)); err != nil {
		log.Errorf("job %s: failed to deliver report to %s: %v", job.ID, job.Email, err)
		return
	}

	if s.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.SaveEmail(ctx, job.Email, job.IP); err != nil {
			log.Warnf("job %s: failed to record submitter email: %v", job.ID, err)
		}
		cancel()
	}

	log.Infof("job %s: delivered report with %d rows to %s", job.ID, len(records), job.Email)
	result = "delivered"
}

// processRows runs each query row sequentially through geo-prompting,
// search and scoring. A failed search yields a sentinel record so partial
// results remain deliverable.
func (s *Service) processRows(job Job, rows []models.QueryRow) []models.VisibilityMetrics {
	records := make([]models.VisibilityMetrics, 0, len(rows))

	for i, row := range rows {
		geoPrompt := geoprompt.Build(row.Prompt, row.Country)

		searchStarted := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), s.config.SearchTimeout)
		result, err := s.search.Search(ctx, geoPrompt)
		cancel()
		metrics.SearchDurationSeconds.Observe(time.Since(searchStarted).Seconds())

		if err != nil {
			log.Warnf("job %s: search failed for row %d/%d (%s): %v", job.ID, i+1, len(rows), row.Country, err)
			records = append(records, sentinelRecord(row, geoPrompt, err))
			metrics.RowsTotal.WithLabelValues("failed").Inc()
			continue
		}

		record := visibility.Score(result.Sources, row.TargetDomain, row.Country)
		record.OriginalPrompt = row.Prompt
		record.GeoPrompt = geoPrompt
		if result.Usage != nil {
			tokens := result.Usage.TotalTokens
			record.TokensUsed = &tokens
		}

		records = append(records, record)
		metrics.RowsTotal.WithLabelValues("ok").Inc()
	}

	return records
}

// sentinelRecord marks a row whose search call failed while keeping the
// report complete.
func sentinelRecord(row models.QueryRow, geoPrompt string, err error) models.VisibilityMetrics {
	return models.VisibilityMetrics{
		OriginalPrompt:    row.Prompt,
		GeoPrompt:         geoPrompt,
		TargetDomain:      row.TargetDomain,
		Country:           row.Country,
		Mentioned:         false,
		AIVScore:          0,
		CompetitorDomains: []string{},
		Error:             "search failed: " + err.Error(),
	}
}

// removeUploadFile releases the staged upload. Removal is idempotent: an
// already-removed file is not an error.
func removeUploadFile(jobID, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warnf("job %s: failed to remove staged upload %s: %v", jobID, path, err)
	}
}
