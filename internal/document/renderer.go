// Package document renders approval letters through an external renderer
// service. Rendering happens off the request path: approvals enqueue a job
// and a worker pool calls the renderer and reports the stored document ref
// back through the sink.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

type RenderJob struct {
	RequestID   string
	EmployeeID  string
	BenefitType string
	NetAmount   decimal.Decimal
}

// Sink receives the document ref once a render completes.
type Sink func(ctx context.Context, requestID, documentRef string)

type Worker struct {
	ID         int
	WorkerPool chan chan RenderJob
	JobChannel chan RenderJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan RenderJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan RenderJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(RenderJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing render job", "worker_id", w.ID, "request_id", job.RequestID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("render worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Renderer struct {
	rendererURL string
	apiKey      string
	timeout     time.Duration
	sink        Sink
	logger      *slog.Logger

	jobQueue   chan RenderJob
	workerPool chan chan RenderJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

type Config struct {
	RendererURL  string
	APIKey       string
	Timeout      time.Duration
	MaxWorkers   int
	JobQueueSize int
}

func NewRenderer(config Config, sink Sink, logger *slog.Logger) *Renderer {
	ctx, cancel := context.WithCancel(context.Background())

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	r := &Renderer{
		rendererURL: config.RendererURL,
		apiKey:      config.APIKey,
		timeout:     timeout,
		sink:        sink,
		logger:      logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan RenderJob, jobQueueSize),
		workerPool: make(chan chan RenderJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}

	r.startWorkerPool()

	return r
}

func (r *Renderer) startWorkerPool() {
	r.once.Do(func() {
		for i := 0; i < r.maxWorkers; i++ {
			worker := NewWorker(i, r.workerPool, r.logger)
			worker.Start(r.ctx, &r.wg, r.processRenderJob)
		}

		go r.dispatch()

		r.logger.Info("document renderer worker pool started",
			"max_workers", r.maxWorkers,
			"queue_size", cap(r.jobQueue))
	})
}

func (r *Renderer) dispatch() {
	r.wg.Add(1)
	defer r.wg.Done()

	for {
		select {
		case job := <-r.jobQueue:
			select {
			case jobChannel := <-r.workerPool:
				select {
				case jobChannel <- job:
				case <-r.ctx.Done():
					r.logger.Info("render dispatcher shutting down")
					return
				}
			case <-r.ctx.Done():
				r.logger.Info("render dispatcher shutting down")
				return
			}
		case <-r.ctx.Done():
			r.logger.Info("render dispatcher shutting down")
			return
		}
	}
}

func (r *Renderer) Shutdown() {
	r.logger.Info("shutting down document renderer")
	r.cancel()
	r.wg.Wait()
	r.logger.Info("document renderer shutdown complete")
}

// EnqueueApprovalDocument queues a render. A full queue drops the job with a
// warning; the letter can be regenerated later, the approval itself is
// already durable.
func (r *Renderer) EnqueueApprovalDocument(requestID, employeeID, benefitType string, netAmount decimal.Decimal) {
	job := RenderJob{
		RequestID:   requestID,
		EmployeeID:  employeeID,
		BenefitType: benefitType,
		NetAmount:   netAmount,
	}

	select {
	case r.jobQueue <- job:
		r.logger.Info("render job queued",
			"request_id", requestID,
			"queue_length", len(r.jobQueue))
	default:
		r.logger.Warn("render queue full, dropping job",
			"request_id", requestID,
			"queue_capacity", cap(r.jobQueue))
	}
}

func (r *Renderer) processRenderJob(job RenderJob) {
	r.logger.Info("rendering approval document", "request_id", job.RequestID)

	documentRef, err := r.render(job)
	if err != nil {
		r.logger.Error("document render failed",
			"error", err,
			"request_id", job.RequestID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.sink(ctx, job.RequestID, documentRef)
}

func (r *Renderer) render(job RenderJob) (string, error) {
	payload := map[string]interface{}{
		"template":     "benefit_approval_letter",
		"request_id":   job.RequestID,
		"employee_id":  job.EmployeeID,
		"benefit_type": job.BenefitType,
		"net_amount":   job.NetAmount.String(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", r.rendererURL+"/render", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("renderer returned status %d", resp.StatusCode)
	}

	var apiResponse struct {
		Data struct {
			DocumentRef string `json:"document_ref"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	r.logger.Info("approval document rendered",
		"request_id", job.RequestID,
		"document_ref", apiResponse.Data.DocumentRef)

	return apiResponse.Data.DocumentRef, nil
}
