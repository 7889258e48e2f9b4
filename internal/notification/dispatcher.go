package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrQueueFull        = errors.New("notification queue full")
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

type Job struct {
	Email Email
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				return
			}

			select {
			case job := <-w.JobChannel:
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("mail worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type DispatcherConfig struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher hands messages to a pool of workers so callers never wait on
// the mail relay. Delivery failures are logged and dropped. Shutdown delivers
// everything already queued before returning.
type Dispatcher struct {
	mailer      Mailer
	logger      *slog.Logger
	sendTimeout time.Duration

	jobQueue     chan Job
	workerPool   chan chan Job
	maxWorkers   int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	dispatchDone chan struct{}
	once         sync.Once
	stopOnce     sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(mailer Mailer, cfg DispatcherConfig, logger *slog.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	d := &Dispatcher{
		mailer:      mailer,
		logger:      logger,
		sendTimeout: timeout,
		maxWorkers:  workers,
		jobQueue:    make(chan Job, queueSize),
		workerPool:   make(chan chan Job, workers),
		ctx:          ctx,
		cancel:       cancel,
		dispatchDone: make(chan struct{}),
	}
	d.start()
	return d
}

func (d *Dispatcher) start() {
	d.once.Do(func() {
		for i := 0; i < d.maxWorkers; i++ {
			NewWorker(i, d.workerPool, d.logger).Start(d.ctx, &d.wg, d.deliver)
		}

		go d.dispatch()

		d.logger.Info("mail dispatcher started",
			"workers", d.maxWorkers,
			"queue_size", cap(d.jobQueue))
	})
}

// dispatch feeds queued jobs to idle workers until the queue is closed and
// empty. Workers stay up until it returns.
func (d *Dispatcher) dispatch() {
	defer close(d.dispatchDone)

	for job := range d.jobQueue {
		jobChannel := <-d.workerPool
		jobChannel <- job
	}
}

// Send queues an HTML message for delivery.
func (d *Dispatcher) Send(ctx context.Context, to, subject, htmlBody string) error {
	job := Job{Email: Email{To: []string{to}, Subject: subject, HTMLBody: htmlBody}}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("mail dispatcher closed, dropping email", "to", to, "subject", subject)
		return ErrDispatcherClosed
	}

	select {
	case d.jobQueue <- job:
		d.logger.Debug("email queued", "to", to, "subject", subject, "queue_length", len(d.jobQueue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		d.logger.Warn("mail queue full, dropping email", "to", to, "subject", subject, "queue_capacity", cap(d.jobQueue))
		return ErrQueueFull
	}
}

// deliver runs on its own deadline so a shutdown in progress does not abort
// a message already handed to a worker.
func (d *Dispatcher) deliver(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, job.Email); err != nil {
		d.logger.Error("email delivery failed",
			"to", job.Email.To,
			"subject", job.Email.Subject,
			"error", err)
		return
	}
	d.logger.Info("email delivered", "to", job.Email.To, "subject", job.Email.Subject)
}

// Shutdown stops accepting mail, waits for the queue to drain and for every
// in-flight delivery to finish, then stops the workers. Safe to call twice.
func (d *Dispatcher) Shutdown() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down mail dispatcher", "queued", len(d.jobQueue))

		d.mu.Lock()
		d.closed = true
		close(d.jobQueue)
		d.mu.Unlock()

		<-d.dispatchDone
		d.cancel()
		d.wg.Wait()
		d.logger.Info("mail dispatcher shutdown complete")
	})
}
