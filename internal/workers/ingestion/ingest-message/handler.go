// internal/workers/ingestion/ingest-message/handler.go
package ingestmessage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"cobuilder/internal/common/errors"
	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/metrics"
	"cobuilder/internal/common/observability"
	"cobuilder/internal/models"
	classifymessage "cobuilder/internal/workers/ingestion/classify-message"
	createtaskrecord "cobuilder/internal/workers/ingestion/create-task-record"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	TaskType = "ingest-message"
)

// Dependencies are the pipeline stages and shared clients. Redis, Users,
// Events and Observability are optional.
type Dependencies struct {
	Classifier    Classifier
	Tasks         TaskStore
	Notifier      Notifier
	Events        EventSink
	Users         UserDirectory
	Redis         *redis.Client
	Observability *observability.Observability
}

// Handler runs one acknowledged message action through
// classify, persist, publish and notify.
type Handler struct {
	config       *Config
	deps         Dependencies
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if deps.Observability == nil {
		deps.Observability = observability.NewNoop()
	}
	if config.ReleaseTimeout <= 0 {
		config.ReleaseTimeout = defaultReleaseTimeout
	}
	return &Handler{
		config:       config,
		deps:         deps,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

// Execute processes the job to a terminal outcome. Every outcome that the
// user should hear about has already been posted to the thread when Execute
// returns; the error only reports a failed outcome to the caller.
func (h *Handler) Execute(ctx context.Context, job models.IngestJob) (*Output, error) {
	start := time.Now()
	ctx, span := h.deps.Observability.StartSpan(ctx, "ingest-message",
		attribute.String("slack.channel_id", job.ChannelID),
		attribute.String("slack.message_ts", job.MessageTs),
	)
	defer span.End()

	log := h.logger.WithFields(map[string]interface{}{
		"jobId":     job.JobID,
		"channelId": job.ChannelID,
		"messageTs": job.MessageTs,
	})

	out, err := h.run(ctx, job, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, out.Outcome)
	}
	span.SetAttributes(attribute.String("ingest.outcome", out.Outcome))

	metrics.IngestionOutcomes.WithLabelValues(out.Outcome).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.deps.Observability.RecordJobProcessed(ctx, out.Outcome)
	h.deps.Observability.RecordJobDuration(ctx, time.Since(start), out.Outcome)

	log.Info("ingestion finished", map[string]interface{}{
		"outcome":    out.Outcome,
		"taskId":     out.TaskID,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return out, err
}

func (h *Handler) run(ctx context.Context, job models.IngestJob, log logger.Logger) (*Output, error) {
	if job.Mapping == nil {
		h.notify(ctx, log, func(ctx context.Context) error {
			return h.deps.Notifier.NotifyNotLinked(ctx, job.ChannelID, job.ChannelName, job.MessageTs)
		})
		return &Output{Outcome: metrics.OutcomeUnlinked}, nil
	}

	claimed := h.claim(ctx, job, log)
	if !claimed {
		h.notify(ctx, log, func(ctx context.Context) error {
			return h.deps.Notifier.NotifyDuplicate(ctx, job.ChannelID, job.MessageTs)
		})
		return &Output{Outcome: metrics.OutcomeDuplicate}, nil
	}

	// The claim is kept only once a task exists. Failures, timeouts and
	// panics give it back so the user can run the shortcut again.
	keepClaim := false
	defer func() {
		if !keepClaim {
			h.release(ctx, job, log)
		}
	}()

	userName := h.resolveUserName(ctx, job, log)

	classification, err := h.deps.Classifier.Execute(ctx, &classifymessage.Input{
		Text:        job.MessageText,
		UserName:    userName,
		ChannelName: channelName(job),
	})
	if err != nil {
		log.Warn("classification failed", map[string]interface{}{"error": err.Error()})
		h.notify(ctx, log, func(ctx context.Context) error {
			return h.deps.Notifier.NotifyClassificationFailed(ctx, job.ChannelID, job.MessageTs)
		})
		return &Output{Outcome: metrics.OutcomeClassificationFailed}, classificationError(err)
	}

	task, err := h.deps.Tasks.Execute(ctx, &createtaskrecord.Input{
		VentureID:      job.Mapping.VentureID,
		Classification: classification,
		ChannelID:      job.ChannelID,
		MessageTs:      job.MessageTs,
		UserID:         job.AuthorID,
		UserName:       userName,
	})
	if err != nil {
		if stderrors.Is(err, createtaskrecord.ErrDuplicateTask) {
			keepClaim = true
			h.notify(ctx, log, func(ctx context.Context) error {
				return h.deps.Notifier.NotifyDuplicate(ctx, job.ChannelID, job.MessageTs)
			})
			return &Output{Outcome: metrics.OutcomeDuplicate}, nil
		}
		log.Error("task persist failed", map[string]interface{}{"error": err.Error()})
		h.notify(ctx, log, func(ctx context.Context) error {
			return h.deps.Notifier.NotifySaveFailed(ctx, job.ChannelID, job.MessageTs)
		})
		return &Output{Outcome: metrics.OutcomePersistFailed}, errors.NewTaskPersistFailedError(err)
	}

	keepClaim = true

	if h.deps.Events != nil {
		// best effort, already logged by the stage
		_, _ = h.deps.Events.Execute(ctx, task)
	}

	h.notify(ctx, log, func(ctx context.Context) error {
		return h.deps.Notifier.NotifyCreated(ctx, task)
	})
	return &Output{Outcome: metrics.OutcomeCreated, TaskID: task.ID}, nil
}

// Handle is the Camunda job worker entry point. Job variables carry the
// IngestJob built by the webhook.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	ctx := context.Background()

	var input models.IngestJob
	if err := job.GetVariablesAs(&input); err != nil {
		stdErr := errors.NewMalformedRequestError(fmt.Sprintf("job variables: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	out, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	completeCtx, cancel := context.WithTimeout(ctx, h.config.CompleteTimeout)
	defer cancel()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(out)
	if err != nil {
		return fmt.Errorf("complete job %d: %w", job.Key, err)
	}
	if _, err := cmd.Send(completeCtx); err != nil {
		return fmt.Errorf("complete job %d: %w", job.Key, err)
	}
	return nil
}

// claim marks the message as being processed. It reports false only when
// another job already holds the claim; a Redis failure lets the job through
// and leaves deduplication to the unique constraint on tasks.
func (h *Handler) claim(ctx context.Context, job models.IngestJob, log logger.Logger) bool {
	if h.deps.Redis == nil {
		return true
	}
	ok, err := h.deps.Redis.SetNX(ctx, dedupKey(job.ChannelID, job.MessageTs), job.JobID, h.config.DedupTTL).Result()
	if err != nil {
		log.Warn("dedup claim failed, continuing", map[string]interface{}{"error": err.Error()})
		return true
	}
	return ok
}

// release drops the claim on a context detached from the job deadline; a
// timed-out job must still free the message for a retry.
func (h *Handler) release(ctx context.Context, job models.IngestJob, log logger.Logger) {
	if h.deps.Redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.ReleaseTimeout)
	defer cancel()

	if err := h.deps.Redis.Del(ctx, dedupKey(job.ChannelID, job.MessageTs)).Err(); err != nil {
		log.Warn("dedup release failed", map[string]interface{}{"error": err.Error()})
	}
}

func (h *Handler) resolveUserName(ctx context.Context, job models.IngestJob, log logger.Logger) string {
	if h.deps.Users != nil && job.AuthorID != "" {
		info, err := h.deps.Users.GetUserInfo(ctx, job.AuthorID)
		if err != nil {
			log.Warn("user lookup failed", map[string]interface{}{
				"userId": job.AuthorID,
				"error":  err.Error(),
			})
		} else if info != nil {
			if name := info.PreferredName(); name != "" {
				return name
			}
		}
	}
	if job.AuthorID == job.ActorID || job.AuthorID == "" {
		return job.ActorName
	}
	return ""
}

// notify posts a thread reply on a context detached from the job deadline,
// so a timed-out job can still tell the user. Failures are only logged.
func (h *Handler) notify(ctx context.Context, log logger.Logger, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.config.NotifyTimeout)
	defer cancel()

	if err := send(ctx); err != nil {
		log.Error("thread reply failed", map[string]interface{}{"error": err.Error()})
	}
}

func channelName(job models.IngestJob) string {
	if job.ChannelName != "" {
		return job.ChannelName
	}
	if job.Mapping != nil {
		return job.Mapping.SlackChannelName
	}
	return ""
}

func classificationError(err error) *errors.StandardError {
	if stderrors.Is(err, classifymessage.ErrClassificationParse) {
		return errors.NewClassificationParseFailedError(err)
	}
	return errors.NewClassificationFailedError(err)
}
