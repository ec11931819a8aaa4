// internal/common/camunda/worker.go
package camunda

import (
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"cobuilder/internal/common/logger"
)

// JobHandler completes, fails or throws on the job itself; the returned
// error is only logged.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(client zbc.Client, taskType string, maxJobsActive int, handler JobHandler, log logger.Logger) *Worker {
	log = log.With(map[string]interface{}{"taskType": taskType})

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(func(client worker.JobClient, job entities.Job) {
			if err := handler.Handle(client, job); err != nil {
				log.Error("handler returned error", map[string]interface{}{
					"jobKey": job.Key,
					"error":  err,
				})
			}
		}).
		MaxJobsActive(maxJobsActive).
		Open()

	log.Info("job worker opened", map[string]interface{}{"maxJobsActive": maxJobsActive})

	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

// Stop closes the job stream and waits for in-flight handlers.
func (w *Worker) Stop() {
	w.logger.Info("stopping job worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
