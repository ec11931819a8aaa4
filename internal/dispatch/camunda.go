// internal/dispatch/camunda.go
package dispatch

import (
	"context"
	"fmt"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/models"
)

// ProcessStarter creates workflow instances.
type ProcessStarter interface {
	StartProcess(ctx context.Context, processID string, variables interface{}) (int64, error)
}

// CamundaDispatcher hands each job to the workflow engine as a new process
// instance; the ingest-message job worker picks it up from there.
type CamundaDispatcher struct {
	starter   ProcessStarter
	processID string
	logger    logger.Logger
}

func NewCamundaDispatcher(starter ProcessStarter, processID string, log logger.Logger) *CamundaDispatcher {
	return &CamundaDispatcher{
		starter:   starter,
		processID: processID,
		logger:    log.WithFields(map[string]interface{}{"component": "dispatch-camunda"}),
	}
}

func (d *CamundaDispatcher) Dispatch(ctx context.Context, job models.IngestJob) error {
	key, err := d.starter.StartProcess(ctx, d.processID, job)
	if err != nil {
		return fmt.Errorf("start %s for job %s: %w", d.processID, job.JobID, err)
	}

	d.logger.Debug("ingestion process started", map[string]interface{}{
		"jobId":              job.JobID,
		"processInstanceKey": key,
	})
	return nil
}
