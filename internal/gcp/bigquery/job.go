package bigquery

import (
	"fmt"

	bq "cloud.google.com/go/bigquery"
	"github.com/markuphq/markup/internal/operation"
)

// JobAdapter interprets a job snapshot. BigQuery reports cancelled jobs as
// done with the "stopped" reason.
var JobAdapter = operation.AdapterFunc[*Job](JobStatus)

func JobStatus(job *Job) (operation.Status, error) {
	if job == nil {
		return operation.Status{}, operation.Unrecognized(operation.KindJob, "<nil>")
	}

	switch job.State {
	case bq.StateUnspecified, bq.Pending:
		return operation.Status{State: operation.Pending}, nil
	case bq.Running:
		return operation.Status{State: operation.Running}, nil
	case bq.Done:
		if job.Err == nil {
			return operation.Status{State: operation.Succeeded}, nil
		}
		if job.Err.Reason == "stopped" {
			return operation.Status{State: operation.Cancelled, Message: job.Err.Message}, nil
		}
		msg := job.Err.Message
		if job.Err.Reason != "" {
			msg = fmt.Sprintf("%s: %s", job.Err.Reason, job.Err.Message)
		}
		return operation.Status{State: operation.Failed, Message: msg}, nil
	default:
		return operation.Status{}, operation.Unrecognized(operation.KindJob, int(job.State))
	}
}

func (j *Job) Handle(name string) operation.Handle {
	return operation.Handle{ID: j.ID, Name: name, Kind: operation.KindJob}
}
