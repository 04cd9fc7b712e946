package datatransfer

import (
	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/internal/operation"
)

// RunAdapter interprets the latest run of a transfer config. A config without
// runs is pending since the first run is scheduled asynchronously.
var RunAdapter = operation.AdapterFunc[*datatransferpb.TransferRun](RunStatus)

func RunStatus(run *datatransferpb.TransferRun) (operation.Status, error) {
	if run == nil {
		return operation.Status{State: operation.Pending}, nil
	}

	switch run.GetState() {
	case datatransferpb.TransferState_TRANSFER_STATE_UNSPECIFIED, datatransferpb.TransferState_PENDING:
		return operation.Status{State: operation.Pending}, nil
	case datatransferpb.TransferState_RUNNING:
		return operation.Status{State: operation.Running}, nil
	case datatransferpb.TransferState_SUCCEEDED:
		return operation.Status{State: operation.Succeeded}, nil
	case datatransferpb.TransferState_FAILED:
		return operation.Status{
			State:   operation.Failed,
			Message: run.GetErrorStatus().GetMessage(),
			Code:    run.GetErrorStatus().GetCode(),
		}, nil
	case datatransferpb.TransferState_CANCELLED:
		return operation.Status{
			State:   operation.Cancelled,
			Message: run.GetErrorStatus().GetMessage(),
			Code:    run.GetErrorStatus().GetCode(),
		}, nil
	default:
		return operation.Status{}, operation.Unrecognized(operation.KindTransferRun, int32(run.GetState()))
	}
}
