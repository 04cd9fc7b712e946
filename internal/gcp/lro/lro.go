// Package lro normalizes google.longrunning style operations returned by the
// REST discovery clients.
package lro

import (
	"github.com/markuphq/markup/internal/operation"
	"google.golang.org/grpc/codes"
)

type Error struct {
	Code    int32
	Message string
}

type Operation struct {
	Name  string
	Done  bool
	Error *Error
}

func (op *Operation) Handle() operation.Handle {
	return operation.Handle{ID: op.Name, Name: op.Name, Kind: operation.KindOperation}
}

// Adapter interprets an operation. An error always wins over done, and a nil
// operation is never assumed to still be running.
var Adapter = operation.AdapterFunc[*Operation](Status)

func Status(op *Operation) (operation.Status, error) {
	if op == nil {
		return operation.Status{}, operation.Unrecognized(operation.KindOperation, "<nil>")
	}

	if op.Error != nil {
		state := operation.Failed
		if codes.Code(op.Error.Code) == codes.Canceled {
			state = operation.Cancelled
		}
		return operation.Status{State: state, Message: op.Error.Message, Code: op.Error.Code}, nil
	}

	if op.Done {
		return operation.Status{State: operation.Succeeded}, nil
	}
	return operation.Status{State: operation.Running}, nil
}
