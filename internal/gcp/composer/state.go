package composer

import (
	"github.com/markuphq/markup/internal/operation"
	cmp "google.golang.org/api/composer/v1"
)

// EnvironmentAdapter reports readiness of an environment. A deleted
// environment will never become ready and counts as cancelled.
var EnvironmentAdapter = operation.AdapterFunc[*cmp.Environment](EnvironmentStatus)

func EnvironmentStatus(env *cmp.Environment) (operation.Status, error) {
	if env == nil {
		return operation.Status{}, operation.Unrecognized(operation.KindEnvironment, "<nil>")
	}

	switch env.State {
	case "", "STATE_UNSPECIFIED":
		return operation.Status{State: operation.Pending}, nil
	case "CREATING", "UPDATING":
		return operation.Status{State: operation.Running}, nil
	case "RUNNING":
		return operation.Status{State: operation.Succeeded}, nil
	case "ERROR":
		return operation.Status{State: operation.Failed, Message: "environment is in ERROR state"}, nil
	case "DELETING":
		return operation.Status{State: operation.Cancelled, Message: "environment is being deleted"}, nil
	default:
		return operation.Status{}, operation.Unrecognized(operation.KindEnvironment, env.State)
	}
}
