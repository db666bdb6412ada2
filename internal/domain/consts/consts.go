package consts

type ExecutionStatus string

const (
	ExecutionStatusQueued     ExecutionStatus = "Queued"
	ExecutionStatusDiagnosing ExecutionStatus = "Diagnosing"
	ExecutionStatusRepairing  ExecutionStatus = "Repairing"
	ExecutionStatusFinished   ExecutionStatus = "Finished"
	ExecutionStatusFailed     ExecutionStatus = "Failed"
	ExecutionStatusCanceled   ExecutionStatus = "Canceled"
)

// ActiveExecutionStatuses are the statuses the worker sweeps, in pipeline order.
var ActiveExecutionStatuses = []ExecutionStatus{
	ExecutionStatusQueued,
	ExecutionStatusDiagnosing,
	ExecutionStatusRepairing,
}

func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusFinished, ExecutionStatusFailed, ExecutionStatusCanceled:
		return true
	default:
		return false
	}
}

func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusQueued, ExecutionStatusDiagnosing, ExecutionStatusRepairing,
		ExecutionStatusFinished, ExecutionStatusFailed, ExecutionStatusCanceled:
		return true
	default:
		return false
	}
}

func (s ExecutionStatus) String() string {
	return string(s)
}
