package recommend

import "errors"

// Sentinel errors of the engine facade.
var (
	ErrWarmup  = errors.New("warm start aborted")
	ErrRestore = errors.New("restore failed")
	ErrPersist = errors.New("persist failed")
)
