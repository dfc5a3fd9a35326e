package execution

import (
	"github.com/luno/jettison/errors"
	"github.com/luno/jettison/j"
)

var (
	ErrRecordNotFound        = errors.New("record not found", j.C("ERR_4be276d52f8cf1a3"))
	ErrFuncNotRegistered     = errors.New("no registered function defined for name", j.C("ERR_90fca1e83b27d645"))
	ErrFuncAlreadyRegistered = errors.New("function already registered for name", j.C("ERR_512acb7de9034f88"))
	ErrInvalidInput          = errors.New("execution input validation failed", j.C("ERR_7d33f29ab04c81e6"))
	ErrExecutionFailed       = errors.New("registered function failed", j.C("ERR_e1b6049c72d5af38"))
	ErrNotSerializable       = errors.New("result not serializable - stored as its string form", j.C("ERR_2a97cf40d1e86b5d"))
	ErrStaleRecord           = errors.New("record was modified concurrently", j.C("ERR_c58e13fa6027b49d"))
)
