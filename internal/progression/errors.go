package progression

import (
	"errors"
	"fmt"
)

// ErrContractViolation 调用方违反前置条件，属于编程错误，不可静默降级为默认值
var ErrContractViolation = errors.New("progression contract violation")

var (
	ErrInvalidLevel = fmt.Errorf("%w: level out of range", ErrContractViolation)
	ErrMaxLevel     = fmt.Errorf("%w: already at max level", ErrContractViolation)
)

var ErrInvalidCatalog = errors.New("invalid level catalog")
