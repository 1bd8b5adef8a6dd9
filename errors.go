package gridcalc

import "errors"

// ErrorCode is a spreadsheet error sentinel as displayed in a cell.
// It implements error so procedures can return it through ordinary error paths.
type ErrorCode string

const (
	ErrValue ErrorCode = "#VALUE!" // wrong operand shape or type
	ErrName  ErrorCode = "#NAME?"  // unrecognized function or name
	ErrRef   ErrorCode = "#REF!"   // address outside the grid
	ErrNum   ErrorCode = "#NUM!"   // argument outside the mathematical domain
	ErrDiv0  ErrorCode = "#DIV/0!" // division by zero or empty aggregation
	ErrNull  ErrorCode = "#NULL!"  // empty intersection
	ErrNA    ErrorCode = "#N/A"    // lookup or search failure
	ErrCycle ErrorCode = "#CYCLE!" // circular reference
)

// ErrorCodes lists every sentinel in display order.
var ErrorCodes = []ErrorCode{ErrValue, ErrName, ErrRef, ErrNum, ErrDiv0, ErrNull, ErrNA, ErrCycle}

func (e ErrorCode) Error() string { return string(e) }

// ParseErrorCode recognizes an error sentinel string.
func ParseErrorCode(s string) (ErrorCode, bool) {
	for _, code := range ErrorCodes {
		if string(code) == s {
			return code, true
		}
	}
	return "", false
}

// codeOf maps any error to the nearest sentinel. Errors that are not
// sentinels become #VALUE!.
func codeOf(err error) ErrorCode {
	var code ErrorCode
	if errors.As(err, &code) {
		return code
	}
	return ErrValue
}

// Go-level sentinels for failures outside a cell's value.
var (
	ErrSyntax            = errors.New("formula syntax error")
	ErrNilGrid           = errors.New("nil grid")
	ErrUnknownDemo       = errors.New("unknown demo")
	ErrDuplicateFunction = errors.New("function already registered")
)
