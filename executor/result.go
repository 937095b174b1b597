package executor

import (
	"encoding/json"
	"fmt"
)

// Result is the uniform envelope for one executed action. A successful
// result marshals as the decoded upstream body verbatim; an error result
// marshals as {"error": ..., "status": ...}.
type Result struct {
	Body   interface{}
	Error  string
	Status int
}

func (r Result) OK() bool {
	return r.Error == ""
}

func Errorf(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

type resultError struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(resultError{Error: r.Error, Status: r.Status})
	}

	return json.Marshal(r.Body)
}
