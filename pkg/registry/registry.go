package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	commonerrors "hr-analytics/internal/common/errors"
	"hr-analytics/internal/common/validation"
)

// LoadRegistry reads and validates a registry file.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a registry document.
func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Validate checks identifiers, timeouts, declared error codes and that every
// input schema compiles. All problems are reported together.
func (r *ActivityRegistry) Validate() error {
	var errs []error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for i, a := range r.Activities {
		where := fmt.Sprintf("activities[%d]", i)
		if a.ID != "" {
			where = a.ID
		}

		switch {
		case a.ID == "":
			errs = append(errs, fmt.Errorf("%s: id is required", where))
		case ids[a.ID]:
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		ids[a.ID] = true

		switch {
		case a.TaskType == "":
			errs = append(errs, fmt.Errorf("%s: taskType is required", where))
		case taskTypes[a.TaskType]:
			errs = append(errs, fmt.Errorf("%s: duplicate taskType %s", where, a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if a.ImplementationStatus != "" && !implementationStatuses[a.ImplementationStatus] {
			errs = append(errs, fmt.Errorf("%s: unknown implementationStatus %q", where, a.ImplementationStatus))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				errs = append(errs, fmt.Errorf("%s: timeout: %w", where, err))
			}
		}
		for _, code := range a.ErrorCodes {
			if _, ok := commonerrors.BPMNErrorMapping[commonerrors.ErrorCode(code)]; !ok {
				errs = append(errs, fmt.Errorf("%s: undeclared error code %s", where, code))
			}
		}
		if _, err := a.InputValidator(); err != nil {
			errs = append(errs, fmt.Errorf("%s: inputSchema: %w", where, err))
		}
	}
	return errors.Join(errs...)
}

// Find returns the activity bound to taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputValidator compiles the activity's input schema. It returns nil when
// the activity declares none.
func (a *Activity) InputValidator() (*InputValidator, error) {
	if len(a.InputSchema) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(a.InputSchema)
	if err != nil {
		return nil, err
	}
	schema, err := validation.Compile(string(raw))
	if err != nil {
		return nil, err
	}
	return &InputValidator{taskType: a.TaskType, schema: schema}, nil
}

// InputValidator checks raw job variables against an activity input schema.
type InputValidator struct {
	taskType string
	schema   *validation.Schema
}

// ValidateInput returns an INVALID_INPUT error naming every violation.
func (v *InputValidator) ValidateInput(variables string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(variables), &doc); err != nil {
		return commonerrors.NewInvalidInputError(fmt.Sprintf("%s: parse variables: %v", v.taskType, err))
	}
	res := v.schema.Validate(doc)
	if res.Valid {
		return nil
	}
	return commonerrors.NewInvalidInputError(fmt.Sprintf("%s: %s", v.taskType, strings.Join(res.GetErrorMessages(), "; ")))
}
