package dnd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tgienger/coreterra/internal/models"
)

// KindTask is the only payload kind the organize board accepts
const KindTask = "task"

var validate = validator.New()

// Payload is the typed content of a drag: which task, and where it came from
type Payload struct {
	Kind   string `json:"kind" validate:"required,eq=task"`
	ID     int64  `json:"id" validate:"gt=0"`
	Source string `json:"source" validate:"required,max=100"`
}

// PayloadError reports a drop whose payload could not be accepted
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return "invalid drag payload: " + e.Reason
}

// TaskPayload builds a payload for dragging a task out of a container
func TaskPayload(id int64, source string) Payload {
	return Payload{Kind: KindTask, ID: id, Source: source}
}

// Encode serializes a payload for transfer
func (p Payload) Encode() ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

// Validate checks the payload's fields
func (p Payload) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return &PayloadError{Reason: fmt.Sprintf("field %s failed %s", strings.ToLower(f.Field()), f.Tag())}
		}
		return &PayloadError{Reason: err.Error()}
	}
	return nil
}

// Decode parses and validates a transferred payload
func Decode(data []byte) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, &PayloadError{Reason: err.Error()}
	}
	if err := p.Validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// TargetKind identifies what a drop zone assigns
type TargetKind string

const (
	TargetProject  TargetKind = "project"
	TargetContext  TargetKind = "context"
	TargetSchedule TargetKind = "schedule"
	TargetMember   TargetKind = "member"
	TargetUnassign TargetKind = "unassign"
)

// Target is a drop zone on the organize board
type Target struct {
	Kind TargetKind
	Ref  string
}

func (t Target) String() string {
	if t.Kind == TargetUnassign {
		return string(t.Kind)
	}
	return string(t.Kind) + "-" + t.Ref
}

// ParseTarget parses ids such as "project-p1", "context-@home",
// "schedule-morning", "member-2" and "unassign"
func ParseTarget(id string) (Target, error) {
	id = strings.TrimSpace(id)
	if id == string(TargetUnassign) {
		return Target{Kind: TargetUnassign}, nil
	}
	kind, ref, ok := strings.Cut(id, "-")
	if !ok || ref == "" {
		return Target{}, fmt.Errorf("invalid drop target %q", id)
	}
	t := Target{Kind: TargetKind(kind), Ref: ref}
	switch t.Kind {
	case TargetProject, TargetContext, TargetSchedule:
	case TargetMember:
		if _, err := strconv.ParseInt(ref, 10, 64); err != nil {
			return Target{}, fmt.Errorf("invalid member id in drop target %q", id)
		}
	default:
		return Target{}, fmt.Errorf("unknown drop target kind %q", kind)
	}
	return t, nil
}

// Patch is the task update a drop on t performs
func (t Target) Patch() (models.TaskPatch, error) {
	organized := models.StatusOrganized
	switch t.Kind {
	case TargetProject:
		return models.TaskPatch{ProjectID: models.Ptr(t.Ref), Status: &organized}, nil
	case TargetContext:
		return models.TaskPatch{ContextID: models.Ptr(t.Ref), Status: &organized}, nil
	case TargetSchedule:
		return models.TaskPatch{Status: models.Ptr(models.StatusScheduled)}, nil
	case TargetMember:
		id, err := strconv.ParseInt(t.Ref, 10, 64)
		if err != nil {
			return models.TaskPatch{}, fmt.Errorf("invalid member id %q", t.Ref)
		}
		return models.TaskPatch{AssigneeID: &id, Status: &organized}, nil
	case TargetUnassign:
		return models.TaskPatch{ClearAssignee: true}, nil
	}
	return models.TaskPatch{}, fmt.Errorf("unknown drop target kind %q", t.Kind)
}
