package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entity is the tagged union over the ten domain entity variants.
// Dispatch on the concrete type (or Kind) with an exhaustive switch;
// the engine never inspects fields by reflection.
type Entity interface {
	// Kind returns the variant tag for this entity.
	Kind() EntityKind

	// EntityID returns the stable identifier used for deduplication.
	EntityID() string
}

// Person represents a contact.
type Person struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Title   string `json:"title,omitempty"`
	Company string `json:"company,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (p Person) Kind() EntityKind { return KindPerson }
func (p Person) EntityID() string { return p.ID }

// Place represents a physical location the user cares about.
type Place struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address,omitempty"`
	Category string `json:"category,omitempty"`
}

func (p Place) Kind() EntityKind { return KindPlace }
func (p Place) EntityID() string { return p.ID }

// Event represents a calendar event.
type Event struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	Location  string     `json:"location,omitempty"`
	Attendees []string   `json:"attendees,omitempty"`
}

func (e Event) Kind() EntityKind { return KindEvent }
func (e Event) EntityID() string { return e.ID }

// Task represents a unit of work with an optional due date.
type Task struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Status   string     `json:"status,omitempty"`
	Priority string     `json:"priority,omitempty"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Project  string     `json:"project,omitempty"`
}

func (t Task) Kind() EntityKind { return KindTask }
func (t Task) EntityID() string { return t.ID }

// Deadline represents a hard date with consequences, distinct from a task.
type Deadline struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	DueAt       time.Time `json:"due_at"`
	Severity    string    `json:"severity,omitempty"`
	Consequence string    `json:"consequence,omitempty"`
}

func (d Deadline) Kind() EntityKind { return KindDeadline }
func (d Deadline) EntityID() string { return d.ID }

// Routine represents a recurring habit or ritual.
type Routine struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Cadence   string `json:"cadence,omitempty"`
	TimeOfDay string `json:"time_of_day,omitempty"`
}

func (r Routine) Kind() EntityKind { return KindRoutine }
func (r Routine) EntityID() string { return r.ID }

// OpenLoop represents an unresolved thread the user is waiting on.
type OpenLoop struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	WaitingOn   string    `json:"waiting_on,omitempty"`
	OpenedAt    time.Time `json:"opened_at"`
}

func (o OpenLoop) Kind() EntityKind { return KindOpenLoop }
func (o OpenLoop) EntityID() string { return o.ID }

// Project represents a multi-task initiative.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status,omitempty"`
	Description string `json:"description,omitempty"`
}

func (p Project) Kind() EntityKind { return KindProject }
func (p Project) EntityID() string { return p.ID }

// Note represents a free-form note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Note) Kind() EntityKind { return KindNote }
func (n Note) EntityID() string { return n.ID }

// Opportunity represents a potential deal or opening being tracked.
type Opportunity struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Stage   string     `json:"stage,omitempty"`
	Value   float64    `json:"value,omitempty"`
	CloseBy *time.Time `json:"close_by,omitempty"`
}

func (o Opportunity) Kind() EntityKind { return KindOpportunity }
func (o Opportunity) EntityID() string { return o.ID }

// DecodeEntity unmarshals a JSON payload into the concrete variant for the
// given kind. Storage backends use it to hydrate persisted entities.
func DecodeEntity(kind EntityKind, payload []byte) (Entity, error) {
	var (
		entity Entity
		err    error
	)

	switch kind {
	case KindPerson:
		var v Person
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindPlace:
		var v Place
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindEvent:
		var v Event
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindTask:
		var v Task
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindDeadline:
		var v Deadline
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindRoutine:
		var v Routine
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindOpenLoop:
		var v OpenLoop
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindProject:
		var v Project
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindNote:
		var v Note
		err = json.Unmarshal(payload, &v)
		entity = v
	case KindOpportunity:
		var v Opportunity
		err = json.Unmarshal(payload, &v)
		entity = v
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s entity: %w", kind, err)
	}
	return entity, nil
}
