package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inventory/internal/models"

	"go.uber.org/zap"
)

var (
	// ErrVariantOutOfRange is returned when a variant index does not address
	// an existing row.
	ErrVariantOutOfRange = errors.New("variant index out of range")
	// ErrSubmitInProgress is returned when Submit is called while a previous
	// submission of the same draft has not resolved.
	ErrSubmitInProgress = errors.New("submit already in progress")
)

// Validation messages, keyed by the field they are reported under.
const (
	MsgNameRequired     = "Name is required"
	MsgBrandRequired    = "Brand is required"
	MsgCategoryRequired = "Category is required"
	MsgSKURequired      = "SKU is required"
	MsgVariantsRequired = "All variant fields (weight, price, stock) are required"
)

// VariantsKey is the error key of the aggregate variant message.
const VariantsKey = "variants"

// Notification messages.
const (
	MsgCreated      = "Product added successfully!"
	MsgCreateFailed = "Failed to add product"
	MsgUpdated      = "Product updated successfully!"
	MsgUpdateFailed = "Failed to update product"
)

// ValidationErrors maps a field name to a human-readable message. An empty
// set means the draft may be submitted.
type ValidationErrors map[string]string

// Validate checks the draft's required fields. It reports a single aggregate
// "variants" entry when any variant row is incomplete.
func Validate(d Draft) ValidationErrors {
	errs := ValidationErrors{}
	if d.Name == "" {
		errs[string(FieldName)] = MsgNameRequired
	}
	if d.Brand == "" {
		errs[string(FieldBrand)] = MsgBrandRequired
	}
	if d.Category == "" {
		errs[string(FieldCategory)] = MsgCategoryRequired
	}
	if d.SKU == "" {
		errs[string(FieldSKU)] = MsgSKURequired
	}
	for _, v := range d.Variants {
		if !v.complete() {
			errs[VariantsKey] = MsgVariantsRequired
			break
		}
	}
	return errs
}

// Gateway is the subset of the remote sync gateway the controller submits to.
type Gateway interface {
	Create(ctx context.Context, product models.Product) (*models.Product, error)
	Update(ctx context.Context, id string, product models.Product) (*models.Product, error)
}

// Notifier surfaces transient success and failure notifications.
type Notifier interface {
	Success(message string)
	Failure(message string, err error)
}

// State is the lifecycle position of a draft.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateValidating
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the result of a Submit call.
type Outcome int

const (
	// OutcomeInvalid means validation failed and nothing was sent.
	OutcomeInvalid Outcome = iota
	// OutcomeSaved means the gateway accepted the draft.
	OutcomeSaved
	// OutcomeFailed means the gateway call failed; the draft is unchanged.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeSaved:
		return "saved"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Controller owns one product draft for a create or edit view.
type Controller struct {
	gateway  Gateway
	notifier Notifier
	log      *zap.Logger

	mu       sync.Mutex
	draft    Draft
	errs     ValidationErrors
	state    State
	inFlight bool
}

// NewCreateController returns a controller holding an empty draft.
func NewCreateController(gateway Gateway, notifier Notifier, log *zap.Logger) *Controller {
	return &Controller{
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		draft:    NewDraft(),
		state:    StateEmpty,
	}
}

// NewEditController returns a controller holding product as its draft.
func NewEditController(product models.Product, gateway Gateway, notifier Notifier, log *zap.Logger) *Controller {
	return &Controller{
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		draft:    DraftFromProduct(product),
		state:    StateEditing,
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.clone()
}

// Errors returns the validation errors of the last submit attempt.
func (c *Controller) Errors() ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(ValidationErrors, len(c.errs))
	for k, v := range c.errs {
		out[k] = v
	}
	return out
}

// State returns the draft's lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// touch marks the draft as edited. Callers hold c.mu.
func (c *Controller) touch() {
	if c.state == StateEmpty {
		c.state = StateEditing
	}
}

// SetField replaces a top-level field of the draft.
func (c *Controller) SetField(field ProductField, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.draft.field(field) = value
	c.touch()
}

// SetFieldByName is SetField for callers holding a raw field name.
func (c *Controller) SetFieldByName(name, value string) error {
	field, err := ParseProductField(name)
	if err != nil {
		return err
	}
	c.SetField(field, value)
	return nil
}

// SetVariantField replaces one field of the variant at index.
func (c *Controller) SetVariantField(index int, field VariantField, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.draft.Variants) {
		return fmt.Errorf("%w: %d (have %d)", ErrVariantOutOfRange, index, len(c.draft.Variants))
	}
	*c.draft.Variants[index].field(field) = value
	c.touch()
	return nil
}

// SetVariantFieldByName is SetVariantField for callers holding a raw field name.
func (c *Controller) SetVariantFieldByName(index int, name, value string) error {
	field, err := ParseVariantField(name)
	if err != nil {
		return err
	}
	return c.SetVariantField(index, field, value)
}

// AddVariant appends an empty variant row and returns its index.
func (c *Controller) AddVariant() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Variants = append(c.draft.Variants, DraftVariant{})
	c.touch()
	return len(c.draft.Variants) - 1
}

// Validate runs validation against the current draft without recording the
// result.
func (c *Controller) Validate() ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Validate(c.draft)
}

// Submit validates the draft and, when it is valid, creates or updates it
// through the gateway depending on whether the draft carries an ID.
//
// On OutcomeInvalid the error set is available from Errors and no request is
// made. On OutcomeSaved a create draft is reset to empty while an edit draft
// takes the server's copy. On OutcomeFailed the draft is left untouched and
// the gateway error is returned.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return OutcomeFailed, ErrSubmitInProgress
	}
	previous := c.state
	c.state = StateValidating
	if errs := Validate(c.draft); len(errs) > 0 {
		c.errs = errs
		c.state = StateEditing
		if previous == StateEmpty {
			// An untouched create form stays empty even with errors shown.
			c.state = StateEmpty
		}
		c.mu.Unlock()
		return OutcomeInvalid, nil
	}
	product, err := c.draft.Product()
	if err != nil {
		// Validate guarantees every variant parses.
		c.state = StateEditing
		c.mu.Unlock()
		return OutcomeFailed, fmt.Errorf("convert draft: %w", err)
	}
	c.errs = nil
	c.inFlight = true
	c.state = StateSubmitting
	id := c.draft.ID
	c.mu.Unlock()

	var saved *models.Product
	if id == "" {
		saved, err = c.gateway.Create(ctx, product)
	} else {
		saved, err = c.gateway.Update(ctx, id, product)
	}

	c.mu.Lock()
	c.inFlight = false
	if err != nil {
		c.state = StateEditing
		c.mu.Unlock()
		c.log.Warn("product submit failed", zap.String("product_id", id), zap.Error(err))
		if id == "" {
			c.notifier.Failure(MsgCreateFailed, err)
		} else {
			c.notifier.Failure(MsgUpdateFailed, err)
		}
		return OutcomeFailed, err
	}

	if id == "" {
		c.draft = NewDraft()
		c.state = StateEmpty
	} else {
		if saved != nil {
			c.draft = DraftFromProduct(*saved)
		}
		c.state = StateEditing
	}
	c.mu.Unlock()

	if id == "" {
		createdID := ""
		if saved != nil {
			createdID = saved.ID
		}
		c.log.Info("product created", zap.String("product_id", createdID))
		c.notifier.Success(MsgCreated)
	} else {
		c.log.Info("product updated", zap.String("product_id", id))
		c.notifier.Success(MsgUpdated)
	}
	return OutcomeSaved, nil
}
