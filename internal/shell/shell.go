// Package shell maps the inventory's named views (create, list, edit) to the
// controllers and projections that back them.
package shell

import (
	"context"
	"errors"
	"sync"

	"inventory/internal/catalog"
	"inventory/internal/client"
	"inventory/internal/form"
	"inventory/internal/models"

	"go.uber.org/zap"
)

// View identifies a screen.
type View string

const (
	ViewNone   View = ""
	ViewCreate View = "create"
	ViewList   View = "list"
	ViewEdit   View = "edit"
)

// Terminal error messages shown instead of view content.
const (
	MsgListFailed = "Failed to fetch products"
	MsgEditFailed = "Failed to fetch product"
)

// Gateway is everything the shell and its views need from the backend.
type Gateway interface {
	form.Gateway
	FetchAll(ctx context.Context) ([]models.Product, error)
	FetchOne(ctx context.Context, id string) (*models.Product, error)
}

// ListView is the product list with its search box.
type ListView struct {
	Projection *catalog.Projection
	Query      string
	// Err is set instead of content when the collection could not be loaded.
	Err string
}

// Rows returns the rows matching the current query.
func (v *ListView) Rows() []catalog.Row {
	if v.Err != "" || v.Projection == nil {
		return nil
	}
	return v.Projection.Rows(v.Query)
}

// EditView is the edit form for one product.
type EditView struct {
	ID   string
	Form *form.Controller
	// Err is set instead of a form when the product could not be loaded.
	Err      string
	NotFound bool
}

// Shell tracks the active view. Each navigation supersedes the previous one;
// a fetch that completes after being superseded is dropped.
type Shell struct {
	gateway  Gateway
	notifier form.Notifier
	log      *zap.Logger

	mu      sync.Mutex
	seq     uint64
	current View
	editID  string
}

// New returns a shell with no active view.
func New(gateway Gateway, notifier form.Notifier, log *zap.Logger) *Shell {
	return &Shell{
		gateway:  gateway,
		notifier: notifier,
		log:      log,
	}
}

// Current returns the active view and, for the edit view, the selected ID.
func (s *Shell) Current() (View, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.editID
}

func (s *Shell) begin(view View, id string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.current = view
	s.editID = id
	return s.seq
}

func (s *Shell) stale(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq != seq
}

// OpenCreate switches to the create view with a fresh draft.
func (s *Shell) OpenCreate() *form.Controller {
	s.begin(ViewCreate, "")
	return form.NewCreateController(s.gateway, s.notifier, s.log)
}

// OpenList switches to the list view and loads the collection. On failure
// the returned view carries a terminal error and no rows.
func (s *Shell) OpenList(ctx context.Context) (*ListView, error) {
	seq := s.begin(ViewList, "")

	products, err := s.gateway.FetchAll(ctx)
	if s.stale(seq) {
		s.log.Debug("discarding superseded product list")
		return &ListView{Projection: catalog.NewProjection(nil)}, nil
	}
	if err != nil {
		s.log.Warn("failed to fetch products", zap.Error(err))
		return &ListView{Err: MsgListFailed}, err
	}
	return &ListView{Projection: catalog.NewProjection(products)}, nil
}

// OpenEdit switches to the edit view and loads product id into a form. A
// missing or unreadable product yields a terminal error, never a blank form.
func (s *Shell) OpenEdit(ctx context.Context, id string) (*EditView, error) {
	seq := s.begin(ViewEdit, id)

	product, err := s.gateway.FetchOne(ctx, id)
	if s.stale(seq) {
		s.log.Debug("discarding superseded product fetch", zap.String("product_id", id))
		return &EditView{ID: id}, nil
	}
	if err != nil {
		s.log.Warn("failed to fetch product", zap.String("product_id", id), zap.Error(err))
		return &EditView{
			ID:       id,
			Err:      MsgEditFailed,
			NotFound: errors.Is(err, client.ErrNotFound),
		}, err
	}
	return &EditView{
		ID:   id,
		Form: form.NewEditController(*product, s.gateway, s.notifier, s.log),
	}, nil
}

// SelectRow opens the edit view for the product behind row. The row itself
// is never used as edit input.
func (s *Shell) SelectRow(ctx context.Context, row catalog.Row) (*EditView, error) {
	return s.OpenEdit(ctx, row.ID)
}
