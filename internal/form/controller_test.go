package form_test

import (
	"context"
	"errors"
	"testing"

	"inventory/internal/form"
	"inventory/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Create(ctx context.Context, product models.Product) (*models.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockGateway) Update(ctx context.Context, id string, product models.Product) (*models.Product, error) {
	args := m.Called(ctx, id, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Success(message string)            { m.Called(message) }
func (m *MockNotifier) Failure(message string, err error) { m.Called(message, err) }

// fillWidget enters the draft from the "Widget" scenario.
func fillWidget(t *testing.T, c *form.Controller) {
	t.Helper()
	c.SetField(form.FieldName, "Widget")
	c.SetField(form.FieldBrand, "Acme")
	c.SetField(form.FieldCategory, "Tools")
	c.SetField(form.FieldSKU, "W-1")
	c.SetField(form.FieldDescription, "d")
	require.NoError(t, c.SetVariantField(0, form.FieldWeight, "1"))
	require.NoError(t, c.SetVariantField(0, form.FieldPrice, "10"))
	require.NoError(t, c.SetVariantField(0, form.FieldStock, "5"))
}

func TestNewDraftHasOneEmptyVariant(t *testing.T) {
	d := form.NewDraft()
	assert.Empty(t, d.ID)
	require.Len(t, d.Variants, 1)
	assert.Equal(t, form.DraftVariant{}, d.Variants[0])
}

func TestValidWidgetIsCreatedOnce(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewCreateController(gw, notifier, zap.NewNop())
	fillWidget(t, c)

	assert.Empty(t, c.Validate())

	gw.On("Create", mock.Anything, mock.MatchedBy(func(p models.Product) bool {
		return p.ID == "" && p.Name == "Widget" && len(p.Variants) == 1 &&
			p.Variants[0].Price.Equal(decimal.NewFromInt(10)) && p.Variants[0].Stock == 5
	})).Return(&models.Product{ID: "new-id", Name: "Widget"}, nil).Once()
	notifier.On("Success", form.MsgCreated).Once()

	outcome, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.OutcomeSaved, outcome)

	// Create success resets the form.
	assert.Equal(t, form.NewDraft(), c.Draft())
	assert.Equal(t, form.StateEmpty, c.State())
	gw.AssertNumberOfCalls(t, "Create", 1)
	gw.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestMissingSKUBlocksSubmit(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewCreateController(gw, notifier, zap.NewNop())
	fillWidget(t, c)
	c.SetField(form.FieldSKU, "")

	assert.Equal(t, form.ValidationErrors{"sku": form.MsgSKURequired}, c.Validate())

	outcome, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.OutcomeInvalid, outcome)
	assert.Equal(t, form.ValidationErrors{"sku": form.MsgSKURequired}, c.Errors())
	assert.Equal(t, form.StateEditing, c.State())
	gw.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Failure", mock.Anything, mock.Anything)
}

func TestValidateReportsExactlyTheMissingFields(t *testing.T) {
	required := map[form.ProductField]string{
		form.FieldName:     form.MsgNameRequired,
		form.FieldBrand:    form.MsgBrandRequired,
		form.FieldCategory: form.MsgCategoryRequired,
		form.FieldSKU:      form.MsgSKURequired,
	}
	fields := []form.ProductField{form.FieldName, form.FieldBrand, form.FieldCategory, form.FieldSKU}

	for mask := 0; mask < 1<<len(fields); mask++ {
		c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())
		fillWidget(t, c)
		want := form.ValidationErrors{}
		for i, f := range fields {
			if mask&(1<<i) != 0 {
				c.SetField(f, "")
				want[string(f)] = required[f]
			}
		}
		assert.Equal(t, want, c.Validate(), "mask %04b", mask)
	}
}

func TestVariantErrorsAreAggregated(t *testing.T) {
	c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())
	fillWidget(t, c)
	idx := c.AddVariant()
	assert.Equal(t, 1, idx)
	require.NoError(t, c.SetVariantField(idx, form.FieldWeight, "2"))

	errs := c.Validate()
	assert.Equal(t, form.ValidationErrors{form.VariantsKey: form.MsgVariantsRequired}, errs)

	require.NoError(t, c.SetVariantField(idx, form.FieldPrice, "20"))
	require.NoError(t, c.SetVariantField(idx, form.FieldStock, "many"))
	assert.Equal(t, form.ValidationErrors{form.VariantsKey: form.MsgVariantsRequired}, c.Validate())

	require.NoError(t, c.SetVariantField(idx, form.FieldStock, "3"))
	assert.Empty(t, c.Validate())
}

func TestStockAcceptsWholeNumberNotation(t *testing.T) {
	tests := []struct {
		stock string
		valid bool
	}{
		{"5", true},
		{"0", true},
		{"5.0", true},
		{"1e3", true},
		{"2.5", false},
		{"", false},
		{"many", false},
	}
	for _, tt := range tests {
		t.Run(tt.stock, func(t *testing.T) {
			c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())
			fillWidget(t, c)
			require.NoError(t, c.SetVariantField(0, form.FieldStock, tt.stock))
			if tt.valid {
				assert.Empty(t, c.Validate())
			} else {
				assert.Equal(t, form.ValidationErrors{form.VariantsKey: form.MsgVariantsRequired}, c.Validate())
			}
		})
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())
	c.SetField(form.FieldName, "Widget")
	first := c.Validate()
	second := c.Validate()
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestSetVariantFieldOutOfRange(t *testing.T) {
	c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())

	err := c.SetVariantField(1, form.FieldPrice, "3")
	assert.ErrorIs(t, err, form.ErrVariantOutOfRange)
	err = c.SetVariantField(-1, form.FieldPrice, "3")
	assert.ErrorIs(t, err, form.ErrVariantOutOfRange)
}

func TestUnknownFieldNamesAreRejected(t *testing.T) {
	c := form.NewCreateController(new(MockGateway), new(MockNotifier), zap.NewNop())

	assert.ErrorIs(t, c.SetFieldByName("colour", "red"), form.ErrUnknownField)
	assert.ErrorIs(t, c.SetVariantFieldByName(0, "volume", "1"), form.ErrUnknownField)
	assert.Equal(t, form.StateEmpty, c.State())

	require.NoError(t, c.SetFieldByName("modelNumber", "M-1"))
	require.NoError(t, c.SetVariantFieldByName(0, "stock", "4"))
	d := c.Draft()
	assert.Equal(t, "M-1", d.ModelNumber)
	assert.Equal(t, "4", d.Variants[0].Stock)
	assert.Equal(t, form.StateEditing, c.State())
}

func TestCreateFailurePreservesDraft(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewCreateController(gw, notifier, zap.NewNop())
	fillWidget(t, c)
	before := c.Draft()

	boom := errors.New("backend down")
	gw.On("Create", mock.Anything, mock.Anything).Return(nil, boom).Once()
	notifier.On("Failure", form.MsgCreateFailed, boom).Once()

	outcome, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, form.OutcomeFailed, outcome)
	assert.Equal(t, before, c.Draft())
	assert.Empty(t, c.Errors())
	assert.Equal(t, form.StateEditing, c.State())
	notifier.AssertExpectations(t)
}

func storedWidget() models.Product {
	return models.Product{
		ID:          "p-1",
		Name:        "Widget",
		Brand:       "Acme",
		Category:    "Tools",
		SKU:         "W-1",
		Warranty:    "1 year",
		Description: "d",
		Variants: []models.Variant{
			{Weight: decimal.RequireFromString("1.5"), Price: decimal.NewFromInt(10), Stock: 5},
			{Weight: decimal.NewFromInt(3), Price: decimal.NewFromInt(25), Stock: 0},
		},
	}
}

func TestEditSubmitsFullRecord(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewEditController(storedWidget(), gw, notifier, zap.NewNop())
	assert.Equal(t, form.StateEditing, c.State())
	c.SetField(form.FieldName, "Widget Pro")

	echo := storedWidget()
	echo.Name = "Widget Pro"
	echo.Supplier = "set by server"
	gw.On("Update", mock.Anything, "p-1", mock.MatchedBy(func(p models.Product) bool {
		return p.ID == "p-1" && p.Name == "Widget Pro" && p.Warranty == "1 year" &&
			p.Brand == "Acme" && len(p.Variants) == 2 &&
			p.Variants[0].Weight.Equal(decimal.RequireFromString("1.5")) && p.Variants[1].Stock == 0
	})).Return(&echo, nil).Once()
	notifier.On("Success", form.MsgUpdated).Once()

	outcome, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.OutcomeSaved, outcome)

	d := c.Draft()
	assert.Equal(t, "p-1", d.ID)
	assert.Equal(t, "Widget Pro", d.Name)
	assert.Equal(t, "set by server", d.Supplier)
	assert.Equal(t, form.StateEditing, c.State())
	gw.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestEditFailureNotifiesUpdateFailed(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewEditController(storedWidget(), gw, notifier, zap.NewNop())

	boom := errors.New("timeout")
	gw.On("Update", mock.Anything, "p-1", mock.Anything).Return(nil, boom).Once()
	notifier.On("Failure", form.MsgUpdateFailed, boom).Once()

	outcome, err := c.Submit(context.Background())
	assert.Equal(t, form.OutcomeFailed, outcome)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Widget", c.Draft().Name)
	notifier.AssertExpectations(t)
}

func TestSecondSubmitWhileInFlightIsRejected(t *testing.T) {
	gw := new(MockGateway)
	notifier := new(MockNotifier)
	c := form.NewCreateController(gw, notifier, zap.NewNop())
	fillWidget(t, c)

	entered := make(chan struct{})
	release := make(chan struct{})
	gw.On("Create", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(&models.Product{ID: "new-id"}, nil).Once()
	notifier.On("Success", form.MsgCreated).Once()

	done := make(chan form.Outcome)
	go func() {
		outcome, _ := c.Submit(context.Background())
		done <- outcome
	}()

	<-entered
	assert.Equal(t, form.StateSubmitting, c.State())
	_, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, form.ErrSubmitInProgress)

	close(release)
	assert.Equal(t, form.OutcomeSaved, <-done)
	gw.AssertNumberOfCalls(t, "Create", 1)
}

func TestDraftProductRoundTrip(t *testing.T) {
	p := storedWidget()
	d := form.DraftFromProduct(p)
	assert.Equal(t, "1.5", d.Variants[0].Weight)
	assert.Equal(t, "0", d.Variants[1].Stock)

	back, err := d.Product()
	require.NoError(t, err)
	assert.Equal(t, p.ID, back.ID)
	assert.Equal(t, p.Warranty, back.Warranty)
	require.Len(t, back.Variants, 2)
	assert.True(t, back.Variants[0].Weight.Equal(p.Variants[0].Weight))
	assert.Equal(t, p.Variants[1].Stock, back.Variants[1].Stock)
}

func TestParseFieldNames(t *testing.T) {
	for _, f := range form.ProductFields {
		got, err := form.ParseProductField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	for _, f := range form.VariantFields {
		got, err := form.ParseVariantField(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := form.ParseProductField("variants")
	assert.ErrorIs(t, err, form.ErrUnknownField)
}
