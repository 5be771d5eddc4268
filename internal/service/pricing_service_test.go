package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/membership-pricing/internal/model"
)

// mockSettingsLoader is a mock implementation of SettingsLoader.
type mockSettingsLoader struct {
	loadFn func(ctx context.Context) (model.DiscountSettings, error)
}

func (m *mockSettingsLoader) Load(ctx context.Context) (model.DiscountSettings, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx)
	}
	return model.DefaultDiscountSettings(), nil
}

// mockUserRepository is a mock implementation of UserRepositoryInterface.
type mockUserRepository struct {
	getByIDFn func(ctx context.Context, id string) (*model.UserProfile, error)
	calls     int
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	m.calls++
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

// mockCouponFinder is a mock implementation of CouponFinder.
type mockCouponFinder struct {
	getByCodeFn func(ctx context.Context, code string) (*model.Coupon, error)
	calls       int
}

func (m *mockCouponFinder) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	m.calls++
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }
func timePtr(t time.Time) *time.Time {
	return &t
}

func userWith(seat, hostelRoom *string) *mockUserRepository {
	return &mockUserRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.UserProfile, error) {
			return &model.UserProfile{ID: id, CurrentSeat: seat, CurrentHostelRoom: hostelRoom}, nil
		},
	}
}

func couponStore(c *model.Coupon) *mockCouponFinder {
	return &mockCouponFinder{
		getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
			if c == nil || code != c.Code {
				return nil, nil
			}
			cp := *c
			return &cp, nil
		},
	}
}

func newTestPricingService(users UserRepositoryInterface, coupons CouponFinder) *PricingService {
	return NewPricingServiceWithClock(&mockSettingsLoader{}, users, coupons, func() time.Time { return fixedNow })
}

func flatCoupon(code string, value float64, stackable bool) *model.Coupon {
	return &model.Coupon{ID: "doc-" + code, Code: code, Value: value, Type: "fixed", Stackable: stackable}
}

func purchase(months int, basePrice int64, coupon string) model.PurchaseRequest {
	return model.PurchaseRequest{
		UserID:      "user_001",
		ServiceType: model.ServiceReadingRoom,
		CouponCode:  coupon,
		Months:      months,
		BasePrice:   basePrice,
	}
}

func sumAmounts(discounts []model.Discount) int64 {
	var total int64
	for _, d := range discounts {
		total += d.Amount
	}
	return total
}

func TestComputePrice_NoDiscounts(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, &mockCouponFinder{})

	result, err := svc.ComputePrice(context.Background(), purchase(1, 5000, ""))

	require.NoError(t, err)
	assert.NotNil(t, result.Discounts)
	assert.Empty(t, result.Discounts)
	assert.Equal(t, int64(0), result.TotalDiscount)
	assert.Equal(t, int64(5000), result.FinalPrice)
	assert.Equal(t, int64(5000), result.BasePrice)
}

func TestComputePrice_BulkThreshold(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, &mockCouponFinder{})

	result, err := svc.ComputePrice(context.Background(), purchase(5, 10000, ""))
	require.NoError(t, err)
	assert.Empty(t, result.Discounts, "5 months earns no bulk discount")

	result, err = svc.ComputePrice(context.Background(), purchase(6, 10000, ""))
	require.NoError(t, err)
	require.Len(t, result.Discounts, 1)
	d := result.Discounts[0]
	assert.Equal(t, model.DiscountIDBulk, d.ID)
	assert.Equal(t, model.DiscountTypeAutomated, d.Type)
	assert.Equal(t, int64(1000), d.Amount)
	assert.Contains(t, d.Name, "6 months")
	assert.Equal(t, int64(9000), result.FinalPrice)
}

func TestComputePrice_BulkUsesConfiguredPercent(t *testing.T) {
	loader := &mockSettingsLoader{loadFn: func(ctx context.Context) (model.DiscountSettings, error) {
		s := model.DefaultDiscountSettings()
		s.BulkPercent = 12.5
		return s, nil
	}}
	svc := NewPricingServiceWithClock(loader, &mockUserRepository{}, &mockCouponFinder{}, func() time.Time { return fixedNow })

	result, err := svc.ComputePrice(context.Background(), purchase(12, 999, ""))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 1)
	// 999 * 12.5 / 100 = 124.875
	assert.Equal(t, int64(125), result.Discounts[0].Amount)
	assert.Contains(t, result.Discounts[0].Name, "12 months")
}

func TestComputePrice_SettingsFailureFallsBackToDefaults(t *testing.T) {
	loader := &mockSettingsLoader{loadFn: func(ctx context.Context) (model.DiscountSettings, error) {
		return model.DiscountSettings{}, errors.New("settings store unreachable")
	}}
	svc := NewPricingServiceWithClock(loader, userWith(nil, strPtr("H-12")), &mockCouponFinder{}, func() time.Time { return fixedNow })

	result, err := svc.ComputePrice(context.Background(), purchase(6, 10000, ""))

	require.NoError(t, err, "settings failure must not fail pricing")
	require.Len(t, result.Discounts, 2)
	assert.Equal(t, int64(1000), result.Discounts[0].Amount, "default bulk percent is 10")
	assert.Equal(t, int64(500), result.Discounts[1].Amount, "default bundle amount is 500")
	assert.Equal(t, int64(8500), result.FinalPrice)
}

func TestComputePrice_NilSettingsLoaderUsesDefaults(t *testing.T) {
	svc := NewPricingService(nil, &mockUserRepository{}, &mockCouponFinder{})

	result, err := svc.ComputePrice(context.Background(), purchase(6, 2000, ""))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 1)
	assert.Equal(t, int64(200), result.Discounts[0].Amount)
}

func TestComputePrice_BundleDiscount(t *testing.T) {
	testCases := []struct {
		name        string
		serviceType model.ServiceType
		seat        *string
		hostelRoom  *string
		wantBundle  bool
		wantReason  string
	}{
		{"hostel_with_seat", model.ServiceHostel, strPtr("A-7"), nil, true, "reading room seat"},
		{"reading_room_with_hostel", model.ServiceReadingRoom, nil, strPtr("H-3"), true, "hostel room"},
		{"hostel_without_seat", model.ServiceHostel, nil, strPtr("H-3"), false, ""},
		{"reading_room_without_hostel", model.ServiceReadingRoom, strPtr("A-7"), nil, false, ""},
		{"blank_marker_is_inactive", model.ServiceHostel, strPtr("  "), nil, false, ""},
		{"canteen_never_bundles", model.ServiceCanteen, strPtr("A-7"), strPtr("H-3"), false, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestPricingService(userWith(tc.seat, tc.hostelRoom), &mockCouponFinder{})
			req := purchase(1, 3000, "")
			req.ServiceType = tc.serviceType

			result, err := svc.ComputePrice(context.Background(), req)

			require.NoError(t, err)
			if !tc.wantBundle {
				assert.Empty(t, result.Discounts)
				return
			}
			require.Len(t, result.Discounts, 1)
			d := result.Discounts[0]
			assert.Equal(t, model.DiscountIDBundle, d.ID)
			assert.Equal(t, model.DiscountTypeAutomated, d.Type)
			assert.Equal(t, int64(500), d.Amount)
			assert.Contains(t, d.Name, tc.wantReason)
			assert.Equal(t, int64(2500), result.FinalPrice)
		})
	}
}

func TestComputePrice_BundleExclusivity(t *testing.T) {
	svc := newTestPricingService(userWith(strPtr("A-7"), strPtr("H-3")), &mockCouponFinder{})
	req := purchase(1, 3000, "")
	req.ServiceType = model.ServiceHostel

	result, err := svc.ComputePrice(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Discounts, 1, "exactly one bundle discount")
	assert.Equal(t, model.DiscountIDBundle, result.Discounts[0].ID)
	assert.Contains(t, result.Discounts[0].Name, "reading room seat")
}

func TestComputePrice_UserLookupFailureMeansNoBundle(t *testing.T) {
	users := &mockUserRepository{getByIDFn: func(ctx context.Context, id string) (*model.UserProfile, error) {
		return nil, errors.New("user store timeout")
	}}
	svc := newTestPricingService(users, &mockCouponFinder{})

	result, err := svc.ComputePrice(context.Background(), purchase(1, 3000, ""))

	require.NoError(t, err)
	assert.Empty(t, result.Discounts)
	assert.Equal(t, int64(3000), result.FinalPrice)
}

func TestComputePrice_MissingUserMeansNoBundle(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, &mockCouponFinder{})

	result, err := svc.ComputePrice(context.Background(), purchase(1, 3000, ""))

	require.NoError(t, err)
	assert.Empty(t, result.Discounts)
}

func TestComputePrice_NonStackableCouponClearsAutomatics(t *testing.T) {
	users := userWith(nil, strPtr("H-3"))
	svc := newTestPricingService(users, couponStore(flatCoupon("SOLO2000", 2000, false)))

	result, err := svc.ComputePrice(context.Background(), purchase(6, 10000, "SOLO2000"))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 1)
	d := result.Discounts[0]
	assert.Equal(t, model.DiscountTypeCoupon, d.Type)
	assert.Equal(t, int64(2000), d.Amount)
	assert.Equal(t, "SOLO2000", d.Code)
	assert.Equal(t, "doc-SOLO2000", d.DocID)
	assert.Equal(t, "doc-SOLO2000", d.ID)
	assert.Equal(t, int64(2000), result.TotalDiscount)
	assert.Equal(t, int64(8000), result.FinalPrice)
}

func TestComputePrice_StackableCouponKeepsAutomatics(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, couponStore(flatCoupon("STACK2000", 2000, true)))

	result, err := svc.ComputePrice(context.Background(), purchase(6, 10000, "STACK2000"))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 2)
	assert.Equal(t, model.DiscountIDBulk, result.Discounts[0].ID)
	assert.Equal(t, int64(1000), result.Discounts[0].Amount)
	assert.Equal(t, model.DiscountTypeCoupon, result.Discounts[1].Type)
	assert.Equal(t, int64(2000), result.Discounts[1].Amount)
	assert.Equal(t, int64(3000), result.TotalDiscount)
	assert.Equal(t, int64(7000), result.FinalPrice)
}

func TestComputePrice_OrderIsBulkBundleCoupon(t *testing.T) {
	svc := newTestPricingService(userWith(nil, strPtr("H-3")), couponStore(flatCoupon("ALL", 100, true)))

	result, err := svc.ComputePrice(context.Background(), purchase(6, 10000, "ALL"))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 3)
	assert.Equal(t, model.DiscountIDBulk, result.Discounts[0].ID)
	assert.Equal(t, model.DiscountIDBundle, result.Discounts[1].ID)
	assert.Equal(t, "doc-ALL", result.Discounts[2].ID)
	assert.Equal(t, int64(1600), result.TotalDiscount)
}

func TestComputePrice_NonStackableCouponWithoutAutomatics(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, couponStore(flatCoupon("SOLO", 300, false)))

	result, err := svc.ComputePrice(context.Background(), purchase(1, 1000, "SOLO"))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 1)
	assert.Equal(t, int64(700), result.FinalPrice)
}

func TestComputePrice_UnknownCouponAborts(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, couponStore(flatCoupon("REAL", 100, true)))

	result, err := svc.ComputePrice(context.Background(), purchase(6, 10000, "FAKE"))

	require.Error(t, err)
	assert.Nil(t, result, "no partial result")
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	var couponErr *CouponError
	require.ErrorAs(t, err, &couponErr)
	assert.Equal(t, InvalidCoupon, couponErr.Kind)
}

func TestComputePrice_CouponCodeIsCaseSensitive(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, couponStore(flatCoupon("Welcome", 100, true)))

	_, err := svc.ComputePrice(context.Background(), purchase(1, 1000, "WELCOME"))

	assert.ErrorIs(t, err, ErrInvalidCoupon)
}

func TestComputePrice_CouponStoreErrorIsNotACouponFailure(t *testing.T) {
	dbErr := errors.New("connection reset")
	coupons := &mockCouponFinder{getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
		return nil, dbErr
	}}
	svc := newTestPricingService(&mockUserRepository{}, coupons)

	result, err := svc.ComputePrice(context.Background(), purchase(1, 1000, "ANY"))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
	var couponErr *CouponError
	assert.False(t, errors.As(err, &couponErr))
}

func TestComputePrice_NoCouponLookupWithoutCode(t *testing.T) {
	coupons := &mockCouponFinder{}
	svc := newTestPricingService(&mockUserRepository{}, coupons)

	_, err := svc.ComputePrice(context.Background(), purchase(1, 1000, ""))

	require.NoError(t, err)
	assert.Zero(t, coupons.calls)
}

func TestComputePrice_CouponEligibility(t *testing.T) {
	base := func() *model.Coupon { return flatCoupon("C", 100, true) }

	testCases := []struct {
		name    string
		mutate  func(c *model.Coupon)
		wantErr error
		message string
	}{
		{"valid", func(c *model.Coupon) {}, nil, ""},
		{"expired", func(c *model.Coupon) { c.ExpiryDate = timePtr(fixedNow.Add(-time.Second)) }, ErrCouponExpired, "Coupon expired"},
		{"expires_exactly_now", func(c *model.Coupon) { c.ExpiryDate = timePtr(fixedNow) }, nil, ""},
		{"expires_later", func(c *model.Coupon) { c.ExpiryDate = timePtr(fixedNow.Add(time.Hour)) }, nil, ""},
		{"limit_reached", func(c *model.Coupon) { c.UsageLimit = intPtr(3); c.UsedCount = 3 }, ErrCouponLimitReached, "Coupon usage limit reached"},
		{"limit_not_reached", func(c *model.Coupon) { c.UsageLimit = intPtr(3); c.UsedCount = 2 }, nil, ""},
		{"zero_limit", func(c *model.Coupon) { c.UsageLimit = intPtr(0) }, ErrCouponLimitReached, "Coupon usage limit reached"},
		{"wrong_service", func(c *model.Coupon) { c.ApplicableServices = []model.ServiceType{model.ServiceHostel} }, ErrNotApplicableForService, "Coupon not applicable for this service"},
		{"right_service", func(c *model.Coupon) {
			c.ApplicableServices = []model.ServiceType{model.ServiceHostel, model.ServiceReadingRoom}
		}, nil, ""},
		{"empty_services_means_all", func(c *model.Coupon) { c.ApplicableServices = []model.ServiceType{} }, nil, ""},
		{"below_min_spend", func(c *model.Coupon) { c.MinAmount = int64Ptr(5001) }, ErrMinSpendRequired, "Minimum spend of 5001 required"},
		{"exact_min_spend", func(c *model.Coupon) { c.MinAmount = int64Ptr(5000) }, nil, ""},
		{"not_targeted", func(c *model.Coupon) { c.AllowedUsers = []string{"user_002"} }, ErrNotValidForAccount, "Coupon not valid for your account"},
		{"targeted", func(c *model.Coupon) { c.AllowedUsers = []string{"user_002", "user_001"} }, nil, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			svc := newTestPricingService(&mockUserRepository{}, couponStore(c))

			result, err := svc.ComputePrice(context.Background(), purchase(1, 5000, "C"))

			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, int64(4900), result.FinalPrice)
				return
			}
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.message, err.Error())
		})
	}
}

func TestComputePrice_LastFailingCheckWins(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(c *model.Coupon)
		wantKind CouponFailureKind
	}{
		{
			name: "expired_and_exhausted",
			mutate: func(c *model.Coupon) {
				c.ExpiryDate = timePtr(fixedNow.AddDate(0, 0, -1))
				c.UsageLimit = intPtr(1)
				c.UsedCount = 1
			},
			wantKind: CouponLimitReached,
		},
		{
			name: "expired_and_wrong_service",
			mutate: func(c *model.Coupon) {
				c.ExpiryDate = timePtr(fixedNow.AddDate(0, 0, -1))
				c.ApplicableServices = []model.ServiceType{model.ServiceCanteen}
			},
			wantKind: NotApplicableForService,
		},
		{
			name: "exhausted_and_below_min_spend",
			mutate: func(c *model.Coupon) {
				c.UsageLimit = intPtr(1)
				c.UsedCount = 5
				c.MinAmount = int64Ptr(1_000_000)
			},
			wantKind: MinSpendRequired,
		},
		{
			name: "every_check_fails",
			mutate: func(c *model.Coupon) {
				c.ExpiryDate = timePtr(fixedNow.AddDate(-1, 0, 0))
				c.UsageLimit = intPtr(1)
				c.UsedCount = 1
				c.ApplicableServices = []model.ServiceType{model.ServiceCanteen}
				c.MinAmount = int64Ptr(1_000_000)
				c.AllowedUsers = []string{"someone_else"}
			},
			wantKind: NotValidForAccount,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := flatCoupon("MULTI", 100, true)
			tc.mutate(c)
			svc := newTestPricingService(&mockUserRepository{}, couponStore(c))

			_, err := svc.ComputePrice(context.Background(), purchase(1, 5000, "MULTI"))

			var couponErr *CouponError
			require.ErrorAs(t, err, &couponErr)
			assert.Equal(t, tc.wantKind, couponErr.Kind)
		})
	}
}

func TestComputePrice_PercentageRounding(t *testing.T) {
	testCases := []struct {
		name      string
		basePrice int64
		percent   float64
		want      int64
	}{
		{"99.9_rounds_up", 999, 10, 100},
		{"half_rounds_up", 5, 10, 1},
		{"0.4_rounds_down", 4, 10, 0},
		{"exact", 10000, 15, 1500},
		{"fractional_percent", 1000, 7.5, 75},
		{"fractional_percent_rounds_up", 1010, 7.5, 76}, // 75.75
		{"zero_base", 0, 50, 0},
		{"hundred_percent", 4321, 100, 4321},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := &model.Coupon{ID: "doc-P", Code: "P", Type: model.CouponTypePercentage, Value: tc.percent}
			svc := newTestPricingService(&mockUserRepository{}, couponStore(c))

			result, err := svc.ComputePrice(context.Background(), purchase(1, tc.basePrice, "P"))

			require.NoError(t, err)
			require.Len(t, result.Discounts, 1)
			assert.Equal(t, tc.want, result.Discounts[0].Amount)
		})
	}
}

func TestComputePrice_FlatCouponRoundsToWholeUnits(t *testing.T) {
	svc := newTestPricingService(&mockUserRepository{}, couponStore(flatCoupon("F", 249.5, true)))

	result, err := svc.ComputePrice(context.Background(), purchase(1, 1000, "F"))

	require.NoError(t, err)
	assert.Equal(t, int64(250), result.Discounts[0].Amount)
}

func TestComputePrice_FinalPriceNeverNegative(t *testing.T) {
	testCases := []struct {
		name   string
		coupon *model.Coupon
		months int
		base   int64
	}{
		{"flat_exceeds_price", flatCoupon("BIG", 50000, true), 6, 10000},
		{"percentage_over_100", &model.Coupon{ID: "x", Code: "BIG", Type: model.CouponTypePercentage, Value: 250}, 1, 800},
		{"zero_price_with_bundle", flatCoupon("BIG", 1, true), 6, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestPricingService(userWith(nil, strPtr("H-1")), couponStore(tc.coupon))

			result, err := svc.ComputePrice(context.Background(), purchase(tc.months, tc.base, "BIG"))

			require.NoError(t, err)
			assert.GreaterOrEqual(t, result.FinalPrice, int64(0))
			assert.Equal(t, int64(0), result.FinalPrice)
			assert.Equal(t, sumAmounts(result.Discounts), result.TotalDiscount)
		})
	}
}

func TestComputePrice_SumInvariant(t *testing.T) {
	for months := 1; months <= 12; months++ {
		for _, base := range []int64{0, 1, 999, 5000, 123457} {
			for _, stackable := range []bool{true, false} {
				svc := newTestPricingService(userWith(nil, strPtr("H-1")), couponStore(flatCoupon("S", 333, stackable)))

				result, err := svc.ComputePrice(context.Background(), purchase(months, base, "S"))

				require.NoError(t, err)
				assert.Equal(t, sumAmounts(result.Discounts), result.TotalDiscount)
				assert.Equal(t, max(0, base-result.TotalDiscount), result.FinalPrice)
				for _, d := range result.Discounts {
					assert.GreaterOrEqual(t, d.Amount, int64(0))
				}
			}
		}
	}
}

func TestComputePrice_LineItemsAreCappedAtBasePrice(t *testing.T) {
	testCases := []struct {
		name     string
		settings model.DiscountSettings
		coupon   *model.Coupon
		months   int
		want     []int64
	}{
		{
			name:     "flat_coupon_beyond_int64",
			settings: model.DefaultDiscountSettings(),
			coupon:   flatCoupon("HUGE", 1e19, true),
			months:   1,
			want:     []int64{500, 5000},
		},
		{
			name:     "max_bundle_with_stackable_coupon",
			settings: model.DiscountSettings{BulkPercent: 10, BundleFixed: math.MaxInt64},
			coupon:   flatCoupon("HUGE", float64(math.MaxInt64/2), true),
			months:   1,
			want:     []int64{5000, 5000},
		},
		{
			name:     "percentage_over_100",
			settings: model.DefaultDiscountSettings(),
			coupon:   &model.Coupon{ID: "doc-HUGE", Code: "HUGE", Type: model.CouponTypePercentage, Value: 1e6, Stackable: true},
			months:   6,
			want:     []int64{500, 500, 5000},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewPricingServiceWithClock(StaticSettingsLoader{Settings: tc.settings},
				userWith(nil, strPtr("H-1")), couponStore(tc.coupon), func() time.Time { return fixedNow })

			result, err := svc.ComputePrice(context.Background(), purchase(tc.months, 5000, "HUGE"))

			require.NoError(t, err)
			amounts := make([]int64, 0, len(result.Discounts))
			for _, d := range result.Discounts {
				amounts = append(amounts, d.Amount)
			}
			assert.Equal(t, tc.want, amounts)
			assert.Equal(t, sumAmounts(result.Discounts), result.TotalDiscount)
			assert.GreaterOrEqual(t, result.TotalDiscount, int64(0))
			assert.Equal(t, int64(0), result.FinalPrice)
		})
	}
}

func TestComputePrice_TotalSaturatesAtMaxInt64(t *testing.T) {
	settings := StaticSettingsLoader{Settings: model.DiscountSettings{BulkPercent: 100, BundleFixed: math.MaxInt64}}
	svc := NewPricingServiceWithClock(settings, userWith(nil, strPtr("H-1")),
		couponStore(flatCoupon("HUGE", 1e19, true)), func() time.Time { return fixedNow })

	result, err := svc.ComputePrice(context.Background(), purchase(6, math.MaxInt64, "HUGE"))

	require.NoError(t, err)
	require.Len(t, result.Discounts, 3)
	for _, d := range result.Discounts {
		assert.Equal(t, int64(math.MaxInt64), d.Amount)
	}
	assert.Equal(t, int64(math.MaxInt64), result.TotalDiscount)
	assert.Equal(t, int64(0), result.FinalPrice)
}

func TestComputePrice_InvalidRequest(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(r *model.PurchaseRequest)
	}{
		{"empty_user", func(r *model.PurchaseRequest) { r.UserID = "" }},
		{"unknown_service", func(r *model.PurchaseRequest) { r.ServiceType = "gym" }},
		{"zero_months", func(r *model.PurchaseRequest) { r.Months = 0 }},
		{"negative_price", func(r *model.PurchaseRequest) { r.BasePrice = -1 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			users := &mockUserRepository{}
			coupons := &mockCouponFinder{}
			svc := newTestPricingService(users, coupons)
			req := purchase(6, 1000, "ANY")
			tc.mutate(&req)

			result, err := svc.ComputePrice(context.Background(), req)

			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Nil(t, result)
			assert.Zero(t, users.calls, "no lookups for invalid requests")
			assert.Zero(t, coupons.calls, "no lookups for invalid requests")
		})
	}
}

func TestComputePrice_DoesNotMutateCoupon(t *testing.T) {
	stored := flatCoupon("RO", 100, false)
	stored.UsageLimit = intPtr(10)
	stored.UsedCount = 4
	coupons := &mockCouponFinder{getByCodeFn: func(ctx context.Context, code string) (*model.Coupon, error) {
		return stored, nil
	}}
	svc := newTestPricingService(&mockUserRepository{}, coupons)

	_, err := svc.ComputePrice(context.Background(), purchase(6, 1000, "RO"))

	require.NoError(t, err)
	assert.Equal(t, 4, stored.UsedCount)
}

func TestCouponError_Is(t *testing.T) {
	err := minSpendError(3000)

	assert.ErrorIs(t, err, ErrMinSpendRequired, "matches by kind regardless of message")
	assert.NotErrorIs(t, err, ErrCouponExpired)
	assert.Equal(t, "Minimum spend of 3000 required", err.Error())
	assert.Equal(t, "MinSpendRequired", err.Kind.String())
	assert.Equal(t, "CouponFailureKind(99)", CouponFailureKind(99).String())
}
