package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qalam/tuition-engine/billing"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testPricing(t *testing.T) billing.PricingConfig {
	t.Helper()
	cfg, err := billing.NewPricingConfig(25000, 20000, 5000, 6, semester2026())
	require.NoError(t, err)
	return cfg
}

func semester2026() billing.Period {
	return billing.NewDayPeriod(2026, time.January, 1, 2026, time.July, 1)
}

// =============================================================================
// FAMILY TOTAL & BREAKDOWN
// =============================================================================

func TestFamilyBreakdown_SumsToFamilyTotal(t *testing.T) {
	// GIVEN: The standard pricing table
	// THEN: sum(FamilyBreakdown(n)) == FamilyTotal(n) for every count,
	//       including counts beyond the family-size cap

	cfg := testPricing(t)

	for n := 0; n <= 10; n++ {
		breakdown := cfg.FamilyBreakdown(n)
		sum := int64(0)
		for _, v := range breakdown {
			sum += v
		}
		assert.Equal(t, cfg.FamilyTotal(n), sum, "breakdown sum mismatch for n=%d", n)
	}
}

func TestFamilyTotal_TieredPricing(t *testing.T) {
	cfg := testPricing(t)

	assert.Equal(t, int64(25000), cfg.FamilyTotal(1))
	assert.Equal(t, int64(45000), cfg.FamilyTotal(2))
	assert.Equal(t, int64(65000), cfg.FamilyTotal(3))
	assert.Equal(t, []int64{25000, 20000}, cfg.FamilyBreakdown(2))
}

func TestFamilyTotal_ClampsAboveMaxFamilySize(t *testing.T) {
	// GIVEN: A family larger than the cap
	// THEN: Pricing silently caps at MaxFamilySize (documented behavior)

	cfg := testPricing(t)

	assert.Equal(t, cfg.FamilyTotal(6), cfg.FamilyTotal(7))
	assert.Equal(t, cfg.FamilyTotal(6), cfg.FamilyTotal(100))
	assert.Len(t, cfg.FamilyBreakdown(100), 6)
}

func TestFamilyTotal_NonPositiveCountIsZero(t *testing.T) {
	cfg := testPricing(t)

	assert.Equal(t, int64(0), cfg.FamilyTotal(0))
	assert.Equal(t, int64(0), cfg.FamilyTotal(-3))
	assert.Empty(t, cfg.FamilyBreakdown(0))
}

func TestMonthlyTotal_FlatPerStudent(t *testing.T) {
	// Monthly mode has NO sibling discount. Three students for four months
	// pay 3 * 4 * fee, not a tiered total. Deliberate asymmetry with
	// semester pricing.

	cfg := testPricing(t)

	assert.Equal(t, int64(60000), cfg.MonthlyTotal(4, 3))
	assert.Equal(t, int64(5000), cfg.MonthlyTotal(1, 1))
	assert.Equal(t, int64(0), cfg.MonthlyTotal(0, 3))
}

// =============================================================================
// CONFIG VALIDATION
// =============================================================================

func TestPricingConfig_Validate(t *testing.T) {
	_, err := billing.NewPricingConfig(-1, 20000, 5000, 6, semester2026())
	assert.Error(t, err, "negative fee must be rejected")

	_, err = billing.NewPricingConfig(25000, 20000, 5000, 0, semester2026())
	assert.Error(t, err, "zero max family size must be rejected")

	inverted := billing.NewDayPeriod(2026, time.July, 1, 2026, time.January, 1)
	_, err = billing.NewPricingConfig(25000, 20000, 5000, 6, inverted)
	assert.Error(t, err, "inverted semester period must be rejected")
}
