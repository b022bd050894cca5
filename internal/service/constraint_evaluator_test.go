package service

import (
	"testing"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"

	"github.com/shopspring/decimal"
)

func testCartContext() cartContext {
	return buildCartContext([]CartItem{
		{ProductID: 100, SkuID: 501, Quantity: 2, UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("60"))},
		{ProductID: 200, Quantity: 1, UnitPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("30"))},
	}, constants.UserClassFirstPurchase)
}

func campaignWith(constraints ...models.Constraint) *models.Campaign {
	return &models.Campaign{ID: 1, Constraints: constraints}
}

func TestBuildCartContext(t *testing.T) {
	ctx := testCartContext()
	if !ctx.total.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("total want 150 got %s", ctx.total)
	}
	if ctx.qtyBySpu[100] != 2 || ctx.qtyBySpu[200] != 1 {
		t.Fatalf("spu quantities mismatch: %v", ctx.qtyBySpu)
	}
	if ctx.qtyBySku[501] != 2 {
		t.Fatalf("sku quantities mismatch: %v", ctx.qtyBySku)
	}
	if _, ok := ctx.qtyBySku[0]; ok {
		t.Fatalf("zero sku must not be indexed")
	}
}

func TestEvaluateConstraintsOrderPrice(t *testing.T) {
	ctx := testCartContext()

	gte := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeGTE,
		LimitType:   constants.LimitTypeOrderPrice,
		RangeValue:  "100",
	})
	if !evaluateConstraints(gte, ctx) {
		t.Fatalf("total 150 should satisfy gte 100")
	}

	lte := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeLTE,
		LimitType:   constants.LimitTypeOrderPrice,
		RangeValue:  "100",
	})
	if evaluateConstraints(lte, ctx) {
		t.Fatalf("total 150 should fail lte 100")
	}
}

func TestEvaluateConstraintsUserClass(t *testing.T) {
	ctx := testCartContext()

	equal := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeEqual,
		LimitType:   constants.LimitTypeFirstPurchaseUser,
		RangeValue:  constants.UserClassFirstPurchase,
	})
	if !evaluateConstraints(equal, ctx) {
		t.Fatalf("first purchase user should satisfy equal constraint")
	}

	notEqual := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeNotEqual,
		LimitType:   constants.LimitTypeRepurchaseUser,
		RangeValue:  constants.UserClassRepurchase,
	})
	if !evaluateConstraints(notEqual, ctx) {
		t.Fatalf("first purchase user should satisfy not_equal repurchase")
	}

	missing := buildCartContext(nil, "")
	if evaluateConstraints(equal, missing) {
		t.Fatalf("empty user class must not satisfy an equal user constraint")
	}
}

func TestEvaluateConstraintsSpuList(t *testing.T) {
	ctx := testCartContext()

	in := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeIn,
		LimitType:   constants.LimitTypeSpuID,
		RangeValue:  "100,300",
	})
	if !evaluateConstraints(in, ctx) {
		t.Fatalf("cart containing spu 100 should satisfy in list")
	}

	notIn := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeNotIn,
		LimitType:   constants.LimitTypeSpuID,
		RangeValue:  "100",
	})
	if evaluateConstraints(notIn, ctx) {
		t.Fatalf("cart containing spu 100 should fail not_in 100")
	}

	skuIn := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeIn,
		LimitType:   constants.LimitTypeSkuID,
		RangeValue:  "501",
	})
	if !evaluateConstraints(skuIn, ctx) {
		t.Fatalf("cart containing sku 501 should satisfy in list")
	}
}

func TestEvaluateConstraintsPerQuantityAllMustSatisfy(t *testing.T) {
	ctx := testCartContext()

	// SPU 数量分别为 2 和 1，gte 1 全部满足
	pass := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeGTE,
		LimitType:   constants.LimitTypeSpuPerQuantity,
		RangeValue:  "1",
	})
	if !evaluateConstraints(pass, ctx) {
		t.Fatalf("all spu quantities >= 1 should pass")
	}

	// gte 2 时数量为 1 的 SPU 不满足，整体失败
	fail := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeGTE,
		LimitType:   constants.LimitTypeSpuPerQuantity,
		RangeValue:  "2",
	})
	if evaluateConstraints(fail, ctx) {
		t.Fatalf("spu with quantity 1 should fail gte 2")
	}
}

func TestEvaluateConstraintsConjunction(t *testing.T) {
	ctx := testCartContext()
	campaign := campaignWith(
		models.Constraint{
			CompareType: constants.CompareTypeGTE,
			LimitType:   constants.LimitTypeOrderPrice,
			RangeValue:  "100",
		},
		models.Constraint{
			CompareType: constants.CompareTypeIn,
			LimitType:   constants.LimitTypeSpuID,
			RangeValue:  "999",
		},
	)
	if evaluateConstraints(campaign, ctx) {
		t.Fatalf("any unmet constraint excludes the campaign")
	}
}

func TestEvaluateConstraintsFailClosedOnBadConfig(t *testing.T) {
	ctx := testCartContext()

	badValue := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeGTE,
		LimitType:   constants.LimitTypeOrderPrice,
		RangeValue:  "not-a-number",
	})
	if evaluateConstraints(badValue, ctx) {
		t.Fatalf("unparsable range value must fail closed")
	}

	badLimit := campaignWith(models.Constraint{
		CompareType: constants.CompareTypeGTE,
		LimitType:   "unknown_dimension",
		RangeValue:  "1",
	})
	if evaluateConstraints(badLimit, ctx) {
		t.Fatalf("unknown limit type must fail closed")
	}

	badCompare := campaignWith(models.Constraint{
		CompareType: "approximately",
		LimitType:   constants.LimitTypeOrderPrice,
		RangeValue:  "100",
	})
	if evaluateConstraints(badCompare, ctx) {
		t.Fatalf("unknown compare type must fail closed")
	}
}

func TestParseIDList(t *testing.T) {
	ids, ok := parseIDList(" 1, 2,3 ")
	if !ok || len(ids) != 3 {
		t.Fatalf("valid list should parse, got %v ok=%v", ids, ok)
	}
	if _, ok := parseIDList(""); ok {
		t.Fatalf("empty list must be rejected")
	}
	if _, ok := parseIDList("1,x"); ok {
		t.Fatalf("non-numeric entry must be rejected")
	}
	if _, ok := parseIDList("-1"); ok {
		t.Fatalf("negative entry must be rejected")
	}
}
