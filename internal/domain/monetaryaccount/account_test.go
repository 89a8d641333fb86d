package monetaryaccount

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestParams() NewAccountParams {
	return NewAccountParams{
		CompanyID:    uuid.New(),
		CategoryID:   uuid.New(),
		Counterparty: "Lab Diagnostics Ltd",
		Original:     dec("1000"),
		Discount:     dec("100"),
		Interest:     dec("50"),
		Penalty:      dec("0"),
		IssueDate:    time.Now().AddDate(0, 0, -5),
		DueDate:      time.Now().AddDate(0, 0, 25),
		CreatedBy:    uuid.New(),
	}
}

func TestComputeNet(t *testing.T) {
	net := ComputeNet(dec("1000"), dec("100"), dec("50"), dec("0"))
	assert.True(t, net.Equal(dec("950")), "net should be 1000 - 100 + 50 + 0 = 950, got %s", net)
}

func TestDeriveStatus(t *testing.T) {
	testCases := []struct {
		name      string
		settled   string
		net       string
		cancelled bool
		expected  Status
	}{
		{"NothingSettled", "0", "950", false, StatusPending},
		{"PartiallySettled", "400", "950", false, StatusPartial},
		{"ExactlySettled", "950", "950", false, StatusSettled},
		{"OverSettledStillSettled", "1000", "950", false, StatusSettled},
		{"CancelledWinsOverPending", "0", "950", true, StatusCancelled},
		{"CancelledWinsOverPartial", "400", "950", true, StatusCancelled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveStatus(dec(tc.settled), dec(tc.net), tc.cancelled)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		p := newTestParams()
		acc, err := NewAccount(shared.AccountKindPayable, p)

		require.NoError(t, err)
		require.NotNil(t, acc)

		assert.NotEqual(t, uuid.Nil, acc.ID)
		assert.Equal(t, shared.AccountKindPayable, acc.Kind)
		assert.True(t, acc.Net.Equal(dec("950")), "net should be 950, got %s", acc.Net)
		assert.True(t, acc.Settled.IsZero())
		assert.Equal(t, StatusPending, acc.Status)
		assert.Equal(t, 1, acc.Version)
		assert.Equal(t, p.CreatedBy, acc.CreatedBy)
		assert.Equal(t, p.CreatedBy, acc.UpdatedBy)
		assert.Nil(t, acc.SettledOn)
	})

	t.Run("NonPositiveOriginalRejected", func(t *testing.T) {
		p := newTestParams()
		p.Original = dec("0")

		acc, err := NewAccount(shared.AccountKindPayable, p)
		assert.Nil(t, acc)
		assert.ErrorIs(t, err, shared.ValidationError{Field: "original", Reason: "must be positive"})
	})

	t.Run("NegativeDiscountRejected", func(t *testing.T) {
		p := newTestParams()
		p.Discount = dec("-1")

		_, err := NewAccount(shared.AccountKindPayable, p)
		var vErr shared.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "discount", vErr.Field)
	})

	t.Run("NonPositiveNetRejected", func(t *testing.T) {
		p := newTestParams()
		p.Original = dec("100")
		p.Discount = dec("100")
		p.Interest = dec("0")

		_, err := NewAccount(shared.AccountKindReceivable, p)
		var vErr shared.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "net", vErr.Field)
	})
}

func TestAccount_RecordSettlement(t *testing.T) {
	newPayable := func(t *testing.T) *Account {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		return acc
	}

	t.Run("FullLifecycle", func(t *testing.T) {
		// original=1000, discount=100, interest=50, penalty=0 -> net=950
		acc := newPayable(t)
		on := time.Now()

		require.NoError(t, acc.RecordSettlement(dec("400"), on, shared.PaymentMethodTransfer))
		assert.Equal(t, StatusPartial, acc.Status)
		assert.True(t, acc.Settled.Equal(dec("400")))
		assert.Nil(t, acc.SettledOn, "settlement date is only stamped when fully settled")

		require.NoError(t, acc.RecordSettlement(dec("550"), on, shared.PaymentMethodTransfer))
		assert.Equal(t, StatusSettled, acc.Status)
		assert.True(t, acc.Settled.Equal(dec("950")))
		require.NotNil(t, acc.SettledOn)
		assert.True(t, acc.SettledOn.Equal(on))

		err := acc.RecordSettlement(dec("1"), on, shared.PaymentMethodTransfer)
		assert.ErrorIs(t, err, ErrInvalidState{AccountID: acc.ID, Status: StatusSettled, Operation: "settle"})
	})

	t.Run("ExcessRejected", func(t *testing.T) {
		acc := newPayable(t)

		err := acc.RecordSettlement(dec("950.01"), time.Now(), shared.PaymentMethodCash)
		var vErr shared.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, StatusPending, acc.Status)
		assert.True(t, acc.Settled.IsZero(), "rejected settlement must not move the settled total")
	})

	t.Run("ExcessAfterPartialRejected", func(t *testing.T) {
		acc := newPayable(t)
		require.NoError(t, acc.RecordSettlement(dec("900"), time.Now(), shared.PaymentMethodCash))

		err := acc.RecordSettlement(dec("51"), time.Now(), shared.PaymentMethodCash)
		var vErr shared.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.True(t, acc.Settled.Equal(dec("900")))
		assert.Equal(t, StatusPartial, acc.Status)
	})

	t.Run("NonPositiveAmountRejected", func(t *testing.T) {
		acc := newPayable(t)

		err := acc.RecordSettlement(dec("0"), time.Now(), shared.PaymentMethodCash)
		var vErr shared.ValidationError
		assert.ErrorAs(t, err, &vErr)

		err = acc.RecordSettlement(dec("-5"), time.Now(), shared.PaymentMethodCash)
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("CancelledAccountRejected", func(t *testing.T) {
		acc := newPayable(t)
		require.NoError(t, acc.Cancel("duplicate entry"))

		err := acc.RecordSettlement(dec("100"), time.Now(), shared.PaymentMethodCash)
		var stateErr ErrInvalidState
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, StatusCancelled, stateErr.Status)
	})

	t.Run("SettledNeverExceedsNet", func(t *testing.T) {
		// Any interleaving of settlements summing past net must have the
		// excess rejected.
		acc := newPayable(t)
		amounts := []string{"300", "300", "300", "300", "300"}
		for _, a := range amounts {
			_ = acc.RecordSettlement(dec(a), time.Now(), shared.PaymentMethodCash)
			assert.True(t, acc.Settled.LessThanOrEqual(acc.Net),
				"settled %s exceeds net %s", acc.Settled, acc.Net)
			assert.Equal(t, DeriveStatus(acc.Settled, acc.Net, false), acc.Status)
		}
	})
}

func TestAccount_Cancel(t *testing.T) {
	t.Run("PendingCancelledWithReason", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)

		require.NoError(t, acc.Cancel("duplicate entry"))
		assert.Equal(t, StatusCancelled, acc.Status)
		assert.Contains(t, acc.Notes, "duplicate entry")
		assert.Contains(t, acc.Notes, "[cancelled ")
	})

	t.Run("PartialCancelled", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindReceivable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.RecordSettlement(dec("100"), time.Now(), shared.PaymentMethodPix))

		require.NoError(t, acc.Cancel(""))
		assert.Equal(t, StatusCancelled, acc.Status)
	})

	t.Run("SettledCannotBeCancelled", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.RecordSettlement(dec("950"), time.Now(), shared.PaymentMethodCash))

		err = acc.Cancel("too late")
		var stateErr ErrInvalidState
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "cancel", stateErr.Operation)
	})

	t.Run("CancelIsTerminal", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.Cancel("first"))

		assert.Error(t, acc.Cancel("second"))
	})
}

func TestAccount_ApplyPatch(t *testing.T) {
	t.Run("AmountPatchRecomputesNet", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)

		discount := dec("200")
		require.NoError(t, acc.ApplyPatch(UpdatePatch{Discount: &discount}))
		assert.True(t, acc.Net.Equal(dec("850")), "net should be 1000 - 200 + 50, got %s", acc.Net)
		assert.Equal(t, 2, acc.Version)
	})

	t.Run("MergedNetMustStayPositive", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)

		discount := dec("1050")
		err = acc.ApplyPatch(UpdatePatch{Discount: &discount})
		var vErr shared.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "net", vErr.Field)
		assert.True(t, acc.Net.Equal(dec("950")), "failed patch must not change amounts")
	})

	t.Run("AmountsFrozenAfterSettlementBegins", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.RecordSettlement(dec("100"), time.Now(), shared.PaymentMethodCash))

		original := dec("2000")
		err = acc.ApplyPatch(UpdatePatch{Original: &original})
		var stateErr ErrInvalidState
		assert.ErrorAs(t, err, &stateErr)
	})

	t.Run("NonAmountPatchDoesNotTouchSettledOrStatus", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindReceivable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.RecordSettlement(dec("400"), time.Now(), shared.PaymentMethodCard))

		notes := "insurance claim 4411"
		due := time.Now().AddDate(0, 1, 0)
		require.NoError(t, acc.ApplyPatch(UpdatePatch{Notes: &notes, DueDate: &due}))

		assert.Equal(t, StatusPartial, acc.Status)
		assert.True(t, acc.Settled.Equal(dec("400")))
		assert.Equal(t, notes, acc.Notes)
	})
}

func TestAccount_Helpers(t *testing.T) {
	t.Run("Outstanding", func(t *testing.T) {
		acc, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		require.NoError(t, acc.RecordSettlement(dec("400"), time.Now(), shared.PaymentMethodCash))

		assert.True(t, acc.Outstanding().Equal(dec("550")))
	})

	t.Run("IsOverdue", func(t *testing.T) {
		p := newTestParams()
		p.DueDate = time.Now().AddDate(0, 0, -1)
		acc, err := NewAccount(shared.AccountKindPayable, p)
		require.NoError(t, err)

		assert.True(t, acc.IsOverdue(time.Now()))

		require.NoError(t, acc.RecordSettlement(dec("950"), time.Now(), shared.PaymentMethodCash))
		assert.False(t, acc.IsOverdue(time.Now()), "settled accounts are never overdue")
	})

	t.Run("Direction", func(t *testing.T) {
		payable, err := NewAccount(shared.AccountKindPayable, newTestParams())
		require.NoError(t, err)
		receivable, err := NewAccount(shared.AccountKindReceivable, newTestParams())
		require.NoError(t, err)

		assert.Equal(t, shared.DirectionOut, payable.Direction())
		assert.Equal(t, shared.DirectionIn, receivable.Direction())
	})
}
