package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastArgon = config.PasswordConfig{ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func newTestStore(now func() time.Time) *Store {
	return NewStore(Params{
		Password:    fastArgon,
		ShippingFee: types.NewMoney(checkout.DefaultShippingFee),
		Catalog:     SeedCatalog(),
		Now:         now,
	})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newTestStore(nil)
	ctx := context.Background()

	user, err := store.Register(ctx, "Amina", "Amina@Example.com", "Passw0rdOK")
	require.NoError(t, err)
	assert.Equal(t, "amina@example.com", user.Email)

	_, err = store.Register(ctx, "Other", "amina@example.com ", "Passw0rdOK")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = store.Register(ctx, "Weak", "weak@example.com", "weak")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	got, err := store.Authenticate(ctx, "AMINA@example.com", "Passw0rdOK")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = store.Authenticate(ctx, "amina@example.com", "wrong")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = store.Authenticate(ctx, "ghost@example.com", "Passw0rdOK")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	byID, ok := store.UserByID(user.ID)
	require.True(t, ok)
	assert.Equal(t, "Amina", byID.Name)
}

func TestPasswordResetFlow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(func() time.Time { return now })
	ctx := context.Background()

	_, err := store.Register(ctx, "Amina", "amina@example.com", "Passw0rdOK")
	require.NoError(t, err)

	_, ok, err := store.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	token, ok, err := store.RequestPasswordReset(ctx, "amina@example.com")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.ResetPassword(ctx, token, "NewPassw0rd!"))
	_, err = store.Authenticate(ctx, "amina@example.com", "NewPassw0rd!")
	require.NoError(t, err)

	err = store.ResetPassword(ctx, token, "Another1!")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "tokens are single use")

	expiring, _, err := store.RequestPasswordReset(ctx, "amina@example.com")
	require.NoError(t, err)
	now = now.Add(2 * time.Hour)
	err = store.ResetPassword(ctx, expiring, "Another1!x")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCartOperations(t *testing.T) {
	store := newTestStore(nil)
	ctx := context.Background()
	userID := uuid.New()

	lines, err := store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "1", Size: "40", Quantity: 2})
	require.NoError(t, err)
	lines, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "1", Size: "40", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, types.ID("1-40"), lines[0].ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Linen Shirt", lines[0].Name)

	_, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "1", Size: "XL", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "404", Quantity: 1})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "9", Quantity: 0})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	lines, err = store.UpdateCartItem(userID, "1-40", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, lines[0].Quantity)
	_, err = store.UpdateCartItem(userID, "1-40", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = store.UpdateCartItem(userID, "missing", 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	assert.Len(t, store.RemoveCartItem(userID, "missing"), 1)
	assert.Empty(t, store.RemoveCartItem(userID, "1-40"))

	_, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "9", Quantity: 1})
	require.NoError(t, err)
	assert.Empty(t, store.ClearCart(userID))
	assert.Empty(t, store.Cart(userID))
}

func TestMergeCartCoalescesAndUsesCatalogPrices(t *testing.T) {
	store := newTestStore(nil)
	ctx := context.Background()
	userID := uuid.New()

	_, err := store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "9", Quantity: 1})
	require.NoError(t, err)

	guest := []cart.Line{
		{ID: "9", ProductID: "9", Name: "tampered", Price: types.NewMoney(1), Quantity: 2},
		{ID: "5-41", ProductID: "5", Size: "41", Quantity: 1},
		{ID: "5-41", ProductID: "5", Size: "41", Quantity: 1},
		{ID: "404", ProductID: "404", Quantity: 1},
		{ID: "5-99", ProductID: "5", Size: "99", Quantity: 1},
	}
	lines := store.MergeCart(ctx, userID, guest)

	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "Wool Scarf", lines[0].Name)
	assert.True(t, lines[0].Price.Equal(types.NewMoney(900)))
	assert.Equal(t, types.ID("5-41"), lines[1].ID)
	assert.Equal(t, 2, lines[1].Quantity)
}

func TestFavourites(t *testing.T) {
	store := newTestStore(nil)
	userID := uuid.New()

	require.NoError(t, store.AddFavourite(userID, "3"))
	require.NoError(t, store.AddFavourite(userID, "3"))
	require.NoError(t, store.AddFavourite(userID, "5"))
	assert.True(t, pkgerrors.IsCode(store.AddFavourite(userID, "404"), pkgerrors.CodeNotFound))

	favs := store.Favourites(userID)
	require.Len(t, favs, 2)
	assert.Equal(t, "Denim Jacket", favs[0].Name)

	store.RemoveFavourite(userID, "3")
	store.RemoveFavourite(userID, "404")
	favs = store.Favourites(userID)
	require.Len(t, favs, 1)
	assert.Equal(t, types.ID("5"), favs[0].ID)
}

func TestStkPushChecksAmount(t *testing.T) {
	store := newTestStore(nil)
	ctx := context.Background()
	userID := uuid.New()
	shipping := checkout.ShippingDetails{Name: "Amina", Address: "12 Moi Avenue", City: "Nairobi", PostalCode: "00100", Phone: "0712345678"}

	_, err := store.StkPush(ctx, userID, checkout.StkPushRequest{Phone: "0712345678", ShippingDetails: shipping, Amount: types.NewMoney(500)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = store.AddToCart(ctx, userID, cart.AddRequest{ProductID: "9", Quantity: 2})
	require.NoError(t, err)

	_, err = store.StkPush(ctx, userID, checkout.StkPushRequest{Phone: "0712345678", ShippingDetails: shipping, Amount: types.NewMoney(1800)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeServerRejected, typed.Code())
	assert.Equal(t, "Expected 2300.00 but received 1800.00.", typed.Details())

	resp, err := store.StkPush(ctx, userID, checkout.StkPushRequest{Phone: "0712345678", ShippingDetails: shipping, Amount: types.NewMoney(2300)})
	require.NoError(t, err)
	assert.Equal(t, "Success. Request accepted for processing", resp.CustomerMessage)
	assert.NotEmpty(t, resp.CheckoutRequestID)

	_, err = store.StkPush(ctx, userID, checkout.StkPushRequest{Phone: "0712345678", Amount: types.NewMoney(2300)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
