package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greenmart/groceryapi/internal/domain"
	"github.com/greenmart/groceryapi/internal/repository"
	"github.com/greenmart/groceryapi/pkg/errors"
)

type cartService struct {
	repos  *repository.Repositories
	tx     repository.TxManager
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(repos *repository.Repositories, tx repository.TxManager, logger *zap.Logger) *cartService {
	return &cartService{
		repos:  repos,
		tx:     tx,
		logger: logger,
	}
}

// GetCart returns the user's cart of the given type, creating it lazily
// on first access.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	if !cartType.IsValid() {
		return nil, &errors.ErrValidation{Message: "invalid cart type"}
	}

	cart, err := s.repos.Carts.GetByUserAndType(ctx, userID, cartType)
	if err == nil {
		return cart, nil
	}
	if _, ok := err.(*errors.ErrNotFound); !ok {
		return nil, err
	}

	cart = &domain.Cart{UserID: userID, Type: cartType}
	if err := s.repos.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem adds a product to the cart, or overwrites the quantity of an
// existing line. The unit price is captured at this moment; the cached
// cart aggregates are recomputed and persisted in the same transaction.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, cartType domain.CartType, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &errors.ErrValidation{Message: "quantity must be at least 1"}
	}

	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.InStock {
		return nil, &errors.ErrBusinessRule{Message: "product is out of stock: " + product.Title}
	}
	if stock, ok := product.StockUnits(); ok && quantity > stock {
		return nil, &errors.ErrBusinessRule{Message: "insufficient stock for product: " + product.Title}
	}

	// No cart line is ever committed at a zero or unparsable price.
	unitPrice := product.RegularSalePrice()
	if !unitPrice.IsPositive() {
		return nil, &errors.ErrInvalidPrice{Product: product.Title}
	}

	var result *domain.Cart
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		cart, err := s.getOrCreate(ctx, repos, userID, cartType)
		if err != nil {
			return err
		}

		item, err := repos.Carts.GetItem(ctx, cart.ID, productID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); !ok {
				return err
			}
			item = &domain.CartItem{
				CartID:    cart.ID,
				ProductID: productID,
				Quantity:  quantity,
				Price:     unitPrice,
			}
			if err := repos.Carts.CreateItem(ctx, item); err != nil {
				return err
			}
		} else {
			item.UpdateQuantity(quantity, unitPrice)
			if err := repos.Carts.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		result, err = s.recalculate(ctx, repos, userID, cartType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItemQuantity overwrites the quantity of an existing cart line,
// re-capturing the product's current unit price alongside it.
func (s *cartService) UpdateItemQuantity(ctx context.Context, userID uuid.UUID, cartType domain.CartType, productID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, &errors.ErrValidation{Message: "quantity must be at least 1"}
	}

	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if !product.InStock {
		return nil, &errors.ErrBusinessRule{Message: "product is out of stock: " + product.Title}
	}
	if stock, ok := product.StockUnits(); ok && quantity > stock {
		return nil, &errors.ErrBusinessRule{Message: "insufficient stock for product: " + product.Title}
	}

	unitPrice := product.RegularSalePrice()
	if !unitPrice.IsPositive() {
		return nil, &errors.ErrInvalidPrice{Product: product.Title}
	}

	var result *domain.Cart
	err = s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
		if err != nil {
			return err
		}

		item, err := repos.Carts.GetItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}

		item.UpdateQuantity(quantity, unitPrice)
		if err := repos.Carts.UpdateItem(ctx, item); err != nil {
			return err
		}

		result, err = s.recalculate(ctx, repos, userID, cartType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveItem deletes a line from the cart and recomputes the aggregates.
func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, cartType domain.CartType, productID uuid.UUID) (*domain.Cart, error) {
	var result *domain.Cart
	err := s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
		if err != nil {
			return err
		}

		deleted, err := repos.Carts.DeleteItem(ctx, cart.ID, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return &errors.ErrNotFound{Resource: "cart item", ID: productID.String()}
		}

		result, err = s.recalculate(ctx, repos, userID, cartType)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ClearCart removes every item and zeroes the cached totals. The cart
// row itself survives.
func (s *cartService) ClearCart(ctx context.Context, userID uuid.UUID, cartType domain.CartType) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context, repos *repository.Repositories) error {
		cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
		if err != nil {
			return err
		}
		return clearCart(ctx, repos, cart)
	})
}

func (s *cartService) getOrCreate(ctx context.Context, repos *repository.Repositories, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
	if err == nil {
		return cart, nil
	}
	if _, ok := err.(*errors.ErrNotFound); !ok {
		return nil, err
	}

	cart = &domain.Cart{UserID: userID, Type: cartType}
	if err := repos.Carts.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// recalculate reloads the cart with its items, recomputes the cached
// aggregates against current wholesale pricing and persists them.
func (s *cartService) recalculate(ctx context.Context, repos *repository.Repositories, userID uuid.UUID, cartType domain.CartType) (*domain.Cart, error) {
	cart, err := repos.Carts.GetByUserAndType(ctx, userID, cartType)
	if err != nil {
		return nil, err
	}

	products, err := cartProducts(ctx, repos, cart)
	if err != nil {
		return nil, err
	}

	cart.Recalculate(products)
	if err := repos.Carts.SaveTotals(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func cartProducts(ctx context.Context, repos *repository.Repositories, cart *domain.Cart) (map[uuid.UUID]*domain.Product, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	return repos.Products.GetByIDs(ctx, ids)
}

// clearCart is shared with the checkout flows: items are removed and the
// aggregates zeroed in whatever transaction the caller runs.
func clearCart(ctx context.Context, repos *repository.Repositories, cart *domain.Cart) error {
	if err := repos.Carts.DeleteItems(ctx, cart.ID); err != nil {
		return err
	}
	cart.ResetTotals()
	return repos.Carts.SaveTotals(ctx, cart)
}
