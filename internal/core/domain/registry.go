package domain

// Registry holds every item ever listed. It does no locking; callers
// serialize access.
type Registry struct {
	owner   Address
	nextSku uint64
	items   map[uint64]Item
}

func NewRegistry(owner Address) *Registry {
	return &Registry{
		owner: owner,
		items: make(map[uint64]Item),
	}
}

func (r *Registry) Owner() Address {
	return r.owner
}

func (r *Registry) NextSku() uint64 {
	return r.nextSku
}

// Add lists a new item for sale by seller and returns it with its sku.
func (r *Registry) Add(seller Address, name string, price uint64) Item {
	item := Item{
		Name:   name,
		Sku:    r.nextSku,
		Price:  price,
		State:  StateForSale,
		Seller: seller,
	}
	r.items[item.Sku] = item
	r.nextSku++
	return item
}

func (r *Registry) Get(sku uint64) (Item, error) {
	item, ok := r.items[sku]
	if !ok {
		return Item{}, &NotFoundError{Sku: sku}
	}
	return item, nil
}

// Put replaces the record of an already listed item. Sku and seller are
// immutable, so a record that changes either is rejected.
func (r *Registry) Put(item Item) error {
	current, ok := r.items[item.Sku]
	if !ok {
		return &NotFoundError{Sku: item.Sku}
	}
	if current.Seller != item.Seller {
		return &AuthorizationError{Sku: item.Sku, Expected: current.Seller, Actual: item.Seller}
	}
	r.items[item.Sku] = item
	return nil
}
