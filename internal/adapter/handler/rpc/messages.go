package rpc

type AddItemRequest struct {
	Name  string `json:"name"`
	Price uint64 `json:"price"`
}

type AddItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Sku     uint64 `json:"sku"`
}

type BuyItemRequest struct {
	RequestId string `json:"request_id"`
	Sku       uint64 `json:"sku"`
	Amount    uint64 `json:"amount"`
}

type SkuRequest struct {
	Sku uint64 `json:"sku"`
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

type Item struct {
	Name   string `json:"name"`
	Sku    uint64 `json:"sku"`
	Price  uint64 `json:"price"`
	State  uint32 `json:"state"`
	Seller string `json:"seller"`
	Buyer  string `json:"buyer"`
}

type FetchItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Item    *Item  `json:"item,omitempty"`
}
