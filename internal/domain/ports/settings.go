package ports

// CheckoutSettings exposes the connector options the services read at call time
type CheckoutSettings interface {
	CheckoutSuccessStatus() string
	TriggerActions() bool
	IsProviderMethod(method string) bool
}
