package broker

// RegisterDefaults registers the built-in broker plugins on a registry.
// Each plugin constructs a fresh adapter per CreateBroker call so sessions
// never leak between accounts.
func RegisterDefaults(reg *Registry, shoonyaCfg ShoonyaConfig, fyersCfg FyersConfig) {
	reg.Register(Plugin{
		Name:         BrokerShoonya,
		Version:      "1.0.0",
		Description:  "Shoonya (Finvasia) direct-auth REST adapter",
		Capabilities: []string{"orders", "positions", "quotes", "search", "trades"},
		New: func() Broker {
			return NewShoonyaBroker(shoonyaCfg)
		},
	})
	reg.Register(Plugin{
		Name:         BrokerFyers,
		Version:      "1.0.0",
		Description:  "Fyers OAuth2 authorization-code adapter",
		Capabilities: []string{"orders", "positions", "quotes", "search"},
		New: func() Broker {
			return NewFyersBroker(fyersCfg)
		},
	})
}
