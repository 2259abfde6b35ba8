package main

import (
	"github.com/dwarvesf/crypto-payment-backend/internal/server"
)

// @title Crypto Payment Backend API
// @version 1.0
// @description Reconciliation service for cryptocurrency payments.

// @host localhost:8080
// @BasePath /
func main() {
	server.Init()
}
