package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/SscSPs/cashdesk/internal/commands"
)

// @title Cashdesk API
// @version 1.0
// @description Cash register sessions, movement ledger, reconciliation and cash reports.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
