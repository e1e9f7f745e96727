package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/examhall/examhall-backend/internal/config"
	"github.com/examhall/examhall-backend/internal/service"
)

// issue-token mints a development JWT for manual testing. Identity comes
// from an external provider in production; this tool stands in for it.
func main() {
	var (
		candidateID string
		adminID     string
	)
	flag.StringVar(&candidateID, "candidate", "", "Candidate ID to mint a candidate token for")
	flag.StringVar(&adminID, "admin", "", "Admin ID to mint an admin token for")
	flag.Parse()

	if (candidateID == "") == (adminID == "") {
		log.Fatal("exactly one of -candidate or -admin must be set")
	}

	cfg := config.Load()
	authService := service.NewAuthService(cfg)

	var (
		token string
		err   error
	)
	if candidateID != "" {
		token, err = authService.GenerateCandidateToken(candidateID)
	} else {
		token, err = authService.GenerateAdminToken(adminID)
	}
	if err != nil {
		log.Fatalf("Token generation failed: %v", err)
	}

	fmt.Println(token)
}
