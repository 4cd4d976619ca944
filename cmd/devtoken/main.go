// Command devtoken prints a signed access token for local development.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"mealplan-backend/internal/auth"
	"mealplan-backend/internal/config"
)

func main() {
	user := flag.String("user", "dev", "subject of the token")
	household := flag.String("household", "", "default household for the scope middleware")
	roles := flag.String("roles", "member", "comma-separated roles")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.GenerateAccessToken(*user, *household, roleList, cfg.Auth.JWTSecret, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
