// Command tokengen выпускает токен сессии с явной ролью,
// например для автора: tokengen -user alice -role writer
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/UkralStul/content-approval-service/internal/config"
	"github.com/UkralStul/content-approval-service/internal/domain"
	"github.com/UkralStul/content-approval-service/internal/identity"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	user := flag.String("user", "", "User id to put into the token subject")
	role := flag.String("role", string(domain.RoleWriter), "Role claim: writer or client")
	flag.Parse()

	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	issuer, err := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		logrus.Fatalf("identity: %v", err)
	}
	tok, err := issuer.Issue(*user, domain.Role(*role))
	if err != nil {
		logrus.Fatalf("issue token: %v", err)
	}
	fmt.Println(tok)
}
