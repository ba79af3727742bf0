package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/ManuelReschke/DealerHub/app/models"
	"github.com/ManuelReschke/DealerHub/internal/pkg/database"
	"github.com/ManuelReschke/DealerHub/internal/pkg/env"
)

// seed inserts a trialing dealer group and a pending checkout session so a
// checkout.session.completed event can be replayed locally, e.g.
//
//	stripe trigger checkout.session.completed \
//	  --add checkout_session:metadata.checkout_session_id=<printed id>
func main() {
	env.SetupEnvFile()
	cfg, err := env.Load()
	if err != nil {
		log.Fatal(err)
	}

	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	selections, err := parseSelections(os.Args[2:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal(err)
	}

	group := &models.DealerGroup{Name: os.Args[1]}
	if err := db.Create(group).Error; err != nil {
		log.Fatalf("create dealer group: %v", err)
	}

	session := &models.CheckoutSession{
		ID:            "cs_local_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		DealerGroupID: group.ID,
		Status:        models.CheckoutStatusPending,
		Selections:    selections,
	}
	if err := db.Create(session).Error; err != nil {
		log.Fatalf("create checkout session: %v", err)
	}

	fmt.Printf("dealer_group_id=%s\ncheckout_session_id=%s\n", group.ID, session.ID)
}

// parseSelections reads "dealership-uuid:project-slug:tier" arguments.
func parseSelections(args []string) ([]models.CheckoutSelection, error) {
	out := make([]models.CheckoutSelection, 0, len(args))
	for i, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("selection %q: want dealership:slug:tier", arg)
		}
		sel := models.CheckoutSelection{
			Position:     i,
			DealershipID: parts[0],
			ProjectSlug:  parts[1],
			Tier:         parts[2],
		}
		if err := sel.Validate(); err != nil {
			return nil, fmt.Errorf("selection %q: %w", arg, err)
		}
		out = append(out, sel)
	}
	return out, nil
}

func printUsage() {
	fmt.Println("Usage: seed <group-name> <dealership-uuid:project-slug:tier>...")
	fmt.Println("Example: seed \"Northside Motors\" 0f8c2f5e-5b8e-4c59-9a52-0c1f3b0f6a11:service:pro")
}
