// Command createadmin seeds an initial admin account so a fresh deployment
// has someone who can log in and create the rest.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/useradmin/useradmin/internal/config"
	"github.com/useradmin/useradmin/internal/hash"
	"github.com/useradmin/useradmin/internal/models"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	name := flag.String("name", "Administrator", "display name")
	password := flag.String("password", "", "admin password (required, min 8 characters)")
	flag.Parse()

	if len(*password) < 8 {
		log.Fatal("password is required and must be at least 8 characters")
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	var count int64
	if err := db.Model(&models.User{}).
		Where("username = ? AND deleted_at IS NULL", *username).
		Count(&count).Error; err != nil {
		log.Fatalf("username check failed: %v", err)
	}
	if count > 0 {
		log.Fatalf("username %q is already taken", *username)
	}

	pwHash, err := hash.HashPassword(*password)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	admin := models.User{
		Username:     *username,
		Name:         *name,
		PasswordHash: pwHash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("cannot create admin: %v", err)
	}

	fmt.Printf("created admin %q with id %d\n", admin.Username, admin.ID)
}
