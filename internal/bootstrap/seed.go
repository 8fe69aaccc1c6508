package bootstrap

import (
	"context"
	"errors"

	"anoa.com/poemhub/internal/model"
	"anoa.com/poemhub/internal/repository"
	"anoa.com/poemhub/pkg/apperror"
	"anoa.com/poemhub/pkg/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	AdminUsername = "admin"
	AdminEmail    = "admin@poemhub.local"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Poem{},
		&model.Comment{},
		&model.PoemLike{},
	)
}

// SeedAdminUser creates the ADMIN account unless a user with its username
// already exists.
func SeedAdminUser(ctx context.Context, users repository.UserRepository, password string, log logger.Logger) error {
	_, err := users.FindByUsername(ctx, AdminUsername)
	if err == nil {
		log.Debug("admin user already exists, skipping seed", nil)
		return nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := &model.User{
		Username:     AdminUsername,
		Email:        AdminEmail,
		PasswordHash: string(hashedPasswordBytes),
		Role:         "ADMIN",
	}
	if err := users.Create(ctx, adminUser); err != nil {
		return err
	}

	log.Info("admin user seeded", map[string]interface{}{"username": AdminUsername, "email": AdminEmail})
	return nil
}

// SeedPoems adds a few poems to an empty store so a fresh stub has
// something to show.
func SeedPoems(ctx context.Context, poems repository.PoemRepository) error {
	existing, err := poems.FindAll(ctx)
	if err != nil || len(existing) > 0 {
		return err
	}

	seed := []model.Poem{
		{
			Title:    "Ozymandias",
			Author:   "Percy Bysshe Shelley",
			Text:     "I met a traveller from an antique land,\nWho said: Two vast and trunkless legs of stone\nStand in the desert.",
			PostDate: "11/01/1818",
		},
		{
			Title:    "The Tyger",
			Author:   "William Blake",
			Text:     "Tyger Tyger, burning bright,\nIn the forests of the night;\nWhat immortal hand or eye,\nCould frame thy fearful symmetry?",
			PostDate: "01/01/1794",
		},
		{
			Title:    "Because I could not stop for Death",
			Author:   "Emily Dickinson",
			Text:     "Because I could not stop for Death,\nHe kindly stopped for me;\nThe carriage held but just ourselves\nAnd Immortality.",
			PostDate: "01/01/1890",
		},
	}
	for i := range seed {
		if err := poems.Save(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}
