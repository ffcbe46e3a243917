package app

import (
	"fmt"

	identityRepository "github.com/buiducnhanit/management-system/internal/identity/repository"
	identityService "github.com/buiducnhanit/management-system/internal/identity/service"
	identityUseCase "github.com/buiducnhanit/management-system/internal/identity/usecase"
)

// UserRepository returns the user repository based on the database driver.
func (c *Container) UserRepository() (identityUseCase.UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// ActionTokenRepository returns the action token repository based on the
// database driver.
func (c *Container) ActionTokenRepository() (identityUseCase.ActionTokenRepository, error) {
	var err error
	c.actionTokenRepoInit.Do(func() {
		c.actionTokenRepo, err = c.initActionTokenRepository()
		if err != nil {
			c.initErrors["actionTokenRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["actionTokenRepo"]; exists {
		return nil, storedErr
	}
	return c.actionTokenRepo, nil
}

// PasswordService returns the bcrypt password service.
func (c *Container) PasswordService() identityService.PasswordService {
	c.passwordServiceInit.Do(func() {
		c.passwordService = identityService.NewPasswordService()
	})
	return c.passwordService
}

// PasswordGenerator returns the random password generator.
func (c *Container) PasswordGenerator() identityService.PasswordGenerator {
	c.passwordGeneratorInit.Do(func() {
		c.passwordGenerator = identityService.NewPasswordGenerator()
	})
	return c.passwordGenerator
}

// IdentityUseCase returns the identity use case.
func (c *Container) IdentityUseCase() (identityUseCase.IdentityUseCase, error) {
	var err error
	c.identityUseCaseInit.Do(func() {
		c.identityUseCase, err = c.initIdentityUseCase()
		if err != nil {
			c.initErrors["identityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityUseCase"]; exists {
		return nil, storedErr
	}
	return c.identityUseCase, nil
}

// initUserRepository creates the user repository based on the database driver.
func (c *Container) initUserRepository() (identityUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLUserRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initActionTokenRepository creates the action token repository based on the
// database driver.
func (c *Container) initActionTokenRepository() (identityUseCase.ActionTokenRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for action token repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return identityRepository.NewMySQLActionTokenRepository(db), nil
	case "postgres":
		return identityRepository.NewPostgreSQLActionTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initIdentityUseCase creates the identity use case with all its dependencies.
func (c *Container) initIdentityUseCase() (identityUseCase.IdentityUseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for identity use case: %w", err)
	}

	actionTokenRepo, err := c.ActionTokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get action token repository for identity use case: %w", err)
	}

	return identityUseCase.NewIdentityUseCase(
		userRepo,
		actionTokenRepo,
		c.PasswordService(),
		c.SecretService(),
	), nil
}
