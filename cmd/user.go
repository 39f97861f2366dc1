// cmd/user.go
package cmd

import (
	"context"
	"fmt"

	"example.com/coldchain/config"
	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/notifier"
	"example.com/coldchain/internal/service"

	"github.com/spf13/cobra"
)

var (
	userName  string
	userEmail string
	userRole  string
)

// userCmd represents the user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage operator accounts",
	Long:  `Create and list operator accounts and their API tokens.`,
}

// createUserCmd represents the create command
var createUserCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new operator account",
	Long: `Create a new operator account with one of the roles:
  admin:      full access including user management
  manager:    read/write access to sensors, rules, and tickets
  technician: ticket handling and read access
  viewer:     read-only access`,
	Run: func(cmd *cobra.Command, args []string) {
		createUser()
	},
}

// listUsersCmd represents the list command
var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List all operator accounts",
	Run: func(cmd *cobra.Command, args []string) {
		listUsers()
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
	userCmd.AddCommand(listUsersCmd)

	createUserCmd.Flags().StringVar(&userName, "username", "", "Username for the new account")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "Email address for notifications")
	createUserCmd.Flags().StringVar(&userRole, "role", "viewer", "Role (admin, manager, technician, viewer)")
	createUserCmd.MarkFlagRequired("username")
}

func newLocalService() (service.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { database.Close(db) }

	svc, err := service.NewService(service.ServiceConfig{
		DB: db,
		Dispatcher: notifier.NewDispatcher(
			notifier.NewEmailSender(cfg.SMTP),
			notifier.NewTelegramSender(cfg.Telegram),
			notifier.NewWhatsAppSender(cfg.WhatsApp),
			log,
		),
		Logger: log,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// createUser provisions an account and prints its API token once
func createUser() {
	svc, cleanup, err := newLocalService()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	user := &models.User{
		Username: userName,
		Email:    userEmail,
		Role:     models.UserRole(userRole),
		IsActive: true,
	}

	if err := svc.CreateUser(context.Background(), user, nil); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Created user %s (%s)\n", user.Username, user.Role)
	fmt.Printf("API token: %s\n", user.APIToken)
	fmt.Println("Store this token now; it is not shown again.")
}

func listUsers() {
	svc, cleanup, err := newLocalService()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer cleanup()

	users, err := svc.ListUsers(context.Background())
	if err != nil {
		log.Fatalf("Failed to list users: %v", err)
	}

	fmt.Printf("%-36s  %-20s  %-12s  %-7s  %s\n", "ID", "USERNAME", "ROLE", "ACTIVE", "EMAIL")
	for _, u := range users {
		fmt.Printf("%-36s  %-20s  %-12s  %-7t  %s\n", u.ID, u.Username, u.Role, u.IsActive, u.Email)
	}
}
